package repository

import (
	"context"
	"errors"

	"github.com/MayderC/zayrel-be/internal/models"
	"github.com/MayderC/zayrel-be/internal/repository/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	insertOrderQuery = `
						INSERT INTO orders (id, user_id, guest_name, guest_contact, guest_email, order_type, status, currency, shipping_address)
						VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
						RETURNING created_at, updated_at
`
	insertOrderItemQuery = `
						INSERT INTO order_items (order_id, variant_id, quantity, unit_price)
						VALUES ($1, $2, $3, $4)
						RETURNING id
`
	debitStockQuery = `
						UPDATE variants
						SET stock = stock - $2
						WHERE id = $1 AND stock >= $2
`
	creditStockQuery = `
						UPDATE variants
						SET stock = stock + $2
						WHERE id = $1
`
	selectOrderQuery = `
						SELECT id, user_id, guest_name, guest_contact, guest_email, order_type, status, currency,
						       shipping_address, tracking_number, shipping_provider,
						       proof_storage_ref, proof_method, proof_reference, proof_review_status, proof_reason,
						       created_at, updated_at
						FROM orders
						WHERE id = $1
`
	selectOrdersByStatusQuery = `
						SELECT id, user_id, guest_name, guest_contact, guest_email, order_type, status, currency,
						       shipping_address, tracking_number, shipping_provider,
						       proof_storage_ref, proof_method, proof_reference, proof_review_status, proof_reason,
						       created_at, updated_at
						FROM orders
						WHERE status = $1
						ORDER BY created_at DESC
`
	selectOrderItemsQuery = `
						SELECT id, order_id, variant_id, quantity, unit_price FROM order_items
						WHERE order_id = $1
						ORDER BY id
`
	transitionStatusQuery = `
						UPDATE orders
						SET status = $2, updated_at = now()
						WHERE id = $1 AND status = ANY($3)
`
	setTrackingQuery = `
						UPDATE orders
						SET tracking_number = $2, shipping_provider = $3, updated_at = now()
						WHERE id = $1
`
	mergeProofQuery = `
						UPDATE orders
						SET proof_storage_ref   = COALESCE(NULLIF($2, ''), proof_storage_ref),
						    proof_method        = COALESCE(NULLIF($3, ''), proof_method),
						    proof_reference     = COALESCE(NULLIF($4, ''), proof_reference),
						    proof_review_status = COALESCE(NULLIF($5, ''), proof_review_status),
						    proof_reason        = CASE
						                              WHEN $5 = 'verified' THEN ''
						                              ELSE COALESCE(NULLIF($6, ''), proof_reason)
						                          END,
						    updated_at          = now()
						WHERE id = $1
`
	promoteProofQuery = `
						UPDATE orders
						SET proof_review_status = 'verified', proof_reason = '', updated_at = now()
						WHERE id = $1 AND proof_review_status = 'pending'
`
	lockOrderStatusQuery = `
						SELECT status FROM orders
						WHERE id = $1
						FOR UPDATE
`
	selectItemQuantitiesQuery = `
						SELECT variant_id, quantity FROM order_items
						WHERE order_id = $1
`
)

// OrderRepository persists the order aggregate and is the only writer of the
// variant stock counter.
type OrderRepository struct {
	db *postgres.DB
}

// NewOrderRepository creates new OrderRepository instance
func NewOrderRepository(db *postgres.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateOrder inserts the order, its items and debits stock for every line in
// a single transaction. A debit miss on any variant aborts the whole
// transaction with models.ErrOutOfStock, so partial debits cannot survive.
func (or *OrderRepository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	tx, err := or.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var guestName, guestContact, guestEmail *string
	if g := order.Owner.Guest; g != nil {
		guestName, guestContact, guestEmail = &g.Name, &g.Contact, &g.Email
	}

	err = tx.QueryRow(ctx, insertOrderQuery,
		order.ID, order.Owner.UserID, guestName, guestContact, guestEmail,
		order.Type, order.Status, order.Currency, order.ShippingAddress,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID

		err = tx.QueryRow(ctx, insertOrderItemQuery, item.OrderID, item.VariantID, item.Quantity, item.UnitPrice).Scan(&item.ID)
		if err != nil {
			return nil, err
		}

		cmd, err := tx.Exec(ctx, debitStockQuery, item.VariantID, item.Quantity)
		if err != nil {
			return nil, err
		}
		if cmd.RowsAffected() == 0 {
			return nil, models.ErrOutOfStock
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return order, nil
}

// GetOrderByID returns order with its items
func (or *OrderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := or.scanOrder(or.db.QueryRow(ctx, selectOrderQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrOrderNotFound
		}
		return nil, err
	}

	rows, err := or.db.Query(ctx, selectOrderItemsQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		item := models.OrderItem{}
		err = rows.Scan(&item.ID, &item.OrderID, &item.VariantID, &item.Quantity, &item.UnitPrice)
		if err != nil {
			continue
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// GetOrdersByStatus returns orders in the given status, newest first,
// without their items.
func (or *OrderRepository) GetOrdersByStatus(ctx context.Context, status string) ([]models.Order, error) {
	rows, err := or.db.Query(ctx, selectOrdersByStatusQuery, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}

	for rows.Next() {
		order, err := or.scanOrder(rows)
		if err != nil {
			continue
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

// TransitionStatus moves the order to the target status only while its
// current status is in from. It reports whether the update was applied,
// which makes replayed transitions detectable without a second read.
func (or *OrderRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from []string, to string) (bool, error) {
	cmd, err := or.db.Exec(ctx, transitionStatusQuery, id, to, from)
	if err != nil {
		return false, err
	}

	return cmd.RowsAffected() == 1, nil
}

// SetTracking records shipment tracking metadata
func (or *OrderRepository) SetTracking(ctx context.Context, id uuid.UUID, trackingNumber, provider string) error {
	cmd, err := or.db.Exec(ctx, setTrackingQuery, id, trackingNumber, provider)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return models.ErrOrderNotFound
	}

	return nil
}

// MergeProof merges the supplied proof fields over the stored record. Empty
// fields never clobber previously recorded values; a verified decision
// clears the stored reason. The single-statement update keeps concurrent
// merges on one order serialized by the row lock.
func (or *OrderRepository) MergeProof(ctx context.Context, id uuid.UUID, proof models.PaymentProof) error {
	cmd, err := or.db.Exec(ctx, mergeProofQuery,
		id, proof.StorageRef, proof.Method, proof.Reference, proof.ReviewStatus, proof.Reason)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return models.ErrOrderNotFound
	}

	return nil
}

// PromotePendingProof flips a still-pending proof review to verified. An
// admin advancing the order past payment implies the payment was accepted
// out of band.
func (or *OrderRepository) PromotePendingProof(ctx context.Context, id uuid.UUID) error {
	_, err := or.db.Exec(ctx, promoteProofQuery, id)
	return err
}

// CancelOrder credits stock back for every item and sets the status to
// cancelled, all under a row lock on the order. This is the only path that
// returns stock.
func (or *OrderRepository) CancelOrder(ctx context.Context, id uuid.UUID) error {
	tx, err := or.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, lockOrderStatusQuery, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrOrderNotFound
		}
		return err
	}

	if status == models.OrderStatusCancelled {
		return models.ErrAlreadyCancelled
	}

	rows, err := tx.Query(ctx, selectItemQuantitiesQuery, id)
	if err != nil {
		return err
	}

	type line struct {
		variantID uint64
		quantity  int32
	}
	var lines []line

	for rows.Next() {
		var l line
		if err := rows.Scan(&l.variantID, &l.quantity); err != nil {
			rows.Close()
			return err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, l := range lines {
		if _, err := tx.Exec(ctx, creditStockQuery, l.variantID, l.quantity); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, transitionStatusQuery, id, models.OrderStatusCancelled, []string{status}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// scanOrder scans one order row shared by the selects above
func (or *OrderRepository) scanOrder(row pgx.Row) (*models.Order, error) {
	order := models.Order{}
	var (
		userID                              *uint64
		guestName, guestContact, guestEmail *string
		proof                               models.PaymentProof
	)

	err := row.Scan(&order.ID, &userID, &guestName, &guestContact, &guestEmail,
		&order.Type, &order.Status, &order.Currency,
		&order.ShippingAddress, &order.TrackingNumber, &order.ShippingProvider,
		&proof.StorageRef, &proof.Method, &proof.Reference, &proof.ReviewStatus, &proof.Reason,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	order.Owner.UserID = userID
	if userID == nil {
		g := models.GuestContact{}
		if guestName != nil {
			g.Name = *guestName
		}
		if guestContact != nil {
			g.Contact = *guestContact
		}
		if guestEmail != nil {
			g.Email = *guestEmail
		}
		order.Owner.Guest = &g
	}

	if proof != (models.PaymentProof{}) {
		order.Proof = &proof
	}

	return &order, nil
}

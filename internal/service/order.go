package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MayderC/zayrel-be/internal/models"
	"github.com/MayderC/zayrel-be/internal/notify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderRepository is interface for interacting with order-related data
type OrderRepository interface {
	// CreateOrder persists the order with its items and debits stock in one transaction
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	// GetOrderByID returns order with its items
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// GetOrdersByStatus returns orders in the given status
	GetOrdersByStatus(ctx context.Context, status string) ([]models.Order, error)
	// TransitionStatus conditionally moves the order status, reporting whether it applied
	TransitionStatus(ctx context.Context, id uuid.UUID, from []string, to string) (bool, error)
	// SetTracking records shipment tracking metadata
	SetTracking(ctx context.Context, id uuid.UUID, trackingNumber, provider string) error
	// PromotePendingProof flips a pending proof review to verified
	PromotePendingProof(ctx context.Context, id uuid.UUID) error
	// CancelOrder credits stock back and sets status to cancelled
	CancelOrder(ctx context.Context, id uuid.UUID) error
}

// VariantRepository is interface for catalog reads during order creation
type VariantRepository interface {
	// GetVariants returns the requested variants keyed by id
	GetVariants(ctx context.Context, ids []uint64) (map[uint64]models.Variant, error)
}

// LoyaltyRepository is interface for completion token grants
type LoyaltyRepository interface {
	// GrantForOrder credits tokens exactly once per order
	GrantForOrder(ctx context.Context, orderID uuid.UUID, userID uint64, amount int64) error
}

// CreateOrderItem is one requested line of a new order.
type CreateOrderItem struct {
	VariantID uint64
	Quantity  int32
}

// CreateOrderRequest is the input to order creation. Prices are looked up
// server-side, never taken from the caller.
type CreateOrderRequest struct {
	Items           []CreateOrderItem
	Owner           models.Owner
	ShippingAddress string
	Type            string
}

// OrderService drives the order aggregate through its status machine.
type OrderService struct {
	orders       OrderRepository
	variants     VariantRepository
	loyalty      LoyaltyRepository
	dispatcher   notify.Dispatcher
	logger       *zap.Logger
	currency     string
	loyaltyGrant int64
}

// NewOrderService creates new OrderService instance
func NewOrderService(orders OrderRepository, variants VariantRepository, loyalty LoyaltyRepository,
	dispatcher notify.Dispatcher, logger *zap.Logger, currency string, loyaltyGrant int64) *OrderService {
	return &OrderService{
		orders:       orders,
		variants:     variants,
		loyalty:      loyalty,
		dispatcher:   dispatcher,
		logger:       logger,
		currency:     currency,
		loyaltyGrant: loyaltyGrant,
	}
}

// Create builds and persists a new order in awaiting_payment (or directly in
// paid for manual sales), debiting stock for every line.
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", models.ErrInvalidState)
	}
	if req.Owner.UserID != nil && req.Owner.Guest != nil {
		return nil, fmt.Errorf("%w: order owner is either registered or guest", models.ErrInvalidState)
	}
	if req.Owner.UserID == nil && req.Owner.Guest == nil {
		return nil, fmt.Errorf("%w: order has no owner", models.ErrInvalidState)
	}

	ids := make([]uint64, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", models.ErrInvalidState)
		}
		ids = append(ids, item.VariantID)
	}

	variants, err := s.variants.GetVariants(ctx, ids)
	if err != nil {
		return nil, err
	}

	status := models.OrderStatusAwaitingPayment
	if req.Type == models.OrderTypeManualSale {
		// manual sales skip the payment wait state
		status = models.OrderStatusPaid
	}

	order := &models.Order{
		ID:              uuid.New(),
		Owner:           req.Owner,
		Type:            req.Type,
		Status:          status,
		Currency:        s.currency,
		ShippingAddress: req.ShippingAddress,
	}

	for _, item := range req.Items {
		variant, ok := variants[item.VariantID]
		if !ok {
			return nil, models.ErrVariantNotFound
		}
		if variant.Price == nil {
			return nil, models.ErrPriceUnavailable
		}
		if item.Quantity > variant.Stock {
			return nil, models.ErrOutOfStock
		}
		order.Items = append(order.Items, models.OrderItem{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: *variant.Price,
		})
	}

	order, err = s.orders.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	s.emit(models.EventOrderCreated, *order, nil)

	return order, nil
}

// Get returns order by id
func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.orders.GetOrderByID(ctx, id)
}

// ListByStatus returns orders in the given status
func (s *OrderService) ListByStatus(ctx context.Context, status string) ([]models.Order, error) {
	return s.orders.GetOrdersByStatus(ctx, status)
}

// Cancel returns stock for every item and sets the status to cancelled.
func (s *OrderService) Cancel(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if err := s.orders.CancelOrder(ctx, id); err != nil {
		return nil, err
	}

	return s.orders.GetOrderByID(ctx, id)
}

// AdvanceStatus applies an admin-driven transition along
// paid -> in_production -> shipped -> completed. Re-setting the current
// status is a no-op: no event, no token grant.
func (s *OrderService) AdvanceStatus(ctx context.Context, id uuid.UUID, target, trackingNumber, shippingProvider string) (*models.Order, error) {
	predecessor := models.StatusPredecessor(target)
	if predecessor == "" {
		return nil, fmt.Errorf("%w: cannot advance to %s", models.ErrInvalidState, target)
	}

	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.Status == target {
		return order, nil
	}
	if order.Status != predecessor {
		return nil, fmt.Errorf("%w: %s -> %s", models.ErrInvalidState, order.Status, target)
	}

	if target == models.OrderStatusShipped {
		if trackingNumber == "" {
			return nil, fmt.Errorf("%w: shipped requires a tracking number", models.ErrInvalidState)
		}
		if err := s.orders.SetTracking(ctx, id, trackingNumber, shippingProvider); err != nil {
			return nil, err
		}
	}

	applied, err := s.orders.TransitionStatus(ctx, id, []string{predecessor}, target)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("%w: %s -> %s", models.ErrInvalidState, order.Status, target)
	}

	if err := s.orders.PromotePendingProof(ctx, id); err != nil {
		s.logger.Error("promote pending proof", zap.String("order", id.String()), zap.Error(err))
	}

	if target == models.OrderStatusCompleted && order.Owner.Registered() {
		err := s.loyalty.GrantForOrder(ctx, id, *order.Owner.UserID, s.loyaltyGrant)
		switch {
		case errors.Is(err, models.ErrConflictData):
			s.logger.Debug("loyalty tokens already granted", zap.String("order", id.String()))
		case err != nil:
			s.logger.Error("loyalty token grant", zap.String("order", id.String()), zap.Error(err))
		}
	}

	order, err = s.orders.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := models.StatusEvent(target); name != "" {
		s.emit(name, *order, nil)
	}

	return order, nil
}

// Archive hides a completed order. Stock and tokens are untouched.
func (s *OrderService) Archive(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.flipArchive(ctx, id, models.OrderStatusCompleted, models.OrderStatusArchived)
}

// Unarchive restores an archived order to completed.
func (s *OrderService) Unarchive(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.flipArchive(ctx, id, models.OrderStatusArchived, models.OrderStatusCompleted)
}

func (s *OrderService) flipArchive(ctx context.Context, id uuid.UUID, from, to string) (*models.Order, error) {
	applied, err := s.orders.TransitionStatus(ctx, id, []string{from}, to)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !applied {
		return nil, fmt.Errorf("%w: %s -> %s", models.ErrInvalidState, order.Status, to)
	}

	return order, nil
}

// emit hands the event to the dispatcher, which never blocks or fails the caller
func (s *OrderService) emit(name string, order models.Order, extra map[string]string) {
	s.dispatcher.Notify(models.NewEvent(name, order, extra))
}

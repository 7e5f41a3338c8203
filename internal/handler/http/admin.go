package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MayderC/zayrel-be/internal/models"
	"github.com/MayderC/zayrel-be/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type AdminOrderService interface {
	// Create builds and persists a new order
	Create(ctx context.Context, req service.CreateOrderRequest) (*models.Order, error)
	// Get returns order by id
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// ListByStatus returns orders in the given status
	ListByStatus(ctx context.Context, status string) ([]models.Order, error)
	// Cancel returns stock and sets status to cancelled
	Cancel(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// AdvanceStatus applies an admin-driven transition
	AdvanceStatus(ctx context.Context, id uuid.UUID, target, trackingNumber, shippingProvider string) (*models.Order, error)
	// Archive hides a completed order
	Archive(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// Unarchive restores an archived order to completed
	Unarchive(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type ProofReviewService interface {
	// ReviewProof applies an admin decision on an uploaded proof
	ReviewProof(ctx context.Context, orderID uuid.UUID, decision, reason string) (*models.Order, error)
}

// AdminHandler represents HTTP handler for the admin review surface
type AdminHandler struct {
	orders   AdminOrderService
	payments ProofReviewService
}

// NewAdminHandler creates new AdminHandler instance
func NewAdminHandler(orders AdminOrderService, payments ProofReviewService) *AdminHandler {
	return &AdminHandler{orders: orders, payments: payments}
}

type manualSaleRequest struct {
	Items           []createOrderItemRequest `json:"items"`
	UserID          *uint64                  `json:"user_id"`
	Guest           *guestRequest            `json:"guest"`
	ShippingAddress string                   `json:"shipping_address"`
}

// CreateManualSale records an out-of-band sale, created directly in paid
// 201 — order created
// 400 — malformed request
// 409 — insufficient stock
// 422 — unknown variant or variant without a price
func (ah *AdminHandler) CreateManualSale() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req manualSaleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		owner := models.Owner{UserID: req.UserID}
		if req.UserID == nil && req.Guest != nil {
			owner.Guest = &models.GuestContact{
				Name:    req.Guest.Name,
				Contact: req.Guest.Contact,
				Email:   req.Guest.Email,
			}
		}

		createReq := service.CreateOrderRequest{
			Owner:           owner,
			ShippingAddress: req.ShippingAddress,
			Type:            models.OrderTypeManualSale,
		}
		for _, item := range req.Items {
			createReq.Items = append(createReq.Items, service.CreateOrderItem{
				VariantID: item.VariantID,
				Quantity:  item.Quantity,
			})
		}

		order, err := ah.orders.Create(r.Context(), createReq)
		if err != nil {
			writeOrderError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)

		if err := json.NewEncoder(w).Encode(toOrderResponse(order)); err != nil {
			return
		}
	}
}

// ListOrders returns orders filtered by status
// 200 — successful request
// 400 — missing or unknown status filter
func (ah *AdminHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")
		if status == "" {
			http.Error(w, "status filter required", http.StatusBadRequest)
			return
		}

		orders, err := ah.orders.ListByStatus(r.Context(), status)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		resp := make([]orderResponse, 0, len(orders))
		for i := range orders {
			resp = append(resp, toOrderResponse(&orders[i]))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			return
		}
	}
}

type reviewProofRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// ReviewProof approves or rejects an uploaded payment proof
// 200 — decision recorded
// 400 — malformed request or decision
// 404 — order not found
func (ah *AdminHandler) ReviewProof() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		var req reviewProofRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		order, err := ah.payments.ReviewProof(r.Context(), id, req.Decision, req.Reason)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrOrderNotFound):
				http.Error(w, "order not found", http.StatusNotFound)
			case errors.Is(err, models.ErrInvalidState):
				http.Error(w, "bad decision", http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(toOrderResponse(order)); err != nil {
			return
		}
	}
}

type advanceStatusRequest struct {
	Status           string `json:"status"`
	TrackingNumber   string `json:"tracking_number"`
	ShippingProvider string `json:"shipping_provider"`
}

// AdvanceStatus moves the order along paid -> in_production -> shipped -> completed
// 200 — transition applied (or idempotent re-set)
// 400 — malformed request
// 404 — order not found
// 409 — illegal transition
func (ah *AdminHandler) AdvanceStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		var req advanceStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		order, err := ah.orders.AdvanceStatus(r.Context(), id, req.Status, req.TrackingNumber, req.ShippingProvider)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrOrderNotFound):
				http.Error(w, "order not found", http.StatusNotFound)
			case errors.Is(err, models.ErrInvalidState):
				http.Error(w, "illegal transition", http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(toOrderResponse(order)); err != nil {
			return
		}
	}
}

// CancelOrder cancels the order and returns its stock
// 200 — cancelled
// 404 — order not found
// 409 — order is already cancelled
func (ah *AdminHandler) CancelOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		order, err := ah.orders.Cancel(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrOrderNotFound):
				http.Error(w, "order not found", http.StatusNotFound)
			case errors.Is(err, models.ErrAlreadyCancelled):
				http.Error(w, "order is already cancelled", http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(toOrderResponse(order)); err != nil {
			return
		}
	}
}

// ArchiveOrder hides a completed order
// 200 — archived
// 404 — order not found
// 409 — order is not completed
func (ah *AdminHandler) ArchiveOrder() http.HandlerFunc {
	return ah.flipArchive(func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		return ah.orders.Archive(ctx, id)
	})
}

// UnarchiveOrder restores an archived order to completed
// 200 — restored
// 404 — order not found
// 409 — order is not archived
func (ah *AdminHandler) UnarchiveOrder() http.HandlerFunc {
	return ah.flipArchive(func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		return ah.orders.Unarchive(ctx, id)
	})
}

func (ah *AdminHandler) flipArchive(flip func(ctx context.Context, id uuid.UUID) (*models.Order, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		order, err := flip(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrOrderNotFound):
				http.Error(w, "order not found", http.StatusNotFound)
			case errors.Is(err, models.ErrInvalidState):
				http.Error(w, "illegal transition", http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(toOrderResponse(order)); err != nil {
			return
		}
	}
}

// writeOrderError maps order creation errors shared by the public and admin paths
func writeOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrOutOfStock):
		http.Error(w, "insufficient stock", http.StatusConflict)
	case errors.Is(err, models.ErrVariantNotFound):
		http.Error(w, "unknown variant", http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrPriceUnavailable):
		http.Error(w, "variant has no price", http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrInvalidState):
		http.Error(w, "bad request", http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

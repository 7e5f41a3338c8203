package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MayderC/zayrel-be/internal/middleware"
	"github.com/MayderC/zayrel-be/internal/models"
	"github.com/MayderC/zayrel-be/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type OrderService interface {
	// Create builds and persists a new order
	Create(ctx context.Context, req service.CreateOrderRequest) (*models.Order, error)
	// Get returns order by id
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// OrderHandler represents HTTP handler for order-related requests
type OrderHandler struct {
	svc OrderService
}

// NewOrderHandler creates new OrderHandler instance
func NewOrderHandler(svc OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type createOrderItemRequest struct {
	VariantID uint64 `json:"variant_id"`
	Quantity  int32  `json:"quantity"`
}

type guestRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Email   string `json:"email"`
}

type createOrderRequest struct {
	Items           []createOrderItemRequest `json:"items"`
	Guest           *guestRequest            `json:"guest"`
	ShippingAddress string                   `json:"shipping_address"`
}

// CreateOrder creates a new order for the authenticated user or a guest
// 201 — order created
// 400 — malformed request or missing owner
// 409 — insufficient stock
// 422 — unknown variant or variant without a price
// 500 — internal error
func (oh *OrderHandler) CreateOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if len(req.Items) == 0 {
			http.Error(w, "order has no items", http.StatusBadRequest)
			return
		}

		owner := models.Owner{}
		if userID, ok := middleware.UserID(r.Context()); ok {
			owner.UserID = &userID
		} else if req.Guest != nil {
			owner.Guest = &models.GuestContact{
				Name:    req.Guest.Name,
				Contact: req.Guest.Contact,
				Email:   req.Guest.Email,
			}
		} else {
			http.Error(w, "guest contact info required", http.StatusBadRequest)
			return
		}

		createReq := service.CreateOrderRequest{
			Owner:           owner,
			ShippingAddress: req.ShippingAddress,
			Type:            models.OrderTypeOnline,
		}
		for _, item := range req.Items {
			createReq.Items = append(createReq.Items, service.CreateOrderItem{
				VariantID: item.VariantID,
				Quantity:  item.Quantity,
			})
		}

		order, err := oh.svc.Create(r.Context(), createReq)
		if err != nil {
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
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)

		if err := json.NewEncoder(w).Encode(toOrderResponse(order)); err != nil {
			return
		}
	}
}

// GetOrder returns the order snapshot
// 200 — successful request
// 400 — malformed order id
// 404 — order not found
// 500 — internal error
func (oh *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		order, err := oh.svc.Get(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrOrderNotFound):
				http.Error(w, "order not found", http.StatusNotFound)
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

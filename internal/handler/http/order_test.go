package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MayderC/zayrel-be/internal/middleware"
	"github.com/MayderC/zayrel-be/internal/models"
	"github.com/MayderC/zayrel-be/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrderService struct {
	createReq *service.CreateOrderRequest
	order     *models.Order
	err       error
}

func (s *stubOrderService) Create(_ context.Context, req service.CreateOrderRequest) (*models.Order, error) {
	s.createReq = &req
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

func (s *stubOrderService) Get(_ context.Context, _ uuid.UUID) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

type stubVerifier struct {
	payload *models.TokenPayload
	err     error
}

func (v *stubVerifier) VerifyToken(string) (*models.TokenPayload, error) {
	return v.payload, v.err
}

func sampleOrder(status string) *models.Order {
	return &models.Order{
		ID:       uuid.New(),
		Owner:    models.Owner{Guest: &models.GuestContact{Name: "Ana", Email: "ana@example.com"}},
		Type:     models.OrderTypeOnline,
		Status:   status,
		Currency: "mxn",
		Items:    []models.OrderItem{{VariantID: 1, Quantity: 2, UnitPrice: 45000}},
	}
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		svcErr   error
		wantCode int
	}{
		{
			name:     "guest_order_created",
			body:     `{"items":[{"variant_id":1,"quantity":2}],"guest":{"name":"Ana","email":"ana@example.com"},"shipping_address":"Calle 1"}`,
			wantCode: http.StatusCreated,
		},
		{
			name:     "malformed_json",
			body:     `{"items":`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "no_items",
			body:     `{"items":[],"guest":{"name":"Ana"}}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "anonymous_without_guest_info",
			body:     `{"items":[{"variant_id":1,"quantity":1}]}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "out_of_stock",
			body:     `{"items":[{"variant_id":1,"quantity":2}],"guest":{"name":"Ana"}}`,
			svcErr:   models.ErrOutOfStock,
			wantCode: http.StatusConflict,
		},
		{
			name:     "unknown_variant",
			body:     `{"items":[{"variant_id":9,"quantity":1}],"guest":{"name":"Ana"}}`,
			svcErr:   models.ErrVariantNotFound,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "unpriced_variant",
			body:     `{"items":[{"variant_id":1,"quantity":1}],"guest":{"name":"Ana"}}`,
			svcErr:   models.ErrPriceUnavailable,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "internal_error",
			body:     `{"items":[{"variant_id":1,"quantity":1}],"guest":{"name":"Ana"}}`,
			svcErr:   assert.AnError,
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubOrderService{order: sampleOrder(models.OrderStatusAwaitingPayment), err: tt.svcErr}
			handler := NewOrderHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.CreateOrder().ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusCreated {
				resp := orderResponse{}
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, models.OrderStatusAwaitingPayment, resp.Status)
				assert.Equal(t, int64(90000), resp.Subtotal)

				require.NotNil(t, svc.createReq)
				assert.Equal(t, models.OrderTypeOnline, svc.createReq.Type)
				require.NotNil(t, svc.createReq.Owner.Guest)
				assert.Equal(t, "ana@example.com", svc.createReq.Owner.Guest.Email)
			}
		})
	}
}

func TestOrderHandler_CreateOrder_AuthenticatedOwner(t *testing.T) {
	svc := &stubOrderService{order: sampleOrder(models.OrderStatusAwaitingPayment)}
	verifier := &stubVerifier{payload: &models.TokenPayload{UserID: 7}}

	router := chi.NewRouter()
	router.With(middleware.OptionalAuth(verifier)).Post("/api/orders", NewOrderHandler(svc).CreateOrder())

	body := `{"items":[{"variant_id":1,"quantity":1}],"guest":{"name":"ignored"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "token"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	// a valid session wins over any guest block in the body
	require.NotNil(t, svc.createReq)
	require.NotNil(t, svc.createReq.Owner.UserID)
	assert.Equal(t, uint64(7), *svc.createReq.Owner.UserID)
	assert.Nil(t, svc.createReq.Owner.Guest)
}

func TestOrderHandler_GetOrder(t *testing.T) {
	order := sampleOrder(models.OrderStatusPaid)

	tests := []struct {
		name     string
		orderID  string
		svcErr   error
		wantCode int
	}{
		{name: "found", orderID: order.ID.String(), wantCode: http.StatusOK},
		{name: "bad_id", orderID: "not-a-uuid", wantCode: http.StatusBadRequest},
		{name: "not_found", orderID: uuid.NewString(), svcErr: models.ErrOrderNotFound, wantCode: http.StatusNotFound},
		{name: "internal_error", orderID: uuid.NewString(), svcErr: assert.AnError, wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubOrderService{order: order, err: tt.svcErr}
			router := chi.NewRouter()
			router.Get("/api/orders/{orderID}", NewOrderHandler(svc).GetOrder())

			req := httptest.NewRequest(http.MethodGet, "/api/orders/"+tt.orderID, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				resp := orderResponse{}
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, order.ID.String(), resp.ID)
				assert.Equal(t, models.OrderStatusPaid, resp.Status)
			}
		})
	}
}

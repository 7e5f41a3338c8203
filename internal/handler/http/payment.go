package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/MayderC/zayrel-be/internal/gateway"
	"github.com/MayderC/zayrel-be/internal/models"
	"github.com/MayderC/zayrel-be/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type PaymentService interface {
	// InitiatePayment opens a checkout session for the order
	InitiatePayment(ctx context.Context, orderID uuid.UUID, method string) (*gateway.InitiateResult, error)
	// HandleWebhook reconciles a provider notification
	HandleWebhook(ctx context.Context, gatewayName string, payload []byte, signature string) (service.WebhookAck, error)
	// SubmitProof stores an uploaded payment proof
	SubmitProof(ctx context.Context, orderID uuid.UUID, blob []byte, method, reference string) (*models.Order, error)
}

// GatewayDirectory resolves webhook signature header names per gateway
type GatewayDirectory interface {
	Get(name string) (gateway.Gateway, bool)
}

// PaymentHandler represents HTTP handler for payment-related requests
type PaymentHandler struct {
	svc      PaymentService
	gateways GatewayDirectory
}

// NewPaymentHandler creates new PaymentHandler instance
func NewPaymentHandler(svc PaymentService, gateways GatewayDirectory) *PaymentHandler {
	return &PaymentHandler{svc: svc, gateways: gateways}
}

type initiatePaymentRequest struct {
	Method string `json:"method"`
}

type initiatePaymentResponse struct {
	Success       bool   `json:"success"`
	RedirectURL   string `json:"redirect_url,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// InitiatePayment opens a checkout session
// 200 — session created, body carries the redirect target
// 400 — malformed request or unknown payment method
// 404 — order not found
// 409 — order is already paid or not payable
// 502 — payment provider unavailable
func (ph *PaymentHandler) InitiatePayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		var req initiatePaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		result, err := ph.svc.InitiatePayment(r.Context(), id, req.Method)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrOrderNotFound):
				http.Error(w, "order not found", http.StatusNotFound)
			case errors.Is(err, models.ErrAlreadySettled):
				http.Error(w, "order is already paid", http.StatusConflict)
			case errors.Is(err, models.ErrUnknownGateway):
				http.Error(w, "unknown payment method", http.StatusBadRequest)
			case errors.Is(err, models.ErrInvalidState):
				http.Error(w, "order is not payable", http.StatusConflict)
			case errors.Is(err, models.ErrGatewayUnavailable):
				http.Error(w, "payment provider unavailable", http.StatusBadGateway)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		resp := initiatePaymentResponse{
			Success:       result.Success,
			RedirectURL:   result.RedirectURL,
			TransactionID: result.TransactionID,
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			return
		}
	}
}

type submitProofRequest struct {
	Image     string `json:"image"`
	Method    string `json:"method"`
	Reference string `json:"reference"`
}

// SubmitProof uploads payment proof for manual review
// 200 — proof recorded
// 400 — malformed request or image
// 404 — order not found
// 500 — internal error
func (ph *PaymentHandler) SubmitProof() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		var req submitProofRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		blob, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil || len(blob) == 0 {
			http.Error(w, "invalid proof image", http.StatusBadRequest)
			return
		}

		order, err := ph.svc.SubmitProof(r.Context(), id, blob, req.Method, req.Reference)
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

// Webhook receives gateway notifications. Providers always get an
// acknowledgment body; only a signature failure is rejected.
// 200 — acknowledged (received true or false)
// 400 — signature mismatch
func (ph *PaymentHandler) Webhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gatewayName := chi.URLParam(r, "gateway")

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		var signature string
		if gw, ok := ph.gateways.Get(gatewayName); ok && gw.SignatureHeader() != "" {
			signature = r.Header.Get(gw.SignatureHeader())
		}

		ack, err := ph.svc.HandleWebhook(r.Context(), gatewayName, payload, signature)

		w.Header().Set("Content-Type", "application/json")
		if errors.Is(err, models.ErrUnverifiedWebhook) {
			w.WriteHeader(http.StatusBadRequest)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		if err := json.NewEncoder(w).Encode(ack); err != nil {
			return
		}
	}
}

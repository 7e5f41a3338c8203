package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/MayderC/zayrel-be/internal/models"
)

const walletSignatureHeader = "X-Wallet-Signature"

// WalletGateway talks to the wallet/redirect provider over its HTTP API.
// Requests and webhooks are authenticated with an HMAC-SHA256 of the body.
type WalletGateway struct {
	client   *http.Client
	baseURL  string
	secret   []byte
	currency string
}

// NewWalletGateway creates new WalletGateway instance. currency is the only
// currency the provider settles in.
func NewWalletGateway(baseURL, secret, currency string) *WalletGateway {
	return &WalletGateway{
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL:  baseURL,
		secret:   []byte(secret),
		currency: currency,
	}
}

func (g *WalletGateway) Name() string { return NameWallet }

func (g *WalletGateway) SettlementCurrency() string { return g.currency }

func (g *WalletGateway) SignatureHeader() string { return walletSignatureHeader }

type walletCheckoutRequest struct {
	OrderID    string `json:"order_id"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	BuyerName  string `json:"buyer_name,omitempty"`
	BuyerEmail string `json:"buyer_email,omitempty"`
}

type walletCheckoutResponse struct {
	CheckoutURL   string `json:"checkout_url"`
	TransactionID string `json:"transaction_id"`
}

// InitiatePayment opens a checkout session with the wallet provider
// POST /api/checkout
// 200 — session created, body carries the redirect target
// 429, 5xx — provider unavailable
func (g *WalletGateway) InitiatePayment(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	endpoint, err := url.JoinPath(g.baseURL, "api", "checkout")
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(walletCheckoutRequest{
		OrderID:    req.OrderID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		BuyerName:  req.Buyer.Name,
		BuyerEmail: req.Buyer.Email,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(walletSignatureHeader, g.sign(body))

	resp, err := g.client.Do(httpReq)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, models.ErrGatewayUnavailable
	}

	switch resp.StatusCode {
	case http.StatusOK:
		checkout := walletCheckoutResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&checkout); err != nil {
			return nil, err
		}
		return &InitiateResult{
			Success:       true,
			RedirectURL:   checkout.CheckoutURL,
			TransactionID: checkout.TransactionID,
		}, nil
	default:
		return nil, models.ErrGatewayUnavailable
	}
}

// VerifyWebhook compares the hex HMAC-SHA256 of the payload with the header value.
func (g *WalletGateway) VerifyWebhook(payload []byte, signature string) bool {
	want, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, g.secret)
	mac.Write(payload)

	return hmac.Equal(mac.Sum(nil), want)
}

type walletWebhookEvent struct {
	Event         string `json:"event"`
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
}

// DecodeWebhook classifies a verified wallet notification.
func (g *WalletGateway) DecodeWebhook(payload []byte) (*Event, error) {
	notification := walletWebhookEvent{}
	if err := json.Unmarshal(payload, &notification); err != nil {
		return nil, err
	}

	event := Event{
		OrderID:       notification.OrderID,
		TransactionID: notification.TransactionID,
		Reason:        notification.Reason,
	}

	switch notification.Event {
	case "payment.succeeded":
		event.Kind = EventSucceeded
	case "payment.failed":
		event.Kind = EventFailed
	case "payment.pending":
		event.Kind = EventDeferred
		if event.Reason == "" {
			event.Reason = "awaiting bank-side confirmation"
		}
	case "payment.authorized":
		// buyer approved, capture not yet confirmed
		event.Kind = EventApprovedPending
		if event.Reason == "" {
			event.Reason = "approved, awaiting capture"
		}
	default:
		return nil, ErrUnrecognizedEvent
	}

	return &event, nil
}

// sign returns the hex HMAC-SHA256 of body
func (g *WalletGateway) sign(body []byte) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

package gateway

// Package gateway holds the closed set of payment gateway strategies. A
// gateway turns an order into a hosted checkout redirect and translates the
// provider's webhook payloads into normalized events.

import (
	"context"
)

// gateway names used for method selection and webhook routing
const (
	NameCard   = "card"
	NameWallet = "wallet"
	NameManual = "manual"
)

// EventKind classifies a verified webhook payload.
type EventKind string

const (
	EventSucceeded       EventKind = "succeeded"
	EventFailed          EventKind = "failed"
	EventDeferred        EventKind = "deferred"
	EventApprovedPending EventKind = "approved_pending_capture"
)

// Buyer is the contact info forwarded to the provider's hosted checkout.
type Buyer struct {
	Name  string
	Email string
}

// LineItem is one order line as shown on the provider's checkout page.
// Amounts are minor units in the request currency.
type LineItem struct {
	Name       string
	Quantity   int64
	UnitAmount int64
}

// InitiateRequest is the input to a hosted checkout session. Amount is the
// settled total including shipping, computed server-side.
type InitiateRequest struct {
	OrderID      string
	Amount       int64
	Currency     string
	ShippingCost int64
	Buyer        Buyer
	Items        []LineItem
}

// InitiateResult is the provider's session response.
type InitiateResult struct {
	Success       bool
	RedirectURL   string
	TransactionID string
}

// Event is a decoded, already-verified webhook notification.
type Event struct {
	Kind          EventKind
	OrderID       string
	TransactionID string
	Reason        string
}

// Gateway is a payment provider capable of hosted checkout and webhook
// notification. The manual pseudo-gateway implements it degenerately.
type Gateway interface {
	Name() string
	// SettlementCurrency returns the only currency the provider can settle
	// in, or "" when it settles in the order's native currency.
	SettlementCurrency() string
	// SignatureHeader names the HTTP header carrying the webhook signature.
	SignatureHeader() string
	InitiatePayment(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
	VerifyWebhook(payload []byte, signature string) bool
	DecodeWebhook(payload []byte) (*Event, error)
}

// Registry resolves gateways by name.
type Registry struct {
	gateways map[string]Gateway
}

// NewRegistry creates registry over the known gateway set
func NewRegistry(gws ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway, len(gws))}
	for _, gw := range gws {
		r.gateways[gw.Name()] = gw
	}
	return r
}

// Get returns gateway by name
func (r *Registry) Get(name string) (Gateway, bool) {
	gw, ok := r.gateways[name]
	return gw, ok
}

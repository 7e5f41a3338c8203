package gateway

import (
	"context"
	"errors"
	"fmt"
)

// ManualGateway is the degenerate pseudo-gateway for out-of-band payments.
// It redirects the buyer to the proof-upload page without contacting any
// external service and never receives webhooks.
type ManualGateway struct {
	proofUploadURL string
}

// NewManualGateway creates new ManualGateway instance
func NewManualGateway(proofUploadURL string) *ManualGateway {
	return &ManualGateway{proofUploadURL: proofUploadURL}
}

func (g *ManualGateway) Name() string { return NameManual }

func (g *ManualGateway) SettlementCurrency() string { return "" }

func (g *ManualGateway) SignatureHeader() string { return "" }

// InitiatePayment short-circuits to the proof-upload redirect target.
func (g *ManualGateway) InitiatePayment(_ context.Context, req InitiateRequest) (*InitiateResult, error) {
	return &InitiateResult{
		Success:     true,
		RedirectURL: fmt.Sprintf("%s?order=%s", g.proofUploadURL, req.OrderID),
	}, nil
}

func (g *ManualGateway) VerifyWebhook([]byte, string) bool { return false }

func (g *ManualGateway) DecodeWebhook([]byte) (*Event, error) {
	return nil, errors.New("manual gateway has no webhooks")
}

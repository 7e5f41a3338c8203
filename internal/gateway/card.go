package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

// ErrUnrecognizedEvent is returned for webhook payloads whose event type has
// no classification in this pipeline.
var ErrUnrecognizedEvent = errors.New("unrecognized gateway event")

type stripeSessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// CardGateway is the online card gateway backed by Stripe Checkout.
type CardGateway struct {
	sessions      stripeSessionAPI
	webhookSecret string
	successURL    string
	cancelURL     string
}

// NewCardGateway constructs the card gateway over the Stripe API.
func NewCardGateway(apiKey, webhookSecret, successURL, cancelURL string) *CardGateway {
	sc := client.New(apiKey, nil)
	return &CardGateway{
		sessions:      sc.CheckoutSessions,
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
	}
}

func (g *CardGateway) Name() string { return NameCard }

func (g *CardGateway) SettlementCurrency() string { return "" }

func (g *CardGateway) SignatureHeader() string { return "Stripe-Signature" }

// InitiatePayment creates a hosted Checkout session for the order. The order
// id travels in the session metadata and client reference so webhooks can be
// correlated back.
func (g *CardGateway) InitiatePayment(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.successURL),
		CancelURL:         stripe.String(g.cancelURL),
		ClientReferenceID: stripe.String(req.OrderID),
	}
	params.Context = ctx
	params.Metadata = map[string]string{"order_id": req.OrderID}

	if req.Buyer.Email != "" {
		params.CustomerEmail = stripe.String(req.Buyer.Email)
	}

	currency := strings.ToLower(req.Currency)
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items)+1)
	for _, item := range req.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		})
	}
	if req.ShippingCost > 0 {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(req.ShippingCost),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Shipping"),
				},
			},
		})
	}
	params.LineItems = lineItems

	session, err := g.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &InitiateResult{
		Success:       true,
		RedirectURL:   session.URL,
		TransactionID: session.ID,
	}, nil
}

// VerifyWebhook checks the Stripe-Signature header against the endpoint secret.
func (g *CardGateway) VerifyWebhook(payload []byte, signature string) bool {
	_, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	return err == nil
}

// DecodeWebhook classifies a verified Stripe event.
func (g *CardGateway) DecodeWebhook(payload []byte) (*Event, error) {
	var stripeEvent stripe.Event
	if err := json.Unmarshal(payload, &stripeEvent); err != nil {
		return nil, err
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(stripeEvent.Data.Raw, &session); err != nil {
		return nil, err
	}

	event := Event{
		OrderID:       session.Metadata["order_id"],
		TransactionID: session.ID,
	}
	if event.OrderID == "" {
		event.OrderID = session.ClientReferenceID
	}
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		event.TransactionID = session.PaymentIntent.ID
	}

	switch string(stripeEvent.Type) {
	case "checkout.session.completed":
		// delayed methods complete the session before the funds clear
		if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
			event.Kind = EventDeferred
			event.Reason = "awaiting asynchronous payment confirmation"
		} else {
			event.Kind = EventSucceeded
		}
	case "checkout.session.async_payment_succeeded":
		event.Kind = EventSucceeded
	case "checkout.session.async_payment_failed":
		event.Kind = EventFailed
		event.Reason = "asynchronous payment failed"
	default:
		return nil, ErrUnrecognizedEvent
	}

	return &event, nil
}

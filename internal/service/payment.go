package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/MayderC/zayrel-be/internal/gateway"
	"github.com/MayderC/zayrel-be/internal/models"
	"github.com/MayderC/zayrel-be/internal/notify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentOrderRepository is the slice of order persistence the orchestrator
// needs. Depending on this interface rather than the order service keeps the
// order/payment dependency one-directional.
type PaymentOrderRepository interface {
	// GetOrderByID returns order with its items
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// TransitionStatus conditionally moves the order status, reporting whether it applied
	TransitionStatus(ctx context.Context, id uuid.UUID, from []string, to string) (bool, error)
	// MergeProof merges the supplied proof fields over the stored record
	MergeProof(ctx context.Context, id uuid.UUID, proof models.PaymentProof) error
}

// ProofStorage stores the raw proof blob and returns an opaque reference.
// This module never interprets the blob.
type ProofStorage interface {
	Store(ctx context.Context, blob []byte, orderID string) (string, error)
}

// PaymentVariantRepository resolves variant names for checkout line items
type PaymentVariantRepository interface {
	GetVariants(ctx context.Context, ids []uint64) (map[uint64]models.Variant, error)
}

// ShippingPolicy is the flat-fee-below-threshold shipping rule, in minor units.
type ShippingPolicy struct {
	FreeThreshold int64
	FlatFee       int64
}

// Cost returns the shipping cost for the given subtotal
func (p ShippingPolicy) Cost(subtotal int64) int64 {
	if subtotal >= p.FreeThreshold {
		return 0
	}
	return p.FlatFee
}

// WebhookAck is the acknowledgment returned to a webhook provider. It is
// always delivered, except on signature failure, to avoid retry storms.
type WebhookAck struct {
	Received bool `json:"received"`
}

// PaymentService reconciles payment state from gateways, webhooks and admin
// proof reviews onto the order aggregate.
type PaymentService struct {
	orders         PaymentOrderRepository
	variants       PaymentVariantRepository
	gateways       *gateway.Registry
	storage        ProofStorage
	dispatcher     notify.Dispatcher
	logger         *zap.Logger
	shipping       ShippingPolicy
	fxRates        map[string]float64
	gatewayTimeout time.Duration
}

// NewPaymentService creates new PaymentService instance. fxRates maps a
// settlement currency to units of it per unit of the order currency.
func NewPaymentService(orders PaymentOrderRepository, variants PaymentVariantRepository,
	gateways *gateway.Registry, storage ProofStorage, dispatcher notify.Dispatcher,
	logger *zap.Logger, shipping ShippingPolicy, fxRates map[string]float64,
	gatewayTimeout time.Duration) *PaymentService {
	return &PaymentService{
		orders:         orders,
		variants:       variants,
		gateways:       gateways,
		storage:        storage,
		dispatcher:     dispatcher,
		logger:         logger,
		shipping:       shipping,
		fxRates:        fxRates,
		gatewayTimeout: gatewayTimeout,
	}
}

// InitiatePayment opens a checkout session for the order with the named
// gateway. The order is not marked paid here; only a webhook or an admin
// decision does that.
func (s *PaymentService) InitiatePayment(ctx context.Context, orderID uuid.UUID, method string) (*gateway.InitiateResult, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if models.IsPaidOrLater(order.Status) {
		return nil, models.ErrAlreadySettled
	}
	if order.Status != models.OrderStatusAwaitingPayment {
		return nil, fmt.Errorf("%w: cannot pay a %s order", models.ErrInvalidState, order.Status)
	}

	gw, ok := s.gateways.Get(method)
	if !ok {
		return nil, models.ErrUnknownGateway
	}

	req, err := s.buildInitiateRequest(ctx, order, gw)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	result, err := gw.InitiatePayment(ctx, req)
	if err != nil {
		if errors.Is(err, models.ErrGatewayUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			return nil, models.ErrGatewayUnavailable
		}
		return nil, err
	}

	return result, nil
}

// HandleWebhook reconciles a provider notification. Internal errors never
// escape: the provider always gets an acknowledgment, except on signature
// failure which returns models.ErrUnverifiedWebhook.
func (s *PaymentService) HandleWebhook(ctx context.Context, gatewayName string, payload []byte, signature string) (WebhookAck, error) {
	gw, ok := s.gateways.Get(gatewayName)
	if !ok {
		s.logger.Warn("webhook for unknown gateway", zap.String("gateway", gatewayName))
		return WebhookAck{Received: false}, nil
	}

	if !gw.VerifyWebhook(payload, signature) {
		s.logger.Warn("webhook signature mismatch", zap.String("gateway", gatewayName))
		return WebhookAck{Received: false}, models.ErrUnverifiedWebhook
	}

	event, err := gw.DecodeWebhook(payload)
	if err != nil {
		s.logger.Warn("webhook decode", zap.String("gateway", gatewayName), zap.Error(err))
		return WebhookAck{Received: true}, nil
	}

	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		s.logger.Warn("webhook carries no usable order id", zap.String("gateway", gatewayName))
		return WebhookAck{Received: true}, nil
	}

	if err := s.reconcile(ctx, gw.Name(), orderID, event); err != nil {
		s.logger.Error("webhook reconciliation", zap.String("order", orderID.String()), zap.Error(err))
	}

	return WebhookAck{Received: true}, nil
}

// reconcile applies one verified gateway event to the order.
func (s *PaymentService) reconcile(ctx context.Context, method string, orderID uuid.UUID, event *gateway.Event) error {
	switch event.Kind {
	case gateway.EventSucceeded:
		applied, err := s.orders.TransitionStatus(ctx, orderID,
			[]string{models.OrderStatusAwaitingPayment}, models.OrderStatusPaid)
		if err != nil {
			return err
		}
		if !applied {
			// replayed delivery or the admin got there first
			s.logger.Debug("payment confirmation for an already settled order",
				zap.String("order", orderID.String()),
				zap.String("reference", event.TransactionID))
			return nil
		}

		err = s.orders.MergeProof(ctx, orderID, models.PaymentProof{
			Method:       method,
			Reference:    event.TransactionID,
			ReviewStatus: models.ReviewStatusVerified,
		})
		if err != nil {
			return err
		}

		order, err := s.orders.GetOrderByID(ctx, orderID)
		if err != nil {
			return err
		}
		s.emit(models.EventPaymentApproved, *order, map[string]string{"reference": event.TransactionID})
		return nil

	case gateway.EventFailed:
		settled, err := s.settled(ctx, orderID)
		if err != nil {
			return err
		}
		if settled {
			// late failure from a stale session, the verified record wins
			s.logger.Debug("failure notification for an already settled order",
				zap.String("order", orderID.String()),
				zap.String("reference", event.TransactionID))
			return nil
		}

		reason := event.Reason
		if reason == "" {
			reason = "payment failed"
		}
		// status stays awaiting_payment so the buyer can retry
		return s.orders.MergeProof(ctx, orderID, models.PaymentProof{
			Method:       method,
			Reference:    event.TransactionID,
			ReviewStatus: models.ReviewStatusRejected,
			Reason:       reason,
		})

	case gateway.EventDeferred, gateway.EventApprovedPending:
		settled, err := s.settled(ctx, orderID)
		if err != nil {
			return err
		}
		if settled {
			s.logger.Debug("deferred notification for an already settled order",
				zap.String("order", orderID.String()),
				zap.String("reference", event.TransactionID))
			return nil
		}

		return s.orders.MergeProof(ctx, orderID, models.PaymentProof{
			Method:       method,
			Reference:    event.TransactionID,
			ReviewStatus: models.ReviewStatusPending,
			Reason:       event.Reason,
		})

	default:
		return fmt.Errorf("unhandled event kind %q", event.Kind)
	}
}

// settled reports whether the order is already paid or further along. A
// stale failure or deferral must never touch a settled order's proof record.
func (s *PaymentService) settled(ctx context.Context, orderID uuid.UUID) (bool, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return false, err
	}
	return models.IsPaidOrLater(order.Status), nil
}

// SubmitProof stores the uploaded proof blob and merges the reference into
// the order's proof record with review status pending.
func (s *PaymentService) SubmitProof(ctx context.Context, orderID uuid.UUID, blob []byte, method, reference string) (*models.Order, error) {
	if _, err := s.orders.GetOrderByID(ctx, orderID); err != nil {
		return nil, err
	}

	storageRef, err := s.storage.Store(ctx, blob, orderID.String())
	if err != nil {
		return nil, err
	}

	err = s.orders.MergeProof(ctx, orderID, models.PaymentProof{
		StorageRef:   storageRef,
		Method:       method,
		Reference:    reference,
		ReviewStatus: models.ReviewStatusPending,
	})
	if err != nil {
		return nil, err
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.emit(models.EventPaymentProofReceived, *order, nil)

	return order, nil
}

// ReviewProof applies an admin decision on an uploaded proof. A verified
// decision advances awaiting_payment orders to paid and emits
// payment.approved once; a rejected decision records the reason and leaves
// the status untouched.
func (s *PaymentService) ReviewProof(ctx context.Context, orderID uuid.UUID, decision, reason string) (*models.Order, error) {
	if decision != models.ReviewStatusVerified && decision != models.ReviewStatusRejected {
		return nil, fmt.Errorf("%w: decision must be verified or rejected", models.ErrInvalidState)
	}

	if _, err := s.orders.GetOrderByID(ctx, orderID); err != nil {
		return nil, err
	}

	err := s.orders.MergeProof(ctx, orderID, models.PaymentProof{
		ReviewStatus: decision,
		Reason:       reason,
	})
	if err != nil {
		return nil, err
	}

	if decision == models.ReviewStatusVerified {
		applied, err := s.orders.TransitionStatus(ctx, orderID,
			[]string{models.OrderStatusAwaitingPayment}, models.OrderStatusPaid)
		if err != nil {
			return nil, err
		}

		order, err := s.orders.GetOrderByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if applied {
			s.emit(models.EventPaymentApproved, *order, nil)
		}
		return order, nil
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.emit(models.EventPaymentRejected, *order, map[string]string{"reason": reason})

	return order, nil
}

// buildInitiateRequest computes the server-side totals, applies the shipping
// rule and converts currency when the gateway cannot settle natively.
func (s *PaymentService) buildInitiateRequest(ctx context.Context, order *models.Order, gw gateway.Gateway) (gateway.InitiateRequest, error) {
	subtotal := order.Subtotal()
	shippingCost := s.shipping.Cost(subtotal)

	ids := make([]uint64, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.VariantID)
	}
	variants, err := s.variants.GetVariants(ctx, ids)
	if err != nil {
		return gateway.InitiateRequest{}, err
	}

	req := gateway.InitiateRequest{
		OrderID:      order.ID.String(),
		Amount:       subtotal + shippingCost,
		Currency:     order.Currency,
		ShippingCost: shippingCost,
		Buyer: gateway.Buyer{
			Email: order.Contact(),
		},
	}
	if order.Owner.Guest != nil {
		req.Buyer.Name = order.Owner.Guest.Name
	}

	for _, item := range order.Items {
		name := fmt.Sprintf("item %d", item.VariantID)
		if v, ok := variants[item.VariantID]; ok {
			name = v.Name
		}
		req.Items = append(req.Items, gateway.LineItem{
			Name:       name,
			Quantity:   int64(item.Quantity),
			UnitAmount: item.UnitPrice,
		})
	}

	settlement := gw.SettlementCurrency()
	if settlement == "" || settlement == order.Currency {
		return req, nil
	}

	rate, ok := s.fxRates[settlement]
	if !ok {
		return gateway.InitiateRequest{}, fmt.Errorf("%w: no fx rate for %s", models.ErrGatewayUnavailable, settlement)
	}

	req.Currency = settlement
	req.Amount = convert(req.Amount, rate)
	req.ShippingCost = convert(req.ShippingCost, rate)
	for i := range req.Items {
		req.Items[i].UnitAmount = convert(req.Items[i].UnitAmount, rate)
	}

	return req, nil
}

func convert(amount int64, rate float64) int64 {
	return int64(math.Round(float64(amount) * rate))
}

func (s *PaymentService) emit(name string, order models.Order, extra map[string]string) {
	s.dispatcher.Notify(models.NewEvent(name, order, extra))
}

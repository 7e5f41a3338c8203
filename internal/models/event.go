package models

import "strconv"

// notification event names
const (
	EventOrderCreated         = "order.created"
	EventPaymentProofReceived = "payment.proofReceived"
	EventPaymentApproved      = "payment.approved"
	EventPaymentRejected      = "payment.rejected"
	EventOrderInProduction    = "order.inProduction"
	EventOrderShipped         = "order.shipped"
	EventOrderCompleted       = "order.completed"
)

// Event is a notification handed to the dispatch collaborator. Channel
// fan-out (mail, chat) happens entirely outside this module.
type Event struct {
	Name  string
	Order Order
	Extra map[string]string
}

// NewEvent builds the notification for an order. Guest orders carry their
// contact inline on the order snapshot; for registered owners the user id is
// stamped into Extra so the fan-out can resolve the account's address.
func NewEvent(name string, order Order, extra map[string]string) Event {
	if order.Owner.Registered() {
		if extra == nil {
			extra = make(map[string]string, 1)
		}
		extra["user_id"] = strconv.FormatUint(*order.Owner.UserID, 10)
	}
	return Event{Name: name, Order: order, Extra: extra}
}

// StatusEvent maps an order status to the event emitted when a transition
// lands on it. Statuses without an event (cancelled, archived) return "".
func StatusEvent(status string) string {
	switch status {
	case OrderStatusInProduction:
		return EventOrderInProduction
	case OrderStatusShipped:
		return EventOrderShipped
	case OrderStatusCompleted:
		return EventOrderCompleted
	default:
		return ""
	}
}

package models

// statusEdges enumerates the legal forward transitions. Cancellation is
// handled separately: any non-cancelled status may move to cancelled.
var statusEdges = map[string][]string{
	OrderStatusAwaitingPayment: {OrderStatusPaid},
	OrderStatusPaid:            {OrderStatusInProduction},
	OrderStatusInProduction:    {OrderStatusShipped},
	OrderStatusShipped:         {OrderStatusCompleted},
	OrderStatusCompleted:       {OrderStatusArchived},
	OrderStatusArchived:        {OrderStatusCompleted},
}

// paidOrLater is the settled set: a late payment confirmation must never
// move an order out of it.
var paidOrLater = map[string]bool{
	OrderStatusPaid:         true,
	OrderStatusInProduction: true,
	OrderStatusShipped:      true,
	OrderStatusCompleted:    true,
}

// IsPaidOrLater reports whether the status is paid or further along.
func IsPaidOrLater(status string) bool {
	return paidOrLater[status]
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to string) bool {
	if to == OrderStatusCancelled {
		return from != OrderStatusCancelled
	}
	for _, next := range statusEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusPredecessor returns the status an order must currently be in for an
// admin to advance it to target. The empty string means the target is not
// admin-advanceable.
func StatusPredecessor(target string) string {
	switch target {
	case OrderStatusInProduction:
		return OrderStatusPaid
	case OrderStatusShipped:
		return OrderStatusInProduction
	case OrderStatusCompleted:
		return OrderStatusShipped
	default:
		return ""
	}
}

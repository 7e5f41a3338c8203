package models

import (
	"time"

	"github.com/google/uuid"
)

// order status
const (
	OrderStatusAwaitingPayment = "awaiting_payment"
	OrderStatusPaid            = "paid"
	OrderStatusInProduction    = "in_production"
	OrderStatusShipped         = "shipped"
	OrderStatusCompleted       = "completed"
	OrderStatusCancelled       = "cancelled"
	OrderStatusArchived        = "archived"
)

// order type
const (
	OrderTypeOnline     = "online"
	OrderTypeManualSale = "manual_sale"
)

// payment proof review status
const (
	ReviewStatusPending  = "pending"
	ReviewStatusVerified = "verified"
	ReviewStatusRejected = "rejected"
)

// GuestContact is inline contact info for orders placed without an account.
type GuestContact struct {
	Name    string
	Contact string
	Email   string
}

// Owner identifies who placed the order: a registered user or a guest,
// never both.
type Owner struct {
	UserID *uint64
	Guest  *GuestContact
}

// Registered reports whether the order belongs to a registered user.
func (o Owner) Registered() bool {
	return o.UserID != nil
}

// PaymentProof is the customer-submitted evidence of an out-of-band payment,
// or the gateway transaction reference once a webhook settles the order.
type PaymentProof struct {
	StorageRef   string
	Method       string
	Reference    string
	ReviewStatus string
	Reason       string
}

// Order is the root aggregate of the purchase pipeline.
type Order struct {
	ID               uuid.UUID
	Owner            Owner
	Type             string
	Status           string
	Currency         string
	Proof            *PaymentProof
	ShippingAddress  string
	TrackingNumber   string
	ShippingProvider string
	Items            []OrderItem
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderItem is one purchased variant line. UnitPrice is captured from the
// catalog at creation time and never recomputed.
type OrderItem struct {
	ID        uint64
	OrderID   uuid.UUID
	VariantID uint64
	Quantity  int32
	UnitPrice int64
}

// Subtotal sums unit price times quantity over all lines, in minor units.
func (o *Order) Subtotal() int64 {
	var total int64
	for _, it := range o.Items {
		total += it.UnitPrice * int64(it.Quantity)
	}
	return total
}

// Contact returns the address notifications should be sent to.
func (o *Order) Contact() string {
	if o.Owner.Guest != nil {
		if o.Owner.Guest.Email != "" {
			return o.Owner.Guest.Email
		}
		return o.Owner.Guest.Contact
	}
	return ""
}

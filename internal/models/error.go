package models

import "errors"

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrVariantNotFound    = errors.New("variant not found")
	ErrOutOfStock         = errors.New("insufficient stock")
	ErrPriceUnavailable   = errors.New("variant has no price")
	ErrInvalidState       = errors.New("illegal status transition")
	ErrAlreadySettled     = errors.New("order is already paid")
	ErrAlreadyCancelled   = errors.New("order is already cancelled")
	ErrUnverifiedWebhook  = errors.New("webhook signature mismatch")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrUnknownGateway     = errors.New("unknown payment gateway")
	ErrConflictData       = errors.New("data conflicts with existing data")
	ErrInvalidCredentials = errors.New("invalid login or password")
)

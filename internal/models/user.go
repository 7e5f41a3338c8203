package models

import "time"

// User is a registered account. Admins drive the order review surface,
// regular users accumulate loyalty tokens on completed orders.
type User struct {
	ID           uint64
	Login        string
	PasswordHash string
	IsAdmin      bool
	Tokens       int64
	CreatedAt    time.Time
}

// TokenPayload is the verified content of an auth token.
type TokenPayload struct {
	UserID uint64
	Admin  bool
}

package pairing

import (
	"time"
)

// Code represents a one-time bootstrap ticket that lets a future scan bind a
// token to a target account. A code transitions Pending -> Completed at most
// once, and only before its expiry; expiry is evaluated lazily on read.
type Code struct {
	ID          int64      `json:"id"`
	Code        string     `json:"code"`
	AccountID   int64      `json:"account_id"`
	ExpiresAt   time.Time  `json:"expires_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	BindingID   *int64     `json:"binding_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Completed reports whether the code has already been used
func (c *Code) Completed() bool {
	return c.CompletedAt != nil
}

// Expired reports whether the code is past its expiry at the given instant
func (c *Code) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}

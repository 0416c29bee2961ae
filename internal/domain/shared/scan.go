package shared

import (
	"errors"
	"time"
)

var (
	// ErrMissingAmount indicates a scan without an explicit amount and no
	// unexpired pending checkout for the reader.
	ErrMissingAmount = errors.New("no amount supplied and no pending checkout for reader")

	// ErrValidation indicates missing or malformed required fields; rejected
	// before any lock is taken.
	ErrValidation = errors.New("invalid request")
)

// ScanRequest is the payload a reader submits for one physical tap. The
// idempotency key is generated client-side per tap, so retries across the
// delivery queue collapse into a single ledger entry.
type ScanRequest struct {
	IdempotencyKey string    `json:"idempotency_key"`
	TokenUID       string    `json:"uid"`
	ReaderName     string    `json:"reader_name,omitempty"`
	Product        string    `json:"product,omitempty"`
	Amount         *int64    `json:"amount,omitempty"` // cents/minor units
	CorrelationID  string    `json:"correlation_id,omitempty"`
	Timestamp      time.Time `json:"timestamp,omitempty"`
}

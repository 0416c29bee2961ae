package ledger

import (
	"time"
)

// EntryType discriminates balance-affecting events
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// Entry represents one immutable balance-affecting event. The idempotency key
// is client-supplied and globally unique; the first committed writer for a key
// determines the outcome observed by every retry.
type Entry struct {
	ID             int64     `json:"id"`
	IdempotencyKey string    `json:"idempotency_key"`
	AccountID      int64     `json:"account_id"`
	BindingID      *int64    `json:"binding_id,omitempty"`
	Type           EntryType `json:"type"`
	Amount         int64     `json:"amount"` // Stored in cents/minor units, always positive
	Description    string    `json:"description,omitempty"`
	ReaderName     string    `json:"reader_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

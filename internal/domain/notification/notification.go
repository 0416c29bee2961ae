package notification

import (
	"context"
	"time"
)

// Kind classifies notification events
type Kind string

const (
	KindPurchase Kind = "purchase"
	KindRecharge Kind = "recharge"
	KindPairing  Kind = "pairing"
)

// Notification describes one event on the fire-and-forget audit side-channel.
// The core publishes these best-effort after commit; a lost notification never
// affects ledger correctness.
type Notification struct {
	ID            string    `json:"id" bson:"id"`
	Kind          Kind      `json:"kind" bson:"kind"`
	AccountID     int64     `json:"account_id" bson:"account_id"`
	EntryID       *int64    `json:"entry_id,omitempty" bson:"entry_id,omitempty"`
	Amount        int64     `json:"amount,omitempty" bson:"amount,omitempty"`
	Message       string    `json:"message" bson:"message"`
	ReaderName    string    `json:"reader_name,omitempty" bson:"reader_name,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// Repository defines the audit store written by the notification worker
type Repository interface {
	Insert(ctx context.Context, n *Notification) error
	CountByAccount(ctx context.Context, accountID int64) (int64, error)
}

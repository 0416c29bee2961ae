package ledger

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
)

// HistoryFilter narrows transaction history listings
type HistoryFilter struct {
	Start  *time.Time
	End    *time.Time
	Limit  int
	Offset int
}

// Repository defines ledger entry persistence operations. Entries are
// append-only; there is no update or delete.
type Repository interface {
	// GetByIdempotencyKey returns the entry written under the key, or nil if
	// the key has never been processed.
	GetByIdempotencyKey(ctx context.Context, key string) (*Entry, error)

	// Create inserts the entry and fills its generated ID and timestamp.
	Create(ctx context.Context, entry *Entry) error

	GetByID(ctx context.Context, id int64) (*Entry, error)

	// ListByAccount returns entries for the account, newest first.
	ListByAccount(ctx context.Context, accountID int64, filter HistoryFilter) ([]*Entry, error)

	CountByAccount(ctx context.Context, accountID int64) (int64, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrEntryNotFound indicates a missing ledger entry
type ErrEntryNotFound struct {
	EntryID int64
}

func (e ErrEntryNotFound) Error() string {
	return "ledger entry not found: " + strconv.FormatInt(e.EntryID, 10)
}

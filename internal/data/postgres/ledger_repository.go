package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/tapband-wallet/internal/domain/ledger"
	"github.com/tapband-wallet/internal/platform/persistence"
)

// LedgerRepository implements the ledger.Repository interface for PostgreSQL
type LedgerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &LedgerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls.
func (r *LedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &LedgerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const entryColumns = `id, idempotency_key, account_id, binding_id, type, amount, description, reader_name, created_at`

func scanEntry(row pgx.Row) (*ledger.Entry, error) {
	var e ledger.Entry
	err := row.Scan(
		&e.ID,
		&e.IdempotencyKey,
		&e.AccountID,
		&e.BindingID,
		&e.Type,
		&e.Amount,
		&e.Description,
		&e.ReaderName,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetByIdempotencyKey returns the entry committed under the key, or nil if the
// key has never been processed. This lookup is the replay fast path; the unique
// index on idempotency_key backs it up against concurrent first writers.
func (r *LedgerRepository) GetByIdempotencyKey(ctx context.Context, key string) (*ledger.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE idempotency_key = $1
	`

	e, err := scanEntry(r.querier.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get entry by idempotency key", "idempotency_key", key, "error", err)
		return nil, fmt.Errorf("failed to get entry by idempotency key: %w", err)
	}

	return e, nil
}

// Create inserts the entry and fills its generated ID and timestamp
func (r *LedgerRepository) Create(ctx context.Context, entry *ledger.Entry) error {
	query := `
		INSERT INTO ledger_entries (idempotency_key, account_id, binding_id, type, amount, description, reader_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.querier.QueryRow(ctx, query,
		entry.IdempotencyKey,
		entry.AccountID,
		entry.BindingID,
		entry.Type,
		entry.Amount,
		entry.Description,
		entry.ReaderName,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create ledger entry", "idempotency_key", entry.IdempotencyKey, "error", err)
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}

	return nil
}

// GetByID retrieves a ledger entry by its ID
func (r *LedgerRepository) GetByID(ctx context.Context, id int64) (*ledger.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE id = $1
	`

	e, err := scanEntry(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrEntryNotFound{EntryID: id}
		}
		r.logger.Error("Failed to get ledger entry", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	return e, nil
}

// ListByAccount returns entries for the account, newest first, honoring the
// optional time window and pagination in the filter.
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID int64, filter ledger.HistoryFilter) ([]*ledger.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE account_id = $1
	`
	args := []interface{}{accountID}

	if filter.Start != nil {
		args = append(args, *filter.Start)
		query += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if filter.End != nil {
		args = append(args, *filter.End)
		query += ` AND created_at <= $` + strconv.Itoa(len(args))
	}

	query += ` ORDER BY created_at DESC, id DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list ledger entries", "account_id", accountID, "error", err)
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*ledger.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}

	return entries, nil
}

// CountByAccount returns the total number of entries for the account
func (r *LedgerRepository) CountByAccount(ctx context.Context, accountID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1`

	var count int64
	if err := r.querier.QueryRow(ctx, query, accountID).Scan(&count); err != nil {
		r.logger.Error("Failed to count ledger entries", "account_id", accountID, "error", err)
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	return count, nil
}

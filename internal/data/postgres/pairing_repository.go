package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/tapband-wallet/internal/domain/pairing"
	"github.com/tapband-wallet/internal/platform/persistence"
)

// PairingRepository implements the pairing.Repository interface for PostgreSQL
type PairingRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewPairingRepository(logger *slog.Logger, db *persistence.PostgresDB) pairing.Repository {
	return &PairingRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls.
func (r *PairingRepository) WithTx(tx pgx.Tx) pairing.Repository {
	return &PairingRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const pairingColumns = `id, code, account_id, expires_at, completed_at, binding_id, created_at`

func scanPairingCode(row pgx.Row) (*pairing.Code, error) {
	var c pairing.Code
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.AccountID,
		&c.ExpiresAt,
		&c.CompletedAt,
		&c.BindingID,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new pending pairing code and fills its generated ID
func (r *PairingRepository) Create(ctx context.Context, code *pairing.Code) error {
	query := `
		INSERT INTO pairing_codes (code, account_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.querier.QueryRow(ctx, query,
		code.Code,
		code.AccountID,
		code.ExpiresAt,
	).Scan(&code.ID, &code.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create pairing code", "account_id", code.AccountID, "error", err)
		return fmt.Errorf("failed to create pairing code: %w", err)
	}

	return nil
}

// GetByCode returns the pairing code row, or nil if unknown
func (r *PairingRepository) GetByCode(ctx context.Context, code string) (*pairing.Code, error) {
	query := `
		SELECT ` + pairingColumns + `
		FROM pairing_codes
		WHERE code = $1
	`

	c, err := scanPairingCode(r.querier.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get pairing code", "code", code, "error", err)
		return nil, fmt.Errorf("failed to get pairing code: %w", err)
	}

	return c, nil
}

// GetByCodeForUpdate locks the code row so completion attempts serialize.
// Returns nil if no row exists for the code.
func (r *PairingRepository) GetByCodeForUpdate(ctx context.Context, code string) (*pairing.Code, error) {
	query := `
		SELECT ` + pairingColumns + `
		FROM pairing_codes
		WHERE code = $1
		FOR UPDATE
	`

	c, err := scanPairingCode(r.querier.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to lock pairing code", "code", code, "error", err)
		return nil, fmt.Errorf("failed to lock pairing code: %w", err)
	}

	return c, nil
}

// CodeExists reports whether any row uses the code value
func (r *PairingRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM pairing_codes WHERE code = $1)`

	var exists bool
	if err := r.querier.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		r.logger.Error("Failed to check pairing code existence", "code", code, "error", err)
		return false, fmt.Errorf("failed to check pairing code existence: %w", err)
	}

	return exists, nil
}

// Complete stamps the completion time and the binding the pairing produced
func (r *PairingRepository) Complete(ctx context.Context, id int64, bindingID int64) error {
	query := `
		UPDATE pairing_codes
		SET completed_at = NOW(), binding_id = $1
		WHERE id = $2 AND completed_at IS NULL
	`

	result, err := r.querier.Exec(ctx, query, bindingID, id)
	if err != nil {
		r.logger.Error("Failed to complete pairing code", "id", id, "error", err)
		return fmt.Errorf("failed to complete pairing code: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("pairing code %d already completed or missing", id)
	}

	return nil
}

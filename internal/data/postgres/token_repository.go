package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/tapband-wallet/internal/domain/token"
	"github.com/tapband-wallet/internal/platform/persistence"
)

// TokenRepository implements the token.Repository interface for PostgreSQL
type TokenRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewTokenRepository(logger *slog.Logger, db *persistence.PostgresDB) token.Repository {
	return &TokenRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls.
func (r *TokenRepository) WithTx(tx pgx.Tx) token.Repository {
	return &TokenRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const bindingColumns = `id, account_id, token_code, active, created_at, updated_at`

func scanBinding(row pgx.Row) (*token.Binding, error) {
	var b token.Binding
	err := row.Scan(
		&b.ID,
		&b.AccountID,
		&b.TokenCode,
		&b.Active,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetActiveByCode returns the unique active binding for a token code, or nil
// if the token is not actively bound.
func (r *TokenRepository) GetActiveByCode(ctx context.Context, code string) (*token.Binding, error) {
	query := `
		SELECT ` + bindingColumns + `
		FROM token_bindings
		WHERE token_code = $1 AND active = TRUE
	`

	b, err := scanBinding(r.querier.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get active binding by code", "token_code", code, "error", err)
		return nil, fmt.Errorf("failed to get active binding by code: %w", err)
	}

	return b, nil
}

// GetByCodeForUpdate locks the most recent binding row for the token code so
// concurrent bind attempts on the same token serialize. Returns nil if no row
// exists for the code.
func (r *TokenRepository) GetByCodeForUpdate(ctx context.Context, code string) (*token.Binding, error) {
	query := `
		SELECT ` + bindingColumns + `
		FROM token_bindings
		WHERE token_code = $1
		ORDER BY active DESC, updated_at DESC
		LIMIT 1
		FOR UPDATE
	`

	b, err := scanBinding(r.querier.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to lock binding by code", "token_code", code, "error", err)
		return nil, fmt.Errorf("failed to lock binding by code: %w", err)
	}

	return b, nil
}

// GetActiveByAccount returns the account's active binding, or nil
func (r *TokenRepository) GetActiveByAccount(ctx context.Context, accountID int64) (*token.Binding, error) {
	query := `
		SELECT ` + bindingColumns + `
		FROM token_bindings
		WHERE account_id = $1 AND active = TRUE
		ORDER BY updated_at DESC
		LIMIT 1
	`

	b, err := scanBinding(r.querier.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get active binding by account", "account_id", accountID, "error", err)
		return nil, fmt.Errorf("failed to get active binding by account: %w", err)
	}

	return b, nil
}

// GetByCode returns the most recent binding row for the code regardless of
// its active flag, or nil if the token has never been bound.
func (r *TokenRepository) GetByCode(ctx context.Context, code string) (*token.Binding, error) {
	query := `
		SELECT ` + bindingColumns + `
		FROM token_bindings
		WHERE token_code = $1
		ORDER BY active DESC, updated_at DESC
		LIMIT 1
	`

	b, err := scanBinding(r.querier.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get binding by code", "token_code", code, "error", err)
		return nil, fmt.Errorf("failed to get binding by code: %w", err)
	}

	return b, nil
}

// DeactivateOthers deactivates the account's active bindings for any token
// other than the given code, enforcing the one-active-token-per-account rule.
func (r *TokenRepository) DeactivateOthers(ctx context.Context, accountID int64, exceptCode string) (int64, error) {
	query := `
		UPDATE token_bindings
		SET active = FALSE, updated_at = NOW()
		WHERE account_id = $1 AND token_code <> $2 AND active = TRUE
	`

	result, err := r.querier.Exec(ctx, query, accountID, exceptCode)
	if err != nil {
		r.logger.Error("Failed to deactivate other bindings", "account_id", accountID, "error", err)
		return 0, fmt.Errorf("failed to deactivate other bindings: %w", err)
	}

	return result.RowsAffected(), nil
}

// DeactivateByAccount deactivates all active bindings for the account
func (r *TokenRepository) DeactivateByAccount(ctx context.Context, accountID int64) (int64, error) {
	query := `
		UPDATE token_bindings
		SET active = FALSE, updated_at = NOW()
		WHERE account_id = $1 AND active = TRUE
	`

	result, err := r.querier.Exec(ctx, query, accountID)
	if err != nil {
		r.logger.Error("Failed to deactivate bindings by account", "account_id", accountID, "error", err)
		return 0, fmt.Errorf("failed to deactivate bindings by account: %w", err)
	}

	return result.RowsAffected(), nil
}

// Activate reactivates an existing binding row and reassigns it to the account
func (r *TokenRepository) Activate(ctx context.Context, id int64, accountID int64) (*token.Binding, error) {
	query := `
		UPDATE token_bindings
		SET account_id = $1, active = TRUE, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + bindingColumns + `
	`

	b, err := scanBinding(r.querier.QueryRow(ctx, query, accountID, id))
	if err != nil {
		r.logger.Error("Failed to activate binding", "id", id, "account_id", accountID, "error", err)
		return nil, fmt.Errorf("failed to activate binding: %w", err)
	}

	return b, nil
}

// Create inserts a new active binding
func (r *TokenRepository) Create(ctx context.Context, accountID int64, code string) (*token.Binding, error) {
	query := `
		INSERT INTO token_bindings (account_id, token_code, active, created_at, updated_at)
		VALUES ($1, $2, TRUE, NOW(), NOW())
		RETURNING ` + bindingColumns + `
	`

	b, err := scanBinding(r.querier.QueryRow(ctx, query, accountID, code))
	if err != nil {
		r.logger.Error("Failed to create binding", "account_id", accountID, "token_code", code, "error", err)
		return nil, fmt.Errorf("failed to create binding: %w", err)
	}

	return b, nil
}

package token

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// Repository defines token binding persistence operations. Token codes passed
// to the repository are assumed to already be in normalized form.
type Repository interface {
	// GetActiveByCode returns the unique active binding for a token code,
	// or nil if the token is not bound.
	GetActiveByCode(ctx context.Context, code string) (*Binding, error)

	// GetByCodeForUpdate locks the binding row for a token code regardless of
	// its active flag, or returns nil if no row exists. Used to serialize
	// concurrent bind attempts on the same token.
	GetByCodeForUpdate(ctx context.Context, code string) (*Binding, error)

	// GetActiveByAccount returns the account's active binding, or nil.
	GetActiveByAccount(ctx context.Context, accountID int64) (*Binding, error)

	// GetByCode returns the binding row for a token code regardless of state,
	// or nil if unknown.
	GetByCode(ctx context.Context, code string) (*Binding, error)

	// DeactivateOthers deactivates the account's active bindings for any token
	// other than the given code. Returns the number of rows deactivated.
	DeactivateOthers(ctx context.Context, accountID int64, exceptCode string) (int64, error)

	// DeactivateByAccount deactivates all active bindings for the account.
	DeactivateByAccount(ctx context.Context, accountID int64) (int64, error)

	// Activate reactivates an existing binding row and reassigns it.
	Activate(ctx context.Context, id int64, accountID int64) (*Binding, error)

	// Create inserts a new active binding.
	Create(ctx context.Context, accountID int64, code string) (*Binding, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrTokenInUse indicates the token is actively bound to a different account
type ErrTokenInUse struct {
	TokenCode string
	AccountID int64
}

func (e ErrTokenInUse) Error() string {
	return "token " + e.TokenCode + " is in use by account " + strconv.FormatInt(e.AccountID, 10)
}

// ErrUnknownToken indicates no active binding exists for the token
type ErrUnknownToken struct {
	TokenCode string
}

func (e ErrUnknownToken) Error() string {
	return "no active binding for token " + e.TokenCode
}

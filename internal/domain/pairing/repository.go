package pairing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// Common errors
var (
	// ErrCodeGenerationExhausted indicates repeated collisions while
	// generating a fresh pairing code.
	ErrCodeGenerationExhausted = errors.New("pairing code generation exhausted after repeated collisions")
)

// Repository defines pairing code persistence operations
type Repository interface {
	// Create inserts a new pending code and fills its generated ID.
	Create(ctx context.Context, code *Code) error

	// GetByCode returns the code row, or nil if unknown.
	GetByCode(ctx context.Context, code string) (*Code, error)

	// GetByCodeForUpdate locks the code row so completion is serialized.
	GetByCodeForUpdate(ctx context.Context, code string) (*Code, error)

	// CodeExists reports whether any row uses the code value.
	CodeExists(ctx context.Context, code string) (bool, error)

	// Complete stamps the completion time and resulting binding.
	Complete(ctx context.Context, id int64, bindingID int64) error

	WithTx(tx pgx.Tx) Repository
}

// ErrCodeNotFound indicates an unknown pairing code
type ErrCodeNotFound struct {
	Code string
}

func (e ErrCodeNotFound) Error() string {
	return "pairing code not found: " + e.Code
}

// ErrCodeExpired indicates a completion attempt past the code's expiry
type ErrCodeExpired struct {
	Code string
}

func (e ErrCodeExpired) Error() string {
	return "pairing code expired: " + e.Code
}

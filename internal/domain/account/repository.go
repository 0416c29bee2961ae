package account

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// Repository defines account persistence operations
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id int64) (*Account, error)

	// LockForUpdate acquires a pessimistic lock on the balance row
	LockForUpdate(ctx context.Context, id int64) (*Account, error)

	// UpdateBalance writes the new balance; callers must hold the row lock
	UpdateBalance(ctx context.Context, id int64, newBalance int64) error

	WithTx(tx pgx.Tx) Repository
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountID int64
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + strconv.FormatInt(e.AccountID, 10)
}

// ErrInsufficientBalance indicates a debit that would take the balance below zero
type ErrInsufficientBalance struct {
	AccountID int64
	Balance   int64
	Amount    int64
}

func (e ErrInsufficientBalance) Error() string {
	return "insufficient balance on account " + strconv.FormatInt(e.AccountID, 10) +
		": have " + strconv.FormatInt(e.Balance, 10) +
		", need " + strconv.FormatInt(e.Amount, 10)
}

package account

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrEmptyDisplayName = errors.New("display name cannot be empty")
)

// Account represents a person with a spendable prepaid balance.
// The balance is mutated only by the ledger and never goes negative.
type Account struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	Balance     int64     `json:"balance"` // Stored in cents/minor units
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewAccount creates a new account with the given parameters
func NewAccount(displayName string, initialBalance int64) (*Account, error) {
	if displayName == "" {
		return nil, ErrEmptyDisplayName
	}
	if initialBalance < 0 {
		return nil, ErrInvalidAmount
	}

	return &Account{
		DisplayName: displayName,
		Balance:     initialBalance,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}, nil
}

// CanDebit checks if the account has sufficient funds for a debit
func (a *Account) CanDebit(amount int64) bool {
	return a.Balance >= amount
}

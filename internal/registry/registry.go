// Package registry manages the association between physical NFC tokens and
// accounts. It owns the binding lifecycle: resolution during scans, explicit
// binds from the portal, pairing-driven binds, and unbinds.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/tapband-wallet/internal/domain/account"
	"github.com/tapband-wallet/internal/domain/token"
	"github.com/tapband-wallet/internal/platform/persistence"
)

// Registry provides token binding operations
type Registry struct {
	logger      *slog.Logger
	accountRepo account.Repository
	tokenRepo   token.Repository
	txRunner    persistence.TxRunner
}

// NewRegistry creates a new token registry
func NewRegistry(
	logger *slog.Logger,
	accountRepo account.Repository,
	tokenRepo token.Repository,
	txRunner persistence.TxRunner,
) *Registry {
	return &Registry{
		logger:      logger,
		accountRepo: accountRepo,
		tokenRepo:   tokenRepo,
		txRunner:    txRunner,
	}
}

// Resolve maps a raw token UID to its active binding.
// Returns token.ErrUnknownToken if the token is not actively bound.
func (r *Registry) Resolve(ctx context.Context, uid string) (*token.Binding, error) {
	code := token.Normalize(uid)
	if code == "" {
		return nil, token.ErrUnknownToken{TokenCode: code}
	}

	binding, err := r.tokenRepo.GetActiveByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if binding == nil {
		return nil, token.ErrUnknownToken{TokenCode: code}
	}

	return binding, nil
}

// Lookup returns the binding state for a token regardless of whether it is
// active, or nil if the token has never been bound.
func (r *Registry) Lookup(ctx context.Context, uid string) (*token.Binding, error) {
	code := token.Normalize(uid)
	return r.tokenRepo.GetByCode(ctx, code)
}

// ActiveBinding returns the account's active binding, or nil if it has none
func (r *Registry) ActiveBinding(ctx context.Context, accountID int64) (*token.Binding, error) {
	if _, err := r.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	return r.tokenRepo.GetActiveByAccount(ctx, accountID)
}

// Bind associates the token with the account in its own transaction.
// Returns token.ErrTokenInUse if another account holds the token.
func (r *Registry) Bind(ctx context.Context, accountID int64, uid string) (*token.Binding, error) {
	var binding *token.Binding

	err := r.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		binding, txErr = r.BindTx(ctx, tx, accountID, uid)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	return binding, nil
}

// BindTx associates the token with the account inside the caller's
// transaction, so pairing completion can bind and stamp its code atomically.
// The account must exist. The binding row for the token is locked first, which
// serializes concurrent bind attempts on the same token; whichever commits
// last owns it. Any other active binding the account holds is deactivated so
// at most one token pays from an account at a time.
func (r *Registry) BindTx(ctx context.Context, tx pgx.Tx, accountID int64, uid string) (*token.Binding, error) {
	code := token.Normalize(uid)
	if code == "" {
		return nil, fmt.Errorf("token uid is empty after normalization")
	}

	accountRepo := r.accountRepo.WithTx(tx)
	tokenRepo := r.tokenRepo.WithTx(tx)

	if _, err := accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	existing, err := tokenRepo.GetByCodeForUpdate(ctx, code)
	if err != nil {
		return nil, err
	}

	if existing != nil && existing.Active && existing.AccountID != accountID {
		return nil, token.ErrTokenInUse{TokenCode: code, AccountID: existing.AccountID}
	}

	deactivated, err := tokenRepo.DeactivateOthers(ctx, accountID, code)
	if err != nil {
		return nil, err
	}
	if deactivated > 0 {
		r.logger.Info("Deactivated previous bindings",
			"account_id", accountID,
			"count", deactivated,
		)
	}

	var binding *token.Binding
	if existing != nil {
		binding, err = tokenRepo.Activate(ctx, existing.ID, accountID)
	} else {
		binding, err = tokenRepo.Create(ctx, accountID, code)
	}
	if err != nil {
		return nil, err
	}

	r.logger.Info("Bound token",
		"account_id", accountID,
		"token_code", code,
		"binding_id", binding.ID,
	)

	return binding, nil
}

// Unbind deactivates all of the account's active bindings and returns how
// many were released. Unbinding an account with no active binding is a no-op.
func (r *Registry) Unbind(ctx context.Context, accountID int64) (int64, error) {
	if _, err := r.accountRepo.GetByID(ctx, accountID); err != nil {
		return 0, err
	}

	var released int64
	err := r.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		released, txErr = r.tokenRepo.WithTx(tx).DeactivateByAccount(ctx, accountID)
		return txErr
	})
	if err != nil {
		return 0, err
	}

	if released > 0 {
		r.logger.Info("Unbound tokens", "account_id", accountID, "count", released)
	}

	return released, nil
}

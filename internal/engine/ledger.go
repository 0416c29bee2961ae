// Package engine implements the wallet core: exactly-once debits and credits
// against prepaid balances, and the scan pipeline that feeds them.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tapband-wallet/internal/domain/account"
	"github.com/tapband-wallet/internal/domain/ledger"
	"github.com/tapband-wallet/internal/domain/notification"
	"github.com/tapband-wallet/internal/platform/messaging/producers"
	"github.com/tapband-wallet/internal/platform/persistence"
)

// DebitResult reports the outcome of a debit or credit application.
// AlreadyProcessed marks a replay: Entry holds the originally committed
// entry and NewBalance is not meaningful.
type DebitResult struct {
	Entry            *ledger.Entry
	NewBalance       int64
	AlreadyProcessed bool
}

// Ledger applies balance-affecting operations with exactly-once semantics.
// Each application locks the account row, checks the idempotency key, and
// writes the entry and new balance in one transaction.
type Ledger struct {
	logger      *slog.Logger
	accountRepo account.Repository
	ledgerRepo  ledger.Repository
	txRunner    persistence.TxRunner
	publisher   producers.MessagePublisher

	now func() time.Time
}

// NewLedger creates the ledger service. The publisher may be nil, in which
// case no notification events are emitted.
func NewLedger(
	logger *slog.Logger,
	accountRepo account.Repository,
	ledgerRepo ledger.Repository,
	txRunner persistence.TxRunner,
	publisher producers.MessagePublisher,
) *Ledger {
	return &Ledger{
		logger:      logger,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		txRunner:    txRunner,
		publisher:   publisher,
		now:         time.Now,
	}
}

// DebitRequest describes one debit application
type DebitRequest struct {
	IdempotencyKey string
	AccountID      int64
	BindingID      *int64
	Amount         int64 // Cents, must be positive
	Description    string
	ReaderName     string
	CorrelationID  string
}

// CreditRequest describes one credit application
type CreditRequest struct {
	IdempotencyKey string
	AccountID      int64
	Amount         int64 // Cents, must be positive
	Description    string
	CorrelationID  string
}

// ApplyDebit debits the account in its own transaction and publishes a
// purchase notification after commit.
func (l *Ledger) ApplyDebit(ctx context.Context, req DebitRequest) (*DebitResult, error) {
	var result *DebitResult

	err := l.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		result, txErr = l.DebitTx(ctx, tx, req)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyProcessed {
		l.publishEntry(ctx, notification.KindPurchase, result.Entry, req.CorrelationID)
	}

	return result, nil
}

// DebitTx debits the account inside the caller's transaction. The scan
// pipeline uses this form so auto-pairing and the debit commit together.
//
// Order matters: the idempotency check runs before the row lock so replays
// return without contending for the account, but the unique index on the key
// still catches two first-writers racing past the check; the loser's
// transaction fails and its retry sees the winner's entry.
func (l *Ledger) DebitTx(ctx context.Context, tx pgx.Tx, req DebitRequest) (*DebitResult, error) {
	if req.Amount <= 0 {
		return nil, account.ErrInvalidAmount
	}

	accountRepo := l.accountRepo.WithTx(tx)
	ledgerRepo := l.ledgerRepo.WithTx(tx)

	existing, err := ledgerRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		l.logger.Info("Replayed debit",
			"idempotency_key", req.IdempotencyKey,
			"entry_id", existing.ID,
		)
		return &DebitResult{Entry: existing, AlreadyProcessed: true}, nil
	}

	acc, err := accountRepo.LockForUpdate(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	if !acc.CanDebit(req.Amount) {
		return nil, account.ErrInsufficientBalance{
			AccountID: acc.ID,
			Balance:   acc.Balance,
			Amount:    req.Amount,
		}
	}

	newBalance := acc.Balance - req.Amount
	if err := accountRepo.UpdateBalance(ctx, acc.ID, newBalance); err != nil {
		return nil, err
	}

	entry := &ledger.Entry{
		IdempotencyKey: req.IdempotencyKey,
		AccountID:      acc.ID,
		BindingID:      req.BindingID,
		Type:           ledger.EntryTypeDebit,
		Amount:         req.Amount,
		Description:    req.Description,
		ReaderName:     req.ReaderName,
	}
	if err := ledgerRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	l.logger.Info("Applied debit",
		"idempotency_key", req.IdempotencyKey,
		"account_id", acc.ID,
		"amount", req.Amount,
		"new_balance", newBalance,
	)

	return &DebitResult{Entry: entry, NewBalance: newBalance}, nil
}

// ApplyCredit credits the account in its own transaction and publishes a
// recharge notification after commit. An empty idempotency key gets a
// server-generated one, so portal recharges without a key are still recorded
// but not replay-protected across client retries.
func (l *Ledger) ApplyCredit(ctx context.Context, req CreditRequest) (*DebitResult, error) {
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = "recharge:" + uuid.NewString()
	}

	var result *DebitResult

	err := l.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		result, txErr = l.CreditTx(ctx, tx, req)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyProcessed {
		l.publishEntry(ctx, notification.KindRecharge, result.Entry, req.CorrelationID)
	}

	return result, nil
}

// CreditTx credits the account inside the caller's transaction
func (l *Ledger) CreditTx(ctx context.Context, tx pgx.Tx, req CreditRequest) (*DebitResult, error) {
	if req.Amount <= 0 {
		return nil, account.ErrInvalidAmount
	}

	accountRepo := l.accountRepo.WithTx(tx)
	ledgerRepo := l.ledgerRepo.WithTx(tx)

	existing, err := ledgerRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		l.logger.Info("Replayed credit",
			"idempotency_key", req.IdempotencyKey,
			"entry_id", existing.ID,
		)
		return &DebitResult{Entry: existing, AlreadyProcessed: true}, nil
	}

	acc, err := accountRepo.LockForUpdate(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	newBalance := acc.Balance + req.Amount
	if err := accountRepo.UpdateBalance(ctx, acc.ID, newBalance); err != nil {
		return nil, err
	}

	entry := &ledger.Entry{
		IdempotencyKey: req.IdempotencyKey,
		AccountID:      acc.ID,
		Type:           ledger.EntryTypeCredit,
		Amount:         req.Amount,
		Description:    req.Description,
	}
	if err := ledgerRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	l.logger.Info("Applied credit",
		"idempotency_key", req.IdempotencyKey,
		"account_id", acc.ID,
		"amount", req.Amount,
		"new_balance", newBalance,
	)

	return &DebitResult{Entry: entry, NewBalance: newBalance}, nil
}

// History returns the account's entries plus the total count for pagination
func (l *Ledger) History(ctx context.Context, accountID int64, filter ledger.HistoryFilter) ([]*ledger.Entry, int64, error) {
	if _, err := l.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, 0, err
	}

	entries, err := l.ledgerRepo.ListByAccount(ctx, accountID, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := l.ledgerRepo.CountByAccount(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// publishEntry emits a best-effort notification for a committed entry
func (l *Ledger) publishEntry(ctx context.Context, kind notification.Kind, entry *ledger.Entry, correlationID string) {
	if l.publisher == nil {
		return
	}

	n := &notification.Notification{
		ID:            uuid.NewString(),
		Kind:          kind,
		AccountID:     entry.AccountID,
		EntryID:       &entry.ID,
		Amount:        entry.Amount,
		Message:       entry.Description,
		ReaderName:    entry.ReaderName,
		CorrelationID: correlationID,
		CreatedAt:     l.now(),
	}

	if err := l.publisher.Publish(ctx, entry.IdempotencyKey, n); err != nil {
		l.logger.Warn("Failed to publish entry notification",
			"idempotency_key", entry.IdempotencyKey,
			"kind", string(kind),
			"error", err,
		)
	}
}

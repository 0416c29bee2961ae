package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/tapband-wallet/internal/domain/notification"
	"github.com/tapband-wallet/internal/domain/shared"
	"github.com/tapband-wallet/internal/domain/token"
	"github.com/tapband-wallet/internal/ephemeral"
	"github.com/tapband-wallet/internal/platform/persistence"
	"github.com/tapband-wallet/internal/registry"
)

// ScanResult reports the outcome of one processed tap
type ScanResult struct {
	Entry            *DebitResult
	Binding          *token.Binding
	AutoPaired       bool
	AlreadyProcessed bool
}

// Engine drives the scan pipeline: it resolves the charge amount, maps the
// token to an account (auto-pairing if a directive is armed for the reader),
// and applies the debit exactly once.
type Engine struct {
	logger    *slog.Logger
	registry  *registry.Registry
	ledger    *Ledger
	ephemeral *ephemeral.Store
	txRunner  persistence.TxRunner
}

// NewEngine creates the scan engine
func NewEngine(
	logger *slog.Logger,
	reg *registry.Registry,
	ledger *Ledger,
	ephemeralStore *ephemeral.Store,
	txRunner persistence.TxRunner,
) *Engine {
	return &Engine{
		logger:    logger,
		registry:  reg,
		ledger:    ledger,
		ephemeral: ephemeralStore,
		txRunner:  txRunner,
	}
}

// ProcessScan handles one tap submission. The amount comes from the request
// itself or from a checkout staged for the reader; a scan with neither is
// rejected before any lock is taken. Unknown tokens bind to the armed
// auto-pair target, if any, in the same transaction as the debit.
func (e *Engine) ProcessScan(ctx context.Context, req *shared.ScanRequest) (*ScanResult, error) {
	if req.IdempotencyKey == "" {
		return nil, fmt.Errorf("%w: idempotency_key is required", shared.ErrValidation)
	}
	if token.Normalize(req.TokenUID) == "" {
		return nil, fmt.Errorf("%w: uid is required", shared.ErrValidation)
	}

	amount, description, err := e.resolveAmount(req)
	if err != nil {
		return nil, err
	}

	var result *ScanResult

	err = e.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		binding, autoPaired, txErr := e.resolveBinding(ctx, tx, req)
		if txErr != nil {
			return txErr
		}

		debit, txErr := e.ledger.DebitTx(ctx, tx, DebitRequest{
			IdempotencyKey: req.IdempotencyKey,
			AccountID:      binding.AccountID,
			BindingID:      &binding.ID,
			Amount:         amount,
			Description:    description,
			ReaderName:     req.ReaderName,
			CorrelationID:  req.CorrelationID,
		})
		if txErr != nil {
			return txErr
		}

		result = &ScanResult{
			Entry:            debit,
			Binding:          binding,
			AutoPaired:       autoPaired,
			AlreadyProcessed: debit.AlreadyProcessed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyProcessed {
		e.ledger.publishEntry(ctx, notification.KindPurchase, result.Entry.Entry, req.CorrelationID)
	}

	return result, nil
}

// resolveAmount picks the charge for a scan: an explicit request amount wins,
// otherwise the reader's staged checkout is consumed. The checkout is consumed
// before the transaction opens; if the debit later fails the staged charge is
// gone, which matches the one-tap-per-checkout contract.
func (e *Engine) resolveAmount(req *shared.ScanRequest) (int64, string, error) {
	if req.Amount != nil {
		return *req.Amount, req.Product, nil
	}

	checkout, ok := e.ephemeral.ConsumeCheckout(req.ReaderName)
	if !ok {
		return 0, "", shared.ErrMissingAmount
	}

	description := req.Product
	if description == "" {
		description = checkout.Description
	}
	return checkout.Amount, description, nil
}

// resolveBinding maps the scanned token to an account binding. Unknown tokens
// consume the reader's auto-pair directive and bind inside the transaction; a
// failed debit afterwards rolls the new binding back but the directive stays
// consumed, so the portal re-arms if needed.
func (e *Engine) resolveBinding(ctx context.Context, tx pgx.Tx, req *shared.ScanRequest) (*token.Binding, bool, error) {
	binding, err := e.registry.Resolve(ctx, req.TokenUID)
	if err == nil {
		return binding, false, nil
	}

	var unknownErr token.ErrUnknownToken
	if !errors.As(err, &unknownErr) {
		return nil, false, err
	}

	autoPair, armed := e.ephemeral.ConsumeAutoPair(req.ReaderName)
	if !armed {
		return nil, false, err
	}

	e.logger.Info("Auto-pairing unknown token",
		"reader_name", req.ReaderName,
		"account_id", autoPair.AccountID,
	)

	binding, bindErr := e.registry.BindTx(ctx, tx, autoPair.AccountID, req.TokenUID)
	if bindErr != nil {
		return nil, false, bindErr
	}
	return binding, true, nil
}

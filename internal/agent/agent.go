package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tapband-wallet/internal/config"
	"github.com/tapband-wallet/internal/domain/shared"
)

// Agent is the tap-side entry point. Each accepted tap is journaled before
// the first network attempt, so once Tap returns nil the charge will reach
// the server eventually even if this attempt fails.
type Agent struct {
	logger    *slog.Logger
	queue     *FileQueue
	sender    *Sender
	debouncer *Debouncer
	cfg       *config.ReaderConfig
	now       func() time.Time
}

// NewAgent composes the delivery pipeline from its parts
func NewAgent(
	logger *slog.Logger,
	queue *FileQueue,
	sender *Sender,
	debouncer *Debouncer,
	cfg *config.ReaderConfig,
) *Agent {
	return &Agent{
		logger:    logger,
		queue:     queue,
		sender:    sender,
		debouncer: debouncer,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Tap handles one physical token presentation. Duplicate taps inside the
// debounce window are dropped before any key is generated, so they cannot
// create a second ledger entry under a fresh idempotency key.
func (a *Agent) Tap(ctx context.Context, uid string) error {
	if uid == "" {
		return fmt.Errorf("tap with empty uid: %w", shared.ErrValidation)
	}

	if !a.debouncer.Allow(uid, a.cfg.Name) {
		a.logger.Debug("Tap suppressed by debounce window", "uid", uid)
		return nil
	}

	scan := &shared.ScanRequest{
		IdempotencyKey: uuid.NewString(),
		TokenUID:       uid,
		ReaderName:     a.cfg.Name,
		Product:        a.cfg.DefaultProduct,
		CorrelationID:  uuid.NewString(),
		Timestamp:      a.now().UTC(),
	}
	if a.cfg.DefaultAmount > 0 {
		amount := a.cfg.DefaultAmount
		scan.Amount = &amount
	}

	if err := a.queue.Put(scan); err != nil {
		return fmt.Errorf("failed to journal tap: %w", err)
	}

	a.deliver(ctx, scan)
	return nil
}

// deliver attempts one synchronous send and settles the queue item when the
// attempt is conclusive. Retryable failures leave the item for the sweeper.
func (a *Agent) deliver(ctx context.Context, scan *shared.ScanRequest) {
	outcome, err := a.sender.Send(ctx, scan)
	switch outcome {
	case OutcomeDelivered:
		if err := a.queue.Remove(scan.IdempotencyKey); err != nil {
			a.logger.Warn("Failed to remove delivered scan from queue",
				"idempotency_key", scan.IdempotencyKey, "error", err)
		}
		a.logger.Info("Scan delivered",
			"idempotency_key", scan.IdempotencyKey, "uid", scan.TokenUID)
	case OutcomeRejected:
		if err := a.queue.Remove(scan.IdempotencyKey); err != nil {
			a.logger.Warn("Failed to remove rejected scan from queue",
				"idempotency_key", scan.IdempotencyKey, "error", err)
		}
		a.logger.Warn("Scan discarded after permanent rejection",
			"idempotency_key", scan.IdempotencyKey, "error", err)
	default:
		a.logger.Info("Scan delivery deferred to retry sweep",
			"idempotency_key", scan.IdempotencyKey, "error", err)
	}
}

package notification_worker

import (
	"context"
	"log/slog"

	"github.com/panjf2000/ants/v2"
	"github.com/tapband-wallet/internal/platform/messaging/consumers"
)

// WorkerPoolHandler fans message handling out over a bounded ants pool while
// preserving the consumer contract: HandleMessage returns only after the
// message is settled, so offsets are still committed in order.
type WorkerPoolHandler struct {
	base   *NotificationEventHandler
	pool   *ants.Pool
	logger *slog.Logger
}

// NewWorkerPoolHandler creates a pool-backed handler of the given size
func NewWorkerPoolHandler(
	logger *slog.Logger,
	base *NotificationEventHandler,
	size int,
) (*WorkerPoolHandler, error) {
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &WorkerPoolHandler{
		base:   base,
		pool:   pool,
		logger: logger,
	}, nil
}

// HandleMessage submits the message to the worker pool and waits for the
// result. It satisfies consumers.MessageHandler.
func (h *WorkerPoolHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	resultChan := make(chan error, 1)

	err := h.pool.Submit(func() {
		resultChan <- h.base.HandleMessage(ctx, key, value)
	})
	if err != nil {
		h.logger.Error("Failed to submit notification to worker pool",
			"message_key", string(key),
			"error", err,
		)
		return err
	}

	return <-resultChan
}

// Handler returns the pool-backed handler as a consumers.MessageHandler
func (h *WorkerPoolHandler) Handler() consumers.MessageHandler {
	return h.HandleMessage
}

// Shutdown gracefully shuts down the worker pool
func (h *WorkerPoolHandler) Shutdown() {
	h.logger.Info("Shutting down worker pool", "running_workers", h.pool.Running())
	h.pool.Release()
}

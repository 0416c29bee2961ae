package agent

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

// Sweeper periodically redrives the durable queue. Each sweep fans pending
// items out over a bounded worker pool so a long backlog drains in parallel
// without unbounded goroutines.
type Sweeper struct {
	logger   *slog.Logger
	queue    *FileQueue
	agent    *Agent
	pool     *ants.Pool
	interval time.Duration
}

// NewSweeper creates a sweeper with a pool of the given size
func NewSweeper(
	logger *slog.Logger,
	queue *FileQueue,
	agent *Agent,
	interval time.Duration,
	workers int,
) (*Sweeper, error) {
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	return &Sweeper{
		logger:   logger,
		queue:    queue,
		agent:    agent,
		pool:     pool,
		interval: interval,
	}, nil
}

// Run sweeps on the configured interval until the context is cancelled
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Retry sweeper started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Retry sweeper stopping")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep redrives every currently pending item once and waits for the batch
// to finish before returning, so overlapping sweeps cannot race on the same
// item.
func (s *Sweeper) Sweep(ctx context.Context) {
	pending, err := s.queue.Pending()
	if err != nil {
		s.logger.Error("Failed to list pending scans", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	s.logger.Info("Sweeping delivery queue", "pending", len(pending))

	var wg sync.WaitGroup
	for _, scan := range pending {
		scan := scan
		wg.Add(1)
		if err := s.pool.Submit(func() {
			defer wg.Done()
			s.agent.deliver(ctx, scan)
		}); err != nil {
			wg.Done()
			s.logger.Error("Failed to submit scan to sweep pool",
				"idempotency_key", scan.IdempotencyKey, "error", err)
		}
	}
	wg.Wait()
}

// Shutdown releases the worker pool
func (s *Sweeper) Shutdown() {
	s.logger.Info("Shutting down sweep pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

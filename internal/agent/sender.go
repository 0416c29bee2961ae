package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tapband-wallet/internal/api/middleware"
	"github.com/tapband-wallet/internal/domain/shared"
)

// Outcome classifies one delivery attempt
type Outcome int

const (
	// OutcomeDelivered means the server acknowledged the scan; the queue
	// item can be removed.
	OutcomeDelivered Outcome = iota
	// OutcomeRetryable means a transient failure (network error or 5xx);
	// the item stays queued for the next sweep.
	OutcomeRetryable
	// OutcomeRejected means the server permanently refused the scan (4xx);
	// retrying would produce the same answer, so the item is discarded.
	OutcomeRejected
)

// String returns a human-readable name for logging
func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Sender submits journaled scans to the wallet server. Every attempt is
// bounded by the configured submit timeout so a hung connection cannot stall
// the tap loop or the sweeper.
type Sender struct {
	client    *http.Client
	serverURL string
	apiKey    string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewSender creates a sender for the given scan endpoint
func NewSender(logger *slog.Logger, serverURL, apiKey string, timeout time.Duration) *Sender {
	return &Sender{
		client:    &http.Client{Timeout: timeout},
		serverURL: serverURL,
		apiKey:    apiKey,
		timeout:   timeout,
		logger:    logger,
	}
}

// Send performs one delivery attempt and classifies the result. The server
// treats idempotency-key replays as successes, so a retry after a lost
// response resolves to OutcomeDelivered rather than a duplicate charge.
func (s *Sender) Send(ctx context.Context, scan *shared.ScanRequest) (Outcome, error) {
	body, err := json.Marshal(scan)
	if err != nil {
		return OutcomeRejected, fmt.Errorf("failed to marshal scan %s: %w", scan.IdempotencyKey, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, s.serverURL, bytes.NewReader(body))
	if err != nil {
		return OutcomeRetryable, fmt.Errorf("failed to build scan request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set(middleware.ReaderAPIKeyHeader, s.apiKey)
	}
	if scan.CorrelationID != "" {
		req.Header.Set(middleware.CorrelationIDHeader, scan.CorrelationID)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return OutcomeRetryable, fmt.Errorf("scan delivery failed: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return OutcomeDelivered, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		s.logger.Warn("Scan permanently rejected by server",
			"idempotency_key", scan.IdempotencyKey,
			"status", resp.StatusCode,
		)
		return OutcomeRejected, fmt.Errorf("scan %s rejected with status %d", scan.IdempotencyKey, resp.StatusCode)
	default:
		return OutcomeRetryable, fmt.Errorf("scan %s failed with status %d", scan.IdempotencyKey, resp.StatusCode)
	}
}

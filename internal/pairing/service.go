// Package pairing issues and completes one-time pairing codes. A code is
// created from the portal for a target account, displayed to the attendee,
// and completed by tapping an unbound token on any reader while the code is
// still live.
package pairing

import (
	"context"
	"crypto/rand"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tapband-wallet/internal/config"
	"github.com/tapband-wallet/internal/domain/account"
	"github.com/tapband-wallet/internal/domain/notification"
	"github.com/tapband-wallet/internal/domain/pairing"
	"github.com/tapband-wallet/internal/domain/token"
	"github.com/tapband-wallet/internal/platform/messaging/producers"
	"github.com/tapband-wallet/internal/platform/persistence"
	"github.com/tapband-wallet/internal/registry"
)

// Status describes the externally visible state of a pairing code
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

// CompletionResult reports the outcome of a pairing scan
type CompletionResult struct {
	Code             *pairing.Code
	Binding          *token.Binding
	AlreadyCompleted bool
}

// Service issues pairing codes and completes them against token scans
type Service struct {
	logger      *slog.Logger
	accountRepo account.Repository
	pairingRepo pairing.Repository
	registry    *registry.Registry
	txRunner    persistence.TxRunner
	publisher   producers.MessagePublisher
	cfg         *config.PairingConfig

	now      func() time.Time
	generate func(length int) (string, error)
}

// NewService creates a pairing service. The publisher may be nil, in which
// case completion events are not emitted.
func NewService(
	logger *slog.Logger,
	accountRepo account.Repository,
	pairingRepo pairing.Repository,
	reg *registry.Registry,
	txRunner persistence.TxRunner,
	publisher producers.MessagePublisher,
	cfg *config.PairingConfig,
) *Service {
	return &Service{
		logger:      logger,
		accountRepo: accountRepo,
		pairingRepo: pairingRepo,
		registry:    reg,
		txRunner:    txRunner,
		publisher:   publisher,
		cfg:         cfg,
		now:         time.Now,
		generate:    generateNumericCode,
	}
}

// generateNumericCode produces a zero-padded random code of the given length
func generateNumericCode(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// clampTTL bounds the requested lifetime; zero or negative means default
func (s *Service) clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return s.cfg.DefaultTTL
	}
	if ttl < s.cfg.MinTTL {
		return s.cfg.MinTTL
	}
	if ttl > s.cfg.MaxTTL {
		return s.cfg.MaxTTL
	}
	return ttl
}

// CreateCode issues a fresh pending code for the account. The requested TTL
// is clamped to the configured window; code generation retries on collision
// and gives up with pairing.ErrCodeGenerationExhausted.
func (s *Service) CreateCode(ctx context.Context, accountID int64, ttl time.Duration) (*pairing.Code, error) {
	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	ttl = s.clampTTL(ttl)

	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		value, err := s.generate(s.cfg.CodeLength)
		if err != nil {
			return nil, err
		}

		exists, err := s.pairingRepo.CodeExists(ctx, value)
		if err != nil {
			return nil, err
		}
		if exists {
			s.logger.Debug("Pairing code collision, retrying", "attempt", attempt+1)
			continue
		}

		code := &pairing.Code{
			Code:      value,
			AccountID: accountID,
			ExpiresAt: s.now().Add(ttl),
		}
		if err := s.pairingRepo.Create(ctx, code); err != nil {
			return nil, err
		}

		s.logger.Info("Issued pairing code",
			"account_id", accountID,
			"code", value,
			"expires_at", code.ExpiresAt,
		)
		return code, nil
	}

	return nil, pairing.ErrCodeGenerationExhausted
}

// Status reports the current state of a code. Expiry is evaluated lazily
// here; nothing in the database changes when a code lapses.
func (s *Service) Status(ctx context.Context, value string) (*pairing.Code, Status, error) {
	code, err := s.pairingRepo.GetByCode(ctx, value)
	if err != nil {
		return nil, "", err
	}
	if code == nil {
		return nil, "", pairing.ErrCodeNotFound{Code: value}
	}

	switch {
	case code.Completed():
		return code, StatusCompleted, nil
	case code.Expired(s.now()):
		return code, StatusExpired, nil
	default:
		return code, StatusPending, nil
	}
}

// CompleteByScan finishes a pairing: the scanned token is bound to the
// code's target account and the code is stamped, atomically. Replaying a
// completed code echoes the original outcome instead of failing, since
// readers retry deliveries.
func (s *Service) CompleteByScan(ctx context.Context, value string, uid string, readerName string) (*CompletionResult, error) {
	var result *CompletionResult

	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		pairingRepo := s.pairingRepo.WithTx(tx)

		code, err := pairingRepo.GetByCodeForUpdate(ctx, value)
		if err != nil {
			return err
		}
		if code == nil {
			return pairing.ErrCodeNotFound{Code: value}
		}

		if code.Completed() {
			result = &CompletionResult{Code: code, AlreadyCompleted: true}
			return nil
		}

		if code.Expired(s.now()) {
			return pairing.ErrCodeExpired{Code: value}
		}

		binding, err := s.registry.BindTx(ctx, tx, code.AccountID, uid)
		if err != nil {
			return err
		}

		if err := pairingRepo.Complete(ctx, code.ID, binding.ID); err != nil {
			return err
		}

		completedAt := s.now()
		code.CompletedAt = &completedAt
		code.BindingID = &binding.ID

		result = &CompletionResult{Code: code, Binding: binding}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyCompleted {
		s.logger.Info("Completed pairing",
			"code", value,
			"account_id", result.Code.AccountID,
			"binding_id", result.Binding.ID,
			"reader_name", readerName,
		)
		s.publishCompleted(ctx, result, readerName)
	}

	return result, nil
}

// publishCompleted emits a best-effort pairing event after commit
func (s *Service) publishCompleted(ctx context.Context, result *CompletionResult, readerName string) {
	if s.publisher == nil {
		return
	}

	n := &notification.Notification{
		ID:         uuid.NewString(),
		Kind:       notification.KindPairing,
		AccountID:  result.Code.AccountID,
		Message:    "token paired to account",
		ReaderName: readerName,
		CreatedAt:  s.now(),
	}

	if err := s.publisher.Publish(ctx, result.Code.Code, n); err != nil {
		s.logger.Warn("Failed to publish pairing notification",
			"code", result.Code.Code,
			"error", err,
		)
	}
}

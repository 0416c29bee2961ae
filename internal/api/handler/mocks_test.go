package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tapband-wallet/internal/domain/account"
	"github.com/tapband-wallet/internal/domain/ledger"
	"github.com/tapband-wallet/internal/domain/token"
)

type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) Create(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id int64) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepo) LockForUpdate(ctx context.Context, id int64) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepo) UpdateBalance(ctx context.Context, id int64, newBalance int64) error {
	args := m.Called(ctx, id, newBalance)
	return args.Error(0)
}

func (m *MockAccountRepo) WithTx(tx pgx.Tx) account.Repository {
	args := m.Called(tx)
	return args.Get(0).(account.Repository)
}

type MockTokenRepo struct {
	mock.Mock
}

func (m *MockTokenRepo) GetActiveByCode(ctx context.Context, code string) (*token.Binding, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.Binding), args.Error(1)
}

func (m *MockTokenRepo) GetByCodeForUpdate(ctx context.Context, code string) (*token.Binding, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.Binding), args.Error(1)
}

func (m *MockTokenRepo) GetActiveByAccount(ctx context.Context, accountID int64) (*token.Binding, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.Binding), args.Error(1)
}

func (m *MockTokenRepo) GetByCode(ctx context.Context, code string) (*token.Binding, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.Binding), args.Error(1)
}

func (m *MockTokenRepo) DeactivateOthers(ctx context.Context, accountID int64, exceptCode string) (int64, error) {
	args := m.Called(ctx, accountID, exceptCode)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenRepo) DeactivateByAccount(ctx context.Context, accountID int64) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenRepo) Activate(ctx context.Context, id int64, accountID int64) (*token.Binding, error) {
	args := m.Called(ctx, id, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.Binding), args.Error(1)
}

func (m *MockTokenRepo) Create(ctx context.Context, accountID int64, code string) (*token.Binding, error) {
	args := m.Called(ctx, accountID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.Binding), args.Error(1)
}

func (m *MockTokenRepo) WithTx(tx pgx.Tx) token.Repository {
	args := m.Called(tx)
	return args.Get(0).(token.Repository)
}

type MockLedgerRepo struct {
	mock.Mock
}

func (m *MockLedgerRepo) GetByIdempotencyKey(ctx context.Context, key string) (*ledger.Entry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepo) Create(ctx context.Context, entry *ledger.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepo) GetByID(ctx context.Context, id int64) (*ledger.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepo) ListByAccount(ctx context.Context, accountID int64, filter ledger.HistoryFilter) ([]*ledger.Entry, error) {
	args := m.Called(ctx, accountID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepo) CountByAccount(ctx context.Context, accountID int64) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepo) WithTx(tx pgx.Tx) ledger.Repository {
	args := m.Called(tx)
	return args.Get(0).(ledger.Repository)
}

type fakeTxRunner struct{}

func (f *fakeTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// decodeData unmarshals the envelope's data field into out
func decodeData(t *testing.T, body []byte, out interface{}) *Response {
	t.Helper()
	var envelope Response
	require.NoError(t, json.Unmarshal(body, &envelope))
	if envelope.Data != nil {
		dataBytes, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(dataBytes, out))
	}
	return &envelope
}

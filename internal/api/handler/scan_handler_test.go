package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tapband-wallet/internal/domain/account"
	"github.com/tapband-wallet/internal/domain/ledger"
	"github.com/tapband-wallet/internal/domain/shared"
	"github.com/tapband-wallet/internal/domain/token"
	"github.com/tapband-wallet/internal/engine"
	"github.com/tapband-wallet/internal/ephemeral"
	"github.com/tapband-wallet/internal/registry"
)

type scanTestEnv struct {
	accountRepo *MockAccountRepo
	tokenRepo   *MockTokenRepo
	ledgerRepo  *MockLedgerRepo
	store       *ephemeral.Store
	router      *gin.Engine
}

func newScanTestEnv(t *testing.T) *scanTestEnv {
	t.Helper()
	logger := newTestLogger()

	env := &scanTestEnv{
		accountRepo: new(MockAccountRepo),
		tokenRepo:   new(MockTokenRepo),
		ledgerRepo:  new(MockLedgerRepo),
		store:       ephemeral.NewStore(logger, time.Minute),
	}

	runner := &fakeTxRunner{}
	reg := registry.NewRegistry(logger, env.accountRepo, env.tokenRepo, runner)
	walletLedger := engine.NewLedger(logger, env.accountRepo, env.ledgerRepo, runner, nil)
	scanEngine := engine.NewEngine(logger, reg, walletLedger, env.store, runner)

	handler := NewScanHandler(logger, scanEngine, nil)
	env.router = setupTestRouter()
	env.router.POST("/scan", handler.Scan)
	return env
}

func postScan(t *testing.T, router *gin.Engine, req shared.ScanRequest) *httptest.ResponseRecorder {
	t.Helper()
	jsonBody, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq, _ := http.NewRequest(http.MethodPost, "/scan", bytes.NewBuffer(jsonBody))
	httpReq.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httpReq)
	return rr
}

func TestScanHandler_Scan(t *testing.T) {
	amount := int64(650)

	t.Run("Success", func(t *testing.T) {
		env := newScanTestEnv(t)

		binding := &token.Binding{ID: 3, AccountID: 7, TokenCode: "04A2BC7F", Active: true}
		env.tokenRepo.On("GetActiveByCode", mock.Anything, "04A2BC7F").Return(binding, nil)
		env.accountRepo.On("WithTx", mock.Anything).Return(env.accountRepo)
		env.ledgerRepo.On("WithTx", mock.Anything).Return(env.ledgerRepo)
		env.ledgerRepo.On("GetByIdempotencyKey", mock.Anything, "tap-1").Return(nil, nil)
		env.accountRepo.On("LockForUpdate", mock.Anything, int64(7)).
			Return(&account.Account{ID: 7, Balance: 1000}, nil)
		env.accountRepo.On("UpdateBalance", mock.Anything, int64(7), int64(350)).Return(nil)
		env.ledgerRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Entry")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*ledger.Entry).ID = 42
			}).Return(nil)

		rr := postScan(t, env.router, shared.ScanRequest{
			IdempotencyKey: "tap-1",
			TokenUID:       "04:a2:bc:7f",
			ReaderName:     "bar-1",
			Product:        "beer",
			Amount:         &amount,
		})

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp ScanResponse
		decodeData(t, rr.Body.Bytes(), &resp)
		assert.Equal(t, int64(42), resp.EntryID)
		assert.Equal(t, int64(7), resp.AccountID)
		assert.Equal(t, int64(650), resp.Amount)
		require.NotNil(t, resp.NewBalance)
		assert.Equal(t, int64(350), *resp.NewBalance)
		assert.False(t, resp.AlreadyProcessed)
		assert.False(t, resp.AutoPaired)

		env.accountRepo.AssertExpectations(t)
		env.ledgerRepo.AssertExpectations(t)
	})

	t.Run("ReplayOmitsNewBalance", func(t *testing.T) {
		env := newScanTestEnv(t)

		binding := &token.Binding{ID: 3, AccountID: 7, TokenCode: "04A2BC7F", Active: true}
		env.tokenRepo.On("GetActiveByCode", mock.Anything, "04A2BC7F").Return(binding, nil)
		env.accountRepo.On("WithTx", mock.Anything).Return(env.accountRepo)
		env.ledgerRepo.On("WithTx", mock.Anything).Return(env.ledgerRepo)
		env.ledgerRepo.On("GetByIdempotencyKey", mock.Anything, "tap-1").
			Return(&ledger.Entry{ID: 42, AccountID: 7, Type: ledger.EntryTypeDebit, Amount: 650}, nil)

		rr := postScan(t, env.router, shared.ScanRequest{
			IdempotencyKey: "tap-1",
			TokenUID:       "04A2BC7F",
			Amount:         &amount,
		})

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp ScanResponse
		decodeData(t, rr.Body.Bytes(), &resp)
		assert.True(t, resp.AlreadyProcessed)
		assert.Nil(t, resp.NewBalance)
		assert.Equal(t, int64(42), resp.EntryID)

		env.accountRepo.AssertNotCalled(t, "LockForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("InsufficientBalance", func(t *testing.T) {
		env := newScanTestEnv(t)

		binding := &token.Binding{ID: 3, AccountID: 7, TokenCode: "04A2BC7F", Active: true}
		env.tokenRepo.On("GetActiveByCode", mock.Anything, "04A2BC7F").Return(binding, nil)
		env.accountRepo.On("WithTx", mock.Anything).Return(env.accountRepo)
		env.ledgerRepo.On("WithTx", mock.Anything).Return(env.ledgerRepo)
		env.ledgerRepo.On("GetByIdempotencyKey", mock.Anything, "tap-1").Return(nil, nil)
		env.accountRepo.On("LockForUpdate", mock.Anything, int64(7)).
			Return(&account.Account{ID: 7, Balance: 200}, nil)

		rr := postScan(t, env.router, shared.ScanRequest{
			IdempotencyKey: "tap-1",
			TokenUID:       "04A2BC7F",
			Amount:         &amount,
		})

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

		envelope := decodeData(t, rr.Body.Bytes(), &struct{}{})
		require.NotNil(t, envelope.Error)
		assert.Equal(t, "INSUFFICIENT_BALANCE", envelope.Error.Code)

		env.accountRepo.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UnknownToken", func(t *testing.T) {
		env := newScanTestEnv(t)

		env.tokenRepo.On("GetActiveByCode", mock.Anything, "04A2BC7F").Return(nil, nil)

		rr := postScan(t, env.router, shared.ScanRequest{
			IdempotencyKey: "tap-1",
			TokenUID:       "04A2BC7F",
			Amount:         &amount,
		})

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("MissingAmountWithoutCheckout", func(t *testing.T) {
		env := newScanTestEnv(t)

		rr := postScan(t, env.router, shared.ScanRequest{
			IdempotencyKey: "tap-1",
			TokenUID:       "04A2BC7F",
			ReaderName:     "bar-1",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

		envelope := decodeData(t, rr.Body.Bytes(), &struct{}{})
		require.NotNil(t, envelope.Error)
		assert.Equal(t, "MISSING_AMOUNT", envelope.Error.Code)
	})

	t.Run("StagedCheckoutSuppliesAmount", func(t *testing.T) {
		env := newScanTestEnv(t)
		env.store.SetCheckout("bar-1", 475, "cocktail", 0)

		binding := &token.Binding{ID: 3, AccountID: 7, TokenCode: "04A2BC7F", Active: true}
		env.tokenRepo.On("GetActiveByCode", mock.Anything, "04A2BC7F").Return(binding, nil)
		env.accountRepo.On("WithTx", mock.Anything).Return(env.accountRepo)
		env.ledgerRepo.On("WithTx", mock.Anything).Return(env.ledgerRepo)
		env.ledgerRepo.On("GetByIdempotencyKey", mock.Anything, "tap-1").Return(nil, nil)
		env.accountRepo.On("LockForUpdate", mock.Anything, int64(7)).
			Return(&account.Account{ID: 7, Balance: 1000}, nil)
		env.accountRepo.On("UpdateBalance", mock.Anything, int64(7), int64(525)).Return(nil)
		env.ledgerRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Entry")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*ledger.Entry).ID = 43
			}).Return(nil)

		rr := postScan(t, env.router, shared.ScanRequest{
			IdempotencyKey: "tap-1",
			TokenUID:       "04A2BC7F",
			ReaderName:     "bar-1",
		})

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp ScanResponse
		decodeData(t, rr.Body.Bytes(), &resp)
		assert.Equal(t, int64(475), resp.Amount)
		assert.Equal(t, "cocktail", resp.Description)
	})

	t.Run("MissingIdempotencyKey", func(t *testing.T) {
		env := newScanTestEnv(t)

		rr := postScan(t, env.router, shared.ScanRequest{
			TokenUID: "04A2BC7F",
			Amount:   &amount,
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		env := newScanTestEnv(t)

		req, _ := http.NewRequest(http.MethodPost, "/scan", bytes.NewBufferString(`{"invalid`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

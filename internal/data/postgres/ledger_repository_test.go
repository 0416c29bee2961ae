package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tapband-wallet/internal/domain/ledger"
)

func entryRows(e *ledger.Entry) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "idempotency_key", "account_id", "binding_id", "type", "amount", "description", "reader_name", "created_at"}).
		AddRow(e.ID, e.IdempotencyKey, e.AccountID, e.BindingID, e.Type, e.Amount, e.Description, e.ReaderName, e.CreatedAt)
}

func TestLedgerRepository_GetByIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &LedgerRepository{querier: mock, logger: logger}
	bindingID := int64(3)
	now := time.Now()

	expected := &ledger.Entry{
		ID:             21,
		IdempotencyKey: "bar-1:04A2BC7F:1756700000000",
		AccountID:      7,
		BindingID:      &bindingID,
		Type:           ledger.EntryTypeDebit,
		Amount:         650,
		Description:    "beer",
		ReaderName:     "bar-1",
		CreatedAt:      now,
	}

	query := `
		SELECT id, idempotency_key, account_id, binding_id, type, amount, description, reader_name, created_at
		FROM ledger_entries
		WHERE idempotency_key = \$1
	`

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(expected.IdempotencyKey).WillReturnRows(entryRows(expected))

		e, err := repo.GetByIdempotencyKey(ctx, expected.IdempotencyKey)
		assert.NoError(t, err)
		assert.Equal(t, expected, e)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("never processed", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("fresh-key").WillReturnError(pgx.ErrNoRows)

		e, err := repo.GetByIdempotencyKey(ctx, "fresh-key")
		assert.NoError(t, err)
		assert.Nil(t, e)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("some db error")
		mock.ExpectQuery(query).WithArgs(expected.IdempotencyKey).WillReturnError(dbErr)

		e, err := repo.GetByIdempotencyKey(ctx, expected.IdempotencyKey)
		assert.Error(t, err)
		assert.Nil(t, e)
		assert.Contains(t, err.Error(), "failed to get entry by idempotency key")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &LedgerRepository{querier: mock, logger: logger}
	bindingID := int64(3)
	now := time.Now()

	entry := &ledger.Entry{
		IdempotencyKey: "bar-1:04A2BC7F:1756700000000",
		AccountID:      7,
		BindingID:      &bindingID,
		Type:           ledger.EntryTypeDebit,
		Amount:         650,
		Description:    "beer",
		ReaderName:     "bar-1",
	}

	query := `
		INSERT INTO ledger_entries \(idempotency_key, account_id, binding_id, type, amount, description, reader_name\)
		VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7\)
		RETURNING id, created_at
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(entry.IdempotencyKey, entry.AccountID, entry.BindingID, entry.Type, entry.Amount, entry.Description, entry.ReaderName).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(21), now))

		err := repo.Create(ctx, entry)
		assert.NoError(t, err)
		assert.Equal(t, int64(21), entry.ID)
		assert.Equal(t, now, entry.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		dbErr := errors.New("unique violation")
		mock.ExpectQuery(query).
			WithArgs(entry.IdempotencyKey, entry.AccountID, entry.BindingID, entry.Type, entry.Amount, entry.Description, entry.ReaderName).
			WillReturnError(dbErr)

		err := repo.Create(ctx, entry)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create ledger entry")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &LedgerRepository{querier: mock, logger: logger}
	now := time.Now()

	expected := &ledger.Entry{
		ID:             21,
		IdempotencyKey: "portal:recharge:abc",
		AccountID:      7,
		Type:           ledger.EntryTypeCredit,
		Amount:         5000,
		Description:    "recharge",
		CreatedAt:      now,
	}

	query := `
		SELECT id, idempotency_key, account_id, binding_id, type, amount, description, reader_name, created_at
		FROM ledger_entries
		WHERE id = \$1
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(expected.ID).WillReturnRows(entryRows(expected))

		e, err := repo.GetByID(ctx, expected.ID)
		assert.NoError(t, err)
		assert.Equal(t, expected, e)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(int64(99)).WillReturnError(pgx.ErrNoRows)

		e, err := repo.GetByID(ctx, 99)
		assert.Error(t, err)
		assert.Nil(t, e)
		var notFoundErr ledger.ErrEntryNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, int64(99), notFoundErr.EntryID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerRepository_ListByAccount(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &LedgerRepository{querier: mock, logger: logger}
	accountID := int64(7)
	now := time.Now()

	e1 := &ledger.Entry{ID: 22, IdempotencyKey: "k2", AccountID: accountID, Type: ledger.EntryTypeDebit, Amount: 300, CreatedAt: now}
	e2 := &ledger.Entry{ID: 21, IdempotencyKey: "k1", AccountID: accountID, Type: ledger.EntryTypeCredit, Amount: 5000, CreatedAt: now.Add(-time.Hour)}

	t.Run("no filter", func(t *testing.T) {
		query := `
		SELECT id, idempotency_key, account_id, binding_id, type, amount, description, reader_name, created_at
		FROM ledger_entries
		WHERE account_id = \$1
	 ORDER BY created_at DESC, id DESC`

		rows := pgxmock.NewRows([]string{"id", "idempotency_key", "account_id", "binding_id", "type", "amount", "description", "reader_name", "created_at"}).
			AddRow(e1.ID, e1.IdempotencyKey, e1.AccountID, e1.BindingID, e1.Type, e1.Amount, e1.Description, e1.ReaderName, e1.CreatedAt).
			AddRow(e2.ID, e2.IdempotencyKey, e2.AccountID, e2.BindingID, e2.Type, e2.Amount, e2.Description, e2.ReaderName, e2.CreatedAt)

		mock.ExpectQuery(query).WithArgs(accountID).WillReturnRows(rows)

		entries, err := repo.ListByAccount(ctx, accountID, ledger.HistoryFilter{})
		assert.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, e1, entries[0])
		assert.Equal(t, e2, entries[1])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("with window and pagination", func(t *testing.T) {
		start := now.Add(-24 * time.Hour)
		end := now

		query := `
		SELECT id, idempotency_key, account_id, binding_id, type, amount, description, reader_name, created_at
		FROM ledger_entries
		WHERE account_id = \$1
	 AND created_at >= \$2 AND created_at <= \$3 ORDER BY created_at DESC, id DESC LIMIT \$4 OFFSET \$5`

		rows := pgxmock.NewRows([]string{"id", "idempotency_key", "account_id", "binding_id", "type", "amount", "description", "reader_name", "created_at"}).
			AddRow(e1.ID, e1.IdempotencyKey, e1.AccountID, e1.BindingID, e1.Type, e1.Amount, e1.Description, e1.ReaderName, e1.CreatedAt)

		mock.ExpectQuery(query).WithArgs(accountID, start, end, 10, 20).WillReturnRows(rows)

		entries, err := repo.ListByAccount(ctx, accountID, ledger.HistoryFilter{
			Start:  &start,
			End:    &end,
			Limit:  10,
			Offset: 20,
		})
		assert.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, e1, entries[0])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("list db error")
		mock.ExpectQuery(`SELECT id, idempotency_key`).WithArgs(accountID).WillReturnError(dbErr)

		entries, err := repo.ListByAccount(ctx, accountID, ledger.HistoryFilter{})
		assert.Error(t, err)
		assert.Nil(t, entries)
		assert.Contains(t, err.Error(), "failed to list ledger entries")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerRepository_CountByAccount(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &LedgerRepository{querier: mock, logger: logger}
	accountID := int64(7)

	query := `SELECT COUNT\(\*\) FROM ledger_entries WHERE account_id = \$1`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(accountID).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(14)))

		count, err := repo.CountByAccount(ctx, accountID)
		assert.NoError(t, err)
		assert.Equal(t, int64(14), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("count db error")
		mock.ExpectQuery(query).WithArgs(accountID).WillReturnError(dbErr)

		count, err := repo.CountByAccount(ctx, accountID)
		assert.Error(t, err)
		assert.Zero(t, count)
		assert.Contains(t, err.Error(), "failed to count ledger entries")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

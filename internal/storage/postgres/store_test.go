package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountCols = []string{"id", "owner_id", "account_type", "balance", "version", "created_at", "updated_at"}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db, 3*time.Second), mock
}

func expectBegin(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL lock_timeout = '3000ms'").WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestStore_InTx(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		store, mock := newMockStore(t)
		expectBegin(mock)
		mock.ExpectCommit()

		err := store.InTx(context.Background(), storage.TxOptions{}, func(tx storage.Tx) error { return nil })
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		store, mock := newMockStore(t)
		expectBegin(mock)
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := store.InTx(context.Background(), storage.TxOptions{}, func(tx storage.Tx) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("serialization failure on commit", func(t *testing.T) {
		store, mock := newMockStore(t)
		expectBegin(mock)
		mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40001", Message: "could not serialize access"})

		err := store.InTx(context.Background(), storage.TxOptions{}, func(tx storage.Tx) error { return nil })
		assert.ErrorIs(t, err, storage.ErrConflict)
	})

	t.Run("no lock timeout configured", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectBegin()
		mock.ExpectCommit()

		err = NewStore(db, 0).InTx(context.Background(), storage.TxOptions{}, func(tx storage.Tx) error { return nil })
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_LockAccount(t *testing.T) {
	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

	t.Run("locks the row", func(t *testing.T) {
		store, mock := newMockStore(t)
		expectBegin(mock)
		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id = \\$1 FOR UPDATE").
			WithArgs("acc-1").
			WillReturnRows(sqlmock.NewRows(accountCols).AddRow("acc-1", "student-1", "CHECKING", 10000, 3, now, now))
		mock.ExpectCommit()

		var got *models.Account
		err := store.InTx(context.Background(), storage.TxOptions{}, func(tx storage.Tx) error {
			var err error
			got, err = tx.LockAccount(context.Background(), "acc-1")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, models.Money(10000), got.Balance)
		assert.Equal(t, models.AccountTypeChecking, got.AccountType)
		assert.Equal(t, 3, got.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock timeout", func(t *testing.T) {
		store, mock := newMockStore(t)
		expectBegin(mock)
		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id = \\$1 FOR UPDATE").
			WithArgs("acc-1").
			WillReturnError(&pq.Error{Code: "55P03", Message: "canceling statement due to lock timeout"})
		mock.ExpectRollback()

		err := store.InTx(context.Background(), storage.TxOptions{}, func(tx storage.Tx) error {
			_, err := tx.LockAccount(context.Background(), "acc-1")
			return err
		})
		assert.ErrorIs(t, err, storage.ErrLockTimeout)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing account", func(t *testing.T) {
		store, mock := newMockStore(t)
		expectBegin(mock)
		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id = \\$1").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		err := store.InTx(context.Background(), storage.TxOptions{}, func(tx storage.Tx) error {
			_, err := tx.GetAccount(context.Background(), "missing")
			return err
		})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestStore_UpdateBalance(t *testing.T) {
	at := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

	t.Run("bumps version", func(t *testing.T) {
		store, mock := newMockStore(t)
		expectBegin(mock)
		mock.ExpectExec("UPDATE accounts SET balance = \\$1, version = version \\+ 1, updated_at = \\$2 WHERE id = \\$3 AND version = \\$4").
			WithArgs(models.Money(7000), at, "acc-1", 3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.InTx(context.Background(), storage.TxOptions{}, func(tx storage.Tx) error {
			return tx.UpdateBalance(context.Background(), "acc-1", 7000, 3, at)
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version", func(t *testing.T) {
		store, mock := newMockStore(t)
		expectBegin(mock)
		mock.ExpectExec("UPDATE accounts").
			WithArgs(models.Money(7000), at, "acc-1", 2).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := store.InTx(context.Background(), storage.TxOptions{}, func(tx storage.Tx) error {
			return tx.UpdateBalance(context.Background(), "acc-1", 7000, 2, at)
		})
		assert.ErrorIs(t, err, storage.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_CreateAccount(t *testing.T) {
	at := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	account := &models.Account{ID: "acc-1", OwnerID: "student-1", AccountType: models.AccountTypeSavings, CreatedAt: at}

	for _, tc := range []struct {
		name    string
		rows    int64
		created bool
	}{
		{"new account", 1, true},
		{"already exists", 0, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			expectBegin(mock)
			mock.ExpectExec("INSERT INTO accounts (.+) ON CONFLICT \\(owner_id, account_type\\) DO NOTHING").
				WithArgs("acc-1", "student-1", models.AccountTypeSavings, models.Money(0), at).
				WillReturnResult(sqlmock.NewResult(0, tc.rows))
			mock.ExpectCommit()

			var created bool
			err := store.InTx(context.Background(), storage.TxOptions{}, func(tx storage.Tx) error {
				var err error
				created, err = tx.CreateAccount(context.Background(), account)
				return err
			})
			require.NoError(t, err)
			assert.Equal(t, tc.created, created)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_Transactions(t *testing.T) {
	at := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	cols := []string{"id", "account_id", "transaction_type", "amount", "balance_after", "description", "related_transaction_id", "created_at"}

	t.Run("append", func(t *testing.T) {
		store, mock := newMockStore(t)
		related := "tx-in"
		expectBegin(mock)
		mock.ExpectExec("INSERT INTO transactions").
			WithArgs("tx-out", "acc-1", models.TransactionTransferOut, models.Money(3000), models.Money(7000), "Transfer to Savings", &related, at).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.InTx(context.Background(), storage.TxOptions{}, func(tx storage.Tx) error {
			return tx.AppendTransaction(context.Background(), &models.Transaction{
				ID:                   "tx-out",
				AccountID:            "acc-1",
				Type:                 models.TransactionTransferOut,
				Amount:               3000,
				BalanceAfter:         7000,
				Description:          "Transfer to Savings",
				RelatedTransactionID: &related,
				CreatedAt:            at,
			})
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query with open range", func(t *testing.T) {
		store, mock := newMockStore(t)
		expectBegin(mock)
		mock.ExpectQuery("SELECT (.+) FROM transactions WHERE account_id = \\$1 (.+) ORDER BY created_at DESC, seq DESC").
			WithArgs("acc-1", nil, nil).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("tx-2", "acc-1", "WITHDRAWAL", 500, 9500, "Bill payment: Lab fee", nil, at.Add(time.Hour)).
				AddRow("tx-1", "acc-1", "DEPOSIT", 10000, 10000, "Classroom deposit", nil, at))
		mock.ExpectCommit()

		var got []models.Transaction
		err := store.InTx(context.Background(), storage.TxOptions{}, func(tx storage.Tx) error {
			var err error
			got, err = tx.QueryTransactions(context.Background(), "acc-1", models.DateRange{})
			return err
		})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, models.TransactionWithdrawal, got[0].Type)
		assert.Nil(t, got[0].RelatedTransactionID)
		assert.Equal(t, models.Money(10000), got[1].BalanceAfter)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("net movement", func(t *testing.T) {
		store, mock := newMockStore(t)
		expectBegin(mock)
		mock.ExpectQuery("SELECT COALESCE\\(SUM(.+)\\), 0\\) FROM transactions WHERE account_id = \\$1 AND created_at < \\$2").
			WithArgs("acc-1", at).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("9500"))
		mock.ExpectCommit()

		var net models.Money
		err := store.InTx(context.Background(), storage.TxOptions{}, func(tx storage.Tx) error {
			var err error
			net, err = tx.NetMovementBefore(context.Background(), "acc-1", at)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, models.Money(9500), net)
	})
}

func TestStore_Statements(t *testing.T) {
	at := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "account_id", "year", "month", "opening_balance", "closing_balance", "transactions", "generated_at"}

	t.Run("insert races resolve to existing row", func(t *testing.T) {
		store, mock := newMockStore(t)
		expectBegin(mock)
		mock.ExpectExec("INSERT INTO statements (.+) ON CONFLICT \\(account_id, year, month\\) DO NOTHING").
			WithArgs("st-1", "acc-1", 2025, 3, models.Money(0), models.Money(7000), sqlmock.AnyArg(), at).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		var inserted bool
		err := store.InTx(context.Background(), storage.TxOptions{}, func(tx storage.Tx) error {
			var err error
			inserted, err = tx.InsertStatement(context.Background(), &models.Statement{
				ID: "st-1", AccountID: "acc-1", Year: 2025, Month: 3, ClosingBalance: 7000, GeneratedAt: at,
			})
			return err
		})
		require.NoError(t, err)
		assert.False(t, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("find decodes transaction snapshot", func(t *testing.T) {
		store, mock := newMockStore(t)
		expectBegin(mock)
		mock.ExpectQuery("SELECT (.+) FROM statements WHERE account_id = \\$1 AND year = \\$2 AND month = \\$3").
			WithArgs("acc-1", 2025, 3).
			WillReturnRows(sqlmock.NewRows(cols).AddRow("st-1", "acc-1", 2025, 3, 0, 7000,
				[]byte(`[{"id":"tx-1","accountId":"acc-1","transactionType":"DEPOSIT","amount":"70.00","balanceAfter":"70.00","description":"pay","createdAt":"2025-03-10T09:00:00Z"}]`), at))
		mock.ExpectCommit()

		var st *models.Statement
		err := store.InTx(context.Background(), storage.TxOptions{}, func(tx storage.Tx) error {
			var err error
			st, err = tx.FindStatement(context.Background(), "acc-1", 2025, 3)
			return err
		})
		require.NoError(t, err)
		require.Len(t, st.Transactions, 1)
		assert.Equal(t, models.Money(7000), st.Transactions[0].Amount)
		assert.Equal(t, models.Money(7000), st.ClosingBalance)
	})
}

func TestStore_Bills(t *testing.T) {
	t.Run("paid amount", func(t *testing.T) {
		store, mock := newMockStore(t)
		expectBegin(mock)
		mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM payments WHERE bill_id = \\$1 AND student_id = \\$2").
			WithArgs("bill-1", "student-1").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(7500))
		mock.ExpectCommit()

		var paid models.Money
		err := store.InTx(context.Background(), storage.TxOptions{}, func(tx storage.Tx) error {
			var err error
			paid, err = tx.PaidAmount(context.Background(), "bill-1", "student-1")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, models.Money(7500), paid)
	})

	t.Run("lock missing bill", func(t *testing.T) {
		store, mock := newMockStore(t)
		expectBegin(mock)
		mock.ExpectQuery("SELECT (.+) FROM bills WHERE id = \\$1 FOR UPDATE").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		err := store.InTx(context.Background(), storage.TxOptions{}, func(tx storage.Tx) error {
			_, err := tx.LockBill(context.Background(), "missing")
			return err
		})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("enrollment check", func(t *testing.T) {
		store, mock := newMockStore(t)
		expectBegin(mock)
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("student-1", "class-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectCommit()

		var enrolled bool
		err := store.InTx(context.Background(), storage.TxOptions{}, func(tx storage.Tx) error {
			var err error
			enrolled, err = tx.IsEnrolled(context.Background(), "student-1", "class-1")
			return err
		})
		require.NoError(t, err)
		assert.True(t, enrolled)
	})
}

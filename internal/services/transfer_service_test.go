package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/schoolbank/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTransferService_CheckingToSavings(t *testing.T) {
	env := newTestEnv(t)
	checking, savings := env.open(t, testStudent, dollars(100), dollars(50))

	result, err := env.transfers.Transfer(context.Background(), testStudent, checking.ID, savings.ID, dollars(30))
	require.NoError(t, err)

	assert.Equal(t, dollars(70), env.balance(t, checking.ID))
	assert.Equal(t, dollars(80), env.balance(t, savings.ID))

	out, in := result.OutTx, result.InTx
	assert.Equal(t, models.TransactionTransferOut, out.Type)
	assert.Equal(t, models.TransactionTransferIn, in.Type)
	assert.Equal(t, dollars(30), out.Amount)
	assert.Equal(t, dollars(30), in.Amount)
	assert.Equal(t, dollars(70), out.BalanceAfter)
	assert.Equal(t, dollars(80), in.BalanceAfter)
	require.NotNil(t, out.RelatedTransactionID)
	require.NotNil(t, in.RelatedTransactionID)
	assert.Equal(t, in.ID, *out.RelatedTransactionID)
	assert.Equal(t, out.ID, *in.RelatedTransactionID)
	assert.Equal(t, "Transfer to Savings", out.Description)
	assert.Equal(t, "Transfer from Checking", in.Description)

	assert.Equal(t, env.balance(t, checking.ID), env.replay(t, checking.ID))
	assert.Equal(t, env.balance(t, savings.ID), env.replay(t, savings.ID))
}

func TestTransferService_Rejections(t *testing.T) {
	env := newTestEnv(t)
	checking, savings := env.open(t, testStudent, dollars(100), dollars(50))
	otherChecking, _ := env.open(t, otherStudent, dollars(10), 0)
	ctx := context.Background()

	cases := []struct {
		name     string
		from, to string
		amount   models.Money
		isErr    error
	}{
		{"insufficient funds", checking.ID, savings.ID, dollars(1000000), ErrInsufficientFunds},
		{"zero amount", checking.ID, savings.ID, 0, ErrInvalidAmount},
		{"negative amount", checking.ID, savings.ID, -dollars(5), ErrInvalidAmount},
		{"same account", checking.ID, checking.ID, dollars(5), ErrAccountMismatch},
		{"account of another student", checking.ID, otherChecking.ID, dollars(5), ErrAccountMismatch},
		{"unknown account", checking.ID, "missing", dollars(5), ErrAccountNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.transfers.Transfer(ctx, testStudent, tc.from, tc.to, tc.amount)
			assert.ErrorIs(t, err, tc.isErr)

			assert.Equal(t, dollars(100), env.balance(t, checking.ID))
			assert.Equal(t, dollars(50), env.balance(t, savings.ID))
			assert.Equal(t, dollars(10), env.balance(t, otherChecking.ID))
		})
	}
}

func TestTransferService_AuditsOutcome(t *testing.T) {
	env := newTestEnv(t)
	checking, savings := env.open(t, testStudent, dollars(20), 0)
	auditor := new(MockAuditor)
	env.transfers.audit = auditor

	auditor.On("LogTransfer", mock.AnythingOfType("models.TransferResult")).Once()
	auditor.On("LogError", "transfer", checking.ID, mock.Anything).Once()

	_, err := env.transfers.Transfer(context.Background(), testStudent, checking.ID, savings.ID, dollars(15))
	require.NoError(t, err)
	_, err = env.transfers.Transfer(context.Background(), testStudent, checking.ID, savings.ID, dollars(15))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	auditor.AssertExpectations(t)
}

func TestTransferService_ConcurrentTransfersNeverOverdraw(t *testing.T) {
	env := newTestEnv(t)
	checking, savings := env.open(t, testStudent, dollars(100), 0)

	const attempts = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		other     []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.transfers.Transfer(context.Background(), testStudent, checking.ID, savings.ID, dollars(10))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrInsufficientFunds):
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 10, succeeded)
	assert.Equal(t, models.Money(0), env.balance(t, checking.ID))
	assert.Equal(t, dollars(100), env.balance(t, savings.ID))
	assert.Equal(t, env.balance(t, checking.ID), env.replay(t, checking.ID))
	assert.Equal(t, env.balance(t, savings.ID), env.replay(t, savings.ID))
}

func TestTransferService_OppositeTransfersConserveMoney(t *testing.T) {
	env := newTestEnv(t)
	checking, savings := env.open(t, testStudent, dollars(50), dollars(50))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		from, to := checking.ID, savings.ID
		if i%2 == 1 {
			from, to = to, from
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.transfers.Transfer(context.Background(), testStudent, from, to, dollars(5))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, s := env.balance(t, checking.ID), env.balance(t, savings.ID)
	assert.Equal(t, dollars(100), c+s)
	assert.Equal(t, dollars(50), c)
	assert.Equal(t, c, env.replay(t, checking.ID))
	assert.Equal(t, s, env.replay(t, savings.ID))
}

func TestTransferService_TransferWithKey(t *testing.T) {
	env := newTestEnv(t)
	checking, savings := env.open(t, testStudent, dollars(100), 0)
	ctx := context.Background()

	client, rmock := redismock.NewClientMock()
	env.transfers.idempotency = NewIdempotencyCache(client, env.cfg.IdempotencyTTL)
	key := idempotencyKey("transfer:"+testStudent, "key-1")
	fp := transferFingerprint(checking.ID, savings.ID, dollars(30))

	t.Run("first request executes", func(t *testing.T) {
		rmock.ExpectSetNX(key, pendingValue(fp), env.cfg.IdempotencyTTL).SetVal(true)
		rmock.Regexp().ExpectSet(key, `"fingerprint":"`+fp+`"`, env.cfg.IdempotencyTTL).SetVal("OK")

		result, err := env.transfers.TransferWithKey(ctx, "key-1", testStudent, checking.ID, savings.ID, dollars(30))
		require.NoError(t, err)
		assert.Equal(t, dollars(70), result.OutTx.BalanceAfter)
		assert.NoError(t, rmock.ExpectationsWereMet())
	})

	stored := `{"fingerprint":"` + fp + `","result":{` +
		`"outTx":{"id":"out-1","accountId":"` + checking.ID + `","transactionType":"TRANSFER_OUT","amount":"30.00","balanceAfter":"70.00","description":"Transfer to Savings","relatedTransactionId":"in-1","createdAt":"2025-03-10T09:00:00Z"},` +
		`"inTx":{"id":"in-1","accountId":"` + savings.ID + `","transactionType":"TRANSFER_IN","amount":"30.00","balanceAfter":"30.00","description":"Transfer from Checking","relatedTransactionId":"out-1","createdAt":"2025-03-10T09:00:00Z"}}}`

	t.Run("completed request is replayed", func(t *testing.T) {
		rmock.ExpectSetNX(key, pendingValue(fp), env.cfg.IdempotencyTTL).SetVal(false)
		rmock.ExpectGet(key).SetVal(stored)

		result, err := env.transfers.TransferWithKey(ctx, "key-1", testStudent, checking.ID, savings.ID, dollars(30))
		require.NoError(t, err)
		assert.Equal(t, "out-1", result.OutTx.ID)
		assert.Equal(t, dollars(30), result.InTx.Amount)
		assert.Equal(t, dollars(70), env.balance(t, checking.ID))
		assert.NoError(t, rmock.ExpectationsWereMet())
	})

	t.Run("key reused for a different transfer", func(t *testing.T) {
		other := transferFingerprint(savings.ID, checking.ID, dollars(5))
		rmock.ExpectSetNX(key, pendingValue(other), env.cfg.IdempotencyTTL).SetVal(false)
		rmock.ExpectGet(key).SetVal(stored)

		result, err := env.transfers.TransferWithKey(ctx, "key-1", testStudent, savings.ID, checking.ID, dollars(5))
		assert.ErrorIs(t, err, ErrIdempotencyKeyReused)
		assert.Nil(t, result)
		assert.False(t, IsRetryable(err))
		assert.Equal(t, dollars(70), env.balance(t, checking.ID))
		assert.Equal(t, dollars(30), env.balance(t, savings.ID))
		assert.NoError(t, rmock.ExpectationsWereMet())
	})

	t.Run("key reused with a different amount", func(t *testing.T) {
		other := transferFingerprint(checking.ID, savings.ID, dollars(31))
		rmock.ExpectSetNX(key, pendingValue(other), env.cfg.IdempotencyTTL).SetVal(false)
		rmock.ExpectGet(key).SetVal(stored)

		_, err := env.transfers.TransferWithKey(ctx, "key-1", testStudent, checking.ID, savings.ID, dollars(31))
		assert.ErrorIs(t, err, ErrIdempotencyKeyReused)
		assert.NoError(t, rmock.ExpectationsWereMet())
	})

	t.Run("in-flight request is reported as retryable", func(t *testing.T) {
		rmock.ExpectSetNX(key, pendingValue(fp), env.cfg.IdempotencyTTL).SetVal(false)
		rmock.ExpectGet(key).SetVal(pendingValue(fp))

		_, err := env.transfers.TransferWithKey(ctx, "key-1", testStudent, checking.ID, savings.ID, dollars(30))
		assert.ErrorIs(t, err, ErrRequestInProgress)
		assert.True(t, IsRetryable(err))
		assert.Equal(t, dollars(70), env.balance(t, checking.ID))
		assert.NoError(t, rmock.ExpectationsWereMet())
	})

	t.Run("in-flight key reused for a different transfer", func(t *testing.T) {
		other := transferFingerprint(savings.ID, checking.ID, dollars(5))
		rmock.ExpectSetNX(key, pendingValue(other), env.cfg.IdempotencyTTL).SetVal(false)
		rmock.ExpectGet(key).SetVal(pendingValue(fp))

		_, err := env.transfers.TransferWithKey(ctx, "key-1", testStudent, savings.ID, checking.ID, dollars(5))
		assert.ErrorIs(t, err, ErrIdempotencyKeyReused)
		assert.NoError(t, rmock.ExpectationsWereMet())
	})

	t.Run("failed request releases its key", func(t *testing.T) {
		failKey := idempotencyKey("transfer:"+testStudent, "key-2")
		rmock.ExpectSetNX(failKey, pendingValue(transferFingerprint(checking.ID, savings.ID, dollars(500))), env.cfg.IdempotencyTTL).SetVal(true)
		rmock.ExpectDel(failKey).SetVal(1)

		_, err := env.transfers.TransferWithKey(ctx, "key-2", testStudent, checking.ID, savings.ID, dollars(500))
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.NoError(t, rmock.ExpectationsWereMet())
	})
}

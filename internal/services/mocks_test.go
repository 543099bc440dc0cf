package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/schoolbank/backend/internal/config"
	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/storage"
	"github.com/schoolbank/backend/internal/storage/memory"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuditor struct {
	mock.Mock
}

func (m *MockAuditor) LogLedger(t models.Transaction) {
	m.Called(t)
}

func (m *MockAuditor) LogTransfer(result models.TransferResult) {
	m.Called(result)
}

func (m *MockAuditor) LogPayment(p models.Payment) {
	m.Called(p)
}

func (m *MockAuditor) LogStatement(s models.Statement) {
	m.Called(s)
}

func (m *MockAuditor) LogError(operation, accountID string, err error) {
	m.Called(operation, accountID, err)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

const (
	testTeacher  = "teacher-1"
	testClass    = "class-1"
	testStudent  = "student-1"
	otherStudent = "student-2"
)

type testEnv struct {
	store      *memory.Store
	clock      *testClock
	cfg        *config.BankingConfig
	ledger     *Ledger
	accounts   *AccountService
	transfers  *TransferService
	bills      *BillService
	payments   *BillPaymentService
	statements *StatementService
}

func testConfig() *config.BankingConfig {
	return &config.BankingConfig{
		LockTimeout:            5 * time.Second,
		MaxRetries:             3,
		RetryInitialInterval:   time.Millisecond,
		RetryMaxInterval:       5 * time.Millisecond,
		StatementDay:           27,
		StatementCheckInterval: time.Hour,
		StatementBatchLockTTL:  time.Hour,
		IdempotencyTTL:         time.Hour,
		QRCodeTTL:              15 * time.Minute,
		Currency:               "USD",
		InstitutionBIC:         "SCHLBANK",
	}
}

// newTestEnv wires every service over an in-memory store with one class
// taught by testTeacher and both test students enrolled.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := testConfig()
	store := memory.New(cfg.LockTimeout)
	store.AddClass(models.Class{ID: testClass, TeacherID: testTeacher, Name: "Economics 101"})
	store.Enroll(testClass, testStudent)
	store.Enroll(testClass, otherStudent)

	clock := &testClock{now: time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)}
	retrier := NewRetrier(cfg)
	ledger := NewLedger()
	ledger.now = clock.Now

	env := &testEnv{
		store:      store,
		clock:      clock,
		cfg:        cfg,
		ledger:     ledger,
		accounts:   NewAccountService(store, ledger, retrier, nil),
		transfers:  NewTransferService(store, ledger, retrier, nil, nil),
		bills:      NewBillService(store, retrier),
		payments:   NewBillPaymentService(store, ledger, retrier, nil),
		statements: NewStatementService(store, retrier, nil),
	}
	env.accounts.now = clock.Now
	env.transfers.now = clock.Now
	env.bills.now = clock.Now
	env.payments.now = clock.Now
	env.statements.now = clock.Now
	return env
}

// open sets up the student's accounts and funds them through teacher
// deposits, moving the savings share with a transfer.
func (e *testEnv) open(t *testing.T, studentID string, checking, savings models.Money) (models.Account, models.Account) {
	t.Helper()
	ctx := context.Background()

	accounts, err := e.accounts.SetupAccounts(ctx, studentID)
	require.NoError(t, err)
	c, ok := findAccount(accounts, models.AccountTypeChecking)
	require.True(t, ok)
	s, ok := findAccount(accounts, models.AccountTypeSavings)
	require.True(t, ok)

	if checking+savings > 0 {
		_, err = e.accounts.Deposit(ctx, testTeacher, studentID, checking+savings, "")
		require.NoError(t, err)
	}
	if savings > 0 {
		_, err = e.transfers.Transfer(ctx, studentID, c.ID, s.ID, savings)
		require.NoError(t, err)
	}
	return c, s
}

func (e *testEnv) account(t *testing.T, id string) models.Account {
	t.Helper()
	var account *models.Account
	err := e.store.InTx(context.Background(), storage.TxOptions{ReadOnly: true}, func(tx storage.Tx) error {
		var err error
		account, err = tx.GetAccount(context.Background(), id)
		return err
	})
	require.NoError(t, err)
	return *account
}

func (e *testEnv) balance(t *testing.T, id string) models.Money {
	return e.account(t, id).Balance
}

// replay sums the signed transaction log of an account.
func (e *testEnv) replay(t *testing.T, id string) models.Money {
	t.Helper()
	var total models.Money
	err := e.store.InTx(context.Background(), storage.TxOptions{ReadOnly: true}, func(tx storage.Tx) error {
		txs, err := tx.QueryTransactions(context.Background(), id, models.DateRange{})
		if err != nil {
			return err
		}
		for _, tr := range txs {
			total += tr.SignedAmount()
		}
		return nil
	})
	require.NoError(t, err)
	return total
}

func dollars(n int64) models.Money {
	return models.Money(n * 100)
}

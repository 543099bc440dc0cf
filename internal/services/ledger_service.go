package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/storage"
)

// Entry describes one posting to the ledger.
type Entry struct {
	ID                   string // generated when empty
	AccountID            string
	Type                 models.TransactionType
	Amount               models.Money
	Description          string
	RelatedTransactionID *string
	At                   time.Time // defaults to the ledger clock
}

// Ledger is the only code that changes account balances. Every posting locks
// the account row, updates the balance and appends to the transaction log in
// the caller's storage transaction, so both writes commit or neither does.
type Ledger struct {
	now func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{now: time.Now}
}

func (l *Ledger) Credit(ctx context.Context, tx storage.Tx, e Entry) (*models.Transaction, error) {
	if e.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !e.Type.IsCredit() {
		return nil, fmt.Errorf("ledger: %s is not a credit type", e.Type)
	}

	account, err := tx.LockAccount(ctx, e.AccountID)
	if err != nil {
		return nil, mapStorageError(err, ErrAccountNotFound)
	}

	if account.Balance > models.Money(math.MaxInt64)-e.Amount {
		return nil, fmt.Errorf("%w: balance overflow", ErrInvalidAmount)
	}

	return l.post(ctx, tx, account, account.Balance+e.Amount, e)
}

func (l *Ledger) Debit(ctx context.Context, tx storage.Tx, e Entry) (*models.Transaction, error) {
	if e.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !e.Type.Valid() || e.Type.IsCredit() {
		return nil, fmt.Errorf("ledger: %s is not a debit type", e.Type)
	}

	account, err := tx.LockAccount(ctx, e.AccountID)
	if err != nil {
		return nil, mapStorageError(err, ErrAccountNotFound)
	}

	if account.Balance < e.Amount {
		return nil, fmt.Errorf("%w: balance %s is less than %s", ErrInsufficientFunds, account.Balance, e.Amount)
	}

	return l.post(ctx, tx, account, account.Balance-e.Amount, e)
}

func (l *Ledger) post(ctx context.Context, tx storage.Tx, account *models.Account, balance models.Money, e Entry) (*models.Transaction, error) {
	at := e.At
	if at.IsZero() {
		at = l.now().UTC()
	}
	id := e.ID
	if id == "" {
		id = uuid.NewString()
	}

	if err := tx.UpdateBalance(ctx, account.ID, balance, account.Version, at); err != nil {
		return nil, mapStorageError(err, ErrAccountNotFound)
	}

	entry := &models.Transaction{
		ID:                   id,
		AccountID:            account.ID,
		Type:                 e.Type,
		Amount:               e.Amount,
		BalanceAfter:         balance,
		Description:          e.Description,
		RelatedTransactionID: e.RelatedTransactionID,
		CreatedAt:            at,
	}
	if err := tx.AppendTransaction(ctx, entry); err != nil {
		return nil, mapStorageError(err, nil)
	}

	return entry, nil
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/storage"
)

func (t *tx) AppendTransaction(ctx context.Context, tr *models.Transaction) error {
	if _, ok := t.account(tr.AccountID); !ok {
		return fmt.Errorf("append transaction: account %s does not exist", tr.AccountID)
	}
	t.transactions = append(t.transactions, *tr)
	return nil
}

// accountLog returns the account's entries in insertion order.
func (t *tx) accountLog(accountID string) []models.Transaction {
	var out []models.Transaction
	for _, tr := range append(t.committedTransactions(), t.transactions...) {
		if tr.AccountID == accountID {
			out = append(out, tr)
		}
	}
	return out
}

func (t *tx) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	for _, tr := range append(t.committedTransactions(), t.transactions...) {
		if tr.ID == id {
			found := tr
			return &found, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (t *tx) QueryTransactions(ctx context.Context, accountID string, r models.DateRange) ([]models.Transaction, error) {
	log := t.accountLog(accountID)

	out := make([]models.Transaction, 0, len(log))
	for i := len(log) - 1; i >= 0; i-- {
		if r.Contains(log[i].CreatedAt) {
			out = append(out, log[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (t *tx) NetMovementBefore(ctx context.Context, accountID string, before time.Time) (models.Money, error) {
	var net models.Money
	for _, tr := range t.accountLog(accountID) {
		if tr.CreatedAt.Before(before) {
			net += tr.SignedAmount()
		}
	}
	return net, nil
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/storage"
)

func (t *tx) account(id string) (models.Account, bool) {
	if a, ok := t.accounts[id]; ok {
		return a, true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	a, ok := t.s.accounts[id]
	return a, ok
}

func (t *tx) allAccounts() map[string]models.Account {
	t.s.mu.RLock()
	out := make(map[string]models.Account, len(t.s.accounts)+len(t.accounts))
	for id, a := range t.s.accounts {
		out[id] = a
	}
	t.s.mu.RUnlock()
	for id, a := range t.accounts {
		out[id] = a
	}
	return out
}

func (t *tx) CreateAccount(ctx context.Context, account *models.Account) (bool, error) {
	if err := t.lock(ctx, "owner:"+account.OwnerID+":"+string(account.AccountType)); err != nil {
		return false, err
	}
	for _, a := range t.allAccounts() {
		if a.OwnerID == account.OwnerID && a.AccountType == account.AccountType {
			return false, nil
		}
	}

	a := *account
	a.Version = 0
	a.UpdatedAt = a.CreatedAt
	t.accounts[a.ID] = a
	return true, nil
}

func (t *tx) ListAccounts(ctx context.Context, ownerID string) ([]models.Account, error) {
	var out []models.Account
	for _, a := range t.allAccounts() {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountType < out[j].AccountType })
	return out, nil
}

func (t *tx) ListAccountIDs(ctx context.Context) ([]string, error) {
	all := t.allAccounts()
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (t *tx) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	a, ok := t.account(id)
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &a, nil
}

func (t *tx) LockAccount(ctx context.Context, id string) (*models.Account, error) {
	if _, ok := t.account(id); !ok {
		return nil, storage.ErrNotFound
	}
	if err := t.lock(ctx, "account:"+id); err != nil {
		return nil, err
	}
	return t.GetAccount(ctx, id)
}

func (t *tx) UpdateBalance(ctx context.Context, id string, balance models.Money, version int, at time.Time) error {
	a, ok := t.account(id)
	if !ok {
		return storage.ErrNotFound
	}
	if a.Version != version {
		return fmt.Errorf("%w: optimistic lock failed for account %s", storage.ErrConflict, id)
	}
	if balance < 0 {
		return fmt.Errorf("balance of account %s would become negative", id)
	}

	a.Balance = balance
	a.Version++
	a.UpdatedAt = at
	t.accounts[id] = a
	return nil
}

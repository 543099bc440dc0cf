package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/storage"
)

func (t *tx) allStatements() []models.Statement {
	t.s.mu.RLock()
	out := make([]models.Statement, len(t.s.statements), len(t.s.statements)+len(t.statements))
	copy(out, t.s.statements)
	t.s.mu.RUnlock()
	return append(out, t.statements...)
}

func (t *tx) InsertStatement(ctx context.Context, s *models.Statement) (bool, error) {
	key := fmt.Sprintf("statement:%s:%04d-%02d", s.AccountID, s.Year, s.Month)
	if err := t.lock(ctx, key); err != nil {
		return false, err
	}
	if _, err := t.FindStatement(ctx, s.AccountID, s.Year, s.Month); err == nil {
		return false, nil
	}

	cp := *s
	cp.Transactions = make(models.StatementLines, len(s.Transactions))
	copy(cp.Transactions, s.Transactions)
	t.statements = append(t.statements, cp)
	return true, nil
}

func (t *tx) GetStatement(ctx context.Context, id string) (*models.Statement, error) {
	for _, s := range t.allStatements() {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (t *tx) FindStatement(ctx context.Context, accountID string, year, month int) (*models.Statement, error) {
	for _, s := range t.allStatements() {
		if s.AccountID == accountID && s.Year == year && s.Month == month {
			return &s, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (t *tx) ListStatements(ctx context.Context, accountID string, year int) ([]models.Statement, error) {
	var out []models.Statement
	for _, s := range t.allStatements() {
		if s.AccountID == accountID && s.Year == year {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

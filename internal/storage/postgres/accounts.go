package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/storage"
)

const accountColumns = `id, owner_id, account_type, balance, version, created_at, updated_at`

func scanAccount(row scanner) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.OwnerID, &a.AccountType, &a.Balance, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

func (t *pgTx) CreateAccount(ctx context.Context, account *models.Account) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO accounts (id, owner_id, account_type, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, $5)
		ON CONFLICT (owner_id, account_type) DO NOTHING`,
		account.ID, account.OwnerID, account.AccountType, account.Balance, account.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert account: %w", mapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

func (t *pgTx) ListAccounts(ctx context.Context, ownerID string) ([]models.Account, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE owner_id = $1
		ORDER BY account_type`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", mapError(err))
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (t *pgTx) ListAccountIDs(ctx context.Context) ([]string, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT id FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list account ids: %w", mapError(err))
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (t *pgTx) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1`, id)
	return scanAccount(row)
}

func (t *pgTx) LockAccount(ctx context.Context, id string) (*models.Account, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
		FOR UPDATE`, id)
	return scanAccount(row)
}

func (t *pgTx) UpdateBalance(ctx context.Context, id string, balance models.Money, version int, at time.Time) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4`,
		balance, at, id, version)
	if err != nil {
		return fmt.Errorf("update balance: %w", mapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: optimistic lock failed for account %s", storage.ErrConflict, id)
	}

	return nil
}

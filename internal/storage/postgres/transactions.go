package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/schoolbank/backend/internal/models"
)

const transactionColumns = `id, account_id, transaction_type, amount, balance_after, description, related_transaction_id, created_at`

func scanTransaction(row scanner) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.AccountID, &t.Type, &t.Amount, &t.BalanceAfter, &t.Description, &t.RelatedTransactionID, &t.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

// AppendTransaction inserts a log entry. The related_transaction_id foreign
// key is deferred, so both halves of a transfer can be inserted in any order.
func (t *pgTx) AppendTransaction(ctx context.Context, tr *models.Transaction) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO transactions (id, account_id, transaction_type, amount, balance_after, description, related_transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tr.ID, tr.AccountID, tr.Type, tr.Amount, tr.BalanceAfter, tr.Description, tr.RelatedTransactionID, tr.CreatedAt)
	if err != nil {
		return fmt.Errorf("append transaction: %w", mapError(err))
	}
	return nil
}

func (t *pgTx) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1`, id)
	return scanTransaction(row)
}

func (t *pgTx) QueryTransactions(ctx context.Context, accountID string, r models.DateRange) ([]models.Transaction, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE account_id = $1
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at < $3)
		ORDER BY created_at DESC, seq DESC`,
		accountID, nullTime(r.From), nullTime(r.To))
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", mapError(err))
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		tr, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *tr)
	}
	return out, rows.Err()
}

func (t *pgTx) NetMovementBefore(ctx context.Context, accountID string, before time.Time) (models.Money, error) {
	var net models.Money
	err := t.tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN transaction_type IN ('DEPOSIT', 'TRANSFER_IN') THEN amount ELSE -amount END), 0)
		FROM transactions
		WHERE account_id = $1 AND created_at < $2`,
		accountID, before).Scan(&net)
	if err != nil {
		return 0, fmt.Errorf("net movement: %w", mapError(err))
	}
	return net, nil
}

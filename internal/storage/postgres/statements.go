package postgres

import (
	"context"
	"fmt"

	"github.com/schoolbank/backend/internal/models"
)

const statementColumns = `id, account_id, year, month, opening_balance, closing_balance, transactions, generated_at`

func scanStatement(row scanner) (*models.Statement, error) {
	var s models.Statement
	err := row.Scan(&s.ID, &s.AccountID, &s.Year, &s.Month, &s.OpeningBalance, &s.ClosingBalance, &s.Transactions, &s.GeneratedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

func (t *pgTx) InsertStatement(ctx context.Context, s *models.Statement) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO statements (id, account_id, year, month, opening_balance, closing_balance, transactions, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (account_id, year, month) DO NOTHING`,
		s.ID, s.AccountID, s.Year, s.Month, s.OpeningBalance, s.ClosingBalance, s.Transactions, s.GeneratedAt)
	if err != nil {
		return false, fmt.Errorf("insert statement: %w", mapError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (t *pgTx) GetStatement(ctx context.Context, id string) (*models.Statement, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+statementColumns+` FROM statements WHERE id = $1`, id)
	return scanStatement(row)
}

func (t *pgTx) FindStatement(ctx context.Context, accountID string, year, month int) (*models.Statement, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+statementColumns+`
		FROM statements
		WHERE account_id = $1 AND year = $2 AND month = $3`, accountID, year, month)
	return scanStatement(row)
}

func (t *pgTx) ListStatements(ctx context.Context, accountID string, year int) ([]models.Statement, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+statementColumns+`
		FROM statements
		WHERE account_id = $1 AND year = $2
		ORDER BY month`, accountID, year)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", mapError(err))
	}
	defer rows.Close()

	var out []models.Statement
	for rows.Next() {
		s, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

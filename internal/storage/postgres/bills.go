package postgres

import (
	"context"
	"fmt"

	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/storage"
)

const billColumns = `id, class_id, title, description, amount, due_date, frequency, visible_from, created_by, created_at, updated_at`

func scanBill(row scanner) (*models.Bill, error) {
	var b models.Bill
	err := row.Scan(&b.ID, &b.ClassID, &b.Title, &b.Description, &b.Amount, &b.DueDate, &b.Frequency,
		&b.VisibleFrom, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &b, nil
}

func (t *pgTx) queryBills(ctx context.Context, query string, args ...any) ([]models.Bill, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", mapError(err))
	}
	defer rows.Close()

	var bills []models.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, *b)
	}
	return bills, rows.Err()
}

func (t *pgTx) CreateBill(ctx context.Context, b *models.Bill) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO bills (id, class_id, title, description, amount, due_date, frequency, visible_from, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
		b.ID, b.ClassID, b.Title, b.Description, b.Amount, b.DueDate, b.Frequency, b.VisibleFrom, b.CreatedBy, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert bill: %w", mapError(err))
	}
	return nil
}

func (t *pgTx) UpdateBill(ctx context.Context, b *models.Bill) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE bills
		SET title = $1, description = $2, amount = $3, due_date = $4, frequency = $5, visible_from = $6, updated_at = $7
		WHERE id = $8`,
		b.Title, b.Description, b.Amount, b.DueDate, b.Frequency, b.VisibleFrom, b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("update bill: %w", mapError(err))
	}
	return requireOneRow(result)
}

func (t *pgTx) DeleteBill(ctx context.Context, id string) error {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bill: %w", mapError(err))
	}
	return requireOneRow(result)
}

func (t *pgTx) GetBill(ctx context.Context, id string) (*models.Bill, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1`, id)
	return scanBill(row)
}

func (t *pgTx) LockBill(ctx context.Context, id string) (*models.Bill, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1 FOR UPDATE`, id)
	return scanBill(row)
}

func (t *pgTx) ListClassBills(ctx context.Context, classID string) ([]models.Bill, error) {
	return t.queryBills(ctx, `
		SELECT `+billColumns+`
		FROM bills
		WHERE class_id = $1
		ORDER BY due_date, created_at`, classID)
}

func (t *pgTx) ListStudentBills(ctx context.Context, studentID string) ([]models.Bill, error) {
	return t.queryBills(ctx, `
		SELECT b.id, b.class_id, b.title, b.description, b.amount, b.due_date, b.frequency, b.visible_from, b.created_by, b.created_at, b.updated_at
		FROM bills b
		JOIN class_enrollments e ON e.class_id = b.class_id
		WHERE e.student_id = $1
		ORDER BY b.due_date, b.created_at`, studentID)
}

func (t *pgTx) InsertPayment(ctx context.Context, p *models.Payment) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO payments (id, bill_id, student_id, account_id, transaction_id, amount, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.BillID, p.StudentID, p.AccountID, p.TransactionID, p.Amount, p.PaidAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", mapError(err))
	}
	return nil
}

func (t *pgTx) ListPayments(ctx context.Context, billID, studentID string) ([]models.Payment, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, bill_id, student_id, account_id, transaction_id, amount, paid_at
		FROM payments
		WHERE bill_id = $1 AND student_id = $2
		ORDER BY paid_at`, billID, studentID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", mapError(err))
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.BillID, &p.StudentID, &p.AccountID, &p.TransactionID, &p.Amount, &p.PaidAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (t *pgTx) PaidAmount(ctx context.Context, billID, studentID string) (models.Money, error) {
	var paid models.Money
	err := t.tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE bill_id = $1 AND student_id = $2`, billID, studentID).Scan(&paid)
	if err != nil {
		return 0, fmt.Errorf("paid amount: %w", mapError(err))
	}
	return paid, nil
}

func (t *pgTx) CountPayments(ctx context.Context, billID string) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments WHERE bill_id = $1`, billID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count payments: %w", mapError(err))
	}
	return n, nil
}

type rowsResult interface {
	RowsAffected() (int64, error)
}

func requireOneRow(result rowsResult) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

package services

import (
	"fmt"
	"time"

	"github.com/schoolbank/backend/internal/models"
	"github.com/xuri/excelize/v2"
)

const statementSheet = "Statement"

var statementColumns = []string{"Date", "Type", "Description", "Amount", "Balance"}

// StatementFilename is e.g. "statement-checking-2025-03.xlsx".
func StatementFilename(account *models.Account, st *models.Statement) string {
	return fmt.Sprintf("statement-%s-%04d-%02d.xlsx", lowerAccountType(account.AccountType), st.Year, st.Month)
}

func lowerAccountType(t models.AccountType) string {
	switch t {
	case models.AccountTypeChecking:
		return "checking"
	case models.AccountTypeSavings:
		return "savings"
	}
	return "account"
}

// RenderStatementXLSX writes the statement header, one row per transaction in
// chronological order and the closing balance.
func RenderStatementXLSX(account *models.Account, st *models.Statement) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", statementSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	start, _ := models.StatementPeriod(st.Year, st.Month)
	header := [][]any{
		{"Account Statement", start.Format("January 2006")},
		{"Account", accountLabel(account.AccountType) + " " + account.ID},
		{"Generated", st.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Opening Balance", st.OpeningBalance.Float64()},
	}
	row := 1
	for _, values := range header {
		if err := setRow(f, row, values); err != nil {
			return nil, err
		}
		row++
	}

	row++
	columnRow := row
	cols := make([]any, len(statementColumns))
	for i, c := range statementColumns {
		cols[i] = c
	}
	if err := setRow(f, row, cols); err != nil {
		return nil, err
	}
	row++

	for _, t := range st.Transactions {
		values := []any{
			t.CreatedAt.UTC().Format("2006-01-02 15:04"),
			string(t.Type),
			t.Description,
			t.SignedAmount().Float64(),
			t.BalanceAfter.Float64(),
		}
		if err := setRow(f, row, values); err != nil {
			return nil, err
		}
		row++
	}

	row++
	if err := setRow(f, row, []any{"Closing Balance", st.ClosingBalance.Float64()}); err != nil {
		return nil, err
	}

	for _, r := range []int{1, columnRow, row} {
		if err := f.SetCellStyle(statementSheet, fmt.Sprintf("A%d", r), fmt.Sprintf("E%d", r), bold); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(statementSheet, "A", "A", 20); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(statementSheet, "C", "C", 40); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(statementSheet, cell, &values)
}

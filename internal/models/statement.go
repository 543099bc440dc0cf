package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type Statement struct {
	ID             string         `json:"id" db:"id"`
	AccountID      string         `json:"accountId" db:"account_id"`
	Month          int            `json:"month" db:"month"`
	Year           int            `json:"year" db:"year"`
	OpeningBalance Money          `json:"openingBalance" db:"opening_balance"`
	ClosingBalance Money          `json:"closingBalance" db:"closing_balance"`
	Transactions   StatementLines `json:"transactions" db:"transactions"`
	GeneratedAt    time.Time      `json:"generatedAt" db:"generated_at"`
}

// StatementPeriod returns the [start, end) bounds of a calendar month in UTC.
func StatementPeriod(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// StatementAvailability is one row of the statement picker.
type StatementAvailability struct {
	Month       int     `json:"month"`
	Available   bool    `json:"available"`
	StatementID *string `json:"statementId,omitempty"`
}

// StatementLines is the immutable, chronologically ordered transaction
// snapshot of a statement, stored as JSONB.
type StatementLines []Transaction

// Value implements driver.Valuer for StatementLines
func (l StatementLines) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for StatementLines
func (l *StatementLines) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(b, l)
}

// Package audit writes one JSON line per balance-affecting event.
package audit

import (
	"encoding/json"
	"log"
	"time"

	"github.com/schoolbank/backend/internal/models"
)

type Event struct {
	Timestamp     time.Time    `json:"timestamp"`
	EventType     string       `json:"event_type"`
	TransactionID string       `json:"transaction_id,omitempty"`
	AccountID     string       `json:"account_id,omitempty"`
	Amount        models.Money `json:"amount"`
	Status        string       `json:"status"`
	Details       any          `json:"details,omitempty"`
}

type Logger struct {
	out *log.Logger
	now func() time.Time
}

func NewAuditLogger() *Logger {
	return NewAuditLoggerTo(log.Default())
}

// NewAuditLoggerTo writes audit lines to out.
func NewAuditLoggerTo(out *log.Logger) *Logger {
	return &Logger{out: out, now: time.Now}
}

func (a *Logger) LogLedger(t models.Transaction) {
	a.log(Event{
		EventType:     string(t.Type),
		TransactionID: t.ID,
		AccountID:     t.AccountID,
		Amount:        t.Amount,
		Status:        "SUCCESS",
		Details: map[string]string{
			"balance_after": t.BalanceAfter.String(),
			"description":   t.Description,
		},
	})
}

func (a *Logger) LogTransfer(result models.TransferResult) {
	a.log(Event{
		EventType:     "TRANSFER",
		TransactionID: result.OutTx.ID,
		AccountID:     result.OutTx.AccountID,
		Amount:        result.OutTx.Amount,
		Status:        "SUCCESS",
		Details: map[string]string{
			"from_account":   result.OutTx.AccountID,
			"to_account":     result.InTx.AccountID,
			"in_transaction": result.InTx.ID,
		},
	})
}

func (a *Logger) LogPayment(p models.Payment) {
	a.log(Event{
		EventType:     "BILL_PAYMENT",
		TransactionID: p.TransactionID,
		AccountID:     p.AccountID,
		Amount:        p.Amount,
		Status:        "SUCCESS",
		Details: map[string]string{
			"payment_id": p.ID,
			"bill_id":    p.BillID,
			"student_id": p.StudentID,
		},
	})
}

func (a *Logger) LogStatement(s models.Statement) {
	a.log(Event{
		EventType: "STATEMENT",
		AccountID: s.AccountID,
		Amount:    s.ClosingBalance,
		Status:    "GENERATED",
		Details: map[string]any{
			"statement_id":    s.ID,
			"year":            s.Year,
			"month":           s.Month,
			"opening_balance": s.OpeningBalance.String(),
			"lines":           len(s.Transactions),
		},
	})
}

func (a *Logger) LogError(operation, accountID string, err error) {
	a.log(Event{
		EventType: operation,
		AccountID: accountID,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *Logger) log(event Event) {
	event.Timestamp = a.now().UTC()
	data, _ := json.Marshal(event)
	a.out.Printf("AUDIT: %s", string(data))
}

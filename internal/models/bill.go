package models

import (
	"time"
)

type BillFrequency string

const (
	FrequencyOnce      BillFrequency = "ONCE"
	FrequencyWeekly    BillFrequency = "WEEKLY"
	FrequencyBiweekly  BillFrequency = "BIWEEKLY"
	FrequencyMonthly   BillFrequency = "MONTHLY"
	FrequencyQuarterly BillFrequency = "QUARTERLY"
	FrequencyYearly    BillFrequency = "YEARLY"
)

// NextDue returns the first due date of a recurring bill that is not before
// now. ONCE bills always return their due date.
func (f BillFrequency) NextDue(due, now time.Time) time.Time {
	if f == FrequencyOnce || f == "" {
		return due
	}
	next := due
	for next.Before(now) {
		switch f {
		case FrequencyWeekly:
			next = next.AddDate(0, 0, 7)
		case FrequencyBiweekly:
			next = next.AddDate(0, 0, 14)
		case FrequencyMonthly:
			next = next.AddDate(0, 1, 0)
		case FrequencyQuarterly:
			next = next.AddDate(0, 3, 0)
		case FrequencyYearly:
			next = next.AddDate(1, 0, 0)
		default:
			return due
		}
	}
	return next
}

type BillStatus string

const (
	BillStatusUnpaid  BillStatus = "UNPAID"
	BillStatusPartial BillStatus = "PARTIAL"
	BillStatusPaid    BillStatus = "PAID"
)

// StatusFor derives the payment status of a bill from the amount paid so far.
func StatusFor(amount, paid Money) BillStatus {
	switch {
	case paid <= 0:
		return BillStatusUnpaid
	case paid >= amount:
		return BillStatusPaid
	default:
		return BillStatusPartial
	}
}

type Bill struct {
	ID          string        `json:"id" db:"id"`
	ClassID     string        `json:"classId" db:"class_id"`
	Title       string        `json:"title" db:"title"`
	Description string        `json:"description" db:"description"`
	Amount      Money         `json:"amount" db:"amount"`
	DueDate     time.Time     `json:"dueDate" db:"due_date"`
	Frequency   BillFrequency `json:"frequency" db:"frequency"`
	VisibleFrom *time.Time    `json:"visibleFrom,omitempty" db:"visible_from"`
	CreatedBy   string        `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" db:"updated_at"`
}

// VisibleAt reports whether students can see the bill at t.
func (b Bill) VisibleAt(t time.Time) bool {
	return b.VisibleFrom == nil || !t.Before(*b.VisibleFrom)
}

// StudentBill is a bill as seen by one student.
type StudentBill struct {
	Bill
	Paid        Money      `json:"paid"`
	Remaining   Money      `json:"remaining"`
	Status      BillStatus `json:"status"`
	NextDueDate time.Time  `json:"nextDueDate"`
}

type Payment struct {
	ID            string    `json:"id" db:"id"`
	BillID        string    `json:"billId" db:"bill_id"`
	StudentID     string    `json:"studentId" db:"student_id"`
	AccountID     string    `json:"accountId" db:"account_id"`
	TransactionID string    `json:"transactionId" db:"transaction_id"`
	Amount        Money     `json:"amount" db:"amount"`
	PaidAt        time.Time `json:"paidAt" db:"paid_at"`
}

// PaymentResult is returned to the student after a successful bill payment.
type PaymentResult struct {
	Payment   Payment    `json:"payment"`
	Remaining Money      `json:"remaining"`
	Status    BillStatus `json:"status"`
}

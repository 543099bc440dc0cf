package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/storage"
)

// BillPaymentService pays class bills from a student's account.
type BillPaymentService struct {
	store   storage.Store
	ledger  *Ledger
	retrier *Retrier
	audit   Auditor
	now     func() time.Time
}

func NewBillPaymentService(store storage.Store, ledger *Ledger, retrier *Retrier, auditor Auditor) *BillPaymentService {
	return &BillPaymentService{
		store:   store,
		ledger:  ledger,
		retrier: retrier,
		audit:   auditorOrNop(auditor),
		now:     time.Now,
	}
}

// PayBill debits the account and records the payment atomically. The bill
// row stays locked until commit, so concurrent payments by the same student
// can never add up to more than the bill amount.
func (s *BillPaymentService) PayBill(ctx context.Context, studentID, billID, accountID string, amount models.Money) (*models.PaymentResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var result models.PaymentResult
	err := s.retrier.Do(ctx, func() error {
		return s.store.InTx(ctx, storage.TxOptions{}, func(tx storage.Tx) error {
			return s.payBill(ctx, tx, studentID, billID, accountID, amount, &result)
		})
	})
	if err != nil {
		s.audit.LogError("pay_bill", accountID, err)
		return nil, err
	}

	s.audit.LogPayment(result.Payment)
	return &result, nil
}

func (s *BillPaymentService) payBill(ctx context.Context, tx storage.Tx, studentID, billID, accountID string, amount models.Money, result *models.PaymentResult) error {
	now := s.now().UTC()

	bill, err := tx.LockBill(ctx, billID)
	if err != nil {
		return mapStorageError(err, ErrBillNotFound)
	}
	enrolled, err := tx.IsEnrolled(ctx, studentID, bill.ClassID)
	if err != nil {
		return mapStorageError(err, nil)
	}
	if !bill.VisibleAt(now) {
		return ErrBillNotFound
	}
	if !enrolled {
		return ErrAccessDenied
	}

	if _, err := ownedAccount(ctx, tx, studentID, accountID); err != nil {
		return err
	}

	paid, err := tx.PaidAmount(ctx, billID, studentID)
	if err != nil {
		return mapStorageError(err, nil)
	}
	remaining := bill.Amount - paid
	if amount > remaining {
		return fmt.Errorf("%w: %s remaining on %q", ErrOverpaymentNotAllowed, maxMoney(remaining, 0), bill.Title)
	}

	debit, err := s.ledger.Debit(ctx, tx, Entry{
		AccountID:   accountID,
		Type:        models.TransactionWithdrawal,
		Amount:      amount,
		Description: "Bill payment: " + bill.Title,
		At:          now,
	})
	if err != nil {
		return err
	}

	payment := models.Payment{
		ID:            uuid.NewString(),
		BillID:        billID,
		StudentID:     studentID,
		AccountID:     accountID,
		TransactionID: debit.ID,
		Amount:        amount,
		PaidAt:        now,
	}
	if err := tx.InsertPayment(ctx, &payment); err != nil {
		return mapStorageError(err, nil)
	}

	*result = models.PaymentResult{
		Payment:   payment,
		Remaining: remaining - amount,
		Status:    models.StatusFor(bill.Amount, paid+amount),
	}
	return nil
}

func maxMoney(a, b models.Money) models.Money {
	if a > b {
		return a
	}
	return b
}

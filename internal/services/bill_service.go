package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/storage"
)

// BillInput carries the teacher-editable fields of a bill.
type BillInput struct {
	Title       string
	Description string
	Amount      models.Money
	DueDate     time.Time
	Frequency   models.BillFrequency
	VisibleFrom *time.Time
}

func (in BillInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidBill)
	}
	if in.Amount <= 0 {
		return ErrInvalidAmount
	}
	if in.DueDate.IsZero() {
		return fmt.Errorf("%w: due date is required", ErrInvalidBill)
	}
	switch in.Frequency {
	case models.FrequencyOnce, models.FrequencyWeekly, models.FrequencyBiweekly,
		models.FrequencyMonthly, models.FrequencyQuarterly, models.FrequencyYearly:
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidBill, in.Frequency)
	}
	return nil
}

// BillService manages class bills and read-only views of them.
type BillService struct {
	store   storage.Store
	retrier *Retrier
	now     func() time.Time
}

func NewBillService(store storage.Store, retrier *Retrier) *BillService {
	return &BillService{store: store, retrier: retrier, now: time.Now}
}

func (s *BillService) CreateBill(ctx context.Context, teacherID, classID string, in BillInput) (*models.Bill, error) {
	if in.Frequency == "" {
		in.Frequency = models.FrequencyOnce
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	bill := &models.Bill{
		ID:          uuid.NewString(),
		ClassID:     classID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Amount:      in.Amount,
		DueDate:     in.DueDate.UTC(),
		Frequency:   in.Frequency,
		VisibleFrom: in.VisibleFrom,
		CreatedBy:   teacherID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.InTx(ctx, storage.TxOptions{}, func(tx storage.Tx) error {
		if err := requireTeacher(ctx, tx, teacherID, classID); err != nil {
			return err
		}
		return mapStorageError(tx.CreateBill(ctx, bill), nil)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[BILLS] Created bill %s (%s, %s) for class %s", bill.ID, bill.Title, bill.Amount, classID)
	return bill, nil
}

// UpdateBill replaces the editable fields. The amount is frozen once any
// student has paid towards the bill.
func (s *BillService) UpdateBill(ctx context.Context, teacherID, billID string, in BillInput) (*models.Bill, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var bill *models.Bill
	err := s.retrier.Do(ctx, func() error {
		return s.store.InTx(ctx, storage.TxOptions{}, func(tx storage.Tx) error {
			var err error
			bill, err = tx.LockBill(ctx, billID)
			if err != nil {
				return mapStorageError(err, ErrBillNotFound)
			}
			if err := requireTeacher(ctx, tx, teacherID, bill.ClassID); err != nil {
				return err
			}

			if in.Amount != bill.Amount {
				n, err := tx.CountPayments(ctx, billID)
				if err != nil {
					return mapStorageError(err, nil)
				}
				if n > 0 {
					return fmt.Errorf("%w: amount cannot change after payments", ErrBillHasPayments)
				}
			}

			bill.Title = strings.TrimSpace(in.Title)
			bill.Description = in.Description
			bill.Amount = in.Amount
			bill.DueDate = in.DueDate.UTC()
			bill.Frequency = in.Frequency
			bill.VisibleFrom = in.VisibleFrom
			bill.UpdatedAt = s.now().UTC()
			return mapStorageError(tx.UpdateBill(ctx, bill), ErrBillNotFound)
		})
	})
	if err != nil {
		return nil, err
	}
	return bill, nil
}

func (s *BillService) DeleteBill(ctx context.Context, teacherID, billID string) error {
	return s.retrier.Do(ctx, func() error {
		return s.store.InTx(ctx, storage.TxOptions{}, func(tx storage.Tx) error {
			bill, err := tx.LockBill(ctx, billID)
			if err != nil {
				return mapStorageError(err, ErrBillNotFound)
			}
			if err := requireTeacher(ctx, tx, teacherID, bill.ClassID); err != nil {
				return err
			}

			n, err := tx.CountPayments(ctx, billID)
			if err != nil {
				return mapStorageError(err, nil)
			}
			if n > 0 {
				return ErrBillHasPayments
			}
			return mapStorageError(tx.DeleteBill(ctx, billID), ErrBillNotFound)
		})
	})
}

func (s *BillService) ListClassBills(ctx context.Context, teacherID, classID string) ([]models.Bill, error) {
	var bills []models.Bill
	err := s.store.InTx(ctx, storage.TxOptions{ReadOnly: true}, func(tx storage.Tx) error {
		if err := requireTeacher(ctx, tx, teacherID, classID); err != nil {
			return err
		}
		var err error
		bills, err = tx.ListClassBills(ctx, classID)
		return mapStorageError(err, nil)
	})
	if err != nil {
		return nil, err
	}
	if bills == nil {
		bills = []models.Bill{}
	}
	return bills, nil
}

// ListStudentBills returns the bills visible to the student with their
// per-student payment status.
func (s *BillService) ListStudentBills(ctx context.Context, studentID string) ([]models.StudentBill, error) {
	now := s.now().UTC()
	result := []models.StudentBill{}

	err := s.store.InTx(ctx, storage.TxOptions{ReadOnly: true, Snapshot: true}, func(tx storage.Tx) error {
		bills, err := tx.ListStudentBills(ctx, studentID)
		if err != nil {
			return mapStorageError(err, nil)
		}
		for _, bill := range bills {
			if !bill.VisibleAt(now) {
				continue
			}
			paid, err := tx.PaidAmount(ctx, bill.ID, studentID)
			if err != nil {
				return mapStorageError(err, nil)
			}
			result = append(result, studentView(bill, paid, now))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListPayments returns the student's payments towards a bill.
func (s *BillService) ListPayments(ctx context.Context, studentID, billID string) ([]models.Payment, error) {
	now := s.now().UTC()
	var payments []models.Payment

	err := s.store.InTx(ctx, storage.TxOptions{ReadOnly: true}, func(tx storage.Tx) error {
		if _, err := visibleBill(ctx, tx, studentID, billID, now); err != nil {
			return err
		}
		var err error
		payments, err = tx.ListPayments(ctx, billID, studentID)
		return mapStorageError(err, nil)
	})
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	return payments, nil
}

func studentView(bill models.Bill, paid models.Money, now time.Time) models.StudentBill {
	remaining := bill.Amount - paid
	if remaining < 0 {
		remaining = 0
	}
	return models.StudentBill{
		Bill:        bill,
		Paid:        paid,
		Remaining:   remaining,
		Status:      models.StatusFor(bill.Amount, paid),
		NextDueDate: bill.Frequency.NextDue(bill.DueDate, now),
	}
}

func requireTeacher(ctx context.Context, tx storage.Tx, teacherID, classID string) error {
	class, err := tx.GetClass(ctx, classID)
	if err != nil {
		return mapStorageError(err, ErrClassNotFound)
	}
	if class.TeacherID != teacherID {
		return ErrAccessDenied
	}
	return nil
}

// visibleBill loads a bill the student may see. Bills not yet published are
// reported as missing.
func visibleBill(ctx context.Context, tx storage.Tx, studentID, billID string, now time.Time) (*models.Bill, error) {
	bill, err := tx.GetBill(ctx, billID)
	if err != nil {
		return nil, mapStorageError(err, ErrBillNotFound)
	}
	enrolled, err := tx.IsEnrolled(ctx, studentID, bill.ClassID)
	if err != nil {
		return nil, mapStorageError(err, nil)
	}
	if !bill.VisibleAt(now) {
		return nil, ErrBillNotFound
	}
	if !enrolled {
		return nil, ErrAccessDenied
	}
	return bill, nil
}

package memory

import (
	"context"
	"sort"

	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/storage"
)

func (t *tx) bill(id string) (models.Bill, bool) {
	if b, ok := t.bills[id]; ok {
		if b == nil {
			return models.Bill{}, false
		}
		return *b, true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	b, ok := t.s.bills[id]
	return b, ok
}

func (t *tx) allBills() []models.Bill {
	t.s.mu.RLock()
	merged := make(map[string]models.Bill, len(t.s.bills))
	for id, b := range t.s.bills {
		merged[id] = b
	}
	t.s.mu.RUnlock()

	for id, b := range t.bills {
		if b == nil {
			delete(merged, id)
			continue
		}
		merged[id] = *b
	}

	out := make([]models.Bill, 0, len(merged))
	for _, b := range merged {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (t *tx) allPayments() []models.Payment {
	t.s.mu.RLock()
	out := make([]models.Payment, len(t.s.payments), len(t.s.payments)+len(t.payments))
	copy(out, t.s.payments)
	t.s.mu.RUnlock()
	return append(out, t.payments...)
}

func (t *tx) CreateBill(ctx context.Context, b *models.Bill) error {
	cp := *b
	cp.UpdatedAt = cp.CreatedAt
	t.bills[b.ID] = &cp
	return nil
}

func (t *tx) UpdateBill(ctx context.Context, b *models.Bill) error {
	if _, ok := t.bill(b.ID); !ok {
		return storage.ErrNotFound
	}
	cp := *b
	t.bills[b.ID] = &cp
	return nil
}

func (t *tx) DeleteBill(ctx context.Context, id string) error {
	if _, ok := t.bill(id); !ok {
		return storage.ErrNotFound
	}
	t.bills[id] = nil
	return nil
}

func (t *tx) GetBill(ctx context.Context, id string) (*models.Bill, error) {
	b, ok := t.bill(id)
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &b, nil
}

func (t *tx) LockBill(ctx context.Context, id string) (*models.Bill, error) {
	if _, ok := t.bill(id); !ok {
		return nil, storage.ErrNotFound
	}
	if err := t.lock(ctx, "bill:"+id); err != nil {
		return nil, err
	}
	return t.GetBill(ctx, id)
}

func (t *tx) ListClassBills(ctx context.Context, classID string) ([]models.Bill, error) {
	var out []models.Bill
	for _, b := range t.allBills() {
		if b.ClassID == classID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t *tx) ListStudentBills(ctx context.Context, studentID string) ([]models.Bill, error) {
	var out []models.Bill
	for _, b := range t.allBills() {
		if t.enrolled(studentID, b.ClassID) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t *tx) InsertPayment(ctx context.Context, p *models.Payment) error {
	t.payments = append(t.payments, *p)
	return nil
}

func (t *tx) ListPayments(ctx context.Context, billID, studentID string) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range t.allPayments() {
		if p.BillID == billID && p.StudentID == studentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (t *tx) PaidAmount(ctx context.Context, billID, studentID string) (models.Money, error) {
	var paid models.Money
	for _, p := range t.allPayments() {
		if p.BillID == billID && p.StudentID == studentID {
			paid += p.Amount
		}
	}
	return paid, nil
}

func (t *tx) CountPayments(ctx context.Context, billID string) (int, error) {
	n := 0
	for _, p := range t.allPayments() {
		if p.BillID == billID {
			n++
		}
	}
	return n, nil
}

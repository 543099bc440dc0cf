package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/storage"
	"github.com/skip2/go-qrcode"
)

const qrPayPrefix = "schoolbank://pay?code="

// BillQR is a scannable code a teacher displays in class.
type BillQR struct {
	Code      string    `json:"code"`
	Image     string    `json:"image"` // base64 PNG
	ExpiresAt time.Time `json:"expiresAt"`
}

// BillQRResolution is what a student sees after scanning a bill QR.
type BillQRResolution struct {
	BillID          string            `json:"billId"`
	Title           string            `json:"title"`
	Remaining       models.Money      `json:"remaining"`
	SuggestedAmount models.Money      `json:"suggestedAmount"`
	Status          models.BillStatus `json:"status"`
}

type qrPayload struct {
	BillID    string       `json:"billId"`
	Amount    models.Money `json:"amount,omitempty"`
	CreatedBy string       `json:"createdBy"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type QRService struct {
	store storage.Store
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

func NewQRService(store storage.Store, redis *redis.Client, ttl time.Duration) *QRService {
	return &QRService{
		store: store,
		redis: redis,
		ttl:   ttl,
		now:   time.Now,
	}
}

// GenerateBillQR issues a short-lived code for a bill of one of the
// teacher's classes. amount, when positive, is suggested to students instead
// of their remaining balance.
func (s *QRService) GenerateBillQR(ctx context.Context, teacherID, billID string, amount models.Money) (*BillQR, error) {
	if s.redis == nil {
		return nil, ErrServiceUnavailable
	}
	if amount < 0 {
		return nil, ErrInvalidAmount
	}

	err := s.store.InTx(ctx, storage.TxOptions{ReadOnly: true}, func(tx storage.Tx) error {
		bill, err := tx.GetBill(ctx, billID)
		if err != nil {
			return mapStorageError(err, ErrBillNotFound)
		}
		if amount > bill.Amount {
			return ErrOverpaymentNotAllowed
		}
		return requireTeacher(ctx, tx, teacherID, bill.ClassID)
	})
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().UTC().Add(s.ttl)
	jsonData, err := json.Marshal(qrPayload{BillID: billID, Amount: amount, CreatedBy: teacherID, ExpiresAt: expiresAt})
	if err != nil {
		return nil, err
	}

	code, err := s.generateNonce()
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("qr:bill:%s", code)
	if err := s.redis.Set(ctx, key, string(jsonData), s.ttl).Err(); err != nil {
		return nil, err
	}

	qr, err := qrcode.New(qrPayPrefix+code, qrcode.Medium)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return nil, err
	}

	return &BillQR{
		Code:      code,
		Image:     base64.StdEncoding.EncodeToString(buf.Bytes()),
		ExpiresAt: expiresAt,
	}, nil
}

// ResolveBillQR turns a scanned code into the bill and the amount to pre-fill.
// Codes are shared by a whole class, so resolving does not consume them.
func (s *QRService) ResolveBillQR(ctx context.Context, studentID, code string) (*BillQRResolution, error) {
	if s.redis == nil {
		return nil, ErrServiceUnavailable
	}

	data, err := s.redis.Get(ctx, fmt.Sprintf("qr:bill:%s", code)).Bytes()
	if err == redis.Nil {
		return nil, ErrQRCodeInvalid
	}
	if err != nil {
		return nil, err
	}

	var payload qrPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQRCodeInvalid, err)
	}

	var resolution *BillQRResolution
	err = s.store.InTx(ctx, storage.TxOptions{ReadOnly: true}, func(tx storage.Tx) error {
		bill, err := visibleBill(ctx, tx, studentID, payload.BillID, s.now().UTC())
		if err != nil {
			return err
		}
		paid, err := tx.PaidAmount(ctx, bill.ID, studentID)
		if err != nil {
			return mapStorageError(err, nil)
		}

		remaining := maxMoney(bill.Amount-paid, 0)
		suggested := remaining
		if payload.Amount > 0 && payload.Amount < remaining {
			suggested = payload.Amount
		}
		resolution = &BillQRResolution{
			BillID:          bill.ID,
			Title:           bill.Title,
			Remaining:       remaining,
			SuggestedAmount: suggested,
			Status:          models.StatusFor(bill.Amount, paid),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolution, nil
}

func (s *QRService) generateNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

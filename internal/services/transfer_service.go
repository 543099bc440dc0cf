package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/storage"
)

// TransferService moves money between two accounts owned by the same student.
type TransferService struct {
	store       storage.Store
	ledger      *Ledger
	retrier     *Retrier
	idempotency *IdempotencyCache
	audit       Auditor
	now         func() time.Time
}

func NewTransferService(store storage.Store, ledger *Ledger, retrier *Retrier, idempotency *IdempotencyCache, auditor Auditor) *TransferService {
	return &TransferService{
		store:       store,
		ledger:      ledger,
		retrier:     retrier,
		idempotency: idempotency,
		audit:       auditorOrNop(auditor),
		now:         time.Now,
	}
}

// TransferWithKey runs Transfer at most once per (student, key). A repeated
// key with the same accounts and amount returns the first result; with
// anything else it fails with ErrIdempotencyKeyReused.
func (s *TransferService) TransferWithKey(ctx context.Context, key, studentID, fromID, toID string, amount models.Money) (*models.TransferResult, error) {
	if key == "" || !s.idempotency.Enabled() {
		return s.Transfer(ctx, studentID, fromID, toID, amount)
	}

	scope := "transfer:" + studentID
	fingerprint := transferFingerprint(fromID, toID, amount)
	var cached models.TransferResult
	replayed, err := s.idempotency.Begin(ctx, scope, key, fingerprint, &cached)
	if err != nil {
		return nil, err
	}
	if replayed {
		log.Printf("[TRANSFER] Replaying idempotent transfer %s for key %s", cached.OutTx.ID, key)
		return &cached, nil
	}

	result, err := s.Transfer(ctx, studentID, fromID, toID, amount)
	if err != nil {
		if relErr := s.idempotency.Release(ctx, scope, key); relErr != nil {
			log.Printf("[TRANSFER] Failed to release idempotency key %s: %v", key, relErr)
		}
		return nil, err
	}
	if err := s.idempotency.Complete(ctx, scope, key, fingerprint, result); err != nil {
		log.Printf("[TRANSFER] Failed to store idempotent result for key %s: %v", key, err)
	}
	return result, nil
}

func transferFingerprint(fromID, toID string, amount models.Money) string {
	return requestFingerprint(fromID, toID, strconv.FormatInt(int64(amount), 10))
}

// Transfer debits fromID and credits toID in one atomic step, writing a
// linked TRANSFER_OUT/TRANSFER_IN pair.
func (s *TransferService) Transfer(ctx context.Context, studentID, fromID, toID string, amount models.Money) (*models.TransferResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if fromID == toID {
		return nil, fmt.Errorf("%w: source and destination are the same account", ErrAccountMismatch)
	}

	var result models.TransferResult
	err := s.retrier.Do(ctx, func() error {
		return s.store.InTx(ctx, storage.TxOptions{}, func(tx storage.Tx) error {
			return s.transfer(ctx, tx, studentID, fromID, toID, amount, &result)
		})
	})
	if err != nil {
		log.Printf("[TRANSFER] Transfer of %s from %s to %s failed: %v", amount, fromID, toID, err)
		s.audit.LogError("transfer", fromID, err)
		return nil, err
	}

	s.audit.LogTransfer(result)
	return &result, nil
}

func (s *TransferService) transfer(ctx context.Context, tx storage.Tx, studentID, fromID, toID string, amount models.Money, result *models.TransferResult) error {
	// Lock in a global order so opposite transfers cannot deadlock.
	first, second := fromID, toID
	if second < first {
		first, second = second, first
	}

	locked := make(map[string]*models.Account, 2)
	for _, id := range []string{first, second} {
		account, err := tx.LockAccount(ctx, id)
		if err != nil {
			return mapStorageError(err, ErrAccountNotFound)
		}
		if account.OwnerID != studentID {
			return ErrAccountMismatch
		}
		locked[id] = account
	}

	if locked[fromID].Balance < amount {
		return fmt.Errorf("%w: balance %s is less than %s", ErrInsufficientFunds, locked[fromID].Balance, amount)
	}

	at := s.now().UTC()
	outID, inID := uuid.NewString(), uuid.NewString()

	out, err := s.ledger.Debit(ctx, tx, Entry{
		ID:                   outID,
		AccountID:            fromID,
		Type:                 models.TransactionTransferOut,
		Amount:               amount,
		Description:          "Transfer to " + accountLabel(locked[toID].AccountType),
		RelatedTransactionID: &inID,
		At:                   at,
	})
	if err != nil {
		return err
	}

	in, err := s.ledger.Credit(ctx, tx, Entry{
		ID:                   inID,
		AccountID:            toID,
		Type:                 models.TransactionTransferIn,
		Amount:               amount,
		Description:          "Transfer from " + accountLabel(locked[fromID].AccountType),
		RelatedTransactionID: &outID,
		At:                   at,
	})
	if err != nil {
		return err
	}

	*result = models.TransferResult{OutTx: *out, InTx: *in}
	return nil
}

func accountLabel(t models.AccountType) string {
	switch t {
	case models.AccountTypeChecking:
		return "Checking"
	case models.AccountTypeSavings:
		return "Savings"
	}
	return string(t)
}

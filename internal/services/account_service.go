package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/storage"
)

type AccountService struct {
	store   storage.Store
	ledger  *Ledger
	retrier *Retrier
	audit   Auditor
	now     func() time.Time
}

func NewAccountService(store storage.Store, ledger *Ledger, retrier *Retrier, auditor Auditor) *AccountService {
	return &AccountService{
		store:   store,
		ledger:  ledger,
		retrier: retrier,
		audit:   auditorOrNop(auditor),
		now:     time.Now,
	}
}

// SetupAccounts ensures the student owns exactly one CHECKING and one
// SAVINGS account. Calling it again returns the existing accounts.
func (s *AccountService) SetupAccounts(ctx context.Context, studentID string) ([]models.Account, error) {
	var accounts []models.Account
	err := s.retrier.Do(ctx, func() error {
		return s.store.InTx(ctx, storage.TxOptions{}, func(tx storage.Tx) error {
			var err error
			accounts, err = s.ensureAccounts(ctx, tx, studentID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *AccountService) ensureAccounts(ctx context.Context, tx storage.Tx, studentID string) ([]models.Account, error) {
	now := s.now().UTC()
	for _, accountType := range models.AccountTypes {
		account := &models.Account{
			ID:          uuid.NewString(),
			OwnerID:     studentID,
			AccountType: accountType,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		created, err := tx.CreateAccount(ctx, account)
		if err != nil {
			return nil, mapStorageError(err, nil)
		}
		if created {
			log.Printf("[ACCOUNTS] Opened %s account %s for student %s", accountType, account.ID, studentID)
		}
	}

	accounts, err := tx.ListAccounts(ctx, studentID)
	if err != nil {
		return nil, mapStorageError(err, nil)
	}
	return accounts, nil
}

// GetAccounts returns the student's accounts, opening them on first access.
func (s *AccountService) GetAccounts(ctx context.Context, studentID string) ([]models.Account, error) {
	var accounts []models.Account
	err := s.store.InTx(ctx, storage.TxOptions{ReadOnly: true}, func(tx storage.Tx) error {
		var err error
		accounts, err = tx.ListAccounts(ctx, studentID)
		return mapStorageError(err, nil)
	})
	if err != nil {
		return nil, err
	}
	if len(accounts) < len(models.AccountTypes) {
		return s.SetupAccounts(ctx, studentID)
	}
	return accounts, nil
}

// GetTransactions returns the account's history most-recent-first.
func (s *AccountService) GetTransactions(ctx context.Context, studentID, accountID string, r models.DateRange) ([]models.Transaction, error) {
	if !r.From.IsZero() && !r.To.IsZero() && !r.From.Before(r.To) {
		return nil, fmt.Errorf("%w: from must be before to", ErrInvalidPeriod)
	}

	var txs []models.Transaction
	err := s.store.InTx(ctx, storage.TxOptions{ReadOnly: true}, func(tx storage.Tx) error {
		if _, err := ownedAccount(ctx, tx, studentID, accountID); err != nil {
			return err
		}
		var err error
		txs, err = tx.QueryTransactions(ctx, accountID, r)
		return mapStorageError(err, nil)
	})
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}

// Deposit credits a student's CHECKING account on behalf of one of their
// teachers.
func (s *AccountService) Deposit(ctx context.Context, teacherID, studentID string, amount models.Money, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if description == "" {
		description = "Classroom deposit"
	}

	var deposit *models.Transaction
	err := s.retrier.Do(ctx, func() error {
		return s.store.InTx(ctx, storage.TxOptions{}, func(tx storage.Tx) error {
			teaches, err := tx.TeachesStudent(ctx, teacherID, studentID)
			if err != nil {
				return mapStorageError(err, nil)
			}
			if !teaches {
				return ErrAccessDenied
			}

			accounts, err := s.ensureAccounts(ctx, tx, studentID)
			if err != nil {
				return err
			}
			checking, ok := findAccount(accounts, models.AccountTypeChecking)
			if !ok {
				return ErrAccountNotFound
			}

			deposit, err = s.ledger.Credit(ctx, tx, Entry{
				AccountID:   checking.ID,
				Type:        models.TransactionDeposit,
				Amount:      amount,
				Description: description,
			})
			return err
		})
	})
	if err != nil {
		s.audit.LogError("deposit", studentID, err)
		return nil, err
	}

	s.audit.LogLedger(*deposit)
	return deposit, nil
}

func findAccount(accounts []models.Account, accountType models.AccountType) (models.Account, bool) {
	for _, a := range accounts {
		if a.AccountType == accountType {
			return a, true
		}
	}
	return models.Account{}, false
}

// ownedAccount loads the account and checks it belongs to the student.
func ownedAccount(ctx context.Context, tx storage.Tx, studentID, accountID string) (*models.Account, error) {
	account, err := tx.GetAccount(ctx, accountID)
	if err != nil {
		return nil, mapStorageError(err, ErrAccountNotFound)
	}
	if account.OwnerID != studentID {
		return nil, ErrAccessDenied
	}
	return account, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}

func isErr(err error, target *BankError) bool {
	return errors.Is(err, target)
}

package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/storage"
)

// StatementService produces immutable monthly account statements.
type StatementService struct {
	store   storage.Store
	retrier *Retrier
	audit   Auditor
	now     func() time.Time
	settle  time.Duration
}

func NewStatementService(store storage.Store, retrier *Retrier, auditor Auditor) *StatementService {
	return &StatementService{
		store:   store,
		retrier: retrier,
		audit:   auditorOrNop(auditor),
		now:     time.Now,
	}
}

// SetSettleDelay sets the wait between the end of a month and the first
// moment its statement can be generated. Transactions are stamped by the
// clock of the replica that wrote them, so the delay must exceed the clock
// skew between replicas.
func (s *StatementService) SetSettleDelay(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.settle = d
}

func validPeriod(year, month int) bool {
	return month >= 1 && month <= 12 && year >= 1970 && year <= 9999
}

func previousMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// GenerateStatement returns the statement for the period, creating it on
// first request. Once stored a statement never changes.
func (s *StatementService) GenerateStatement(ctx context.Context, accountID string, month, year int) (*models.Statement, error) {
	if !validPeriod(year, month) {
		return nil, ErrInvalidPeriod
	}
	start, end := models.StatementPeriod(year, month)
	if settled := end.Add(s.settle); s.now().UTC().Before(settled) {
		return nil, fmt.Errorf("%w: %04d-%02d can be generated from %s", ErrPeriodNotElapsed, year, month, settled.Format(time.RFC3339))
	}

	var (
		statement *models.Statement
		created   bool
	)
	err := s.retrier.Do(ctx, func() error {
		created = false
		return s.store.InTx(ctx, storage.TxOptions{Snapshot: true}, func(tx storage.Tx) error {
			account, err := tx.GetAccount(ctx, accountID)
			if err != nil {
				return mapStorageError(err, ErrAccountNotFound)
			}
			if !account.CreatedAt.Before(end) {
				return fmt.Errorf("%w: account opened after %04d-%02d", ErrInvalidPeriod, year, month)
			}

			existing, err := tx.FindStatement(ctx, accountID, year, month)
			if err == nil {
				statement = existing
				return nil
			}
			if !isNotFound(err) {
				return mapStorageError(err, nil)
			}

			st, err := s.build(ctx, tx, accountID, year, month, start, end)
			if err != nil {
				return err
			}

			inserted, err := tx.InsertStatement(ctx, st)
			if err != nil {
				return mapStorageError(err, nil)
			}
			if !inserted {
				// generated concurrently; the stored one wins
				statement, err = tx.FindStatement(ctx, accountID, year, month)
				return mapStorageError(err, ErrStatementNotFound)
			}
			statement, created = st, true
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if created {
		log.Printf("[STATEMENTS] Generated %04d-%02d statement %s for account %s", year, month, statement.ID, accountID)
		s.audit.LogStatement(*statement)
	}
	return statement, nil
}

func (s *StatementService) build(ctx context.Context, tx storage.Tx, accountID string, year, month int, start, end time.Time) (*models.Statement, error) {
	py, pm := previousMonth(year, month)
	var opening models.Money
	prev, err := tx.FindStatement(ctx, accountID, py, pm)
	switch {
	case err == nil:
		opening = prev.ClosingBalance
	case isNotFound(err):
		opening, err = tx.NetMovementBefore(ctx, accountID, start)
		if err != nil {
			return nil, mapStorageError(err, nil)
		}
	default:
		return nil, mapStorageError(err, nil)
	}

	newest, err := tx.QueryTransactions(ctx, accountID, models.DateRange{From: start, To: end})
	if err != nil {
		return nil, mapStorageError(err, nil)
	}

	lines := make(models.StatementLines, 0, len(newest))
	closing := opening
	for i := len(newest) - 1; i >= 0; i-- {
		lines = append(lines, newest[i])
		closing += newest[i].SignedAmount()
	}

	return &models.Statement{
		ID:             uuid.NewString(),
		AccountID:      accountID,
		Month:          month,
		Year:           year,
		OpeningBalance: opening,
		ClosingBalance: closing,
		Transactions:   lines,
		GeneratedAt:    s.now().UTC(),
	}, nil
}

// GetStatementForPeriod is GenerateStatement for an account the student owns.
func (s *StatementService) GetStatementForPeriod(ctx context.Context, studentID, accountID string, month, year int) (*models.Statement, error) {
	if err := s.checkOwner(ctx, studentID, accountID); err != nil {
		return nil, err
	}
	return s.GenerateStatement(ctx, accountID, month, year)
}

// ListAvailableStatements reports, for each month of year, whether a
// statement can be requested and the id of the stored one if any.
func (s *StatementService) ListAvailableStatements(ctx context.Context, studentID, accountID string, year int) ([]models.StatementAvailability, error) {
	if !validPeriod(year, 1) {
		return nil, ErrInvalidPeriod
	}
	now := s.now().UTC()

	var (
		account *models.Account
		stored  []models.Statement
	)
	err := s.store.InTx(ctx, storage.TxOptions{ReadOnly: true}, func(tx storage.Tx) error {
		var err error
		account, err = ownedAccount(ctx, tx, studentID, accountID)
		if err != nil {
			return err
		}
		stored, err = tx.ListStatements(ctx, accountID, year)
		return mapStorageError(err, nil)
	})
	if err != nil {
		return nil, err
	}

	byMonth := make(map[int]string, len(stored))
	for _, st := range stored {
		byMonth[st.Month] = st.ID
	}

	result := make([]models.StatementAvailability, 0, 12)
	for month := 1; month <= 12; month++ {
		_, end := models.StatementPeriod(year, month)
		row := models.StatementAvailability{
			Month:     month,
			Available: !now.Before(end.Add(s.settle)) && account.CreatedAt.Before(end),
		}
		if id, ok := byMonth[month]; ok {
			id := id
			row.StatementID = &id
		}
		result = append(result, row)
	}
	return result, nil
}

// DownloadStatement renders a stored statement as a spreadsheet.
func (s *StatementService) DownloadStatement(ctx context.Context, studentID, statementID string) (string, []byte, error) {
	var (
		statement *models.Statement
		account   *models.Account
	)
	err := s.store.InTx(ctx, storage.TxOptions{ReadOnly: true}, func(tx storage.Tx) error {
		var err error
		statement, err = tx.GetStatement(ctx, statementID)
		if err != nil {
			return mapStorageError(err, ErrStatementNotFound)
		}
		account, err = ownedAccount(ctx, tx, studentID, statement.AccountID)
		return err
	})
	if err != nil {
		return "", nil, err
	}

	data, err := RenderStatementXLSX(account, statement)
	if err != nil {
		return "", nil, fmt.Errorf("render statement %s: %w", statementID, err)
	}
	return StatementFilename(account, statement), data, nil
}

// GenerateMonthlyStatements generates the period's statement for every
// account that existed during it.
func (s *StatementService) GenerateMonthlyStatements(ctx context.Context, year, month int) (generated, failed int, err error) {
	var ids []string
	err = s.store.InTx(ctx, storage.TxOptions{ReadOnly: true}, func(tx storage.Tx) error {
		var err error
		ids, err = tx.ListAccountIDs(ctx)
		return mapStorageError(err, nil)
	})
	if err != nil {
		return 0, 0, err
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return generated, failed, ctx.Err()
		}
		_, err := s.GenerateStatement(ctx, id, month, year)
		switch {
		case err == nil:
			generated++
		case isErr(err, ErrInvalidPeriod):
			// account opened after the period
		default:
			failed++
			log.Printf("[STATEMENTS] Failed to generate %04d-%02d statement for account %s: %v", year, month, id, err)
			s.audit.LogError("generate_statement", id, err)
		}
	}
	return generated, failed, nil
}

func (s *StatementService) checkOwner(ctx context.Context, studentID, accountID string) error {
	return s.store.InTx(ctx, storage.TxOptions{ReadOnly: true}, func(tx storage.Tx) error {
		_, err := ownedAccount(ctx, tx, studentID, accountID)
		return err
	})
}

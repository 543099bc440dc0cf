// Package storage defines the persistence contract of the banking core.
//
// All reads and writes run inside a Tx obtained from Store.InTx. Row locks
// taken through LockAccount and LockBill are held until the transaction ends,
// so a balance read-modify-write is linearizable per account.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/schoolbank/backend/internal/models"
)

var (
	ErrNotFound    = errors.New("storage: not found")
	ErrLockTimeout = errors.New("storage: lock wait timeout")
	ErrConflict    = errors.New("storage: concurrent update conflict")
)

type TxOptions struct {
	// Snapshot requests a consistent snapshot for the whole transaction
	// (REPEATABLE READ on Postgres).
	Snapshot bool
	ReadOnly bool
}

type Store interface {
	InTx(ctx context.Context, opts TxOptions, fn func(tx Tx) error) error
}

type Tx interface {
	AccountStore
	TransactionLog
	BillStore
	StatementStore
	ClassStore
}

type AccountStore interface {
	// CreateAccount inserts the account unless the owner already has one of
	// the same type, in which case it reports false.
	CreateAccount(ctx context.Context, account *models.Account) (bool, error)
	ListAccounts(ctx context.Context, ownerID string) ([]models.Account, error)
	ListAccountIDs(ctx context.Context) ([]string, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	LockAccount(ctx context.Context, id string) (*models.Account, error)
	// UpdateBalance fails with ErrConflict when version is stale.
	UpdateBalance(ctx context.Context, id string, balance models.Money, version int, at time.Time) error
}

type TransactionLog interface {
	AppendTransaction(ctx context.Context, t *models.Transaction) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	// QueryTransactions returns the account's transactions most-recent-first.
	QueryTransactions(ctx context.Context, accountID string, r models.DateRange) ([]models.Transaction, error)
	// NetMovementBefore returns the signed sum of transactions created before t.
	NetMovementBefore(ctx context.Context, accountID string, t time.Time) (models.Money, error)
}

type BillStore interface {
	CreateBill(ctx context.Context, bill *models.Bill) error
	UpdateBill(ctx context.Context, bill *models.Bill) error
	DeleteBill(ctx context.Context, id string) error
	GetBill(ctx context.Context, id string) (*models.Bill, error)
	LockBill(ctx context.Context, id string) (*models.Bill, error)
	ListClassBills(ctx context.Context, classID string) ([]models.Bill, error)
	ListStudentBills(ctx context.Context, studentID string) ([]models.Bill, error)
	InsertPayment(ctx context.Context, p *models.Payment) error
	ListPayments(ctx context.Context, billID, studentID string) ([]models.Payment, error)
	PaidAmount(ctx context.Context, billID, studentID string) (models.Money, error)
	CountPayments(ctx context.Context, billID string) (int, error)
}

type StatementStore interface {
	// InsertStatement reports false when a statement for the same account
	// and period already exists.
	InsertStatement(ctx context.Context, s *models.Statement) (bool, error)
	GetStatement(ctx context.Context, id string) (*models.Statement, error)
	FindStatement(ctx context.Context, accountID string, year, month int) (*models.Statement, error)
	ListStatements(ctx context.Context, accountID string, year int) ([]models.Statement, error)
}

type ClassStore interface {
	GetClass(ctx context.Context, id string) (*models.Class, error)
	IsEnrolled(ctx context.Context, studentID, classID string) (bool, error)
	// TeachesStudent reports whether the student is enrolled in any class of the teacher.
	TeachesStudent(ctx context.Context, teacherID, studentID string) (bool, error)
}

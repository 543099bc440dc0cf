// Package memory is an in-process storage.Store used by tests and by the
// server when no database is configured. It keeps the same guarantees as the
// Postgres store: per-row locks with a wait timeout, and writes that become
// visible to other transactions only on commit.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/storage"
)

var (
	_ storage.Store = (*Store)(nil)
	_ storage.Tx    = (*tx)(nil)
)

type Store struct {
	mu           sync.RWMutex
	accounts     map[string]models.Account
	transactions []models.Transaction
	bills        map[string]models.Bill
	payments     []models.Payment
	statements   []models.Statement
	classes      map[string]models.Class
	enrollments  map[string]map[string]bool // class id -> student ids

	locks       *lockTable
	lockTimeout time.Duration
}

func New(lockTimeout time.Duration) *Store {
	return &Store{
		accounts:    make(map[string]models.Account),
		bills:       make(map[string]models.Bill),
		classes:     make(map[string]models.Class),
		enrollments: make(map[string]map[string]bool),
		locks:       newLockTable(),
		lockTimeout: lockTimeout,
	}
}

// AddClass registers a class. Classes are managed outside the bank.
func (s *Store) AddClass(c models.Class) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes[c.ID] = c
}

// Enroll adds a student to a class.
func (s *Store) Enroll(classID, studentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enrollments[classID] == nil {
		s.enrollments[classID] = make(map[string]bool)
	}
	s.enrollments[classID][studentID] = true
}

func (s *Store) InTx(ctx context.Context, opts storage.TxOptions, fn func(tx storage.Tx) error) error {
	t := &tx{
		s:           s,
		held:        make(map[string]bool),
		accounts:    make(map[string]models.Account),
		bills:       make(map[string]*models.Bill),
		snapshotLen: -1,
	}
	if opts.Snapshot {
		s.mu.RLock()
		t.snapshotLen = len(s.transactions)
		s.mu.RUnlock()
	}
	defer t.release()

	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !opts.ReadOnly {
		t.commit()
	}
	return nil
}

// tx buffers its writes and applies them atomically on commit. Locks are
// released only after the writes are visible.
type tx struct {
	s *Store

	held      map[string]bool
	heldOrder []string

	// snapshotLen bounds the committed transaction log visible to a
	// snapshot transaction; -1 means read committed.
	snapshotLen int

	accounts     map[string]models.Account
	transactions []models.Transaction
	bills        map[string]*models.Bill // nil marks a deleted bill
	payments     []models.Payment
	statements   []models.Statement
}

func (t *tx) lock(ctx context.Context, key string) error {
	if t.held[key] {
		return nil
	}
	if err := t.s.locks.acquire(ctx, key, t.s.lockTimeout); err != nil {
		return err
	}
	t.held[key] = true
	t.heldOrder = append(t.heldOrder, key)
	return nil
}

func (t *tx) release() {
	for i := len(t.heldOrder) - 1; i >= 0; i-- {
		t.s.locks.release(t.heldOrder[i])
	}
	t.heldOrder = nil
	t.held = map[string]bool{}
}

func (t *tx) commit() {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, a := range t.accounts {
		s.accounts[id] = a
	}
	s.transactions = append(s.transactions, t.transactions...)
	for id, b := range t.bills {
		if b == nil {
			delete(s.bills, id)
			continue
		}
		s.bills[id] = *b
	}
	s.payments = append(s.payments, t.payments...)
	s.statements = append(s.statements, t.statements...)
}

func (t *tx) committedTransactions() []models.Transaction {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	log := t.s.transactions
	if t.snapshotLen >= 0 && t.snapshotLen < len(log) {
		log = log[:t.snapshotLen]
	}
	out := make([]models.Transaction, len(log), len(log)+len(t.transactions))
	copy(out, log)
	return out
}

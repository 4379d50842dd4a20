package uowmock

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"cryptolend-backend/internal/domain/loan"
	"cryptolend-backend/internal/domain/transaction"
	"cryptolend-backend/internal/domain/uow"
)

var _ uow.UnitOfWork = (*Memory)(nil)

// Memory is an in-memory UnitOfWork for usecase tests. It serializes all
// work on one mutex (a stricter version of the per-loan row lock) but
// does not roll back on error; rollback behavior is covered by the
// sqlite-backed repository tests.
type Memory struct {
	mu         sync.Mutex
	loans      []*loan.Loan
	txns       []*transaction.Transaction
	nextLoanID uint64
	nextTxnID  uint64
}

func NewMemory() *Memory { return &Memory{} }

// Repos exposes repositories over the same store, for wiring a Usecase's
// read paths in tests. Not safe for concurrent use outside the UnitOfWork.
func (m *Memory) Repos() uow.Repos { return m.repos() }

func (m *Memory) repos() uow.Repos {
	return uow.Repos{
		Loans:        &memLoanRepo{m: m},
		Transactions: &memTxnRepo{m: m},
	}
}

func (m *Memory) WithinTx(_ context.Context, fn func(r uow.Repos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.repos())
}

func (m *Memory) WithinLoanTx(_ context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.loans {
		if l.LoanID == loanID {
			return fn(m.repos(), l)
		}
	}
	return gorm.ErrRecordNotFound
}

// Loans returns the stored loans (test inspection).
func (m *Memory) Loans() []*loan.Loan {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*loan.Loan(nil), m.loans...)
}

// Transactions returns the stored entries (test inspection).
func (m *Memory) Transactions() []*transaction.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*transaction.Transaction(nil), m.txns...)
}

// Seed inserts a loan directly, bypassing the usecase.
func (m *Memory) Seed(l *loan.Loan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextLoanID++
	l.ID = m.nextLoanID
	m.loans = append(m.loans, l)
}

// ---- repositories bound to the store ----
// The mutex is already held by WithinTx/WithinLoanTx when these run.

type memLoanRepo struct{ m *Memory }

func (r *memLoanRepo) Create(_ context.Context, l *loan.Loan) error {
	r.m.nextLoanID++
	l.ID = r.m.nextLoanID
	r.m.loans = append(r.m.loans, l)
	return nil
}

func (r *memLoanRepo) GetByLoanID(_ context.Context, loanID string) (*loan.Loan, error) {
	for _, l := range r.m.loans {
		if l.LoanID == loanID {
			return l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memLoanRepo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loan.Loan, error) {
	return r.GetByLoanID(ctx, loanID)
}

func (r *memLoanRepo) ListByUserID(_ context.Context, userID string) ([]loan.Loan, error) {
	var out []loan.Loan
	for _, l := range r.m.loans {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *memLoanRepo) ListAll(_ context.Context) ([]loan.Loan, error) {
	out := make([]loan.Loan, 0, len(r.m.loans))
	for _, l := range r.m.loans {
		out = append(out, *l)
	}
	return out, nil
}

func (r *memLoanRepo) Save(_ context.Context, l *loan.Loan) error {
	for i, cur := range r.m.loans {
		if cur.ID == l.ID {
			r.m.loans[i] = l
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type memTxnRepo struct{ m *Memory }

func (r *memTxnRepo) Create(_ context.Context, t *transaction.Transaction) error {
	r.m.nextTxnID++
	t.ID = r.m.nextTxnID
	r.m.txns = append(r.m.txns, t)
	return nil
}

func (r *memTxnRepo) ListByLoanID(_ context.Context, loanID uint64) ([]transaction.Transaction, error) {
	var out []transaction.Transaction
	for _, t := range r.m.txns {
		if t.LoanID != nil && *t.LoanID == loanID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *memTxnRepo) ListByUserID(_ context.Context, userID string, limit int) ([]transaction.Transaction, error) {
	var out []transaction.Transaction
	for i := len(r.m.txns) - 1; i >= 0; i-- {
		if r.m.txns[i].UserID == userID {
			out = append(out, *r.m.txns[i])
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memTxnRepo) ListAll(_ context.Context) ([]transaction.Transaction, error) {
	out := make([]transaction.Transaction, 0, len(r.m.txns))
	for _, t := range r.m.txns {
		out = append(out, *t)
	}
	return out, nil
}

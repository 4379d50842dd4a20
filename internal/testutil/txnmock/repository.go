package txnmock

import (
	"context"

	domain "cryptolend-backend/internal/domain/transaction"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies transaction.Repository.
type Repo struct {
	CreateFn       func(ctx context.Context, t *domain.Transaction) error
	ListByLoanIDFn func(ctx context.Context, loanID uint64) ([]domain.Transaction, error)
	ListByUserIDFn func(ctx context.Context, userID string, limit int) ([]domain.Transaction, error)
	ListAllFn      func(ctx context.Context) ([]domain.Transaction, error)
}

func (m *Repo) Create(ctx context.Context, t *domain.Transaction) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, t)
	}
	return nil
}

func (m *Repo) ListByLoanID(ctx context.Context, loanID uint64) ([]domain.Transaction, error) {
	if m.ListByLoanIDFn != nil {
		return m.ListByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByUserID(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	if m.ListByUserIDFn != nil {
		return m.ListByUserIDFn(ctx, userID, limit)
	}
	return nil, context.Canceled
}

func (m *Repo) ListAll(ctx context.Context) ([]domain.Transaction, error) {
	if m.ListAllFn != nil {
		return m.ListAllFn(ctx)
	}
	return nil, context.Canceled
}

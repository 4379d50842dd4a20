package transaction

import "context"

type Repository interface {
	// Create appends one entry. There is deliberately no Update/Delete.
	Create(ctx context.Context, t *Transaction) error
	ListByLoanID(ctx context.Context, loanID uint64) ([]Transaction, error)
	// ListByUserID returns the newest entries first; limit <= 0 means no limit.
	ListByUserID(ctx context.Context, userID string, limit int) ([]Transaction, error)
	ListAll(ctx context.Context) ([]Transaction, error)
}

package mysql

import (
	"context"

	txnDomain "cryptolend-backend/internal/domain/transaction"

	"gorm.io/gorm"
)

type TransactionRepository struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, t *txnDomain.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TransactionRepository) ListByLoanID(ctx context.Context, loanID uint64) ([]txnDomain.Transaction, error) {
	var out []txnDomain.Transaction
	res := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("created_at DESC, id DESC").
		Find(&out)
	return out, res.Error
}

func (r *TransactionRepository) ListByUserID(ctx context.Context, userID string, limit int) ([]txnDomain.Transaction, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []txnDomain.Transaction
	res := q.Find(&out)
	return out, res.Error
}

func (r *TransactionRepository) ListAll(ctx context.Context) ([]txnDomain.Transaction, error) {
	var out []txnDomain.Transaction
	res := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&out)
	return out, res.Error
}

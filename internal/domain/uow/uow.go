package uow

import (
	"context"

	"cryptolend-backend/internal/domain/loan"
	"cryptolend-backend/internal/domain/transaction"
)

type Repos struct {
	Loans        loan.Repository
	Transactions transaction.Repository
}

// UnitOfWork groups repository writes into one database transaction.
type UnitOfWork interface {
	// WithinTx runs fn in a transaction; a non-nil error rolls everything back.
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// WithinLoanTx locks the loan row first and passes it in, serializing
	// concurrent work on the same loan. Other loans are unaffected.
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}

package loan

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	domain "cryptolend-backend/internal/domain/loan"
	"cryptolend-backend/internal/domain/transaction"
	"cryptolend-backend/internal/domain/uow"
	"cryptolend-backend/internal/pricing"
	"cryptolend-backend/internal/usecase/metrics"
	"cryptolend-backend/pkg/id"
)

// Epsilon absorbs floating-point rounding when comparing cumulative
// payments against the repayment target.
const Epsilon = 0.01

const (
	minPrincipal     = 100
	maxPrincipal     = 100_000
	minTermDays      = 30
	maxTermDays      = 365
	minCollateral    = 0.001
	maxPaymentAmount = 100_000
	defaultCurrency  = "USDT"
)

// Policy carries the tunable business rules of the ledger.
type Policy struct {
	// MaxLTV is the eligibility ceiling checked before a loan is committed.
	MaxLTV float64
	// AutoApprove skips the pending state: applications go straight to active.
	AutoApprove bool
}

func DefaultPolicy() Policy { return Policy{MaxLTV: 0.75, AutoApprove: true} }

// Usecase owns the loan lifecycle and the payment ledger. All writes go
// through the unit of work; Pay and the admin transitions additionally
// take a row lock on the loan so concurrent requests against the same
// loan are applied one at a time.
type Usecase struct {
	loans  domain.Repository
	txns   transaction.Repository
	uow    uow.UnitOfWork
	oracle pricing.Oracle
	policy Policy
}

func NewUsecase(loans domain.Repository, txns transaction.Repository, tx uow.UnitOfWork, oracle pricing.Oracle, p Policy) *Usecase {
	return &Usecase{loans: loans, txns: txns, uow: tx, oracle: oracle, policy: p}
}

// Apply computes the metrics for an application, checks eligibility, and
// persists the loan together with its initiating transactions. All rows
// commit or none do.
func (u *Usecase) Apply(ctx context.Context, in ApplyInput) (*LoanDTO, error) {
	if len(in.UserID) != 32 {
		return nil, fmt.Errorf("user id: %w", domain.ErrInvalidInput)
	}
	if in.Amount < minPrincipal || in.Amount > maxPrincipal {
		return nil, fmt.Errorf("amount %v outside [%d, %d]: %w", in.Amount, minPrincipal, maxPrincipal, domain.ErrInvalidInput)
	}
	if in.TermDays < minTermDays || in.TermDays > maxTermDays {
		return nil, fmt.Errorf("term %d outside [%d, %d] days: %w", in.TermDays, minTermDays, maxTermDays, domain.ErrInvalidInput)
	}
	if in.CollateralAmount < minCollateral {
		return nil, fmt.Errorf("collateral %v below minimum %v: %w", in.CollateralAmount, minCollateral, domain.ErrInvalidInput)
	}
	if in.InterestRate < 0 {
		return nil, fmt.Errorf("interest rate %v: %w", in.InterestRate, domain.ErrInvalidInput)
	}

	snap, err := u.oracle.Snapshot(ctx)
	if err != nil {
		// a dead price feed and an unquoted asset look the same to the caller
		return nil, fmt.Errorf("price snapshot: %v: %w", err, metrics.ErrUnknownCollateral)
	}

	m, err := metrics.Compute(metrics.Input{
		Principal:         in.Amount,
		CollateralAmount:  in.CollateralAmount,
		CollateralType:    in.CollateralType,
		TermDays:          in.TermDays,
		AnnualRatePercent: in.InterestRate,
	}, snap)
	if err != nil {
		return nil, err
	}
	if m.LTVRatio > u.policy.MaxLTV {
		return nil, fmt.Errorf("ltv %.4f over cap %.2f: %w", m.LTVRatio, u.policy.MaxLTV, domain.ErrLTVExceeded)
	}

	currency := in.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	now := time.Now().UTC()
	nextPayment := now.Add(30 * 24 * time.Hour)

	status := domain.StatusActive
	if !u.policy.AutoApprove {
		status = domain.StatusPending
	}

	l := &domain.Loan{
		LoanID:           id.NewID32(),
		UserID:           in.UserID,
		Principal:        in.Amount,
		Currency:         currency,
		CollateralType:   in.CollateralType,
		CollateralAmount: in.CollateralAmount,
		InterestRate:     in.InterestRate,
		TermDays:         in.TermDays,
		Purpose:          in.Purpose,
		Status:           status,
		MonthlyPayment:   m.MonthlyPayment,
		TotalInterest:    m.TotalInterest,
		TotalRepayment:   m.TotalRepayment,
		NextPaymentDate:  &nextPayment,
		DueDate:          now.Add(time.Duration(in.TermDays) * 24 * time.Hour),
		StatusUpdatedAt:  now,
	}

	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		if status == domain.StatusActive {
			// funds only move once the loan is active; a pending loan gets
			// its entries at approval time
			return createInitialEntries(ctx, r.Transactions, l)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return toLoanDTO(l), nil
}

// createInitialEntries records the disbursement and the collateral lock
// for a loan that has become fundable.
func createInitialEntries(ctx context.Context, txns transaction.Repository, l *domain.Loan) error {
	disb := &transaction.Transaction{
		TransactionID: id.NewID32(),
		UserID:        l.UserID,
		LoanID:        &l.ID,
		Type:          transaction.TypeDisbursement,
		Amount:        l.Principal,
		Currency:      l.Currency,
		Status:        transaction.StatusCompleted,
	}
	if err := txns.Create(ctx, disb); err != nil {
		return err
	}
	dep := &transaction.Transaction{
		TransactionID: id.NewID32(),
		UserID:        l.UserID,
		LoanID:        &l.ID,
		Type:          transaction.TypeCollateralDeposit,
		Amount:        l.CollateralAmount,
		Currency:      l.CollateralType,
		Status:        transaction.StatusCompleted,
	}
	return txns.Create(ctx, dep)
}

// Pay applies one payment to an active loan. The loan row is locked for
// the whole read-compute-write sequence, so two concurrent payments can
// never both pass the overpayment check against the same balance.
func (u *Usecase) Pay(ctx context.Context, loanID, userID string, amount float64) (*PaymentResult, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, fmt.Errorf("payment amount %v: %w", amount, domain.ErrInvalidInput)
	}
	if amount > maxPaymentAmount {
		return nil, fmt.Errorf("payment amount %v over platform limit %d: %w", amount, maxPaymentAmount, domain.ErrInvalidInput)
	}

	var out *PaymentResult
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if l.UserID != userID {
			return domain.ErrNotFound
		}
		if l.Status != domain.StatusActive {
			return fmt.Errorf("loan is %s: %w", l.Status, domain.ErrInvalidState)
		}

		history, err := r.Transactions.ListByLoanID(ctx, l.ID)
		if err != nil {
			return err
		}
		remaining := l.TotalRepayment - sumPayments(history)
		if amount > remaining+Epsilon {
			return &domain.OverpaymentError{Remaining: remaining}
		}

		txn := &transaction.Transaction{
			TransactionID: id.NewID32(),
			UserID:        userID,
			LoanID:        &l.ID,
			Type:          transaction.TypePayment,
			Amount:        amount,
			Currency:      l.Currency,
			Status:        transaction.StatusCompleted,
		}
		if err := r.Transactions.Create(ctx, txn); err != nil {
			return err
		}

		newRemaining := remaining - amount
		if newRemaining <= Epsilon {
			l.Status = domain.StatusCompleted
			l.StatusUpdatedAt = time.Now().UTC()
			if err := r.Loans.Save(ctx, l); err != nil {
				return err
			}
		}

		out = &PaymentResult{
			Transaction:      toTransactionDTO(txn, l.LoanID),
			RemainingBalance: math.Max(0, newRemaining),
			LoanStatus:       string(l.Status),
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func sumPayments(history []transaction.Transaction) float64 {
	var total float64
	for _, t := range history {
		if t.Type == transaction.TypePayment && t.Status == transaction.StatusCompleted {
			total += t.Amount
		}
	}
	return total
}

// Get returns a loan visible to userID. A loan owned by someone else is
// reported as not found.
func (u *Usecase) Get(ctx context.Context, loanID, userID string) (*LoanDTO, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if l.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return toLoanDTO(l), nil
}

func (u *Usecase) ListByUser(ctx context.Context, userID string) ([]LoanDTO, error) {
	ls, err := u.loans.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]LoanDTO, 0, len(ls))
	for i := range ls {
		out = append(out, *toLoanDTO(&ls[i]))
	}
	return out, nil
}

// ListTransactions returns the ledger entries of one loan, newest first.
func (u *Usecase) ListTransactions(ctx context.Context, loanID, userID string) ([]TransactionDTO, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if l.UserID != userID {
		return nil, domain.ErrNotFound
	}
	history, err := u.txns.ListByLoanID(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	out := make([]TransactionDTO, 0, len(history))
	for i := range history {
		out = append(out, toTransactionDTO(&history[i], l.LoanID))
	}
	return out, nil
}

// ListUserTransactions returns the most recent entries across all of the
// user's loans.
func (u *Usecase) ListUserTransactions(ctx context.Context, userID string, limit int) ([]TransactionDTO, error) {
	history, err := u.txns.ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]TransactionDTO, 0, len(history))
	for i := range history {
		out = append(out, toTransactionDTO(&history[i], ""))
	}
	return out, nil
}

// Approve moves a pending loan to active and writes its initiating
// transactions. Administrative operation.
func (u *Usecase) Approve(ctx context.Context, loanID string) (*LoanDTO, error) {
	return u.transition(ctx, loanID, domain.StatusPending, domain.StatusActive, true)
}

// Reject moves a pending loan to rejected. Nothing has been disbursed for
// a pending loan, so there is nothing to compensate.
func (u *Usecase) Reject(ctx context.Context, loanID string) (*LoanDTO, error) {
	return u.transition(ctx, loanID, domain.StatusPending, domain.StatusRejected, false)
}

// MarkDefaulted moves an overdue active loan to defaulted. Intended to be
// driven by a scheduled sweep or an operator.
func (u *Usecase) MarkDefaulted(ctx context.Context, loanID string) (*LoanDTO, error) {
	return u.transition(ctx, loanID, domain.StatusActive, domain.StatusDefaulted, false)
}

func (u *Usecase) transition(ctx context.Context, loanID string, from, to domain.Status, fund bool) (*LoanDTO, error) {
	var out *LoanDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if l.Status != from {
			return fmt.Errorf("loan is %s, want %s: %w", l.Status, from, domain.ErrInvalidState)
		}
		l.Status = to
		l.StatusUpdatedAt = time.Now().UTC()
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		if fund {
			if err := createInitialEntries(ctx, r.Transactions, l); err != nil {
				return err
			}
		}
		out = toLoanDTO(l)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func toLoanDTO(l *domain.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:           l.LoanID,
		UserID:           l.UserID,
		Principal:        l.Principal,
		Currency:         l.Currency,
		CollateralType:   l.CollateralType,
		CollateralAmount: l.CollateralAmount,
		InterestRate:     l.InterestRate,
		TermDays:         l.TermDays,
		Purpose:          l.Purpose,
		Status:           string(l.Status),
		MonthlyPayment:   l.MonthlyPayment,
		TotalInterest:    l.TotalInterest,
		TotalRepayment:   l.TotalRepayment,
		NextPaymentDate:  l.NextPaymentDate,
		DueDate:          l.DueDate,
		CreatedAt:        l.CreatedAt,
	}
}

func toTransactionDTO(t *transaction.Transaction, loanID string) TransactionDTO {
	return TransactionDTO{
		TransactionID: t.TransactionID,
		UserID:        t.UserID,
		LoanID:        loanID,
		Type:          string(t.Type),
		Amount:        t.Amount,
		Currency:      t.Currency,
		Status:        string(t.Status),
		CreatedAt:     t.CreatedAt,
	}
}

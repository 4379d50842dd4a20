package stats

import (
	"context"

	loanDomain "cryptolend-backend/internal/domain/loan"
	"cryptolend-backend/internal/domain/transaction"
	"cryptolend-backend/internal/pricing"
)

type Usecase struct {
	loans  loanDomain.Repository
	txns   transaction.Repository
	oracle pricing.Oracle
}

func NewUsecase(loans loanDomain.Repository, txns transaction.Repository, oracle pricing.Oracle) *Usecase {
	return &Usecase{loans: loans, txns: txns, oracle: oracle}
}

type UserStats struct {
	TotalBorrowed   float64 `json:"total_borrowed"`
	ActiveLoans     int     `json:"active_loans"`
	TotalCollateral float64 `json:"total_collateral"`
}

// ForUser summarizes the user's active loans. Collateral is valued
// against the current price snapshot, so the figure moves with the market.
func (u *Usecase) ForUser(ctx context.Context, userID string) (*UserStats, error) {
	ls, err := u.loans.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	snap, err := u.oracle.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	out := &UserStats{}
	for _, l := range ls {
		if l.Status != loanDomain.StatusActive {
			continue
		}
		out.ActiveLoans++
		out.TotalBorrowed += l.Principal
		if price, ok := snap.Price(l.CollateralType); ok {
			out.TotalCollateral += l.CollateralAmount * price
		}
	}
	return out, nil
}

// AllLoans is the admin book view, newest first.
func (u *Usecase) AllLoans(ctx context.Context) ([]loanDomain.Loan, error) {
	return u.loans.ListAll(ctx)
}

type PlatformStats struct {
	TotalBorrowers      int     `json:"total_borrowers"`
	ActiveLoans         int     `json:"active_loans"`
	TotalVolume         float64 `json:"total_volume"`
	DefaultRate         float64 `json:"default_rate"`
	FeeRevenue          float64 `json:"fee_revenue"`
	PendingApplications int     `json:"pending_applications"`
}

// ForPlatform aggregates across the whole book. Administrative view.
func (u *Usecase) ForPlatform(ctx context.Context) (*PlatformStats, error) {
	ls, err := u.loans.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	ts, err := u.txns.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	out := &PlatformStats{}
	borrowers := map[string]struct{}{}
	defaulted := 0
	for _, l := range ls {
		borrowers[l.UserID] = struct{}{}
		out.TotalVolume += l.Principal
		switch l.Status {
		case loanDomain.StatusActive:
			out.ActiveLoans++
		case loanDomain.StatusDefaulted:
			defaulted++
		case loanDomain.StatusPending:
			out.PendingApplications++
		}
	}
	out.TotalBorrowers = len(borrowers)
	if len(ls) > 0 {
		out.DefaultRate = float64(defaulted) / float64(len(ls)) * 100
	}
	for _, t := range ts {
		if t.Type == transaction.TypeFee && t.Status == transaction.StatusCompleted {
			out.FeeRevenue += t.Amount
		}
	}
	return out, nil
}

package loan

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	domain "cryptolend-backend/internal/domain/loan"
	"cryptolend-backend/internal/domain/transaction"
	"cryptolend-backend/internal/domain/uow"
	"cryptolend-backend/internal/pricing"
	"cryptolend-backend/internal/testutil/uowmock"
	"cryptolend-backend/internal/usecase/metrics"
	"cryptolend-backend/pkg/id"
)

const testUser = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

func testOracle() pricing.Oracle {
	return pricing.NewStaticOracle(map[string]float64{
		"BTC": 43250,
		"ETH": 2540,
	})
}

func newTestUsecase(t *testing.T, p Policy) (*Usecase, *uowmock.Memory) {
	t.Helper()
	mem := uowmock.NewMemory()
	r := mem.Repos()
	return NewUsecase(r.Loans, r.Transactions, mem, testOracle(), p), mem
}

func validApply() ApplyInput {
	return ApplyInput{
		UserID:           testUser,
		Amount:           10000,
		Currency:         "USDT",
		CollateralType:   "BTC",
		CollateralAmount: 0.5,
		TermDays:         90,
		Purpose:          "trading",
		InterestRate:     8.5,
	}
}

func seedActiveLoan(mem *uowmock.Memory, totalRepayment float64) *domain.Loan {
	l := &domain.Loan{
		LoanID:         id.NewID32(),
		UserID:         testUser,
		Principal:      5000,
		Currency:       "USDT",
		CollateralType: "BTC",
		Status:         domain.StatusActive,
		TotalRepayment: totalRepayment,
		DueDate:        time.Now().UTC().Add(90 * 24 * time.Hour),
	}
	mem.Seed(l)
	return l
}

// ---- Apply ----

func TestApply_CreatesLoanWithInitialEntries(t *testing.T) {
	uc, mem := newTestUsecase(t, DefaultPolicy())

	dto, err := uc.Apply(context.Background(), validApply())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(dto.LoanID) != 32 {
		t.Fatalf("LoanID = %q", dto.LoanID)
	}
	if dto.Status != string(domain.StatusActive) {
		t.Fatalf("status = %s, want active", dto.Status)
	}

	wantInterest := 10000 * 0.085 * (90.0 / 365.0)
	if math.Abs(dto.TotalInterest-wantInterest) > 1e-9 {
		t.Errorf("TotalInterest = %v, want %v", dto.TotalInterest, wantInterest)
	}
	if dto.TotalRepayment != 10000+dto.TotalInterest {
		t.Errorf("TotalRepayment = %v", dto.TotalRepayment)
	}
	if dto.NextPaymentDate == nil {
		t.Fatal("NextPaymentDate not set")
	}

	txns := mem.Transactions()
	if len(txns) != 2 {
		t.Fatalf("transactions = %d, want disbursement + collateral_deposit", len(txns))
	}
	byType := map[transaction.Type]*transaction.Transaction{}
	for _, txn := range txns {
		byType[txn.Type] = txn
	}
	disb := byType[transaction.TypeDisbursement]
	if disb == nil || disb.Amount != 10000 || disb.Currency != "USDT" {
		t.Fatalf("disbursement = %+v", disb)
	}
	dep := byType[transaction.TypeCollateralDeposit]
	if dep == nil || dep.Amount != 0.5 || dep.Currency != "BTC" {
		t.Fatalf("collateral deposit = %+v", dep)
	}
}

func TestApply_PendingHoldsFunding(t *testing.T) {
	uc, mem := newTestUsecase(t, Policy{MaxLTV: 0.75, AutoApprove: false})

	dto, err := uc.Apply(context.Background(), validApply())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if dto.Status != string(domain.StatusPending) {
		t.Fatalf("status = %s, want pending", dto.Status)
	}
	if n := len(mem.Transactions()); n != 0 {
		t.Fatalf("pending loan has %d transactions, want 0", n)
	}
}

func TestApply_RejectsHighLTV(t *testing.T) {
	uc, mem := newTestUsecase(t, DefaultPolicy())

	in := validApply()
	in.CollateralAmount = 0.25 // value 10812.50 → LTV ≈ 0.925

	_, err := uc.Apply(context.Background(), in)
	if !errors.Is(err, domain.ErrLTVExceeded) {
		t.Fatalf("err = %v, want ErrLTVExceeded", err)
	}
	if len(mem.Loans()) != 0 || len(mem.Transactions()) != 0 {
		t.Fatal("rejected application must persist nothing")
	}
}

func TestApply_UnknownCollateralPersistsNothing(t *testing.T) {
	uc, mem := newTestUsecase(t, DefaultPolicy())

	in := validApply()
	in.CollateralType = "DOGE"

	_, err := uc.Apply(context.Background(), in)
	if !errors.Is(err, metrics.ErrUnknownCollateral) {
		t.Fatalf("err = %v, want ErrUnknownCollateral", err)
	}
	if len(mem.Loans()) != 0 || len(mem.Transactions()) != 0 {
		t.Fatal("failed application must persist nothing")
	}
}

func TestApply_BoundsChecks(t *testing.T) {
	uc, _ := newTestUsecase(t, DefaultPolicy())
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*ApplyInput)
	}{
		{"short user id", func(in *ApplyInput) { in.UserID = "short" }},
		{"amount below floor", func(in *ApplyInput) { in.Amount = 99 }},
		{"amount above ceiling", func(in *ApplyInput) { in.Amount = 100_001 }},
		{"term too short", func(in *ApplyInput) { in.TermDays = 29 }},
		{"term too long", func(in *ApplyInput) { in.TermDays = 366 }},
		{"collateral below minimum", func(in *ApplyInput) { in.CollateralAmount = 0.0001 }},
		{"negative rate", func(in *ApplyInput) { in.InterestRate = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validApply()
			tc.mutate(&in)
			if _, err := uc.Apply(ctx, in); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestApply_CommitFailurePropagates(t *testing.T) {
	dbDown := errors.New("commit failed")
	mem := uowmock.NewMemory()
	r := mem.Repos()
	tx := &uowmock.UoW{
		WithinTxFn: func(ctx context.Context, fn func(r uow.Repos) error) error {
			return dbDown
		},
	}
	uc := NewUsecase(r.Loans, r.Transactions, tx, testOracle(), DefaultPolicy())

	if _, err := uc.Apply(context.Background(), validApply()); !errors.Is(err, dbDown) {
		t.Fatalf("err = %v, want the commit error", err)
	}
}

// ---- Pay ----

func TestPay_FullRepaymentCompletesLoan(t *testing.T) {
	uc, mem := newTestUsecase(t, DefaultPolicy())
	l := seedActiveLoan(mem, 5425.00)
	ctx := context.Background()

	res, err := uc.Pay(ctx, l.LoanID, testUser, 3000)
	if err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if math.Abs(res.RemainingBalance-2425) > 1e-9 {
		t.Fatalf("remaining = %v, want 2425", res.RemainingBalance)
	}
	if res.LoanStatus != string(domain.StatusActive) {
		t.Fatalf("status = %s, want active", res.LoanStatus)
	}

	res, err = uc.Pay(ctx, l.LoanID, testUser, 2425)
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if res.RemainingBalance != 0 {
		t.Fatalf("remaining = %v, want 0", res.RemainingBalance)
	}
	if res.LoanStatus != string(domain.StatusCompleted) {
		t.Fatalf("status = %s, want completed", res.LoanStatus)
	}

	// a completed loan takes no further payments, valid amount or not
	if _, err := uc.Pay(ctx, l.LoanID, testUser, 1); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
	if l.Status != domain.StatusCompleted {
		t.Fatalf("status reverted to %s", l.Status)
	}
}

func TestPay_OverpaymentRejectedWithRemaining(t *testing.T) {
	uc, mem := newTestUsecase(t, DefaultPolicy())
	l := seedActiveLoan(mem, 5425.00)

	_, err := uc.Pay(context.Background(), l.LoanID, testUser, 6000)
	var over *domain.OverpaymentError
	if !errors.As(err, &over) {
		t.Fatalf("err = %v, want OverpaymentError", err)
	}
	if over.Remaining != 5425.00 {
		t.Fatalf("Remaining = %v, want 5425.00", over.Remaining)
	}
	if !strings.Contains(over.Error(), "5425.00") {
		t.Fatalf("message %q does not cite the remaining balance", over.Error())
	}
	if n := len(mem.Transactions()); n != 0 {
		t.Fatalf("rejected payment persisted %d transactions", n)
	}
}

func TestPay_EpsilonAbsorbsRounding(t *testing.T) {
	uc, mem := newTestUsecase(t, DefaultPolicy())
	l := seedActiveLoan(mem, 100.00)

	// 0.005 over the balance sits inside the rounding tolerance
	res, err := uc.Pay(context.Background(), l.LoanID, testUser, 100.005)
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if res.LoanStatus != string(domain.StatusCompleted) {
		t.Fatalf("status = %s, want completed", res.LoanStatus)
	}
	if res.RemainingBalance != 0 {
		t.Fatalf("remaining = %v, want floored at 0", res.RemainingBalance)
	}
}

func TestPay_OwnershipHidesLoan(t *testing.T) {
	uc, mem := newTestUsecase(t, DefaultPolicy())
	l := seedActiveLoan(mem, 1000)

	other := "cccccccccccccccccccccccccccccccc"
	if _, err := uc.Pay(context.Background(), l.LoanID, other, 100); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound (not a permission error)", err)
	}
}

func TestPay_UnknownLoan(t *testing.T) {
	uc, _ := newTestUsecase(t, DefaultPolicy())
	if _, err := uc.Pay(context.Background(), id.NewID32(), testUser, 100); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPay_AmountGuards(t *testing.T) {
	uc, mem := newTestUsecase(t, DefaultPolicy())
	l := seedActiveLoan(mem, 1000)
	ctx := context.Background()

	for _, amount := range []float64{0, -5, math.NaN(), math.Inf(1), 100_001} {
		if _, err := uc.Pay(ctx, l.LoanID, testUser, amount); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("amount %v: err = %v, want ErrInvalidInput", amount, err)
		}
	}
}

func TestPay_ConcurrentPaymentsNeverOverpay(t *testing.T) {
	uc, mem := newTestUsecase(t, DefaultPolicy())
	l := seedActiveLoan(mem, 1000)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.Pay(context.Background(), l.LoanID, testUser, 300)
		}(i)
	}
	wg.Wait()

	var accepted float64
	for _, txn := range mem.Transactions() {
		if txn.Type == transaction.TypePayment {
			accepted += txn.Amount
		}
	}
	if accepted > 1000+Epsilon {
		t.Fatalf("accepted payments sum to %v, over total repayment 1000", accepted)
	}
	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	if ok != 3 {
		t.Fatalf("accepted %d payments of 300 against 1000, want 3", ok)
	}
}

// ---- admin transitions ----

func TestApproveFundsPendingLoan(t *testing.T) {
	uc, mem := newTestUsecase(t, Policy{MaxLTV: 0.75, AutoApprove: false})
	ctx := context.Background()

	dto, err := uc.Apply(ctx, validApply())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	got, err := uc.Approve(ctx, dto.LoanID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got.Status != string(domain.StatusActive) {
		t.Fatalf("status = %s, want active", got.Status)
	}
	if n := len(mem.Transactions()); n != 2 {
		t.Fatalf("approved loan has %d transactions, want 2", n)
	}

	// approving twice is a state violation
	if _, err := uc.Approve(ctx, dto.LoanID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("second approve err = %v, want ErrInvalidState", err)
	}
}

func TestRejectLeavesNoEntries(t *testing.T) {
	uc, mem := newTestUsecase(t, Policy{MaxLTV: 0.75, AutoApprove: false})
	ctx := context.Background()

	dto, err := uc.Apply(ctx, validApply())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	got, err := uc.Reject(ctx, dto.LoanID)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if got.Status != string(domain.StatusRejected) {
		t.Fatalf("status = %s, want rejected", got.Status)
	}
	if n := len(mem.Transactions()); n != 0 {
		t.Fatalf("rejected loan has %d transactions, want 0", n)
	}

	// terminal: no payments, no re-approval
	if _, err := uc.Pay(ctx, dto.LoanID, testUser, 100); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("pay err = %v, want ErrInvalidState", err)
	}
	if _, err := uc.Approve(ctx, dto.LoanID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("approve err = %v, want ErrInvalidState", err)
	}
}

func TestMarkDefaulted(t *testing.T) {
	uc, mem := newTestUsecase(t, DefaultPolicy())
	l := seedActiveLoan(mem, 1000)
	ctx := context.Background()

	got, err := uc.MarkDefaulted(ctx, l.LoanID)
	if err != nil {
		t.Fatalf("MarkDefaulted: %v", err)
	}
	if got.Status != string(domain.StatusDefaulted) {
		t.Fatalf("status = %s, want defaulted", got.Status)
	}
	if _, err := uc.Pay(ctx, l.LoanID, testUser, 100); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("pay err = %v, want ErrInvalidState", err)
	}
}

// ---- reads ----

func TestGet_OwnershipAndNotFound(t *testing.T) {
	uc, mem := newTestUsecase(t, DefaultPolicy())
	l := seedActiveLoan(mem, 1000)
	ctx := context.Background()

	dto, err := uc.Get(ctx, l.LoanID, testUser)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if dto.LoanID != l.LoanID {
		t.Fatalf("got %s", dto.LoanID)
	}

	if _, err := uc.Get(ctx, l.LoanID, "cccccccccccccccccccccccccccccccc"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign owner err = %v, want ErrNotFound", err)
	}
	if _, err := uc.Get(ctx, id.NewID32(), testUser); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing loan err = %v, want ErrNotFound", err)
	}
}

func TestListTransactions_IncludesLedgerHistory(t *testing.T) {
	uc, _ := newTestUsecase(t, DefaultPolicy())
	ctx := context.Background()

	dto, err := uc.Apply(ctx, validApply())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := uc.Pay(ctx, dto.LoanID, testUser, 2000); err != nil {
		t.Fatalf("Pay: %v", err)
	}

	txns, err := uc.ListTransactions(ctx, dto.LoanID, testUser)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("got %d entries, want disbursement + deposit + payment", len(txns))
	}
	for _, txn := range txns {
		if txn.LoanID != dto.LoanID {
			t.Fatalf("entry carries loan id %q", txn.LoanID)
		}
	}
}

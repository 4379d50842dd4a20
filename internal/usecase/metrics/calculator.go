package metrics

import (
	"errors"
	"fmt"

	"cryptolend-backend/internal/pricing"
)

// BufferFactor is the safety margin applied to the liquidation price: the
// position is deemed under-collateralized 20% before the break-even price.
const BufferFactor = 1.20

var (
	ErrInvalidInput         = errors.New("invalid metrics input")
	ErrUnknownCollateral    = errors.New("unknown collateral type")
	ErrDegenerateCollateral = errors.New("collateral value is zero or negative")
)

type Input struct {
	Principal         float64
	CollateralAmount  float64
	CollateralType    string
	TermDays          int
	AnnualRatePercent float64
}

// Metrics holds every derived figure for one loan application. The values
// are only meaningful together; callers should never recompute one of them
// independently (TotalRepayment is Principal + TotalInterest by
// construction).
type Metrics struct {
	CollateralValue  float64 `json:"collateral_value"`
	LTVRatio         float64 `json:"ltv_ratio"`
	LiquidationPrice float64 `json:"liquidation_price"`
	TotalInterest    float64 `json:"total_interest"`
	TotalRepayment   float64 `json:"total_repayment"`
	MonthlyPayment   float64 `json:"monthly_payment"`
}

// Compute derives all loan figures from the application input and a price
// snapshot. Pure: same input and snapshot always give the same output.
func Compute(in Input, snap pricing.Snapshot) (*Metrics, error) {
	if in.Principal <= 0 {
		return nil, fmt.Errorf("principal must be positive, got %v: %w", in.Principal, ErrInvalidInput)
	}
	if in.CollateralAmount <= 0 {
		return nil, fmt.Errorf("collateral amount must be positive, got %v: %w", in.CollateralAmount, ErrInvalidInput)
	}
	if in.TermDays <= 0 {
		return nil, fmt.Errorf("term must be positive, got %d days: %w", in.TermDays, ErrInvalidInput)
	}
	if in.AnnualRatePercent < 0 {
		return nil, fmt.Errorf("rate must not be negative, got %v: %w", in.AnnualRatePercent, ErrInvalidInput)
	}

	unitPrice, ok := snap.Price(in.CollateralType)
	if !ok {
		return nil, fmt.Errorf("%q: %w", in.CollateralType, ErrUnknownCollateral)
	}

	collateralValue := in.CollateralAmount * unitPrice
	if collateralValue <= 0 {
		// an LTV over zero collateral is undefined; refuse rather than
		// hand back +Inf
		return nil, fmt.Errorf("%q priced at %v: %w", in.CollateralType, unitPrice, ErrDegenerateCollateral)
	}

	ltv := in.Principal / collateralValue
	liquidationPrice := unitPrice * ltv * BufferFactor

	termYears := float64(in.TermDays) / 365
	totalInterest := in.Principal * (in.AnnualRatePercent / 100) * termYears
	totalRepayment := in.Principal + totalInterest
	monthlyPayment := totalRepayment / (float64(in.TermDays) / 30)

	return &Metrics{
		CollateralValue:  collateralValue,
		LTVRatio:         ltv,
		LiquidationPrice: liquidationPrice,
		TotalInterest:    totalInterest,
		TotalRepayment:   totalRepayment,
		MonthlyPayment:   monthlyPayment,
	}, nil
}

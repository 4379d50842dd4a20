package loan

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both a missing loan and a loan owned by someone
	// else, so callers cannot probe for the existence of other users' loans.
	ErrNotFound = errors.New("loan not found")

	ErrInvalidInput = errors.New("invalid loan input")

	// ErrInvalidState is returned when an operation targets a loan whose
	// current status does not permit it (e.g. paying a completed loan).
	ErrInvalidState = errors.New("loan state does not allow this operation")

	// ErrLTVExceeded is the eligibility rule applied before a loan is
	// committed: the computed loan-to-value ratio is above the platform cap.
	ErrLTVExceeded = errors.New("loan-to-value ratio exceeds platform maximum")
)

// OverpaymentError rejects a payment larger than the outstanding balance.
// Remaining is included so the caller can retry with a corrected amount.
type OverpaymentError struct {
	Remaining float64
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment exceeds remaining balance (%.2f)", e.Remaining)
}

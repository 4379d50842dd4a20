package loan

import (
	"time"
)

type ApplyInput struct {
	UserID           string
	Amount           float64
	Currency         string
	CollateralType   string
	CollateralAmount float64
	TermDays         int
	Purpose          string
	InterestRate     float64
}

type LoanDTO struct {
	LoanID           string     `json:"loan_id"`
	UserID           string     `json:"user_id"`
	Principal        float64    `json:"principal"`
	Currency         string     `json:"currency"`
	CollateralType   string     `json:"collateral_type"`
	CollateralAmount float64    `json:"collateral_amount"`
	InterestRate     float64    `json:"interest_rate"`
	TermDays         int        `json:"term_days"`
	Purpose          string     `json:"purpose"`
	Status           string     `json:"status"`
	MonthlyPayment   float64    `json:"monthly_payment"`
	TotalInterest    float64    `json:"total_interest"`
	TotalRepayment   float64    `json:"total_repayment"`
	NextPaymentDate  *time.Time `json:"next_payment_date"`
	DueDate          time.Time  `json:"due_date"`
	CreatedAt        time.Time  `json:"created_at"`
}

type TransactionDTO struct {
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	LoanID        string    `json:"loan_id,omitempty"`
	Type          string    `json:"type"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

type PaymentResult struct {
	Transaction      TransactionDTO `json:"transaction"`
	RemainingBalance float64        `json:"remaining_balance"`
	LoanStatus       string         `json:"loan_status"`
}

package transaction

import (
	"time"
)

type Type string

const (
	TypeDisbursement      Type = "disbursement"
	TypeCollateralDeposit Type = "collateral_deposit"
	TypePayment           Type = "payment"
	TypeCollateralRelease Type = "collateral_release"
	TypeFee               Type = "fee"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Transaction is an append-only bookkeeping entry. Rows are never updated
// or deleted; corrections are recorded as compensating entries.
type Transaction struct {
	ID            uint64    `gorm:"primaryKey;column:id" json:"-"`
	TransactionID string    `gorm:"size:32;uniqueIndex:ux_transactions_txn_id" json:"transaction_id"`
	UserID        string    `gorm:"size:32;index:idx_transactions_user" json:"user_id"`
	// Numeric FK to loans.id; nil for entries not tied to a loan (e.g. fees).
	LoanID    *uint64   `gorm:"index:idx_transactions_loan" json:"-"`
	Type      Type      `gorm:"type:enum('disbursement','collateral_deposit','payment','collateral_release','fee')" json:"type"`
	Amount    float64   `gorm:"type:decimal(18,8)" json:"amount"`
	Currency  string    `gorm:"size:8" json:"currency"`
	Status    Status    `gorm:"type:enum('pending','completed','failed');default:'completed'" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Transaction) TableName() string { return "transactions" }

package loan

import (
	"time"

	"gorm.io/gorm"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDefaulted Status = "defaulted"
	StatusRejected  Status = "rejected"
)

// Terminal reports whether no transition may leave s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusDefaulted, StatusRejected:
		return true
	}
	return false
}

type Loan struct {
	ID               uint64         `gorm:"primaryKey;column:id" json:"-"`
	LoanID           string         `gorm:"size:32;uniqueIndex:ux_loans_loan_id_active" json:"loan_id"`
	UserID           string         `gorm:"size:32;index:idx_loans_user_active" json:"user_id"`
	Principal        float64        `gorm:"type:decimal(18,2)" json:"principal"`
	Currency         string         `gorm:"size:8;default:'USDT'" json:"currency"`
	CollateralType   string         `gorm:"size:8" json:"collateral_type"`
	CollateralAmount float64        `gorm:"type:decimal(18,8)" json:"collateral_amount"`
	InterestRate     float64        `gorm:"type:decimal(5,2)" json:"interest_rate"`
	TermDays         int            `json:"term_days"`
	Purpose          string         `gorm:"size:64" json:"purpose"`
	Status           Status         `gorm:"type:enum('pending','active','completed','defaulted','rejected');default:'active'" json:"status"`
	MonthlyPayment   float64        `gorm:"type:decimal(18,2)" json:"monthly_payment"`
	TotalInterest    float64        `gorm:"type:decimal(18,2)" json:"total_interest"`
	TotalRepayment   float64        `gorm:"type:decimal(18,2)" json:"total_repayment"`
	NextPaymentDate  *time.Time     `json:"next_payment_date"`
	DueDate          time.Time      `json:"due_date"`
	StatusUpdatedAt  time.Time      `gorm:"autoCreateTime" json:"status_updated_at"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Loan) TableName() string { return "loans" }

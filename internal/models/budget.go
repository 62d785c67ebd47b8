package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetStatus represents the lifecycle state of a budget
type BudgetStatus string

const (
	BudgetStatusActive   BudgetStatus = "ACTIVE"
	BudgetStatusInactive BudgetStatus = "INACTIVE"
	BudgetStatusExceeded BudgetStatus = "EXCEEDED"
)

// Budget represents a yearly budgeted amount for one category. The window
// [StartDate, EndDate] spans exactly twelve months.
type Budget struct {
	Base
	UserID    string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Category  Category        `gorm:"size:16;not null" json:"category"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	StartDate time.Time       `gorm:"not null;index" json:"start_date"`
	EndDate   time.Time       `gorm:"not null;index" json:"end_date"`
	Status    BudgetStatus    `gorm:"size:16;not null" json:"status"`
}

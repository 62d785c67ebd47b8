package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a savings target with a due date. SavingsRate is the number of
// months the pooled savings are spread over when projecting progress.
type Goal struct {
	Base
	UserID        string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name          string          `gorm:"not null" json:"name"`
	TargetAmount  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"target_amount"`
	CurrentAmount decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"current_amount"`
	DueDate       time.Time       `gorm:"not null" json:"due_date"`
	SavingsRate   float64         `gorm:"not null" json:"savings_rate"`
}

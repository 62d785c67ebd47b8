package models

import "github.com/shopspring/decimal"

// Savings is an amount a user has put aside. Goal projections pool all of a
// user's savings.
type Savings struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"total_amount"`
}

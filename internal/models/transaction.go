package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies money flowing in or out. Both transactions and budgets
// carry one.
type Category string

const (
	CategoryIncome  Category = "INCOME"
	CategoryExpense Category = "EXPENSE"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryIncome || c == CategoryExpense
}

// RecurrenceFrequency is the cadence at which a recurring transaction repeats.
type RecurrenceFrequency string

const (
	FrequencyDaily   RecurrenceFrequency = "DAILY"
	FrequencyWeekly  RecurrenceFrequency = "WEEKLY"
	FrequencyMonthly RecurrenceFrequency = "MONTHLY"
	FrequencyYearly  RecurrenceFrequency = "YEARLY"
)

// Transaction represents a single income or expense entry. Recurring
// transactions carry a frequency and the timestamp at which the next
// occurrence is due; both are nil for one-off entries.
type Transaction struct {
	Base
	UserID              string               `gorm:"type:uuid;not null;index" json:"user_id"`
	Tag                 string               `gorm:"size:50" json:"tag"`
	Category            Category             `gorm:"size:16;not null;index" json:"category"`
	Description         string               `json:"description"`
	Amount              decimal.Decimal      `gorm:"type:decimal(20,2);not null" json:"amount"`
	TransactionDate     time.Time            `gorm:"not null;index" json:"transaction_date"`
	IsRecurring         bool                 `gorm:"not null;index" json:"is_recurring"`
	RecurrenceFrequency *RecurrenceFrequency `gorm:"size:16" json:"recurrence_frequency,omitempty"`
	NextRecurrenceDate  *time.Time           `gorm:"index" json:"next_recurrence_date,omitempty"`
}

// IsDue reports whether a recurring transaction should produce its next
// occurrence at asOf.
func (t *Transaction) IsDue(asOf time.Time) bool {
	return t.IsRecurring && t.NextRecurrenceDate != nil && t.NextRecurrenceDate.Before(asOf)
}

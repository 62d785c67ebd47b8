// Package report aggregates a user's transactions and budgets into yearly
// summaries and trends, and exports them as spreadsheets.
package report

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/services"
	"fintrack/internal/store"
)

// YearSummary holds a user's actual and budgeted totals for one year.
type YearSummary struct {
	Year            int             `json:"year"`
	TotalIncome     decimal.Decimal `json:"total_income"`
	TotalExpense    decimal.Decimal `json:"total_expense"`
	BudgetedIncome  decimal.Decimal `json:"budgeted_income"`
	BudgetedExpense decimal.Decimal `json:"budgeted_expense"`
}

// DailyAmount is the spending on one calendar day (UTC).
type DailyAmount struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// Filter narrows FilterTransactions. Nil fields match everything.
type Filter struct {
	Category *models.Category
	Tag      *string
}

// Service builds reports from the transaction and budget stores.
type Service struct {
	transactions store.TransactionStore
	budgets      store.BudgetStore
	dir          string
}

// NewService creates a report Service. When dir is set, exported
// spreadsheets are also written there.
func NewService(transactions store.TransactionStore, budgets store.BudgetStore, dir string) *Service {
	return &Service{transactions: transactions, budgets: budgets, dir: dir}
}

// Summary totals the user's income and expenses dated in the year and the
// budgets overlapping it.
func (s *Service) Summary(ctx context.Context, userID string, year int) (*YearSummary, error) {
	start, end := services.YearWindow(year)

	txs, err := s.transactions.FindByUserAndDateRange(ctx, userID, start, end)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	budgets, err := s.budgets.FindByUserAndDateRange(ctx, userID, start, end)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	sum := &YearSummary{
		Year:            year,
		TotalIncome:     decimal.Zero,
		TotalExpense:    decimal.Zero,
		BudgetedIncome:  decimal.Zero,
		BudgetedExpense: decimal.Zero,
	}
	for _, t := range txs {
		switch t.Category {
		case models.CategoryIncome:
			sum.TotalIncome = sum.TotalIncome.Add(t.Amount)
		case models.CategoryExpense:
			sum.TotalExpense = sum.TotalExpense.Add(t.Amount)
		}
	}
	for _, b := range budgets {
		switch b.Category {
		case models.CategoryIncome:
			sum.BudgetedIncome = sum.BudgetedIncome.Add(b.Amount)
		case models.CategoryExpense:
			sum.BudgetedExpense = sum.BudgetedExpense.Add(b.Amount)
		}
	}
	return sum, nil
}

// SpendingTrends sums expenses per day over [start, end), oldest day first.
func (s *Service) SpendingTrends(ctx context.Context, userID string, start, end time.Time) ([]DailyAmount, error) {
	txs, err := s.transactions.FindByUserAndDateRange(ctx, userID, start, end)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	byDay := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.Category != models.CategoryExpense {
			continue
		}
		day := t.TransactionDate.UTC().Format(time.DateOnly)
		byDay[day] = byDay[day].Add(t.Amount)
	}

	trends := make([]DailyAmount, 0, len(byDay))
	for day, amount := range byDay {
		trends = append(trends, DailyAmount{Date: day, Amount: amount})
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Date < trends[j].Date })
	return trends, nil
}

// IncomeVsExpense totals each category over [start, end). Categories with
// no transactions are reported as zero.
func (s *Service) IncomeVsExpense(ctx context.Context, userID string, start, end time.Time) (map[models.Category]decimal.Decimal, error) {
	txs, err := s.transactions.FindByUserAndDateRange(ctx, userID, start, end)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	totals := map[models.Category]decimal.Decimal{
		models.CategoryIncome:  decimal.Zero,
		models.CategoryExpense: decimal.Zero,
	}
	for _, t := range txs {
		totals[t.Category] = totals[t.Category].Add(t.Amount)
	}
	return totals, nil
}

// FilterTransactions returns the user's transactions in [start, end) that
// match f. Category and tag compare case-insensitively.
func (s *Service) FilterTransactions(ctx context.Context, userID string, f Filter, start, end time.Time) ([]models.Transaction, error) {
	txs, err := s.transactions.FindByUserAndDateRange(ctx, userID, start, end)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	out := make([]models.Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Category != nil && !strings.EqualFold(string(t.Category), string(*f.Category)) {
			continue
		}
		if f.Tag != nil && !strings.EqualFold(t.Tag, *f.Tag) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TransactionDate.Before(out[j].TransactionDate) })
	return out, nil
}

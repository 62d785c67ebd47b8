package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget creates a new yearly budget.
func (s *budgetService) CreateBudget(ctx context.Context, userID string, in BudgetInput) (*models.Budget, error) {
	if err := s.validate(ctx, userID, "", in); err != nil {
		return nil, err
	}

	budget := &models.Budget{UserID: userID}
	applyBudgetInput(budget, in)

	if err := s.db.WithContext(ctx).Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

func applyBudgetInput(b *models.Budget, in BudgetInput) {
	b.Category = in.Category
	b.Amount = in.Amount
	b.StartDate = in.StartDate
	b.EndDate = in.EndDate
	b.Status = in.Status
	if b.Status == "" {
		b.Status = models.BudgetStatusActive
	}
}

// validate checks the budget fields, that the window spans exactly twelve
// months, and that no identical budget exists other than excludeID.
func (s *budgetService) validate(ctx context.Context, userID, excludeID string, in BudgetInput) error {
	if !in.Category.Valid() {
		return apperrors.ErrInvalidCategory
	}
	if in.Amount.IsNegative() {
		return apperrors.ErrNegativeAmount
	}
	if MonthsBetween(in.StartDate, in.EndDate) != 12 {
		return apperrors.ErrInvalidBudgetPeriod
	}

	q := s.db.WithContext(ctx).Model(&models.Budget{}).
		Where("user_id = ? AND category = ? AND amount = ? AND start_date = ? AND end_date = ?",
			userID, in.Category, in.Amount, in.StartDate, in.EndDate)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateBudget
	}
	return nil
}

// MonthsBetween returns the number of whole calendar months from start to
// end. A partial trailing month is not counted, so Jan 15 to Jan 14 of the
// next year is 11 and Jan 1 to Jan 1 of the next year is 12.
func MonthsBetween(start, end time.Time) int {
	endDate := end
	switch {
	case end.After(start) && clockOf(end) < clockOf(start):
		endDate = end.AddDate(0, 0, -1)
	case end.Before(start) && clockOf(end) > clockOf(start):
		endDate = end.AddDate(0, 0, 1)
	}
	return int((packedDay(endDate) - packedDay(start)) / 32)
}

// packedDay encodes a date so that whole-month differences survive integer
// division by 32.
func packedDay(t time.Time) int64 {
	return (int64(t.Year())*12+int64(t.Month())-1)*32 + int64(t.Day())
}

func clockOf(t time.Time) time.Duration {
	h, m, sec := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second + time.Duration(t.Nanosecond())
}

// GetUserBudgets returns a paginated list of budgets for the user with optional filters.
func (s *budgetService) GetUserBudgets(
	ctx context.Context,
	userID string,
	page pagination.PageRequest,
	status *models.BudgetStatus,
	category *models.Category,
) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Budget{}).Where("user_id = ?", userID)
	if status != nil {
		base = base.Where("status = ?", *status)
	}
	if category != nil {
		base = base.Where("category = ?", *category)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Scopes(pagination.Paginate(page)).Order("start_date DESC").Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(ctx context.Context, userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget replaces a budget's fields after the same checks as creation.
func (s *budgetService) UpdateBudget(ctx context.Context, userID, budgetID string, in BudgetInput) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, userID, budgetID, in); err != nil {
		return nil, err
	}

	applyBudgetInput(budget, in)
	if err := s.db.WithContext(ctx).Save(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	budget, err := s.GetBudgetByID(ctx, userID, budgetID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetBudgetProgress sums the budget category's transactions inside the
// budget window and compares them with the budgeted amount.
func (s *budgetService) GetBudgetProgress(ctx context.Context, userID, budgetID string) (*BudgetProgress, error) {
	budget, err := s.GetBudgetByID(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}

	var txs []models.Transaction
	err = s.db.WithContext(ctx).
		Select("amount").
		Where("user_id = ? AND category = ? AND transaction_date >= ? AND transaction_date < ?",
			userID, budget.Category, budget.StartDate, budget.EndDate).
		Find(&txs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	actual := decimal.Zero
	for _, t := range txs {
		actual = actual.Add(t.Amount)
	}

	var percentage float64
	if budget.Amount.IsPositive() {
		percentage = actual.Div(budget.Amount).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	}

	return &BudgetProgress{
		BudgetID:   budget.ID,
		Budgeted:   budget.Amount,
		Actual:     actual,
		Remaining:  budget.Amount.Sub(actual),
		Percentage: percentage,
	}, nil
}

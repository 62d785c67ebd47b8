package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

type savingsService struct {
	db *gorm.DB
}

// NewSavingsService creates a new SavingsServicer.
func NewSavingsService(db *gorm.DB) SavingsServicer {
	return &savingsService{db: db}
}

func (s *savingsService) CreateSavings(ctx context.Context, userID string, amount decimal.Decimal) (*models.Savings, error) {
	if amount.IsNegative() {
		return nil, apperrors.ErrNegativeAmount
	}
	savings := &models.Savings{UserID: userID, TotalAmount: amount}
	if err := s.db.WithContext(ctx).Create(savings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return savings, nil
}

func (s *savingsService) GetUserSavings(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Savings], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Savings{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var items []models.Savings
	if err := base.Scopes(pagination.Paginate(page)).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(items, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func (s *savingsService) GetSavingsByID(ctx context.Context, userID, savingsID string) (*models.Savings, error) {
	var savings models.Savings
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", savingsID, userID).First(&savings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSavingsNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &savings, nil
}

func (s *savingsService) UpdateSavings(ctx context.Context, userID, savingsID string, amount decimal.Decimal) (*models.Savings, error) {
	if amount.IsNegative() {
		return nil, apperrors.ErrNegativeAmount
	}
	savings, err := s.GetSavingsByID(ctx, userID, savingsID)
	if err != nil {
		return nil, err
	}
	savings.TotalAmount = amount
	if err := s.db.WithContext(ctx).Save(savings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return savings, nil
}

func (s *savingsService) DeleteSavings(ctx context.Context, userID, savingsID string) error {
	savings, err := s.GetSavingsByID(ctx, userID, savingsID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(savings).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// TotalSavings sums every savings entry the user owns.
func (s *savingsService) TotalSavings(ctx context.Context, userID string) (decimal.Decimal, error) {
	var items []models.Savings
	if err := s.db.WithContext(ctx).Select("total_amount").Where("user_id = ?", userID).Find(&items).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.TotalAmount)
	}
	return total, nil
}

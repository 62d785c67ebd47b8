package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/models"

	"gorm.io/gorm"
)

type transactionStore struct {
	db *gorm.DB
}

// NewTransactionStore returns a TransactionStore backed by db.
func NewTransactionStore(db *gorm.DB) TransactionStore {
	return &transactionStore{db: db}
}

func (s *transactionStore) FindRecurring(ctx context.Context) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := s.db.WithContext(ctx).
		Where("is_recurring = ?", true).
		Order("next_recurrence_date ASC").
		Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("find recurring transactions: %w", err)
	}
	return txs, nil
}

func (s *transactionStore) FindByUserAndDateRange(ctx context.Context, userID string, start, end time.Time) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND transaction_date >= ? AND transaction_date < ?", userID, start, end).
		Order("transaction_date ASC").
		Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("find transactions for user %s: %w", userID, err)
	}
	return txs, nil
}

func (s *transactionStore) Save(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	db := s.db.WithContext(ctx)
	var err error
	if tx.ID == "" {
		err = db.Create(tx).Error
	} else {
		err = db.Save(tx).Error
	}
	if err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}
	return tx, nil
}

func (s *transactionStore) AdvanceRecurrence(ctx context.Context, original *models.Transaction, expectedNext time.Time, clone *models.Transaction) (bool, error) {
	if clone.NextRecurrenceDate == nil {
		return false, errors.New("advance recurrence: clone has no next recurrence date")
	}
	newNext := *clone.NextRecurrenceDate

	advanced := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND next_recurrence_date = ?", original.ID, expectedNext).
			Update("next_recurrence_date", newNext)
		if res.Error != nil {
			return fmt.Errorf("advance transaction %s: %w", original.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Create(clone).Error; err != nil {
			return fmt.Errorf("create occurrence of %s: %w", original.ID, err)
		}
		advanced = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if advanced {
		original.NextRecurrenceDate = &newNext
	}
	return advanced, nil
}

type budgetStore struct {
	db *gorm.DB
}

// NewBudgetStore returns a BudgetStore backed by db.
func NewBudgetStore(db *gorm.DB) BudgetStore {
	return &budgetStore{db: db}
}

func (s *budgetStore) FindByUserAndDateRange(ctx context.Context, userID string, start, end time.Time) ([]models.Budget, error) {
	var budgets []models.Budget
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND start_date <= ? AND end_date >= ?", userID, end, start).
		Order("start_date ASC").
		Find(&budgets).Error; err != nil {
		return nil, fmt.Errorf("find budgets for user %s: %w", userID, err)
	}
	return budgets, nil
}

type userStore struct {
	db *gorm.DB
}

// NewUserStore returns a UserStore backed by db.
func NewUserStore(db *gorm.DB) UserStore {
	return &userStore{db: db}
}

func (s *userStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return &user, nil
}

func (s *userStore) FindAllWithRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Where("role = ?", role).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("find users with role %s: %w", role, err)
	}
	return users, nil
}

func (s *userStore) FindAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	return users, nil
}

type auditStore struct {
	db *gorm.DB
}

// NewAuditStore returns an AuditStore backed by db.
func NewAuditStore(db *gorm.DB) AuditStore {
	return &auditStore{db: db}
}

func (s *auditStore) Append(ctx context.Context, entry *models.AuditLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append audit entry %s: %w", entry.Action, err)
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/recurrence"
	"fintrack/internal/store"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db        *gorm.DB
	store     store.TransactionStore
	evaluator ExceedanceEvaluator
}

// NewTransactionService creates a new TransactionServicer. Every created
// transaction is followed by a budget check of its owner and year through
// evaluator, which may be nil.
func NewTransactionService(db *gorm.DB, evaluator ExceedanceEvaluator) TransactionServicer {
	return newTransactionService(db, store.NewTransactionStore(db), evaluator)
}

// newTransactionService lets tests substitute the store used for writes.
func newTransactionService(db *gorm.DB, txStore store.TransactionStore, evaluator ExceedanceEvaluator) *transactionService {
	return &transactionService{db: db, store: txStore, evaluator: evaluator}
}

// CreateTransaction records a transaction for the user. Recurring
// transactions get their first next-recurrence date from the transaction
// date. The budget check that follows runs synchronously so it sees the new
// row; its failure is logged and does not fail the creation.
func (s *transactionService) CreateTransaction(ctx context.Context, userID string, in TransactionInput) (*models.Transaction, error) {
	tx := &models.Transaction{UserID: userID}
	if err := applyTransactionInput(tx, in); err != nil {
		return nil, err
	}

	if _, err := s.store.Save(ctx, tx); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	logger.Get().Infow("transaction created", "transaction_id", tx.ID, "user_id", userID, "recurring", tx.IsRecurring)

	if s.evaluator != nil {
		year := tx.TransactionDate.UTC().Year()
		if _, err := s.evaluator.EvaluateUser(ctx, userID, year); err != nil {
			logger.Get().Errorw("budget check after transaction create failed",
				"transaction_id", tx.ID, "user_id", userID, "year", year, "error", err)
		}
	}
	return tx, nil
}

// applyTransactionInput validates in and copies it onto tx, deriving the
// next recurrence date.
func applyTransactionInput(tx *models.Transaction, in TransactionInput) error {
	if !in.Category.Valid() {
		return apperrors.ErrInvalidCategory
	}
	if in.Amount.IsNegative() {
		return apperrors.ErrNegativeAmount
	}
	if err := recurrence.Validate(in.IsRecurring, in.RecurrenceFrequency); err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidFrequency, err.Error())
	}

	date := in.TransactionDate
	if date.IsZero() {
		date = time.Now().UTC()
	}

	tx.Tag = strings.ToUpper(strings.TrimSpace(in.Tag))
	tx.Category = in.Category
	tx.Description = in.Description
	tx.Amount = in.Amount
	tx.TransactionDate = date
	tx.IsRecurring = in.IsRecurring
	tx.RecurrenceFrequency = nil
	tx.NextRecurrenceDate = nil

	if in.IsRecurring {
		freq := *in.RecurrenceFrequency
		next, err := recurrence.NextOccurrence(date, freq)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInvalidFrequency, err)
		}
		tx.RecurrenceFrequency = &freq
		tx.NextRecurrenceDate = &next
	}
	return nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's transactions.
func (s *transactionService) GetUserTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("transaction_date DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("transaction_date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("transaction_date <= ?", *f.ToDate)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.Tag != nil {
		q = q.Where("tag = ?", strings.ToUpper(*f.Tag))
	}
	if f.IsRecurring != nil {
		q = q.Where("is_recurring = ?", *f.IsRecurring)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction replaces the editable fields of a transaction and
// recomputes its next recurrence date from the transaction date.
func (s *transactionService) UpdateTransaction(ctx context.Context, userID, transactionID string, in TransactionInput) (*models.Transaction, error) {
	tx, err := s.GetTransactionByID(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}
	if err := applyTransactionInput(tx, in); err != nil {
		return nil, err
	}
	if _, err := s.store.Save(ctx, tx); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	return tx, nil
}

// DeleteTransaction soft-deletes a transaction.
func (s *transactionService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	tx, err := s.GetTransactionByID(ctx, userID, transactionID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(tx).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Package store holds the persistence contracts the recurrence and budget
// engines read and write through, with GORM-backed implementations.
package store

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/models"
)

// ErrNotFound is returned when a lookup by id matches no row.
var ErrNotFound = errors.New("record not found")

// TransactionStore reads and writes transactions.
type TransactionStore interface {
	// FindRecurring returns every transaction flagged as recurring.
	FindRecurring(ctx context.Context) ([]models.Transaction, error)
	// FindByUserAndDateRange returns the user's transactions dated in [start, end).
	FindByUserAndDateRange(ctx context.Context, userID string, start, end time.Time) ([]models.Transaction, error)
	// Save inserts tx when it has no id and updates it otherwise.
	Save(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
	// AdvanceRecurrence inserts clone and moves original's next recurrence to
	// clone's, atomically, provided original still carries expectedNext.
	// It reports false without writing anything when another worker got there
	// first.
	AdvanceRecurrence(ctx context.Context, original *models.Transaction, expectedNext time.Time, clone *models.Transaction) (bool, error)
}

// BudgetStore reads budgets.
type BudgetStore interface {
	// FindByUserAndDateRange returns the user's budgets whose
	// [StartDate, EndDate] overlaps [start, end].
	FindByUserAndDateRange(ctx context.Context, userID string, start, end time.Time) ([]models.Budget, error)
}

// UserStore reads users.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindAllWithRole(ctx context.Context, role models.Role) ([]models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
}

// AuditStore appends audit entries.
type AuditStore interface {
	Append(ctx context.Context, entry *models.AuditLog) error
}

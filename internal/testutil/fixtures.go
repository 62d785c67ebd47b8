package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestUser creates a regular user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithRole(t, db, email, models.RoleRegular)
}

// CreateTestAdmin creates a user with the ADMIN role.
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("admin%d@test.com", nextID())
	return CreateTestUserWithRole(t, db, email, models.RoleAdmin)
}

// CreateTestUserWithEmail creates a regular user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	return CreateTestUserWithRole(t, db, email, models.RoleRegular)
}

// CreateTestUserWithRole creates a user with the given email and role.
func CreateTestUserWithRole(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:     email,
		Password:  string(hash),
		FirstName: "Test",
		LastName:  fmt.Sprintf("User%d", nextID()),
		Role:      role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestTransaction creates a one-off transaction.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, category models.Category, amount string, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:          userID,
		Tag:             "PERSONAL",
		Category:        category,
		Description:     fmt.Sprintf("Test Transaction %d", nextID()),
		Amount:          decimal.RequireFromString(amount),
		TransactionDate: date,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestRecurringTransaction creates a recurring transaction whose next
// occurrence is due at next.
func CreateTestRecurringTransaction(t *testing.T, db *gorm.DB, userID string, category models.Category, amount string, date time.Time, freq models.RecurrenceFrequency, next time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:              userID,
		Tag:                 "PERSONAL",
		Category:            category,
		Description:         fmt.Sprintf("Recurring Transaction %d", nextID()),
		Amount:              decimal.RequireFromString(amount),
		TransactionDate:     date,
		IsRecurring:         true,
		RecurrenceFrequency: &freq,
		NextRecurrenceDate:  &next,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test recurring transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates an active budget covering the whole calendar year.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string, category models.Category, amount string, year int) *models.Budget {
	t.Helper()

	start := Date(year, time.January, 1)
	budget := &models.Budget{
		UserID:    userID,
		Category:  category,
		Amount:    decimal.RequireFromString(amount),
		StartDate: start,
		EndDate:   start.AddDate(1, 0, 0),
		Status:    models.BudgetStatusActive,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestSavings creates a savings entry for the user.
func CreateTestSavings(t *testing.T, db *gorm.DB, userID, amount string) *models.Savings {
	t.Helper()

	s := &models.Savings{UserID: userID, TotalAmount: decimal.RequireFromString(amount)}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("failed to create test savings: %v", err)
	}
	return s
}

// CreateTestGoal creates a goal due on dueDate.
func CreateTestGoal(t *testing.T, db *gorm.DB, userID, target string, savingsRate float64, dueDate time.Time) *models.Goal {
	t.Helper()

	g := &models.Goal{
		UserID:        userID,
		Name:          fmt.Sprintf("Test Goal %d", nextID()),
		TargetAmount:  decimal.RequireFromString(target),
		CurrentAmount: decimal.Zero,
		DueDate:       dueDate,
		SavingsRate:   savingsRate,
	}
	if err := db.Create(g).Error; err != nil {
		t.Fatalf("failed to create test goal: %v", err)
	}
	return g
}

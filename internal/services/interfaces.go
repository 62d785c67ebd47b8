package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(ctx context.Context, email, password, firstName, lastName string, role models.Role) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
	UpdateUser(ctx context.Context, id string, update UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(ctx context.Context, email, password string) (*models.User, error)
}

// UserUpdate holds the optional fields of a user update. Nil fields are left
// unchanged.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Password  *string
	Role      *models.Role
}

// TransactionInput holds the user-editable fields of a transaction.
type TransactionInput struct {
	Tag                 string
	Category            models.Category
	Description         string
	Amount              decimal.Decimal
	TransactionDate     time.Time
	IsRecurring         bool
	RecurrenceFrequency *models.RecurrenceFrequency
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate    *time.Time
	ToDate      *time.Time
	Category    *models.Category
	Tag         *string
	IsRecurring *bool
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, userID string, in TransactionInput) (*models.Transaction, error)
	GetUserTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, transactionID string, in TransactionInput) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
}

// BudgetInput holds the user-editable fields of a budget.
type BudgetInput struct {
	Category  models.Category
	Amount    decimal.Decimal
	StartDate time.Time
	EndDate   time.Time
	Status    models.BudgetStatus
}

// BudgetProgress contains actual vs budgeted totals over a budget's window.
type BudgetProgress struct {
	BudgetID   string          `json:"budget_id"`
	Budgeted   decimal.Decimal `json:"budgeted"`
	Actual     decimal.Decimal `json:"actual"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage float64         `json:"percentage"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(ctx context.Context, userID string, in BudgetInput) (*models.Budget, error)
	GetUserBudgets(ctx context.Context, userID string, page pagination.PageRequest, status *models.BudgetStatus, category *models.Category) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(ctx context.Context, userID, budgetID string) (*models.Budget, error)
	UpdateBudget(ctx context.Context, userID, budgetID string, in BudgetInput) (*models.Budget, error)
	DeleteBudget(ctx context.Context, userID, budgetID string) error
	GetBudgetProgress(ctx context.Context, userID, budgetID string) (*BudgetProgress, error)
}

// SavingsServicer defines the contract for savings-related business logic.
type SavingsServicer interface {
	CreateSavings(ctx context.Context, userID string, amount decimal.Decimal) (*models.Savings, error)
	GetUserSavings(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Savings], error)
	GetSavingsByID(ctx context.Context, userID, savingsID string) (*models.Savings, error)
	UpdateSavings(ctx context.Context, userID, savingsID string, amount decimal.Decimal) (*models.Savings, error)
	DeleteSavings(ctx context.Context, userID, savingsID string) error
	TotalSavings(ctx context.Context, userID string) (decimal.Decimal, error)
}

// GoalInput holds the user-editable fields of a goal.
type GoalInput struct {
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	DueDate       time.Time
	SavingsRate   float64
}

// GoalProgress reports how far a goal is from completion.
type GoalProgress struct {
	GoalID          string `json:"goal_id"`
	MonthsToGoal    int    `json:"months_to_goal"`
	MonthsRemaining int    `json:"months_remaining"`
}

// GoalNotifyResult counts the outcome of a goal reminder run.
type GoalNotifyResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// GoalServicer defines the contract for goal-related business logic.
type GoalServicer interface {
	CreateGoal(ctx context.Context, userID string, in GoalInput) (*models.Goal, error)
	GetUserGoals(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Goal], error)
	GetGoalByID(ctx context.Context, userID, goalID string) (*models.Goal, error)
	UpdateGoal(ctx context.Context, userID, goalID string, in GoalInput) (*models.Goal, error)
	DeleteGoal(ctx context.Context, userID, goalID string) error
	GetGoalProgress(ctx context.Context, userID, goalID string, today time.Time) (*GoalProgress, error)
	AchieveMonths(ctx context.Context, userID string) (map[string]int, error)
	SendMonthlyNotifications(ctx context.Context, today time.Time) (GoalNotifyResult, error)
}

// RecurrenceAdvancer generates the next occurrence of due recurring transactions.
type RecurrenceAdvancer interface {
	AdvanceDueRecurrences(ctx context.Context, asOf time.Time) (AdvanceResult, error)
}

// ExceedanceEvaluator compares a user's yearly actuals against budgets and
// alerts administrators when they are exceeded.
type ExceedanceEvaluator interface {
	Evaluate(ctx context.Context, user *models.User, year int) (*Evaluation, error)
	EvaluateBudgetExceedance(ctx context.Context, user *models.User, year int) (EvaluationResult, error)
	EvaluateUser(ctx context.Context, userID string, year int) (*Evaluation, error)
	EvaluateAll(ctx context.Context, year int) (SweepResult, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}

package handlers

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

// --- user service ---

type mockUserService struct {
	createUserFn     func(email, password, firstName, lastName string, role models.Role) (*models.User, error)
	getUserByEmailFn func(email string) (*models.User, error)
	getUserByIDFn    func(id string) (*models.User, error)
	listUsersFn      func(page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
	updateUserFn     func(id string, update services.UserUpdate) (*models.User, error)
	deleteUserFn     func(id string) error
	attemptLoginFn   func(email, password string) (*models.User, error)
}

var _ services.UserServicer = (*mockUserService)(nil)

func (m *mockUserService) CreateUser(_ context.Context, email, password, firstName, lastName string, role models.Role) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(email, password, firstName, lastName, role)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(email)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{Base: models.Base{ID: id}}, nil
}

func (m *mockUserService) ListUsers(_ context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.User], error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(page)
	}
	resp := pagination.NewPageResponse([]models.User{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockUserService) UpdateUser(_ context.Context, id string, update services.UserUpdate) (*models.User, error) {
	if m.updateUserFn != nil {
		return m.updateUserFn(id, update)
	}
	return &models.User{Base: models.Base{ID: id}}, nil
}

func (m *mockUserService) DeleteUser(_ context.Context, id string) error {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(id)
	}
	return nil
}

func (m *mockUserService) VerifyPassword(_ *models.User, _ string) bool { return true }

func (m *mockUserService) AttemptLogin(_ context.Context, email, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(email, password)
	}
	return &models.User{}, nil
}

// --- audit service ---

type auditEntry struct {
	userID, action, resourceType, resourceID string
}

type mockAuditService struct {
	entries []auditEntry
}

func (m *mockAuditService) Log(userID, action, resourceType, resourceID, _ string, _ map[string]interface{}) {
	m.entries = append(m.entries, auditEntry{userID: userID, action: action, resourceType: resourceType, resourceID: resourceID})
}

// --- transaction service ---

type mockTransactionService struct {
	createFn  func(userID string, in services.TransactionInput) (*models.Transaction, error)
	listFn    func(userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getByIDFn func(userID, id string) (*models.Transaction, error)
	updateFn  func(userID, id string, in services.TransactionInput) (*models.Transaction, error)
	deleteFn  func(userID, id string) error
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

func (m *mockTransactionService) CreateTransaction(_ context.Context, userID string, in services.TransactionInput) (*models.Transaction, error) {
	if m.createFn != nil {
		return m.createFn(userID, in)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) GetUserTransactions(_ context.Context, userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.listFn != nil {
		return m.listFn(userID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetTransactionByID(_ context.Context, userID, id string) (*models.Transaction, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(userID, id)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) UpdateTransaction(_ context.Context, userID, id string, in services.TransactionInput) (*models.Transaction, error) {
	if m.updateFn != nil {
		return m.updateFn(userID, id, in)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) DeleteTransaction(_ context.Context, userID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(userID, id)
	}
	return nil
}

// --- budget service ---

type mockBudgetService struct {
	createFn   func(userID string, in services.BudgetInput) (*models.Budget, error)
	listFn     func(userID string, page pagination.PageRequest, status *models.BudgetStatus, category *models.Category) (*pagination.PageResponse[models.Budget], error)
	getByIDFn  func(userID, id string) (*models.Budget, error)
	updateFn   func(userID, id string, in services.BudgetInput) (*models.Budget, error)
	deleteFn   func(userID, id string) error
	progressFn func(userID, id string) (*services.BudgetProgress, error)
}

var _ services.BudgetServicer = (*mockBudgetService)(nil)

func (m *mockBudgetService) CreateBudget(_ context.Context, userID string, in services.BudgetInput) (*models.Budget, error) {
	if m.createFn != nil {
		return m.createFn(userID, in)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) GetUserBudgets(_ context.Context, userID string, page pagination.PageRequest, status *models.BudgetStatus, category *models.Category) (*pagination.PageResponse[models.Budget], error) {
	if m.listFn != nil {
		return m.listFn(userID, page, status, category)
	}
	resp := pagination.NewPageResponse([]models.Budget{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockBudgetService) GetBudgetByID(_ context.Context, userID, id string) (*models.Budget, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(userID, id)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) UpdateBudget(_ context.Context, userID, id string, in services.BudgetInput) (*models.Budget, error) {
	if m.updateFn != nil {
		return m.updateFn(userID, id, in)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) DeleteBudget(_ context.Context, userID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(userID, id)
	}
	return nil
}

func (m *mockBudgetService) GetBudgetProgress(_ context.Context, userID, id string) (*services.BudgetProgress, error) {
	if m.progressFn != nil {
		return m.progressFn(userID, id)
	}
	return &services.BudgetProgress{}, nil
}

// --- savings service ---

type mockSavingsService struct {
	createFn func(userID string, amount decimal.Decimal) (*models.Savings, error)
	listFn   func(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Savings], error)
	updateFn func(userID, id string, amount decimal.Decimal) (*models.Savings, error)
	deleteFn func(userID, id string) error
	totalFn  func(userID string) (decimal.Decimal, error)
}

var _ services.SavingsServicer = (*mockSavingsService)(nil)

func (m *mockSavingsService) CreateSavings(_ context.Context, userID string, amount decimal.Decimal) (*models.Savings, error) {
	if m.createFn != nil {
		return m.createFn(userID, amount)
	}
	return &models.Savings{}, nil
}

func (m *mockSavingsService) GetUserSavings(_ context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Savings], error) {
	if m.listFn != nil {
		return m.listFn(userID, page)
	}
	resp := pagination.NewPageResponse([]models.Savings{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockSavingsService) GetSavingsByID(_ context.Context, _, id string) (*models.Savings, error) {
	return &models.Savings{Base: models.Base{ID: id}}, nil
}

func (m *mockSavingsService) UpdateSavings(_ context.Context, userID, id string, amount decimal.Decimal) (*models.Savings, error) {
	if m.updateFn != nil {
		return m.updateFn(userID, id, amount)
	}
	return &models.Savings{}, nil
}

func (m *mockSavingsService) DeleteSavings(_ context.Context, userID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(userID, id)
	}
	return nil
}

func (m *mockSavingsService) TotalSavings(_ context.Context, userID string) (decimal.Decimal, error) {
	if m.totalFn != nil {
		return m.totalFn(userID)
	}
	return decimal.Zero, nil
}

// --- goal service ---

type mockGoalService struct {
	createFn        func(userID string, in services.GoalInput) (*models.Goal, error)
	listFn          func(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Goal], error)
	getByIDFn       func(userID, id string) (*models.Goal, error)
	updateFn        func(userID, id string, in services.GoalInput) (*models.Goal, error)
	deleteFn        func(userID, id string) error
	progressFn      func(userID, id string, today time.Time) (*services.GoalProgress, error)
	achieveMonthsFn func(userID string) (map[string]int, error)
}

var _ services.GoalServicer = (*mockGoalService)(nil)

func (m *mockGoalService) CreateGoal(_ context.Context, userID string, in services.GoalInput) (*models.Goal, error) {
	if m.createFn != nil {
		return m.createFn(userID, in)
	}
	return &models.Goal{}, nil
}

func (m *mockGoalService) GetUserGoals(_ context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Goal], error) {
	if m.listFn != nil {
		return m.listFn(userID, page)
	}
	resp := pagination.NewPageResponse([]models.Goal{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockGoalService) GetGoalByID(_ context.Context, userID, id string) (*models.Goal, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(userID, id)
	}
	return &models.Goal{}, nil
}

func (m *mockGoalService) UpdateGoal(_ context.Context, userID, id string, in services.GoalInput) (*models.Goal, error) {
	if m.updateFn != nil {
		return m.updateFn(userID, id, in)
	}
	return &models.Goal{}, nil
}

func (m *mockGoalService) DeleteGoal(_ context.Context, userID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(userID, id)
	}
	return nil
}

func (m *mockGoalService) GetGoalProgress(_ context.Context, userID, id string, today time.Time) (*services.GoalProgress, error) {
	if m.progressFn != nil {
		return m.progressFn(userID, id, today)
	}
	return &services.GoalProgress{}, nil
}

func (m *mockGoalService) AchieveMonths(_ context.Context, userID string) (map[string]int, error) {
	if m.achieveMonthsFn != nil {
		return m.achieveMonthsFn(userID)
	}
	return map[string]int{}, nil
}

func (m *mockGoalService) SendMonthlyNotifications(_ context.Context, _ time.Time) (services.GoalNotifyResult, error) {
	return services.GoalNotifyResult{}, nil
}

// --- reports ---

type mockReporter struct {
	summaryFn func(userID string, year int) (*report.YearSummary, error)
	trendsFn  func(userID string, start, end time.Time) ([]report.DailyAmount, error)
	ieFn      func(userID string, start, end time.Time) (map[models.Category]decimal.Decimal, error)
	filterFn  func(userID string, f report.Filter, start, end time.Time) ([]models.Transaction, error)
	exportFn  func(userID string, year int) ([]byte, error)
}

var _ Reporter = (*mockReporter)(nil)

func (m *mockReporter) Summary(_ context.Context, userID string, year int) (*report.YearSummary, error) {
	if m.summaryFn != nil {
		return m.summaryFn(userID, year)
	}
	return &report.YearSummary{Year: year}, nil
}

func (m *mockReporter) SpendingTrends(_ context.Context, userID string, start, end time.Time) ([]report.DailyAmount, error) {
	if m.trendsFn != nil {
		return m.trendsFn(userID, start, end)
	}
	return nil, nil
}

func (m *mockReporter) IncomeVsExpense(_ context.Context, userID string, start, end time.Time) (map[models.Category]decimal.Decimal, error) {
	if m.ieFn != nil {
		return m.ieFn(userID, start, end)
	}
	return map[models.Category]decimal.Decimal{}, nil
}

func (m *mockReporter) FilterTransactions(_ context.Context, userID string, f report.Filter, start, end time.Time) ([]models.Transaction, error) {
	if m.filterFn != nil {
		return m.filterFn(userID, f, start, end)
	}
	return nil, nil
}

func (m *mockReporter) Export(_ context.Context, userID string, year int) ([]byte, error) {
	if m.exportFn != nil {
		return m.exportFn(userID, year)
	}
	return []byte("xlsx"), nil
}

// --- admin ---

type mockAdvancer struct {
	advanceFn func(asOf time.Time) (services.AdvanceResult, error)
}

func (m *mockAdvancer) AdvanceDueRecurrences(_ context.Context, asOf time.Time) (services.AdvanceResult, error) {
	if m.advanceFn != nil {
		return m.advanceFn(asOf)
	}
	return services.AdvanceResult{}, nil
}

type mockEvaluator struct {
	services.ExceedanceEvaluator
	evaluateUserFn func(userID string, year int) (*services.Evaluation, error)
	evaluateAllFn  func(year int) (services.SweepResult, error)
}

func (m *mockEvaluator) EvaluateUser(_ context.Context, userID string, year int) (*services.Evaluation, error) {
	if m.evaluateUserFn != nil {
		return m.evaluateUserFn(userID, year)
	}
	return &services.Evaluation{UserID: userID, Year: year}, nil
}

func (m *mockEvaluator) EvaluateAll(_ context.Context, year int) (services.SweepResult, error) {
	if m.evaluateAllFn != nil {
		return m.evaluateAllFn(year)
	}
	return services.SweepResult{}, nil
}

// Package errors provides custom error types for the FinTrack API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so wrapped
// copies still match their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Scheduled job errors. These are mostly surfaced through logs and metrics;
// the admin trigger endpoints are the only HTTP path that returns them.
var (
	ErrInvalidFrequency = &AppError{Code: "INVALID_FREQUENCY", Message: "Recurrence frequency is missing or unsupported", StatusCode: http.StatusBadRequest}
	ErrRecordNotFound   = &AppError{Code: "RECORD_NOT_FOUND", Message: "Referenced record no longer exists", StatusCode: http.StatusNotFound}
	ErrPersistence      = &AppError{Code: "PERSISTENCE_FAILURE", Message: "Failed to read or write records", StatusCode: http.StatusInternalServerError}
	ErrDispatch         = &AppError{Code: "DISPATCH_FAILURE", Message: "Failed to deliver notification", StatusCode: http.StatusBadGateway}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidCategory     = &AppError{Code: "INVALID_CATEGORY", Message: "Category must be INCOME or EXPENSE", StatusCode: http.StatusBadRequest}
	ErrNegativeAmount      = &AppError{Code: "NEGATIVE_AMOUNT", Message: "Amount must not be negative", StatusCode: http.StatusBadRequest}
)

// Budget errors.
var (
	ErrBudgetNotFound      = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrInvalidBudgetPeriod = &AppError{Code: "INVALID_BUDGET_PERIOD", Message: "Budget duration must be exactly 12 months", StatusCode: http.StatusBadRequest}
	ErrDuplicateBudget     = &AppError{Code: "DUPLICATE_BUDGET", Message: "This budget entry already exists", StatusCode: http.StatusConflict}
)

// Savings and goal errors.
var (
	ErrSavingsNotFound = &AppError{Code: "SAVINGS_NOT_FOUND", Message: "Savings not found", StatusCode: http.StatusNotFound}
	ErrGoalNotFound    = &AppError{Code: "GOAL_NOT_FOUND", Message: "Goal not found", StatusCode: http.StatusNotFound}
)

// Currency and report errors.
var (
	ErrInvalidCurrency  = &AppError{Code: "INVALID_CURRENCY", Message: "Unsupported currency code", StatusCode: http.StatusBadRequest}
	ErrRatesUnavailable = &AppError{Code: "RATES_UNAVAILABLE", Message: "Exchange rates are unavailable", StatusCode: http.StatusBadGateway}
	ErrReportGeneration = &AppError{Code: "REPORT_GENERATION_FAILED", Message: "Failed to generate report", StatusCode: http.StatusInternalServerError}
)

// Job errors.
var (
	ErrJobNotFound = &AppError{Code: "JOB_NOT_FOUND", Message: "Job not found", StatusCode: http.StatusNotFound}
	ErrJobRunning  = &AppError{Code: "JOB_RUNNING", Message: "Job is already running", StatusCode: http.StatusConflict}
	ErrJobFailed   = &AppError{Code: "JOB_FAILED", Message: "Job failed", StatusCode: http.StatusInternalServerError}
)

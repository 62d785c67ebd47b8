package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

// Reporter is the reporting surface the handler depends on.
type Reporter interface {
	Summary(ctx context.Context, userID string, year int) (*report.YearSummary, error)
	SpendingTrends(ctx context.Context, userID string, start, end time.Time) ([]report.DailyAmount, error)
	IncomeVsExpense(ctx context.Context, userID string, start, end time.Time) (map[models.Category]decimal.Decimal, error)
	FilterTransactions(ctx context.Context, userID string, f report.Filter, start, end time.Time) ([]models.Transaction, error)
	Export(ctx context.Context, userID string, year int) ([]byte, error)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves financial reports for the authenticated user.
type ReportHandler struct {
	reports      Reporter
	auditService services.AuditServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports Reporter, auditService services.AuditServicer) *ReportHandler {
	return &ReportHandler{reports: reports, auditService: auditService}
}

// GetSummary returns yearly income and expense totals next to their budgets.
// @Summary     Yearly summary
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       year query int false "Calendar year, defaults to the current year"
// @Success     200 {object} report.YearSummary
// @Failure     400 {object} ErrorResponse "Invalid year"
// @Router      /reports/summary [get]
func (h *ReportHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, err := parseYear(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.reports.Summary(c.Request.Context(), userID, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetSpendingTrends returns expenses per day within a range.
// @Summary     Spending trends
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       start query string true "Start (RFC3339 or YYYY-MM-DD)"
// @Param       end   query string true "End, a bare date is inclusive"
// @Success     200 {array} report.DailyAmount
// @Failure     400 {object} ErrorResponse "Invalid range"
// @Router      /reports/trends [get]
func (h *ReportHandler) GetSpendingTrends(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	trends, err := h.reports.SpendingTrends(c.Request.Context(), userID, start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trends": trends})
}

// GetIncomeVsExpense returns per-category totals within a range.
// @Summary     Income vs expense
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       start query string true "Start (RFC3339 or YYYY-MM-DD)"
// @Param       end   query string true "End, a bare date is inclusive"
// @Success     200 {object} map[string]string
// @Failure     400 {object} ErrorResponse "Invalid range"
// @Router      /reports/income-vs-expense [get]
func (h *ReportHandler) GetIncomeVsExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.reports.IncomeVsExpense(c.Request.Context(), userID, start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"totals": totals})
}

// GetTransactions returns the user's transactions in a range, optionally
// narrowed by category and tag.
// @Summary     Filtered transactions
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       start    query string true  "Start (RFC3339 or YYYY-MM-DD)"
// @Param       end      query string true  "End, a bare date is inclusive"
// @Param       category query string false "INCOME or EXPENSE"
// @Param       tag      query string false "Tag"
// @Success     200 {array} models.Transaction
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /reports/transactions [get]
func (h *ReportHandler) GetTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var filter report.Filter
	if v := c.Query("category"); v != "" {
		category := models.Category(strings.ToUpper(v))
		if !category.Valid() {
			respondWithError(c, apperrors.ErrInvalidCategory)
			return
		}
		filter.Category = &category
	}
	if v := c.Query("tag"); v != "" {
		filter.Tag = &v
	}

	txs, err := h.reports.FilterTransactions(c.Request.Context(), userID, filter, start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}

	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

// ExportReport streams the yearly report as an XLSX workbook.
// @Summary     Export report
// @Tags        reports
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Param       year query int false "Calendar year, defaults to the current year"
// @Success     200 {file} file
// @Failure     500 {object} ErrorResponse "Report generation failed"
// @Router      /reports/export [get]
func (h *ReportHandler) ExportReport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, err := parseYear(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	data, err := h.reports.Export(c.Request.Context(), userID, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "EXPORT_REPORT", "report", report.Filename(year), c.ClientIP(), nil)

	c.Header("Content-Disposition", `attachment; filename="`+report.Filename(year)+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

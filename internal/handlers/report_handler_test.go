package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/report"
)

func setupReportRouter(handler *ReportHandler) *gin.Engine {
	r := gin.New()
	r.Use(injectUserID(testUserID))
	r.GET("/reports/summary", handler.GetSummary)
	r.GET("/reports/trends", handler.GetSpendingTrends)
	r.GET("/reports/income-vs-expense", handler.GetIncomeVsExpense)
	r.GET("/reports/transactions", handler.GetTransactions)
	r.GET("/reports/export", handler.ExportReport)
	return r
}

func TestReportHandler_Summary(t *testing.T) {
	t.Run("uses the requested year", func(t *testing.T) {
		var gotYear int
		reports := &mockReporter{
			summaryFn: func(_ string, year int) (*report.YearSummary, error) {
				gotYear = year
				return &report.YearSummary{Year: year, TotalIncome: decimal.NewFromInt(3000)}, nil
			},
		}
		r := setupReportRouter(NewReportHandler(reports, &mockAuditService{}))

		rec := doRequest(r, "GET", "/reports/summary?year=2024", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotYear != 2024 {
			t.Errorf("expected 2024, got %d", gotYear)
		}
	})

	t.Run("returns 400 on invalid year", func(t *testing.T) {
		r := setupReportRouter(NewReportHandler(&mockReporter{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/reports/summary?year=twenty", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestReportHandler_Ranges(t *testing.T) {
	t.Run("date-only end covers the whole day", func(t *testing.T) {
		var gotStart, gotEnd time.Time
		reports := &mockReporter{
			trendsFn: func(_ string, start, end time.Time) ([]report.DailyAmount, error) {
				gotStart, gotEnd = start, end
				return []report.DailyAmount{{Date: "2025-02-10", Amount: decimal.NewFromInt(40)}}, nil
			},
		}
		r := setupReportRouter(NewReportHandler(reports, &mockAuditService{}))

		rec := doRequest(r, "GET", "/reports/trends?start=2025-02-01&end=2025-02-28", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !gotStart.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected start %v", gotStart)
		}
		if !gotEnd.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected end %v", gotEnd)
		}
	})

	t.Run("returns 400 without range", func(t *testing.T) {
		r := setupReportRouter(NewReportHandler(&mockReporter{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/reports/income-vs-expense?start=2025-01-01", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on reversed range", func(t *testing.T) {
		r := setupReportRouter(NewReportHandler(&mockReporter{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/reports/trends?start=2025-03-01T00:00:00Z&end=2025-02-01T00:00:00Z", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("transactions passes category and tag", func(t *testing.T) {
		var got report.Filter
		reports := &mockReporter{
			filterFn: func(_ string, f report.Filter, _, _ time.Time) ([]models.Transaction, error) {
				got = f
				return nil, nil
			},
		}
		r := setupReportRouter(NewReportHandler(reports, &mockAuditService{}))

		rec := doRequest(r, "GET", "/reports/transactions?start=2025-01-01&end=2025-12-31&category=expense&tag=food", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Category == nil || *got.Category != models.CategoryExpense {
			t.Errorf("expected EXPENSE, got %v", got.Category)
		}
		if got.Tag == nil || *got.Tag != "food" {
			t.Errorf("expected tag food, got %v", got.Tag)
		}
		if txs, ok := parseJSON(t, rec)["transactions"].([]interface{}); !ok || len(txs) != 0 {
			t.Errorf("expected empty transactions array, got %v", txs)
		}
	})
}

func TestReportHandler_Export(t *testing.T) {
	t.Run("returns an xlsx attachment", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupReportRouter(NewReportHandler(&mockReporter{}, audit))

		rec := doRequest(r, "GET", "/reports/export?year=2025", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != xlsxContentType {
			t.Errorf("unexpected content type %q", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="Financial_Report_2025.xlsx"` {
			t.Errorf("unexpected disposition %q", cd)
		}
		if rec.Body.String() != "xlsx" {
			t.Errorf("unexpected body %q", rec.Body.String())
		}
		if len(audit.entries) != 1 || audit.entries[0].action != "EXPORT_REPORT" {
			t.Errorf("unexpected audit entries %+v", audit.entries)
		}
	})

	t.Run("returns 500 when generation fails", func(t *testing.T) {
		reports := &mockReporter{
			exportFn: func(string, int) ([]byte, error) { return nil, apperrors.ErrReportGeneration },
		}
		r := setupReportRouter(NewReportHandler(reports, &mockAuditService{}))

		rec := doRequest(r, "GET", "/reports/export?year=2025", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "REPORT_GENERATION_FAILED")
	})
}

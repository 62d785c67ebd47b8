package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/services"
)

// SheetName is the worksheet holding the financial report.
const SheetName = "Financial Report"

// Filename returns the download name of a year's report.
func Filename(year int) string {
	return fmt.Sprintf("Financial_Report_%d.xlsx", year)
}

// Export builds the spreadsheet for the user's year. When the service has a
// report directory the file is also written there.
func (s *Service) Export(ctx context.Context, userID string, year int) ([]byte, error) {
	summary, err := s.Summary(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	start, end := services.YearWindow(year)
	trends, err := s.SpendingTrends(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, summary, trends); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrReportGeneration, err)
	}

	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrReportGeneration, err)
		}
		path := filepath.Join(s.dir, userID+"_"+Filename(year))
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrReportGeneration, err)
		}
		logger.Get().Infow("report saved", "user_id", userID, "year", year, "path", path)
	}
	return buf.Bytes(), nil
}

// WriteXLSX writes a workbook with the year's totals under a bold
// Metric/Amount header, followed by a Date/Amount block of daily spending.
func WriteXLSX(w io.Writer, summary *YearSummary, trends []DailyAmount) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Metric", "Amount"},
		{"Total Income", summary.TotalIncome.InexactFloat64()},
		{"Total Expense", summary.TotalExpense.InexactFloat64()},
		{"Budgeted Income", summary.BudgetedIncome.InexactFloat64()},
		{"Budgeted Expense", summary.BudgetedExpense.InexactFloat64()},
		{},
		{"Spending Trends"},
		{"Date", "Amount"},
	}
	for _, t := range trends {
		rows = append(rows, []interface{}{t.Date, t.Amount.InexactFloat64()})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}

	for _, cell := range []string{"A1", "B1", "A7", "A8", "B8"} {
		if err := f.SetCellStyle(SheetName, cell, cell, bold); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SheetName, "A", "B", 20); err != nil {
		return err
	}

	return f.Write(w)
}

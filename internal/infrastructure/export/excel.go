// Package export renders expense history into downloadable reports.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

const sheetName = "Expenses"

var header = []string{
	"ID", "Employee ID", "Amount", "Currency", "Converted Amount",
	"Category", "Description", "Date", "Status", "Submitted At",
}

// ExcelWriter renders expense lists as xlsx workbooks.
type ExcelWriter struct {
	logger *zap.Logger
}

// NewExcelWriter creates a new Excel report writer
func NewExcelWriter(logger *zap.Logger) *ExcelWriter {
	return &ExcelWriter{logger: logger}
}

// Write renders the expenses as a single-sheet workbook onto w.
func (e *ExcelWriter) Write(w io.Writer, companyCurrency string, expenses []*entity.Expense) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to build header cell: %w", err)
		}
		if title == "Converted Amount" {
			title = fmt.Sprintf("Converted Amount (%s)", companyCurrency)
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return fmt.Errorf("failed to set header cell: %w", err)
		}
	}

	for row, expense := range expenses {
		values := []interface{}{
			expense.ID,
			expense.EmployeeID,
			expense.Amount,
			expense.Currency,
			expense.ConvertedAmount,
			expense.Category,
			expense.Description,
			expense.Date.Format("2006-01-02"),
			expense.Status,
			expense.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return fmt.Errorf("failed to build cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("failed to set cell: %w", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Expense report written", zap.Int("rows", len(expenses)))
	return nil
}

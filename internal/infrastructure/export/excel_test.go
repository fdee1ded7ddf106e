package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

func TestWrite(t *testing.T) {
	expenses := []*entity.Expense{
		{
			ID:              1,
			EmployeeID:      7,
			Amount:          120.50,
			Currency:        "EUR",
			ConvertedAmount: 132.55,
			Category:        entity.CategoryTravel,
			Description:     "Berlin conference flight",
			Date:            time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			Status:          entity.ExpenseStatusApproved,
			CreatedAt:       time.Date(2025, 3, 11, 9, 30, 0, 0, time.UTC),
		},
		{
			ID:              2,
			EmployeeID:      7,
			Amount:          40,
			Currency:        "USD",
			ConvertedAmount: 40,
			Category:        entity.CategoryFood,
			Description:     "Team lunch",
			Date:            time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
			Status:          entity.ExpenseStatusPending,
			CreatedAt:       time.Date(2025, 3, 12, 13, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	err := NewExcelWriter(zap.NewNop()).Write(&buf, "USD", expenses)
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Converted Amount (USD)", rows[0][4])
	assert.Equal(t, "Berlin conference flight", rows[1][6])
	assert.Equal(t, "2025-03-10", rows[1][7])
	assert.Equal(t, entity.ExpenseStatusPending, rows[2][8])
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	err := NewExcelWriter(zap.NewNop()).Write(&buf, "USD", nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

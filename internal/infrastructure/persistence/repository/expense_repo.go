package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
	"github.com/expenseflow/expenseflow/internal/infrastructure/persistence/sqlite"
)

// ExpenseRepository implements port.ExpenseRepository. The expense row,
// its approval entries and its comments form one aggregate; Update
// rewrites the child rows so the stored aggregate always mirrors the
// in-memory one.
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) port.ExpenseRepository {
	return &ExpenseRepository{db: db, logger: logger}
}

// Create inserts a new expense with its approval entries and comments
func (r *ExpenseRepository) Create(ctx context.Context, expense *entity.Expense) error {
	query := `
		INSERT INTO expenses
			(employee_id, company_id, amount, currency, converted_amount,
			 category, description, date, receipt_url, status, current_approval_level)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	ex := sqlite.Executor(ctx, r.db)
	result, err := ex.ExecContext(ctx, query,
		expense.EmployeeID, expense.CompanyID, expense.Amount, expense.Currency,
		expense.ConvertedAmount, expense.Category, expense.Description, expense.Date,
		expense.ReceiptURL, expense.Status, expense.CurrentApprovalLevel)
	if err != nil {
		r.logger.Error("Failed to create expense", zap.Int64("employee_id", expense.EmployeeID), zap.Error(err))
		return fmt.Errorf("failed to create expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	expense.ID = id

	if err := r.insertApprovals(ctx, ex, expense); err != nil {
		return err
	}
	return r.insertComments(ctx, ex, expense)
}

// GetByID retrieves an expense with its approvals and comments
func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*entity.Expense, error) {
	query := selectExpense + ` WHERE id = ?`

	ex := sqlite.Executor(ctx, r.db)
	expense, err := scanExpense(ex.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: expense %d", entity.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	if err := r.loadChildren(ctx, ex, []*entity.Expense{expense}); err != nil {
		return nil, err
	}
	return expense, nil
}

// Update rewrites an expense aggregate. The expense row is updated in
// place; approval and comment rows are deleted and reinserted so
// position ordering and new comments always come out consistent.
func (r *ExpenseRepository) Update(ctx context.Context, expense *entity.Expense) error {
	query := `
		UPDATE expenses
		SET amount = ?, currency = ?, converted_amount = ?, category = ?,
		    description = ?, date = ?, receipt_url = ?, status = ?,
		    current_approval_level = ?, updated_at = ?
		WHERE id = ?
	`

	ex := sqlite.Executor(ctx, r.db)
	result, err := ex.ExecContext(ctx, query,
		expense.Amount, expense.Currency, expense.ConvertedAmount, expense.Category,
		expense.Description, expense.Date, expense.ReceiptURL, expense.Status,
		expense.CurrentApprovalLevel, time.Now().UTC(), expense.ID)
	if err != nil {
		r.logger.Error("Failed to update expense", zap.Int64("expense_id", expense.ID), zap.Error(err))
		return fmt.Errorf("failed to update expense: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: expense %d", entity.ErrNotFound, expense.ID)
	}

	if _, err := ex.ExecContext(ctx, `DELETE FROM expense_approvals WHERE expense_id = ?`, expense.ID); err != nil {
		return fmt.Errorf("failed to clear expense approvals: %w", err)
	}
	if _, err := ex.ExecContext(ctx, `DELETE FROM expense_comments WHERE expense_id = ?`, expense.ID); err != nil {
		return fmt.Errorf("failed to clear expense comments: %w", err)
	}
	if err := r.insertApprovals(ctx, ex, expense); err != nil {
		return err
	}
	return r.insertComments(ctx, ex, expense)
}

// ListByEmployee retrieves all expenses submitted by one employee,
// newest first
func (r *ExpenseRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]*entity.Expense, error) {
	query := selectExpense + ` WHERE employee_id = ? ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, employeeID)
}

// ListByEmployees retrieves expenses submitted by any of the given
// employees, filtered and newest first
func (r *ExpenseRepository) ListByEmployees(ctx context.Context, employeeIDs []int64, filter port.ExpenseFilter) ([]*entity.Expense, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(employeeIDs)-1) + "?"
	args := make([]interface{}, 0, len(employeeIDs)+4)
	for _, id := range employeeIDs {
		args = append(args, id)
	}

	where, args := appendFilter("employee_id IN ("+placeholders+")", args, filter)
	query := selectExpense + ` WHERE ` + where + ` ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, args...)
}

// ListByCompany retrieves all expenses in a company, filtered and
// newest first
func (r *ExpenseRepository) ListByCompany(ctx context.Context, companyID int64, filter port.ExpenseFilter) ([]*entity.Expense, error) {
	where, args := appendFilter("company_id = ?", []interface{}{companyID}, filter)
	query := selectExpense + ` WHERE ` + where + ` ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, args...)
}

// ListPendingForApprover retrieves expenses in review on which the
// given user still holds a pending approval entry
func (r *ExpenseRepository) ListPendingForApprover(ctx context.Context, companyID, approverID int64) ([]*entity.Expense, error) {
	query := selectExpense + `
		WHERE company_id = ?
		  AND status = ?
		  AND id IN (
			SELECT expense_id FROM expense_approvals
			WHERE approver_id = ? AND status = ?
		  )
		ORDER BY created_at, id
	`
	return r.list(ctx, query, companyID, entity.ExpenseStatusInReview, approverID, entity.ApprovalStatusPending)
}

func (r *ExpenseRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Expense, error) {
	ex := sqlite.Executor(ctx, r.db)
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*entity.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	if err := r.loadChildren(ctx, ex, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (r *ExpenseRepository) insertApprovals(ctx context.Context, ex sqlite.Queryer, expense *entity.Expense) error {
	query := `
		INSERT INTO expense_approvals (expense_id, position, approver_id, status, comment, decided_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for i := range expense.Approvals {
		a := &expense.Approvals[i]
		result, err := ex.ExecContext(ctx, query,
			expense.ID, i, a.ApproverID, a.Status, a.Comment, a.DecidedAt)
		if err != nil {
			return fmt.Errorf("failed to insert approval: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		a.ID = id
	}
	return nil
}

func (r *ExpenseRepository) insertComments(ctx context.Context, ex sqlite.Queryer, expense *entity.Expense) error {
	query := `
		INSERT INTO expense_comments (expense_id, user_id, comment, created_at)
		VALUES (?, ?, ?, ?)
	`
	for i := range expense.Comments {
		c := &expense.Comments[i]
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now().UTC()
		}
		result, err := ex.ExecContext(ctx, query, expense.ID, c.UserID, c.Body, c.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert comment: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		c.ID = id
	}
	return nil
}

func (r *ExpenseRepository) loadChildren(ctx context.Context, ex sqlite.Queryer, expenses []*entity.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	byID := make(map[int64]*entity.Expense, len(expenses))
	placeholders := make([]string, 0, len(expenses))
	args := make([]interface{}, 0, len(expenses))
	for _, e := range expenses {
		byID[e.ID] = e
		placeholders = append(placeholders, "?")
		args = append(args, e.ID)
	}
	in := strings.Join(placeholders, ", ")

	rows, err := ex.QueryContext(ctx, `
		SELECT id, expense_id, approver_id, status, comment, decided_at
		FROM expense_approvals
		WHERE expense_id IN (`+in+`)
		ORDER BY expense_id, position
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to load approvals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			a         entity.Approval
			expenseID int64
		)
		if err := rows.Scan(&a.ID, &expenseID, &a.ApproverID, &a.Status, &a.Comment, &a.DecidedAt); err != nil {
			return fmt.Errorf("failed to scan approval: %w", err)
		}
		byID[expenseID].Approvals = append(byID[expenseID].Approvals, a)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate approvals: %w", err)
	}

	commentRows, err := ex.QueryContext(ctx, `
		SELECT id, expense_id, user_id, comment, created_at
		FROM expense_comments
		WHERE expense_id IN (`+in+`)
		ORDER BY expense_id, created_at, id
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to load comments: %w", err)
	}
	defer commentRows.Close()
	for commentRows.Next() {
		var (
			c         entity.Comment
			expenseID int64
		)
		if err := commentRows.Scan(&c.ID, &expenseID, &c.UserID, &c.Body, &c.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan comment: %w", err)
		}
		byID[expenseID].Comments = append(byID[expenseID].Comments, c)
	}
	if err := commentRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate comments: %w", err)
	}
	return nil
}

const selectExpense = `
	SELECT id, employee_id, company_id, amount, currency, converted_amount,
	       category, description, date, receipt_url, status,
	       current_approval_level, created_at, updated_at
	FROM expenses
`

func scanExpense(row rowScanner) (*entity.Expense, error) {
	var expense entity.Expense
	err := row.Scan(
		&expense.ID,
		&expense.EmployeeID,
		&expense.CompanyID,
		&expense.Amount,
		&expense.Currency,
		&expense.ConvertedAmount,
		&expense.Category,
		&expense.Description,
		&expense.Date,
		&expense.ReceiptURL,
		&expense.Status,
		&expense.CurrentApprovalLevel,
		&expense.CreatedAt,
		&expense.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func appendFilter(where string, args []interface{}, filter port.ExpenseFilter) (string, []interface{}) {
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		where += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.StartDate != nil {
		where += " AND date >= ?"
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		where += " AND date <= ?"
		args = append(args, *filter.EndDate)
	}
	return where, args
}

package port

import (
	"context"
	"time"

	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// CompanyRepository defines persistence operations for Company
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id int64) (*entity.Company, error)
}

// UserRepository defines persistence operations for User
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*entity.User, error)
	ListByManager(ctx context.Context, managerID int64) ([]*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
}

// RuleRepository defines persistence operations for ApprovalRule
type RuleRepository interface {
	Create(ctx context.Context, rule *entity.ApprovalRule) error
	GetByID(ctx context.Context, id, companyID int64) (*entity.ApprovalRule, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error)

	// ListActiveByCompany returns active rules ordered by creation time,
	// oldest first. The selector depends on this ordering.
	ListActiveByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error)

	Update(ctx context.Context, rule *entity.ApprovalRule) error
	Delete(ctx context.Context, id, companyID int64) error
}

// ExpenseFilter narrows expense history queries.
type ExpenseFilter struct {
	Status    string
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
}

// ExpenseRepository defines persistence operations for the Expense
// aggregate. Approvals and comments are loaded and saved with the expense;
// they never move independently.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *entity.Expense) error
	GetByID(ctx context.Context, id int64) (*entity.Expense, error)
	Update(ctx context.Context, expense *entity.Expense) error
	ListByEmployee(ctx context.Context, employeeID int64) ([]*entity.Expense, error)
	ListByEmployees(ctx context.Context, employeeIDs []int64, filter ExpenseFilter) ([]*entity.Expense, error)
	ListByCompany(ctx context.Context, companyID int64, filter ExpenseFilter) ([]*entity.Expense, error)

	// ListPendingForApprover returns expenses in review on which the given
	// user still holds a Pending approval entry.
	ListPendingForApprover(ctx context.Context, companyID, approverID int64) ([]*entity.Expense, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/expenseflow/expenseflow/internal/application/dispatcher"
	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
	"github.com/expenseflow/expenseflow/internal/domain/event"
	"github.com/expenseflow/expenseflow/internal/domain/routing"
	"github.com/expenseflow/expenseflow/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// CreateExpenseInput carries the fields of a new expense submission.
// Amount is in the submitted currency; conversion into the company
// currency happens before rule matching.
type CreateExpenseInput struct {
	Amount      float64
	Currency    string
	Category    string
	Description string
	Date        time.Time
	ReceiptURL  string
}

// ExpenseService owns the expense lifecycle: creation with approval
// routing, approve/reject transitions and role-scoped queries.
type ExpenseService interface {
	Create(ctx context.Context, actor *entity.User, input CreateExpenseInput) (*entity.Expense, error)
	Get(ctx context.Context, id int64, actor *entity.User) (*entity.Expense, error)
	Approve(ctx context.Context, id int64, actor *entity.User, comment string) (*entity.Expense, error)
	Reject(ctx context.Context, id int64, actor *entity.User, comment string) (*entity.Expense, error)
	ListMine(ctx context.Context, actor *entity.User) ([]*entity.Expense, error)
	ListPendingApprovals(ctx context.Context, actor *entity.User) ([]*entity.Expense, error)
	ListTeam(ctx context.Context, actor *entity.User) ([]*entity.Expense, error)
	ListForRole(ctx context.Context, actor *entity.User, filter port.ExpenseFilter) ([]*entity.Expense, error)
}

type expenseServiceImpl struct {
	expenseRepo port.ExpenseRepository
	ruleRepo    port.RuleRepository
	userRepo    port.UserRepository
	companyRepo port.CompanyRepository
	txManager   port.TransactionManager
	converter   port.CurrencyConverter
	events      dispatcher.Dispatcher
	logger      Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	expenseRepo port.ExpenseRepository,
	ruleRepo port.RuleRepository,
	userRepo port.UserRepository,
	companyRepo port.CompanyRepository,
	txManager port.TransactionManager,
	converter port.CurrencyConverter,
	events dispatcher.Dispatcher,
	logger Logger,
) ExpenseService {
	return &expenseServiceImpl{
		expenseRepo: expenseRepo,
		ruleRepo:    ruleRepo,
		userRepo:    userRepo,
		companyRepo: companyRepo,
		txManager:   txManager,
		converter:   converter,
		events:      events,
		logger:      logger,
	}
}

// Create converts the amount into the company currency, selects the
// applicable approval rule, materializes the approval chain and persists
// the expense. An expense that received approvals starts In Review;
// otherwise it stays Pending with no action required.
func (s *expenseServiceImpl) Create(ctx context.Context, actor *entity.User, input CreateExpenseInput) (*entity.Expense, error) {
	if err := validateExpenseInput(input); err != nil {
		return nil, err
	}

	company, err := s.companyRepo.GetByID(ctx, actor.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("load company: %w", err)
	}

	converted, err := s.converter.Convert(ctx, input.Amount, input.Currency, company.Currency)
	if err != nil {
		// Conversion is best-effort; treat amounts as equal on failure.
		s.logger.Error("Currency conversion failed, using original amount",
			"error", err, "from", input.Currency, "to", company.Currency)
		converted = input.Amount
	}

	expense := &entity.Expense{
		EmployeeID:      actor.ID,
		CompanyID:       actor.CompanyID,
		Amount:          input.Amount,
		Currency:        input.Currency,
		ConvertedAmount: converted,
		Category:        input.Category,
		Description:     input.Description,
		Date:            input.Date,
		ReceiptURL:      input.ReceiptURL,
		Status:          entity.ExpenseStatusPending,
	}

	rules, err := s.ruleRepo.ListActiveByCompany(ctx, actor.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	resolved := routing.SelectRule(expense, rules, actor.ManagerID)
	approvals := routing.BuildApprovals(resolved)

	if len(approvals) > 0 {
		machine, err := workflow.NewExpenseMachine(workflow.StatePending)
		if err != nil {
			return nil, err
		}
		if err := machine.Fire(workflow.TriggerRoute); err != nil {
			return nil, err
		}
		expense.Approvals = approvals
		expense.Status = machine.State().String()
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.expenseRepo.Create(txCtx, expense)
	})
	if err != nil {
		s.logger.Error("Failed to create expense", "error", err, "employee_id", actor.ID)
		return nil, err
	}

	s.logger.Info("Expense created",
		"id", expense.ID,
		"status", expense.Status,
		"approvals", len(expense.Approvals),
		"converted_amount", expense.ConvertedAmount)

	s.dispatch(ctx, event.New(event.TypeExpenseCreated, expense.ID, expense.CompanyID, map[string]interface{}{
		"status": expense.Status,
	}).WithActor(actor.ID))

	return expense, nil
}

// Get returns a single expense. Employees may only read their own.
func (s *expenseServiceImpl) Get(ctx context.Context, id int64, actor *entity.User) (*entity.Expense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.CompanyID != actor.CompanyID {
		return nil, entity.ErrNotFound
	}
	if actor.Role == entity.RoleEmployee && expense.EmployeeID != actor.ID {
		return nil, entity.ErrUnauthorized
	}
	return expense, nil
}

// Approve records an approval decision. Admins force-approve: every still
// pending entry flips to Approved in one call, bypassing ordering. A
// regular approver flips only their own first Pending entry; the expense
// becomes Approved once every entry is, otherwise the progress counter
// advances and the expense stays In Review.
func (s *expenseServiceImpl) Approve(ctx context.Context, id int64, actor *entity.User, comment string) (*entity.Expense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.CompanyID != actor.CompanyID {
		return nil, entity.ErrNotFound
	}

	idx := expense.PendingApprovalFor(actor.ID)
	if idx == -1 && !actor.IsAdmin() {
		// Also covers acting twice: a decided entry never matches again.
		return nil, fmt.Errorf("%w: no pending approval for user %d on expense %d", entity.ErrUnauthorized, actor.ID, id)
	}

	now := time.Now()
	approved := false

	if actor.IsAdmin() {
		machine, merr := workflow.NewExpenseMachine(workflow.State(expense.Status))
		if merr != nil {
			return nil, merr
		}
		if err := machine.Fire(workflow.TriggerApprove); err != nil {
			return nil, err
		}
		for i := range expense.Approvals {
			if expense.Approvals[i].Status == entity.ApprovalStatusPending {
				expense.Approvals[i].Status = entity.ApprovalStatusApproved
				expense.Approvals[i].DecidedAt = &now
			}
		}
		expense.Status = machine.State().String()
		approved = true
	} else {
		expense.Approvals[idx].Status = entity.ApprovalStatusApproved
		expense.Approvals[idx].Comment = comment
		expense.Approvals[idx].DecidedAt = &now

		if expense.AllApproved() {
			machine, merr := workflow.NewExpenseMachine(workflow.State(expense.Status))
			if merr != nil {
				return nil, merr
			}
			if err := machine.Fire(workflow.TriggerApprove); err != nil {
				return nil, err
			}
			expense.Status = machine.State().String()
			approved = true
		} else {
			expense.CurrentApprovalLevel++
		}
	}

	if comment != "" {
		expense.Comments = append(expense.Comments, entity.Comment{
			UserID:    actor.ID,
			Body:      comment,
			CreatedAt: now,
		})
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.expenseRepo.Update(txCtx, expense)
	})
	if err != nil {
		s.logger.Error("Failed to record approval", "error", err, "expense_id", id, "actor_id", actor.ID)
		return nil, err
	}

	s.logger.Info("Expense approval recorded",
		"expense_id", id, "actor_id", actor.ID, "status", expense.Status)

	if approved {
		s.dispatch(ctx, event.New(event.TypeExpenseApproved, expense.ID, expense.CompanyID, nil).WithActor(actor.ID))
	} else {
		s.dispatch(ctx, event.New(event.TypeStatusChanged, expense.ID, expense.CompanyID, map[string]interface{}{
			"status": expense.Status,
			"level":  expense.CurrentApprovalLevel,
		}).WithActor(actor.ID))
	}

	return expense, nil
}

// Reject records a rejection. The comment is mandatory. A single
// rejection ends the whole chain immediately regardless of remaining
// pending entries; an admin with no personal entry still rejects the
// expense without marking any individual approval.
func (s *expenseServiceImpl) Reject(ctx context.Context, id int64, actor *entity.User, comment string) (*entity.Expense, error) {
	if comment == "" {
		return nil, fmt.Errorf("%w: comment is required when rejecting", entity.ErrValidation)
	}

	expense, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.CompanyID != actor.CompanyID {
		return nil, entity.ErrNotFound
	}

	idx := expense.PendingApprovalFor(actor.ID)
	if idx == -1 && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: no pending approval for user %d on expense %d", entity.ErrUnauthorized, actor.ID, id)
	}

	machine, merr := workflow.NewExpenseMachine(workflow.State(expense.Status))
	if merr != nil {
		return nil, merr
	}
	if err := machine.Fire(workflow.TriggerReject); err != nil {
		return nil, err
	}

	now := time.Now()
	if idx != -1 {
		expense.Approvals[idx].Status = entity.ApprovalStatusRejected
		expense.Approvals[idx].Comment = comment
		expense.Approvals[idx].DecidedAt = &now
	}
	expense.Status = machine.State().String()
	expense.Comments = append(expense.Comments, entity.Comment{
		UserID:    actor.ID,
		Body:      comment,
		CreatedAt: now,
	})

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.expenseRepo.Update(txCtx, expense)
	})
	if err != nil {
		s.logger.Error("Failed to record rejection", "error", err, "expense_id", id, "actor_id", actor.ID)
		return nil, err
	}

	s.logger.Info("Expense rejected", "expense_id", id, "actor_id", actor.ID)

	s.dispatch(ctx, event.New(event.TypeExpenseRejected, expense.ID, expense.CompanyID, map[string]interface{}{
		"comment": comment,
	}).WithActor(actor.ID))

	return expense, nil
}

// ListMine returns the actor's own expenses, newest first.
func (s *expenseServiceImpl) ListMine(ctx context.Context, actor *entity.User) ([]*entity.Expense, error) {
	return s.expenseRepo.ListByEmployee(ctx, actor.ID)
}

// ListPendingApprovals returns expenses in review awaiting the actor's
// decision.
func (s *expenseServiceImpl) ListPendingApprovals(ctx context.Context, actor *entity.User) ([]*entity.Expense, error) {
	if !actor.CanApprove() {
		return nil, entity.ErrUnauthorized
	}
	return s.expenseRepo.ListPendingForApprover(ctx, actor.CompanyID, actor.ID)
}

// ListTeam returns expenses submitted by the actor's direct reports.
func (s *expenseServiceImpl) ListTeam(ctx context.Context, actor *entity.User) ([]*entity.Expense, error) {
	if !actor.CanApprove() {
		return nil, entity.ErrUnauthorized
	}
	members, err := s.userRepo.ListByManager(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	if len(ids) == 0 {
		return []*entity.Expense{}, nil
	}
	return s.expenseRepo.ListByEmployees(ctx, ids, port.ExpenseFilter{})
}

// ListForRole returns filtered expense history scoped to what the actor's
// role may see: employees their own, managers their team plus themselves,
// admins the whole company.
func (s *expenseServiceImpl) ListForRole(ctx context.Context, actor *entity.User, filter port.ExpenseFilter) ([]*entity.Expense, error) {
	switch actor.Role {
	case entity.RoleEmployee:
		return s.expenseRepo.ListByEmployees(ctx, []int64{actor.ID}, filter)
	case entity.RoleManager:
		members, err := s.userRepo.ListByManager(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		ids := make([]int64, 0, len(members)+1)
		for _, m := range members {
			ids = append(ids, m.ID)
		}
		ids = append(ids, actor.ID)
		return s.expenseRepo.ListByEmployees(ctx, ids, filter)
	default:
		return s.expenseRepo.ListByCompany(ctx, actor.CompanyID, filter)
	}
}

func (s *expenseServiceImpl) dispatch(ctx context.Context, evt *event.Event) {
	if s.events != nil {
		s.events.DispatchAsync(ctx, evt)
	}
}

func validateExpenseInput(input CreateExpenseInput) error {
	if input.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", entity.ErrValidation)
	}
	if input.Currency == "" {
		return fmt.Errorf("%w: currency is required", entity.ErrValidation)
	}
	if !entity.ValidCategory(input.Category) {
		return fmt.Errorf("%w: unknown category %q", entity.ErrValidation, input.Category)
	}
	if input.Description == "" {
		return fmt.Errorf("%w: description is required", entity.ErrValidation)
	}
	if input.Date.IsZero() {
		return fmt.Errorf("%w: date is required", entity.ErrValidation)
	}
	return nil
}

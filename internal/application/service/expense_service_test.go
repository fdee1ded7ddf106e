package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
	"github.com/expenseflow/expenseflow/internal/domain/workflow"
)

// Mock repositories

type mockExpenseRepo struct {
	createFunc  func(ctx context.Context, expense *entity.Expense) error
	getByIDFunc func(ctx context.Context, id int64) (*entity.Expense, error)
	updateFunc  func(ctx context.Context, expense *entity.Expense) error

	updated *entity.Expense
}

func (m *mockExpenseRepo) Create(ctx context.Context, expense *entity.Expense) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, expense)
	}
	expense.ID = 1
	return nil
}

func (m *mockExpenseRepo) GetByID(ctx context.Context, id int64) (*entity.Expense, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, entity.ErrNotFound
}

func (m *mockExpenseRepo) Update(ctx context.Context, expense *entity.Expense) error {
	m.updated = expense
	if m.updateFunc != nil {
		return m.updateFunc(ctx, expense)
	}
	return nil
}

func (m *mockExpenseRepo) ListByEmployee(ctx context.Context, employeeID int64) ([]*entity.Expense, error) {
	return []*entity.Expense{}, nil
}

func (m *mockExpenseRepo) ListByEmployees(ctx context.Context, employeeIDs []int64, filter port.ExpenseFilter) ([]*entity.Expense, error) {
	return []*entity.Expense{}, nil
}

func (m *mockExpenseRepo) ListByCompany(ctx context.Context, companyID int64, filter port.ExpenseFilter) ([]*entity.Expense, error) {
	return []*entity.Expense{}, nil
}

func (m *mockExpenseRepo) ListPendingForApprover(ctx context.Context, companyID, approverID int64) ([]*entity.Expense, error) {
	return []*entity.Expense{}, nil
}

type mockRuleRepo struct {
	listActiveFunc func(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error)
}

func (m *mockRuleRepo) Create(ctx context.Context, rule *entity.ApprovalRule) error { return nil }

func (m *mockRuleRepo) GetByID(ctx context.Context, id, companyID int64) (*entity.ApprovalRule, error) {
	return nil, entity.ErrNotFound
}

func (m *mockRuleRepo) ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
	return []*entity.ApprovalRule{}, nil
}

func (m *mockRuleRepo) ListActiveByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
	if m.listActiveFunc != nil {
		return m.listActiveFunc(ctx, companyID)
	}
	return []*entity.ApprovalRule{}, nil
}

func (m *mockRuleRepo) Update(ctx context.Context, rule *entity.ApprovalRule) error { return nil }
func (m *mockRuleRepo) Delete(ctx context.Context, id, companyID int64) error       { return nil }

type mockUserRepo struct {
	getByIDFunc       func(ctx context.Context, id int64) (*entity.User, error)
	getByEmailFunc    func(ctx context.Context, email string) (*entity.User, error)
	listByManagerFunc func(ctx context.Context, managerID int64) ([]*entity.User, error)
	created           []*entity.User
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	user.ID = int64(len(m.created) + 1)
	m.created = append(m.created, user)
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.User{ID: id, CompanyID: 1, Role: entity.RoleManager}, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, entity.ErrNotFound
}

func (m *mockUserRepo) ListByCompany(ctx context.Context, companyID int64) ([]*entity.User, error) {
	return []*entity.User{}, nil
}

func (m *mockUserRepo) ListByManager(ctx context.Context, managerID int64) ([]*entity.User, error) {
	if m.listByManagerFunc != nil {
		return m.listByManagerFunc(ctx, managerID)
	}
	return []*entity.User{}, nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *entity.User) error { return nil }

type mockCompanyRepo struct {
	created []*entity.Company
}

func (m *mockCompanyRepo) Create(ctx context.Context, company *entity.Company) error {
	company.ID = int64(len(m.created) + 1)
	m.created = append(m.created, company)
	return nil
}

func (m *mockCompanyRepo) GetByID(ctx context.Context, id int64) (*entity.Company, error) {
	return &entity.Company{ID: id, Currency: "USD"}, nil
}

type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockConverter struct {
	convertFunc func(ctx context.Context, amount float64, from, to string) (float64, error)
}

func (m *mockConverter) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	if m.convertFunc != nil {
		return m.convertFunc(ctx, amount, from, to)
	}
	return amount, nil
}

func (m *mockConverter) Rates(ctx context.Context, base string) (map[string]float64, error) {
	return map[string]float64{}, nil
}

type mockLogger struct{}

func (mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (mockLogger) Error(msg string, keysAndValues ...interface{}) {}

func newTestService(expenseRepo *mockExpenseRepo, ruleRepo *mockRuleRepo, userRepo *mockUserRepo) ExpenseService {
	return NewExpenseService(
		expenseRepo,
		ruleRepo,
		userRepo,
		&mockCompanyRepo{},
		&mockTxManager{},
		&mockConverter{},
		nil,
		mockLogger{},
	)
}

func employee(id int64, managerID *int64) *entity.User {
	return &entity.User{ID: id, CompanyID: 1, Role: entity.RoleEmployee, ManagerID: managerID}
}

func manager(id int64) *entity.User {
	return &entity.User{ID: id, CompanyID: 1, Role: entity.RoleManager}
}

func admin(id int64) *entity.User {
	return &entity.User{ID: id, CompanyID: 1, Role: entity.RoleAdmin}
}

func validInput() CreateExpenseInput {
	return CreateExpenseInput{
		Amount:      500,
		Currency:    "USD",
		Category:    entity.CategoryTravel,
		Description: "client visit",
		Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func maxAmount(v float64) *float64 { return &v }

func TestExpenseService_Create_RuleMatchEntersReview(t *testing.T) {
	// convertedAmount=500 against rule minAmount=0 maxAmount=1000, all categories
	expenseRepo := &mockExpenseRepo{}
	ruleRepo := &mockRuleRepo{
		listActiveFunc: func(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
			return []*entity.ApprovalRule{{
				ID:        1,
				Type:      entity.RuleTypeSequential,
				Sequence:  []entity.SequenceStep{{Level: 0, ApproverID: 10}, {Level: 1, ApproverID: 20}},
				MinAmount: 0,
				MaxAmount: maxAmount(1000),
				IsActive:  true,
			}}, nil
		},
	}

	svc := newTestService(expenseRepo, ruleRepo, &mockUserRepo{})
	expense, err := svc.Create(context.Background(), employee(5, nil), validInput())

	require.NoError(t, err)
	assert.Equal(t, entity.ExpenseStatusInReview, expense.Status)
	require.Len(t, expense.Approvals, 2)
	assert.Equal(t, int64(10), expense.Approvals[0].ApproverID)
	assert.Equal(t, int64(20), expense.Approvals[1].ApproverID)
	for _, a := range expense.Approvals {
		assert.Equal(t, entity.ApprovalStatusPending, a.Status)
	}
}

func TestExpenseService_Create_ManagerFallback(t *testing.T) {
	// convertedAmount=5000 exceeds the only rule's maxAmount=1000; the
	// employee's manager becomes the sole approver.
	mgr := int64(42)
	expenseRepo := &mockExpenseRepo{}
	ruleRepo := &mockRuleRepo{
		listActiveFunc: func(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
			return []*entity.ApprovalRule{{
				ID:        1,
				Type:      entity.RuleTypeSequential,
				Sequence:  []entity.SequenceStep{{Level: 0, ApproverID: 10}},
				MaxAmount: maxAmount(1000),
				IsActive:  true,
			}}, nil
		},
	}

	input := validInput()
	input.Amount = 5000

	svc := newTestService(expenseRepo, ruleRepo, &mockUserRepo{})
	expense, err := svc.Create(context.Background(), employee(5, &mgr), input)

	require.NoError(t, err)
	assert.Equal(t, entity.ExpenseStatusInReview, expense.Status)
	require.Len(t, expense.Approvals, 1)
	assert.Equal(t, mgr, expense.Approvals[0].ApproverID)
}

func TestExpenseService_Create_NoRuleNoManagerStaysPending(t *testing.T) {
	svc := newTestService(&mockExpenseRepo{}, &mockRuleRepo{}, &mockUserRepo{})
	expense, err := svc.Create(context.Background(), employee(5, nil), validInput())

	require.NoError(t, err)
	assert.Equal(t, entity.ExpenseStatusPending, expense.Status)
	assert.Empty(t, expense.Approvals)
}

func TestExpenseService_Create_ConversionFailureUsesOriginalAmount(t *testing.T) {
	expenseRepo := &mockExpenseRepo{}
	svc := NewExpenseService(
		expenseRepo,
		&mockRuleRepo{},
		&mockUserRepo{},
		&mockCompanyRepo{},
		&mockTxManager{},
		&mockConverter{convertFunc: func(ctx context.Context, amount float64, from, to string) (float64, error) {
			return 0, errors.New("rate provider down")
		}},
		nil,
		mockLogger{},
	)

	input := validInput()
	input.Currency = "EUR"
	expense, err := svc.Create(context.Background(), employee(5, nil), input)

	require.NoError(t, err)
	assert.Equal(t, input.Amount, expense.ConvertedAmount)
}

func TestExpenseService_Create_ValidatesInput(t *testing.T) {
	svc := newTestService(&mockExpenseRepo{}, &mockRuleRepo{}, &mockUserRepo{})

	tests := []struct {
		name   string
		mutate func(*CreateExpenseInput)
	}{
		{"zero amount", func(in *CreateExpenseInput) { in.Amount = 0 }},
		{"negative amount", func(in *CreateExpenseInput) { in.Amount = -10 }},
		{"missing currency", func(in *CreateExpenseInput) { in.Currency = "" }},
		{"unknown category", func(in *CreateExpenseInput) { in.Category = "Gadgets" }},
		{"missing description", func(in *CreateExpenseInput) { in.Description = "" }},
		{"zero date", func(in *CreateExpenseInput) { in.Date = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(&input)
			_, err := svc.Create(context.Background(), employee(5, nil), input)
			assert.ErrorIs(t, err, entity.ErrValidation)
		})
	}
}

func inReviewExpense(approverIDs ...int64) *entity.Expense {
	approvals := make([]entity.Approval, len(approverIDs))
	for i, id := range approverIDs {
		approvals[i] = entity.Approval{ApproverID: id, Status: entity.ApprovalStatusPending}
	}
	return &entity.Expense{
		ID:         7,
		EmployeeID: 5,
		CompanyID:  1,
		Status:     entity.ExpenseStatusInReview,
		Approvals:  approvals,
	}
}

func TestExpenseService_Approve_SequentialChain(t *testing.T) {
	// Two-approver chain: first approval keeps the expense in review and
	// advances the counter, second approval completes it.
	stored := inReviewExpense(10, 20)
	expenseRepo := &mockExpenseRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Expense, error) {
			return stored, nil
		},
	}
	svc := newTestService(expenseRepo, &mockRuleRepo{}, &mockUserRepo{})

	expense, err := svc.Approve(context.Background(), 7, manager(10), "")
	require.NoError(t, err)
	assert.Equal(t, entity.ExpenseStatusInReview, expense.Status)
	assert.Equal(t, 1, expense.CurrentApprovalLevel)
	assert.Equal(t, entity.ApprovalStatusApproved, expense.Approvals[0].Status)
	assert.NotNil(t, expense.Approvals[0].DecidedAt)
	assert.Equal(t, entity.ApprovalStatusPending, expense.Approvals[1].Status)

	expense, err = svc.Approve(context.Background(), 7, manager(20), "")
	require.NoError(t, err)
	assert.Equal(t, entity.ExpenseStatusApproved, expense.Status)
	assert.True(t, expense.AllApproved())
}

func TestExpenseService_Approve_OutOfOrderIsPermitted(t *testing.T) {
	// The level counter does not gate which approver acts next.
	stored := inReviewExpense(10, 20)
	expenseRepo := &mockExpenseRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Expense, error) {
			return stored, nil
		},
	}
	svc := newTestService(expenseRepo, &mockRuleRepo{}, &mockUserRepo{})

	expense, err := svc.Approve(context.Background(), 7, manager(20), "")
	require.NoError(t, err)
	assert.Equal(t, entity.ApprovalStatusApproved, expense.Approvals[1].Status)
	assert.Equal(t, entity.ApprovalStatusPending, expense.Approvals[0].Status)
	assert.Equal(t, entity.ExpenseStatusInReview, expense.Status)
}

func TestExpenseService_Approve_AdminOverride(t *testing.T) {
	// Admin force-approve flips all three pending entries in one call.
	stored := inReviewExpense(10, 20, 30)
	expenseRepo := &mockExpenseRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Expense, error) {
			return stored, nil
		},
	}
	svc := newTestService(expenseRepo, &mockRuleRepo{}, &mockUserRepo{})

	expense, err := svc.Approve(context.Background(), 7, admin(99), "")
	require.NoError(t, err)
	assert.Equal(t, entity.ExpenseStatusApproved, expense.Status)
	for _, a := range expense.Approvals {
		assert.Equal(t, entity.ApprovalStatusApproved, a.Status)
		assert.NotNil(t, a.DecidedAt)
	}
}

func TestExpenseService_Approve_UnauthorizedActor(t *testing.T) {
	stored := inReviewExpense(10)
	expenseRepo := &mockExpenseRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Expense, error) {
			return stored, nil
		},
	}
	svc := newTestService(expenseRepo, &mockRuleRepo{}, &mockUserRepo{})

	_, err := svc.Approve(context.Background(), 7, manager(55), "")
	assert.ErrorIs(t, err, entity.ErrUnauthorized)
	assert.Nil(t, expenseRepo.updated, "no state must be mutated")
}

func TestExpenseService_Approve_TwiceIsUnauthorized(t *testing.T) {
	// After the actor's entry is decided there is no second matching
	// Pending entry; the repeat call fails and changes nothing.
	stored := inReviewExpense(10, 20)
	expenseRepo := &mockExpenseRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Expense, error) {
			return stored, nil
		},
	}
	svc := newTestService(expenseRepo, &mockRuleRepo{}, &mockUserRepo{})

	_, err := svc.Approve(context.Background(), 7, manager(10), "")
	require.NoError(t, err)

	expenseRepo.updated = nil
	_, err = svc.Approve(context.Background(), 7, manager(10), "")
	assert.ErrorIs(t, err, entity.ErrUnauthorized)
	assert.Nil(t, expenseRepo.updated)
	assert.Equal(t, entity.ExpenseStatusInReview, stored.Status)
	assert.Equal(t, 1, stored.CurrentApprovalLevel)
}

func TestExpenseService_Approve_NotFound(t *testing.T) {
	svc := newTestService(&mockExpenseRepo{}, &mockRuleRepo{}, &mockUserRepo{})

	_, err := svc.Approve(context.Background(), 404, manager(10), "")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestExpenseService_Approve_CommentIsRecorded(t *testing.T) {
	stored := inReviewExpense(10)
	expenseRepo := &mockExpenseRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Expense, error) {
			return stored, nil
		},
	}
	svc := newTestService(expenseRepo, &mockRuleRepo{}, &mockUserRepo{})

	expense, err := svc.Approve(context.Background(), 7, manager(10), "looks fine")
	require.NoError(t, err)
	assert.Equal(t, "looks fine", expense.Approvals[0].Comment)
	require.Len(t, expense.Comments, 1)
	assert.Equal(t, "looks fine", expense.Comments[0].Body)
	assert.Equal(t, int64(10), expense.Comments[0].UserID)
}

func TestExpenseService_Reject_SingleVetoEndsChain(t *testing.T) {
	// Any pending approver rejecting terminates the whole chain
	// regardless of other pending entries.
	stored := inReviewExpense(10, 20, 30)
	expenseRepo := &mockExpenseRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Expense, error) {
			return stored, nil
		},
	}
	svc := newTestService(expenseRepo, &mockRuleRepo{}, &mockUserRepo{})

	expense, err := svc.Reject(context.Background(), 7, manager(20), "budget exceeded")
	require.NoError(t, err)
	assert.Equal(t, entity.ExpenseStatusRejected, expense.Status)
	assert.Equal(t, entity.ApprovalStatusRejected, expense.Approvals[1].Status)
	assert.Equal(t, "budget exceeded", expense.Approvals[1].Comment)
	assert.Equal(t, entity.ApprovalStatusPending, expense.Approvals[0].Status)
	assert.Equal(t, entity.ApprovalStatusPending, expense.Approvals[2].Status)
	require.Len(t, expense.Comments, 1)
}

func TestExpenseService_Reject_RequiresComment(t *testing.T) {
	expenseRepo := &mockExpenseRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Expense, error) {
			t.Fatal("expense must not be loaded when validation fails")
			return nil, nil
		},
	}
	svc := newTestService(expenseRepo, &mockRuleRepo{}, &mockUserRepo{})

	_, err := svc.Reject(context.Background(), 7, manager(10), "")
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestExpenseService_Reject_AdminWithoutEntry(t *testing.T) {
	// An admin with no personal approval entry still rejects the expense;
	// no individual entry is marked.
	stored := inReviewExpense(10, 20)
	expenseRepo := &mockExpenseRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Expense, error) {
			return stored, nil
		},
	}
	svc := newTestService(expenseRepo, &mockRuleRepo{}, &mockUserRepo{})

	expense, err := svc.Reject(context.Background(), 7, admin(99), "policy violation")
	require.NoError(t, err)
	assert.Equal(t, entity.ExpenseStatusRejected, expense.Status)
	assert.Equal(t, entity.ApprovalStatusPending, expense.Approvals[0].Status)
	assert.Equal(t, entity.ApprovalStatusPending, expense.Approvals[1].Status)
}

func TestExpenseService_Reject_TerminalExpense(t *testing.T) {
	stored := inReviewExpense(10)
	stored.Status = entity.ExpenseStatusRejected
	stored.Approvals[0].Status = entity.ApprovalStatusRejected
	expenseRepo := &mockExpenseRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Expense, error) {
			return stored, nil
		},
	}
	svc := newTestService(expenseRepo, &mockRuleRepo{}, &mockUserRepo{})

	// The approver's entry is already decided, so the call fails as
	// unauthorized before any transition is attempted.
	_, err := svc.Reject(context.Background(), 7, manager(10), "again")
	assert.ErrorIs(t, err, entity.ErrUnauthorized)

	// An admin reaches the state machine instead, which refuses to leave
	// a terminal state.
	_, err = svc.Reject(context.Background(), 7, admin(99), "again")
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestExpenseService_Get_EmployeeScope(t *testing.T) {
	stored := inReviewExpense(10)
	expenseRepo := &mockExpenseRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Expense, error) {
			return stored, nil
		},
	}
	svc := newTestService(expenseRepo, &mockRuleRepo{}, &mockUserRepo{})

	_, err := svc.Get(context.Background(), 7, employee(5, nil))
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), 7, employee(6, nil))
	assert.ErrorIs(t, err, entity.ErrUnauthorized)
}

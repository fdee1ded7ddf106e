package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenseflow/expenseflow/internal/domain/entity"
	"github.com/expenseflow/expenseflow/internal/domain/event"
)

type mockNotifier struct {
	notified []int64
	fail     map[int64]error
}

func (m *mockNotifier) NotifyPendingApproval(_ context.Context, approver *entity.User, _ *entity.Expense) error {
	if err, ok := m.fail[approver.ID]; ok {
		return err
	}
	m.notified = append(m.notified, approver.ID)
	return nil
}

func TestHandleExpenseCreated_NotifiesPendingApprovers(t *testing.T) {
	expense := &entity.Expense{
		ID:        5,
		CompanyID: 1,
		Status:    entity.ExpenseStatusInReview,
		Approvals: []entity.Approval{
			{ApproverID: 10, Status: entity.ApprovalStatusPending},
			{ApproverID: 11, Status: entity.ApprovalStatusApproved},
			{ApproverID: 12, Status: entity.ApprovalStatusPending},
		},
	}
	expenseRepo := &mockExpenseRepo{
		getByIDFunc: func(_ context.Context, id int64) (*entity.Expense, error) {
			return expense, nil
		},
	}
	notifier := &mockNotifier{}
	svc := NewNotificationService(expenseRepo, &mockUserRepo{}, notifier, &mockLogger{})

	err := svc.HandleExpenseCreated(context.Background(), event.New(event.TypeExpenseCreated, 5, 1, nil))
	require.NoError(t, err)

	assert.Equal(t, []int64{10, 12}, notifier.notified)
}

func TestHandleExpenseCreated_SkipsUnroutedExpense(t *testing.T) {
	expenseRepo := &mockExpenseRepo{
		getByIDFunc: func(_ context.Context, id int64) (*entity.Expense, error) {
			return &entity.Expense{ID: id, Status: entity.ExpenseStatusPending}, nil
		},
	}
	notifier := &mockNotifier{}
	svc := NewNotificationService(expenseRepo, &mockUserRepo{}, notifier, &mockLogger{})

	err := svc.HandleExpenseCreated(context.Background(), event.New(event.TypeExpenseCreated, 5, 1, nil))
	require.NoError(t, err)
	assert.Empty(t, notifier.notified)
}

func TestHandleExpenseCreated_DeliveryFailureDoesNotStopOthers(t *testing.T) {
	expense := &entity.Expense{
		ID:     5,
		Status: entity.ExpenseStatusInReview,
		Approvals: []entity.Approval{
			{ApproverID: 10, Status: entity.ApprovalStatusPending},
			{ApproverID: 11, Status: entity.ApprovalStatusPending},
		},
	}
	expenseRepo := &mockExpenseRepo{
		getByIDFunc: func(_ context.Context, id int64) (*entity.Expense, error) {
			return expense, nil
		},
	}
	notifier := &mockNotifier{fail: map[int64]error{10: errors.New("lark down")}}
	svc := NewNotificationService(expenseRepo, &mockUserRepo{}, notifier, &mockLogger{})

	err := svc.HandleExpenseCreated(context.Background(), event.New(event.TypeExpenseCreated, 5, 1, nil))
	require.NoError(t, err)
	assert.Equal(t, []int64{11}, notifier.notified)
}

func TestHandleExpenseCreated_ExpenseLoadFailure(t *testing.T) {
	expenseRepo := &mockExpenseRepo{
		getByIDFunc: func(_ context.Context, id int64) (*entity.Expense, error) {
			return nil, entity.ErrNotFound
		},
	}
	svc := NewNotificationService(expenseRepo, &mockUserRepo{}, &mockNotifier{}, &mockLogger{})

	err := svc.HandleExpenseCreated(context.Background(), event.New(event.TypeExpenseCreated, 5, 1, nil))
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

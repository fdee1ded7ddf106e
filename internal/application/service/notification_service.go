package service

import (
	"context"
	"fmt"

	"github.com/expenseflow/expenseflow/internal/application/dispatcher"
	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
	"github.com/expenseflow/expenseflow/internal/domain/event"
)

// NotificationService pushes a message to each approver whose decision is
// newly awaited. It subscribes to the expense lifecycle events and is
// entirely best-effort: delivery failures are logged and never affect the
// expense itself.
type NotificationService struct {
	expenseRepo port.ExpenseRepository
	userRepo    port.UserRepository
	notifier    port.Notifier
	logger      Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	expenseRepo port.ExpenseRepository,
	userRepo port.UserRepository,
	notifier port.Notifier,
	logger Logger,
) *NotificationService {
	return &NotificationService{
		expenseRepo: expenseRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

// Register subscribes the service to the events that introduce pending
// approvals.
func (s *NotificationService) Register(d dispatcher.Dispatcher) {
	d.Subscribe(event.TypeExpenseCreated, "notify-approvers", s.HandleExpenseCreated)
}

// HandleExpenseCreated notifies every pending approver of a freshly routed
// expense.
func (s *NotificationService) HandleExpenseCreated(ctx context.Context, evt *event.Event) error {
	expense, err := s.expenseRepo.GetByID(ctx, evt.ExpenseID)
	if err != nil {
		return fmt.Errorf("load expense %d: %w", evt.ExpenseID, err)
	}

	if expense.Status != entity.ExpenseStatusInReview {
		return nil
	}

	for _, approval := range expense.Approvals {
		if approval.Status != entity.ApprovalStatusPending {
			continue
		}
		approver, err := s.userRepo.GetByID(ctx, approval.ApproverID)
		if err != nil {
			s.logger.Error("Approver lookup failed", "error", err, "approver_id", approval.ApproverID)
			continue
		}
		if err := s.notifier.NotifyPendingApproval(ctx, approver, expense); err != nil {
			s.logger.Error("Approver notification failed",
				"error", err, "approver_id", approver.ID, "expense_id", expense.ID)
			continue
		}
		s.logger.Info("Approver notified", "approver_id", approver.ID, "expense_id", expense.ID)
	}

	return nil
}

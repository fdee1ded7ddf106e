// Package lark delivers approval notifications over Lark instant
// messages, addressed by the approver's email.
package lark

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// Config holds Lark app credentials
type Config struct {
	AppID     string
	AppSecret string
}

// Notifier implements port.Notifier on the Lark messaging API.
type Notifier struct {
	client *lark.Client
	logger *zap.Logger
}

// NewNotifier creates a new Lark notifier
func NewNotifier(cfg Config, logger *zap.Logger) *Notifier {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)
	return &Notifier{client: client, logger: logger}
}

// NotifyPendingApproval sends the approver a text message describing the
// expense awaiting their decision.
func (n *Notifier) NotifyPendingApproval(ctx context.Context, approver *entity.User, expense *entity.Expense) error {
	body := fmt.Sprintf("Expense #%d awaits your approval: %s %.2f (%s) — %s",
		expense.ID, expense.Currency, expense.Amount, expense.Category, expense.Description)

	content, err := json.Marshal(map[string]string{"text": body})
	if err != nil {
		return fmt.Errorf("failed to encode message content: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeEmail).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(approver.Email).
			MsgType(larkim.MsgTypeText).
			Content(string(content)).
			Build()).
		Build()

	resp, err := n.client.Im.Message.Create(ctx, req)
	if err != nil {
		n.logger.Error("Failed to send approval notification",
			zap.String("email", approver.Email),
			zap.Int64("expense_id", expense.ID),
			zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}
	if !resp.Success() {
		n.logger.Error("Lark API returned failure",
			zap.String("email", approver.Email),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	n.logger.Info("Approval notification sent",
		zap.String("email", approver.Email),
		zap.Int64("expense_id", expense.ID))
	return nil
}

// NopNotifier is used when no Lark credentials are configured; pending
// approvals then surface only through the in-app queue.
type NopNotifier struct{}

// NotifyPendingApproval does nothing.
func (NopNotifier) NotifyPendingApproval(context.Context, *entity.User, *entity.Expense) error {
	return nil
}

var (
	_ port.Notifier = (*Notifier)(nil)
	_ port.Notifier = NopNotifier{}
)

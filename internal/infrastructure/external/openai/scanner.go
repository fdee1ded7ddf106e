// Package openai implements receipt scanning on the OpenAI chat API.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

const systemPrompt = `You extract expense fields from receipt text. Respond with a JSON object containing: "amount" (number or null), "category" (one of Travel, Food, Accommodation, Transportation, Office Supplies, Entertainment, Other), "description" (short string), "date" (YYYY-MM-DD string or null). Respond with valid JSON only.`

// Scanner implements port.ReceiptScanner using OpenAI
type Scanner struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewScanner creates a new OpenAI receipt scanner
func NewScanner(apiKey, model string, temperature float32, logger *zap.Logger) *Scanner {
	return &Scanner{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
		logger:      logger,
	}
}

type scanResult struct {
	Amount      *float64 `json:"amount"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Date        *string  `json:"date"`
}

// Scan extracts expense field suggestions from receipt text.
func (s *Scanner) Scan(ctx context.Context, text string) (*port.ReceiptFields, error) {
	s.logger.Debug("Scanning receipt text", zap.Int("length", len(text)))

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: s.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		s.logger.Error("OpenAI API call failed", zap.Error(err))
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	var result scanResult
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		s.logger.Error("Failed to parse OpenAI response",
			zap.Error(err), zap.String("content", content))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	fields := &port.ReceiptFields{
		Amount:      result.Amount,
		Description: strings.TrimSpace(result.Description),
		Category:    result.Category,
	}
	if !entity.ValidCategory(fields.Category) {
		fields.Category = entity.CategoryOther
	}
	if result.Date != nil {
		if parsed, err := time.Parse("2006-01-02", *result.Date); err == nil {
			fields.Date = &parsed
		}
	}

	s.logger.Info("Receipt scan completed",
		zap.String("category", fields.Category),
		zap.Bool("amount_found", fields.Amount != nil))
	return fields, nil
}

var _ port.ReceiptScanner = (*Scanner)(nil)

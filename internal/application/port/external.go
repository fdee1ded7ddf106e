package port

import (
	"context"
	"time"

	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// CurrencyConverter converts an amount between currencies using a live
// rate. Conversion is an enrichment, not a gate: callers treat a failed
// conversion as a 1:1 rate rather than rejecting the expense.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount float64, from, to string) (float64, error)
	Rates(ctx context.Context, base string) (map[string]float64, error)
}

// Country pairs a country name with its primary currency code.
type Country struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// CountryResolver looks up countries and their primary currencies.
// Best-effort: implementations fall back to USD when the provider fails.
type CountryResolver interface {
	CurrencyFor(ctx context.Context, country string) (string, error)
	Countries(ctx context.Context) ([]Country, error)
}

// ReceiptFields are the pre-fill suggestions extracted from a receipt.
// They are ordinary user-editable input, not verified data.
type ReceiptFields struct {
	Amount      *float64   `json:"amount,omitempty"`
	Category    string     `json:"category,omitempty"`
	Description string     `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
}

// ReceiptScanner extracts expense field suggestions from receipt text.
type ReceiptScanner interface {
	Scan(ctx context.Context, text string) (*ReceiptFields, error)
}

// Notifier delivers an out-of-band notification to an approver whose
// decision is now awaited on an expense.
type Notifier interface {
	NotifyPendingApproval(ctx context.Context, approver *entity.User, expense *entity.Expense) error
}

// TokenIssuer mints and verifies the auth tokens handed to clients.
type TokenIssuer interface {
	Issue(user *entity.User) (string, error)
	Verify(token string) (userID int64, role string, err error)
}

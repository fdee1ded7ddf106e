// Package receipt turns uploaded receipt files into expense field
// suggestions. Extraction is heuristic; the results only pre-fill the
// submission form and the employee can change every field.
package receipt

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

var (
	amountRe = regexp.MustCompile(`(?i)(?:USD|EUR|GBP|\$|€|£)\s*(\d+(?:\.\d{2})?)|(\d+(?:\.\d{2})?)\s*(?:USD|EUR|GBP|\$|€|£)`)
	dateRe   = regexp.MustCompile(`\d{4}[/-]\d{1,2}[/-]\d{1,2}|\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
)

// categoryKeywords maps receipt vocabulary to expense categories. Checked
// in order; the first hit wins.
var categoryKeywords = []struct {
	category string
	words    []string
}{
	{entity.CategoryAccommodation, []string{"hotel", "accommodation"}},
	{entity.CategoryFood, []string{"restaurant", "food", "meal"}},
	{entity.CategoryTransportation, []string{"taxi", "uber", "transport"}},
	{entity.CategoryTravel, []string{"flight", "airline", "train"}},
	{entity.CategoryOfficeSupplies, []string{"office", "supplies", "stationery"}},
}

// KeywordExtractor implements port.ReceiptScanner with regex and keyword
// heuristics. It needs no external service and serves as the fallback
// when no AI scanner is configured.
type KeywordExtractor struct{}

// NewKeywordExtractor creates a new keyword-based receipt extractor
func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{}
}

// Scan extracts field suggestions from raw receipt text.
func (e *KeywordExtractor) Scan(_ context.Context, text string) (*port.ReceiptFields, error) {
	fields := &port.ReceiptFields{Category: entity.CategoryOther}

	if m := amountRe.FindStringSubmatch(text); m != nil {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		if amount, err := strconv.ParseFloat(raw, 64); err == nil {
			fields.Amount = &amount
		}
	}

	if m := dateRe.FindString(text); m != "" {
		if parsed, ok := parseReceiptDate(m); ok {
			fields.Date = &parsed
		}
	}

	lower := strings.ToLower(text)
	for _, ck := range categoryKeywords {
		for _, word := range ck.words {
			if strings.Contains(lower, word) {
				fields.Category = ck.category
				break
			}
		}
		if fields.Category != entity.CategoryOther {
			break
		}
	}

	// First non-empty line doubles as the description suggestion.
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > 100 {
			line = line[:100]
		}
		fields.Description = line
		break
	}

	return fields, nil
}

func parseReceiptDate(raw string) (time.Time, bool) {
	normalized := strings.ReplaceAll(raw, "-", "/")
	for _, layout := range []string{
		"2006/01/02",
		"2006/1/2",
		"02/01/2006",
		"2/1/2006",
		"01/02/2006",
		"1/2/2006",
		"02/01/06",
		"2/1/06",
	} {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var _ port.ReceiptScanner = (*KeywordExtractor)(nil)

package entity

import "time"

// Rule type constants
const (
	RuleTypeSequential       = "Sequential"
	RuleTypePercentage       = "Percentage"
	RuleTypeSpecificApprover = "SpecificApprover"
	RuleTypeHybrid           = "Hybrid"
)

// SequenceStep is one entry in a Sequential/Hybrid rule's approver chain.
type SequenceStep struct {
	Level      int    `json:"level"`
	ApproverID int64  `json:"approver_id"`
	Role       string `json:"role,omitempty"`
}

// ApprovalRule is a company-level configuration selecting who must approve
// an expense. Only the fields relevant to Type are meaningful: Sequence for
// Sequential/Hybrid, Percentage for Percentage, SpecificApproverID for
// SpecificApprover. The others are stored but ignored.
//
// Rules are matched in creation order, oldest first. There is no priority
// field; the earliest-created applicable rule wins.
type ApprovalRule struct {
	ID                 int64          `json:"id"`
	CompanyID          int64          `json:"company_id"`
	Name               string         `json:"name"`
	Type               string         `json:"type"`
	Sequence           []SequenceStep `json:"sequence,omitempty"`
	Percentage         int            `json:"percentage,omitempty"`
	SpecificApproverID *int64         `json:"specific_approver_id,omitempty"`
	MinAmount          float64        `json:"min_amount"`
	MaxAmount          *float64       `json:"max_amount,omitempty"`
	Categories         []string       `json:"categories"`
	IsActive           bool           `json:"is_active"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// AppliesTo reports whether the rule's amount range and category set both
// match the expense. A nil MaxAmount means unbounded above; an empty
// category set matches every category.
func (r *ApprovalRule) AppliesTo(convertedAmount float64, category string) bool {
	if convertedAmount < r.MinAmount {
		return false
	}
	if r.MaxAmount != nil && convertedAmount > *r.MaxAmount {
		return false
	}
	if len(r.Categories) == 0 {
		return true
	}
	for _, c := range r.Categories {
		if c == category {
			return true
		}
	}
	return false
}

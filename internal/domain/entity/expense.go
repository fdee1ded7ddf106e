package entity

import "time"

// Expense status constants
const (
	ExpenseStatusPending  = "Pending"
	ExpenseStatusInReview = "In Review"
	ExpenseStatusApproved = "Approved"
	ExpenseStatusRejected = "Rejected"
)

// Approval status constants
const (
	ApprovalStatusPending  = "Pending"
	ApprovalStatusApproved = "Approved"
	ApprovalStatusRejected = "Rejected"
)

// Expense category constants
const (
	CategoryTravel         = "Travel"
	CategoryFood           = "Food"
	CategoryAccommodation  = "Accommodation"
	CategoryTransportation = "Transportation"
	CategoryOfficeSupplies = "Office Supplies"
	CategoryEntertainment  = "Entertainment"
	CategoryOther          = "Other"
)

// Categories lists every valid expense category.
var Categories = []string{
	CategoryTravel,
	CategoryFood,
	CategoryAccommodation,
	CategoryTransportation,
	CategoryOfficeSupplies,
	CategoryEntertainment,
	CategoryOther,
}

// ValidCategory reports whether the category is one of the defined constants.
func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Approval is one required reviewer decision attached to an expense. It is
// created when the approval chain is materialized and flips exactly once
// from Pending to Approved or Rejected.
type Approval struct {
	ID         int64      `json:"id"`
	ApproverID int64      `json:"approver_id"`
	Status     string     `json:"status"`
	Comment    string     `json:"comment,omitempty"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
}

// Comment is a free-form remark left on an expense by an approver or admin.
type Comment struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Body      string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// Expense is the aggregate root for a single submitted expense. It
// exclusively owns its Approval and Comment entries; they have no lifecycle
// outside the expense. The approvals list is populated once at creation
// time from the resolved rule and never reordered afterwards.
type Expense struct {
	ID              int64      `json:"id"`
	EmployeeID      int64      `json:"employee_id"`
	CompanyID       int64      `json:"company_id"`
	Amount          float64    `json:"amount"`
	Currency        string     `json:"currency"`
	ConvertedAmount float64    `json:"converted_amount"`
	Category        string     `json:"category"`
	Description     string     `json:"description"`
	Date            time.Time  `json:"date"`
	ReceiptURL      string     `json:"receipt_url,omitempty"`
	Status          string     `json:"status"`
	Approvals       []Approval `json:"approvals"`
	Comments        []Comment  `json:"comments"`

	// CurrentApprovalLevel is a progress counter incremented on each
	// non-final approval. It does not gate which approver acts next;
	// lookup is always by approver identity, not by level index.
	CurrentApprovalLevel int `json:"current_approval_level"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PendingApprovalFor returns the index of the first Pending approval entry
// held by the given approver, or -1 if none exists.
func (e *Expense) PendingApprovalFor(approverID int64) int {
	for i, a := range e.Approvals {
		if a.ApproverID == approverID && a.Status == ApprovalStatusPending {
			return i
		}
	}
	return -1
}

// AllApproved reports whether every approval entry has been approved.
func (e *Expense) AllApproved() bool {
	for _, a := range e.Approvals {
		if a.Status != ApprovalStatusApproved {
			return false
		}
	}
	return true
}

// IsTerminal reports whether the expense has reached a final disposition.
func (e *Expense) IsTerminal() bool {
	return e.Status == ExpenseStatusApproved || e.Status == ExpenseStatusRejected
}

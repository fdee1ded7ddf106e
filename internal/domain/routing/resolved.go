// Package routing selects the approval rule that applies to an expense and
// expands it into the concrete chain of required approver decisions. Both
// steps are pure functions over already-fetched data; persistence and
// currency conversion happen before this package is called.
package routing

import "github.com/expenseflow/expenseflow/internal/domain/entity"

// ResolvedRule is the single rule chosen for a specific expense, narrowed
// to the variant that matches its type. An expense keeps the chain built
// from the resolved rule, never a reference to the rule itself, so later
// rule edits do not touch in-flight expenses.
type ResolvedRule interface {
	// RuleID returns the id of the backing rule, or 0 for the synthetic
	// manager fallback.
	RuleID() int64

	resolvedRule()
}

// SequentialChain is the resolved form of Sequential and Hybrid rules: an
// ordered list of approver steps. Hybrid rules expand their sequence the
// same way Sequential rules do; no combined percentage logic exists.
type SequentialChain struct {
	Rule  int64
	Steps []entity.SequenceStep
}

// SingleApprover is the resolved form of SpecificApprover rules and of the
// synthetic manager fallback used when no rule matches.
type SingleApprover struct {
	Rule       int64
	ApproverID int64
}

// PercentagePool is the resolved form of Percentage rules. No reviewer list
// is derivable from a percentage alone, so it expands to no approvals; the
// variant is kept so callers can tell a matched percentage rule apart
// from no match at all.
type PercentagePool struct {
	Rule       int64
	Percentage int
}

func (c SequentialChain) RuleID() int64 { return c.Rule }
func (a SingleApprover) RuleID() int64  { return a.Rule }
func (p PercentagePool) RuleID() int64  { return p.Rule }

func (SequentialChain) resolvedRule() {}
func (SingleApprover) resolvedRule()  {}
func (PercentagePool) resolvedRule()  {}

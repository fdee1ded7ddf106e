package routing

import "github.com/expenseflow/expenseflow/internal/domain/entity"

// BuildApprovals expands a resolved rule into the ordered list of pending
// approval entries to attach to the expense. Sequential chains produce one
// entry per step in sequence order. Single approvers produce exactly one
// entry. Percentage pools produce none: without a defined voter pool there
// is nothing to materialize at creation time. A nil resolved rule also
// produces none.
func BuildApprovals(resolved ResolvedRule) []entity.Approval {
	switch r := resolved.(type) {
	case SequentialChain:
		approvals := make([]entity.Approval, 0, len(r.Steps))
		for _, step := range r.Steps {
			approvals = append(approvals, entity.Approval{
				ApproverID: step.ApproverID,
				Status:     entity.ApprovalStatusPending,
			})
		}
		return approvals
	case SingleApprover:
		return []entity.Approval{{
			ApproverID: r.ApproverID,
			Status:     entity.ApprovalStatusPending,
		}}
	default:
		return nil
	}
}

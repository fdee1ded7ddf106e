package routing

import "github.com/expenseflow/expenseflow/internal/domain/entity"

// SelectRule picks the applicable rule for an expense. Rules must be the
// company's active rules ordered by creation time, oldest first; the first
// rule whose amount range and category set both match wins. When no rule
// matches, the employee's direct manager becomes the sole synthetic
// approver; when the employee has no manager either, SelectRule returns
// nil and the expense requires no approval.
func SelectRule(expense *entity.Expense, rules []*entity.ApprovalRule, managerID *int64) ResolvedRule {
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		if !rule.AppliesTo(expense.ConvertedAmount, expense.Category) {
			continue
		}
		return resolve(rule)
	}

	if managerID != nil {
		return SingleApprover{ApproverID: *managerID}
	}

	return nil
}

// resolve narrows a matched rule record to its type's variant.
func resolve(rule *entity.ApprovalRule) ResolvedRule {
	switch rule.Type {
	case entity.RuleTypeSequential, entity.RuleTypeHybrid:
		return SequentialChain{Rule: rule.ID, Steps: rule.Sequence}
	case entity.RuleTypeSpecificApprover:
		var approver int64
		if rule.SpecificApproverID != nil {
			approver = *rule.SpecificApproverID
		}
		return SingleApprover{Rule: rule.ID, ApproverID: approver}
	case entity.RuleTypePercentage:
		return PercentagePool{Rule: rule.ID, Percentage: rule.Percentage}
	default:
		return nil
	}
}

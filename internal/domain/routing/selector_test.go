package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

func ptrFloat(v float64) *float64 { return &v }
func ptrInt64(v int64) *int64     { return &v }

func sequentialRule(id int64, min float64, max *float64, categories []string, approvers ...int64) *entity.ApprovalRule {
	steps := make([]entity.SequenceStep, len(approvers))
	for i, a := range approvers {
		steps[i] = entity.SequenceStep{Level: i, ApproverID: a}
	}
	return &entity.ApprovalRule{
		ID:         id,
		Type:       entity.RuleTypeSequential,
		Sequence:   steps,
		MinAmount:  min,
		MaxAmount:  max,
		Categories: categories,
		IsActive:   true,
	}
}

func TestSelectRule_AmountAndCategoryMatch(t *testing.T) {
	// convertedAmount=500 against minAmount=0 maxAmount=1000, all categories
	expense := &entity.Expense{ConvertedAmount: 500, Category: entity.CategoryTravel}
	rule := sequentialRule(1, 0, ptrFloat(1000), nil, 10, 11)

	resolved := SelectRule(expense, []*entity.ApprovalRule{rule}, nil)

	require.NotNil(t, resolved)
	assert.Equal(t, int64(1), resolved.RuleID())

	chain, ok := resolved.(SequentialChain)
	require.True(t, ok)
	assert.Len(t, chain.Steps, 2)
}

func TestSelectRule_ManagerFallback(t *testing.T) {
	// convertedAmount=5000 exceeds the only rule's maxAmount=1000
	expense := &entity.Expense{ConvertedAmount: 5000, Category: entity.CategoryTravel}
	rule := sequentialRule(1, 0, ptrFloat(1000), nil, 10)

	resolved := SelectRule(expense, []*entity.ApprovalRule{rule}, ptrInt64(42))

	require.NotNil(t, resolved)
	single, ok := resolved.(SingleApprover)
	require.True(t, ok)
	assert.Equal(t, int64(42), single.ApproverID)
	assert.Equal(t, int64(0), single.RuleID(), "synthetic rule carries no rule id")
}

func TestSelectRule_NoRuleNoManager(t *testing.T) {
	expense := &entity.Expense{ConvertedAmount: 5000, Category: entity.CategoryTravel}
	rule := sequentialRule(1, 0, ptrFloat(1000), nil, 10)

	resolved := SelectRule(expense, []*entity.ApprovalRule{rule}, nil)

	assert.Nil(t, resolved)
}

func TestSelectRule_FirstMatchWins(t *testing.T) {
	// Rules arrive in creation order; both match, the older one wins.
	expense := &entity.Expense{ConvertedAmount: 300, Category: entity.CategoryFood}
	older := sequentialRule(1, 0, nil, nil, 10)
	newer := sequentialRule(2, 0, nil, nil, 20)

	resolved := SelectRule(expense, []*entity.ApprovalRule{older, newer}, nil)

	require.NotNil(t, resolved)
	assert.Equal(t, int64(1), resolved.RuleID())
}

func TestSelectRule_SkipsInactiveAndNonMatching(t *testing.T) {
	expense := &entity.Expense{ConvertedAmount: 300, Category: entity.CategoryFood}

	inactive := sequentialRule(1, 0, nil, nil, 10)
	inactive.IsActive = false
	wrongCategory := sequentialRule(2, 0, nil, []string{entity.CategoryTravel}, 20)
	belowMin := sequentialRule(3, 1000, nil, nil, 30)
	matching := sequentialRule(4, 0, nil, []string{entity.CategoryFood, entity.CategoryTravel}, 40)

	resolved := SelectRule(expense, []*entity.ApprovalRule{inactive, wrongCategory, belowMin, matching}, nil)

	require.NotNil(t, resolved)
	assert.Equal(t, int64(4), resolved.RuleID())
}

func TestSelectRule_BoundaryAmounts(t *testing.T) {
	rule := sequentialRule(1, 100, ptrFloat(1000), nil, 10)

	tests := []struct {
		name   string
		amount float64
		match  bool
	}{
		{"below min", 99.99, false},
		{"at min", 100, true},
		{"at max", 1000, true},
		{"above max", 1000.01, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expense := &entity.Expense{ConvertedAmount: tt.amount, Category: entity.CategoryOther}
			resolved := SelectRule(expense, []*entity.ApprovalRule{rule}, nil)
			assert.Equal(t, tt.match, resolved != nil)
		})
	}
}

func TestSelectRule_NilMaxAmountIsUnbounded(t *testing.T) {
	expense := &entity.Expense{ConvertedAmount: 1e9, Category: entity.CategoryOther}
	rule := sequentialRule(1, 0, nil, nil, 10)

	resolved := SelectRule(expense, []*entity.ApprovalRule{rule}, nil)

	assert.NotNil(t, resolved)
}

func TestSelectRule_ResolvesVariantsByType(t *testing.T) {
	expense := &entity.Expense{ConvertedAmount: 100, Category: entity.CategoryOther}

	t.Run("specific approver", func(t *testing.T) {
		rule := &entity.ApprovalRule{
			ID:                 7,
			Type:               entity.RuleTypeSpecificApprover,
			SpecificApproverID: ptrInt64(99),
			IsActive:           true,
		}
		resolved := SelectRule(expense, []*entity.ApprovalRule{rule}, nil)
		single, ok := resolved.(SingleApprover)
		require.True(t, ok)
		assert.Equal(t, int64(99), single.ApproverID)
	})

	t.Run("percentage", func(t *testing.T) {
		rule := &entity.ApprovalRule{
			ID:         8,
			Type:       entity.RuleTypePercentage,
			Percentage: 60,
			IsActive:   true,
		}
		resolved := SelectRule(expense, []*entity.ApprovalRule{rule}, nil)
		pool, ok := resolved.(PercentagePool)
		require.True(t, ok)
		assert.Equal(t, 60, pool.Percentage)
	})

	t.Run("hybrid expands sequence", func(t *testing.T) {
		rule := &entity.ApprovalRule{
			ID:       9,
			Type:     entity.RuleTypeHybrid,
			Sequence: []entity.SequenceStep{{Level: 0, ApproverID: 5}, {Level: 1, ApproverID: 6}},
			IsActive: true,
		}
		resolved := SelectRule(expense, []*entity.ApprovalRule{rule}, nil)
		chain, ok := resolved.(SequentialChain)
		require.True(t, ok)
		assert.Len(t, chain.Steps, 2)
	})
}

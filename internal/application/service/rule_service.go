package service

import (
	"context"
	"fmt"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// RuleInput carries the admin-editable fields of an approval rule.
type RuleInput struct {
	Name               string
	Type               string
	Sequence           []entity.SequenceStep
	Percentage         int
	SpecificApproverID *int64
	MinAmount          float64
	MaxAmount          *float64
	Categories         []string
}

// RuleService manages the company's approval rules.
type RuleService interface {
	Create(ctx context.Context, actor *entity.User, input RuleInput) (*entity.ApprovalRule, error)
	Get(ctx context.Context, id int64, actor *entity.User) (*entity.ApprovalRule, error)
	List(ctx context.Context, actor *entity.User) ([]*entity.ApprovalRule, error)
	Update(ctx context.Context, id int64, actor *entity.User, input RuleInput) (*entity.ApprovalRule, error)
	Delete(ctx context.Context, id int64, actor *entity.User) error
	Toggle(ctx context.Context, id int64, actor *entity.User) (*entity.ApprovalRule, error)
}

type ruleServiceImpl struct {
	ruleRepo port.RuleRepository
	userRepo port.UserRepository
	logger   Logger
}

// NewRuleService creates a new RuleService
func NewRuleService(ruleRepo port.RuleRepository, userRepo port.UserRepository, logger Logger) RuleService {
	return &ruleServiceImpl{
		ruleRepo: ruleRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// Create validates the input against its rule type and stores the rule as
// active. New rules sort after existing ones: matching is oldest first.
func (s *ruleServiceImpl) Create(ctx context.Context, actor *entity.User, input RuleInput) (*entity.ApprovalRule, error) {
	if err := s.validate(ctx, actor.CompanyID, input); err != nil {
		return nil, err
	}

	rule := &entity.ApprovalRule{
		CompanyID:          actor.CompanyID,
		Name:               input.Name,
		Type:               input.Type,
		Sequence:           input.Sequence,
		Percentage:         input.Percentage,
		SpecificApproverID: input.SpecificApproverID,
		MinAmount:          input.MinAmount,
		MaxAmount:          input.MaxAmount,
		Categories:         input.Categories,
		IsActive:           true,
	}

	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		s.logger.Error("Failed to create rule", "error", err, "company_id", actor.CompanyID)
		return nil, err
	}

	s.logger.Info("Approval rule created", "id", rule.ID, "type", rule.Type, "name", rule.Name)
	return rule, nil
}

// Get retrieves a single rule scoped to the actor's company.
func (s *ruleServiceImpl) Get(ctx context.Context, id int64, actor *entity.User) (*entity.ApprovalRule, error) {
	return s.ruleRepo.GetByID(ctx, id, actor.CompanyID)
}

// List returns all of the company's rules, active or not.
func (s *ruleServiceImpl) List(ctx context.Context, actor *entity.User) ([]*entity.ApprovalRule, error) {
	return s.ruleRepo.ListByCompany(ctx, actor.CompanyID)
}

// Update replaces the rule's editable fields. In-flight expenses keep the
// chains built from the old definition; edits only affect future routing.
func (s *ruleServiceImpl) Update(ctx context.Context, id int64, actor *entity.User, input RuleInput) (*entity.ApprovalRule, error) {
	rule, err := s.ruleRepo.GetByID(ctx, id, actor.CompanyID)
	if err != nil {
		return nil, err
	}

	if err := s.validate(ctx, actor.CompanyID, input); err != nil {
		return nil, err
	}

	rule.Name = input.Name
	rule.Type = input.Type
	rule.Sequence = input.Sequence
	rule.Percentage = input.Percentage
	rule.SpecificApproverID = input.SpecificApproverID
	rule.MinAmount = input.MinAmount
	rule.MaxAmount = input.MaxAmount
	rule.Categories = input.Categories

	if err := s.ruleRepo.Update(ctx, rule); err != nil {
		s.logger.Error("Failed to update rule", "error", err, "id", id)
		return nil, err
	}

	s.logger.Info("Approval rule updated", "id", id)
	return rule, nil
}

// Delete removes the rule entirely.
func (s *ruleServiceImpl) Delete(ctx context.Context, id int64, actor *entity.User) error {
	if err := s.ruleRepo.Delete(ctx, id, actor.CompanyID); err != nil {
		return err
	}
	s.logger.Info("Approval rule deleted", "id", id)
	return nil
}

// Toggle flips the rule's active flag.
func (s *ruleServiceImpl) Toggle(ctx context.Context, id int64, actor *entity.User) (*entity.ApprovalRule, error) {
	rule, err := s.ruleRepo.GetByID(ctx, id, actor.CompanyID)
	if err != nil {
		return nil, err
	}

	rule.IsActive = !rule.IsActive
	if err := s.ruleRepo.Update(ctx, rule); err != nil {
		return nil, err
	}

	s.logger.Info("Approval rule toggled", "id", id, "is_active", rule.IsActive)
	return rule, nil
}

// validate enforces the per-type field requirements: a non-empty sequence
// for Sequential/Hybrid, a 0-100 percentage for Percentage, and an existing
// Manager or Admin in the company for SpecificApprover.
func (s *ruleServiceImpl) validate(ctx context.Context, companyID int64, input RuleInput) error {
	if input.Name == "" {
		return fmt.Errorf("%w: rule name is required", entity.ErrValidation)
	}
	if input.MaxAmount != nil && *input.MaxAmount < input.MinAmount {
		return fmt.Errorf("%w: max amount below min amount", entity.ErrValidation)
	}

	switch input.Type {
	case entity.RuleTypeSequential, entity.RuleTypeHybrid:
		if len(input.Sequence) == 0 {
			return fmt.Errorf("%w: sequence is required for %s rules", entity.ErrValidation, input.Type)
		}
	case entity.RuleTypePercentage:
		if input.Percentage < 0 || input.Percentage > 100 {
			return fmt.Errorf("%w: percentage must be between 0 and 100", entity.ErrValidation)
		}
	case entity.RuleTypeSpecificApprover:
		if input.SpecificApproverID == nil {
			return fmt.Errorf("%w: specific approver is required", entity.ErrValidation)
		}
		approver, err := s.userRepo.GetByID(ctx, *input.SpecificApproverID)
		if err != nil {
			return fmt.Errorf("%w: invalid approver", entity.ErrValidation)
		}
		if approver.CompanyID != companyID || !approver.CanApprove() {
			return fmt.Errorf("%w: invalid approver", entity.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown rule type %q", entity.ErrValidation, input.Type)
	}

	return nil
}

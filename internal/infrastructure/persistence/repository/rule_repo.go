package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
	"github.com/expenseflow/expenseflow/internal/infrastructure/persistence/sqlite"
)

// RuleRepository implements port.RuleRepository. The sequence and
// categories columns hold JSON; marshalling lives here so the domain
// never sees the encoding.
type RuleRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRuleRepository creates a new approval rule repository
func NewRuleRepository(db *sql.DB, logger *zap.Logger) port.RuleRepository {
	return &RuleRepository{db: db, logger: logger}
}

// Create inserts a new approval rule
func (r *RuleRepository) Create(ctx context.Context, rule *entity.ApprovalRule) error {
	sequence, categories, err := encodeRuleJSON(rule)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO approval_rules
			(company_id, name, type, sequence, percentage, specific_approver_id,
			 min_amount, max_amount, categories, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		rule.CompanyID, rule.Name, rule.Type, sequence, rule.Percentage,
		rule.SpecificApproverID, rule.MinAmount, rule.MaxAmount, categories, rule.IsActive)
	if err != nil {
		r.logger.Error("Failed to create rule", zap.String("name", rule.Name), zap.Error(err))
		return fmt.Errorf("failed to create rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rule.ID = id
	return nil
}

// GetByID retrieves a rule scoped to a company
func (r *RuleRepository) GetByID(ctx context.Context, id, companyID int64) (*entity.ApprovalRule, error) {
	query := selectRule + ` WHERE id = ? AND company_id = ?`

	rule, err := scanRule(sqlite.Executor(ctx, r.db).QueryRowContext(ctx, query, id, companyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: rule %d", entity.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

// ListByCompany retrieves all rules for a company, oldest first
func (r *RuleRepository) ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
	query := selectRule + ` WHERE company_id = ? ORDER BY created_at, id`
	return r.list(ctx, query, companyID)
}

// ListActiveByCompany retrieves active rules for a company in creation
// order, oldest first. The id tiebreak keeps the order stable when two
// rules share a created_at timestamp.
func (r *RuleRepository) ListActiveByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
	query := selectRule + ` WHERE company_id = ? AND is_active = 1 ORDER BY created_at, id`
	return r.list(ctx, query, companyID)
}

// Update persists changes to an existing rule
func (r *RuleRepository) Update(ctx context.Context, rule *entity.ApprovalRule) error {
	sequence, categories, err := encodeRuleJSON(rule)
	if err != nil {
		return err
	}

	query := `
		UPDATE approval_rules
		SET name = ?, type = ?, sequence = ?, percentage = ?, specific_approver_id = ?,
		    min_amount = ?, max_amount = ?, categories = ?, is_active = ?, updated_at = ?
		WHERE id = ? AND company_id = ?
	`

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		rule.Name, rule.Type, sequence, rule.Percentage, rule.SpecificApproverID,
		rule.MinAmount, rule.MaxAmount, categories, rule.IsActive,
		time.Now().UTC(), rule.ID, rule.CompanyID)
	if err != nil {
		r.logger.Error("Failed to update rule", zap.Int64("rule_id", rule.ID), zap.Error(err))
		return fmt.Errorf("failed to update rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: rule %d", entity.ErrNotFound, rule.ID)
	}
	return nil
}

// Delete removes a rule scoped to a company
func (r *RuleRepository) Delete(ctx context.Context, id, companyID int64) error {
	query := `DELETE FROM approval_rules WHERE id = ? AND company_id = ?`

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: rule %d", entity.ErrNotFound, id)
	}
	return nil
}

func (r *RuleRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.ApprovalRule, error) {
	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []*entity.ApprovalRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}
	return rules, nil
}

const selectRule = `
	SELECT id, company_id, name, type, sequence, percentage, specific_approver_id,
	       min_amount, max_amount, categories, is_active, created_at, updated_at
	FROM approval_rules
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRule(row rowScanner) (*entity.ApprovalRule, error) {
	var (
		rule       entity.ApprovalRule
		sequence   string
		categories string
	)
	err := row.Scan(
		&rule.ID,
		&rule.CompanyID,
		&rule.Name,
		&rule.Type,
		&sequence,
		&rule.Percentage,
		&rule.SpecificApproverID,
		&rule.MinAmount,
		&rule.MaxAmount,
		&categories,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sequence), &rule.Sequence); err != nil {
		return nil, fmt.Errorf("failed to decode rule sequence: %w", err)
	}
	if err := json.Unmarshal([]byte(categories), &rule.Categories); err != nil {
		return nil, fmt.Errorf("failed to decode rule categories: %w", err)
	}
	return &rule, nil
}

func encodeRuleJSON(rule *entity.ApprovalRule) (sequence, categories string, err error) {
	seq := rule.Sequence
	if seq == nil {
		seq = []entity.SequenceStep{}
	}
	seqBytes, err := json.Marshal(seq)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode rule sequence: %w", err)
	}

	cats := rule.Categories
	if cats == nil {
		cats = []string{}
	}
	catBytes, err := json.Marshal(cats)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode rule categories: %w", err)
	}
	return string(seqBytes), string(catBytes), nil
}

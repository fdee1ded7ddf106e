package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
	"github.com/expenseflow/expenseflow/internal/infrastructure/persistence/sqlite"
)

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{db: db, logger: logger}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (company_id, name, email, password_hash, role, manager_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		user.CompanyID, user.Name, user.Email, user.PasswordHash, user.Role, user.ManagerID)
	if err != nil {
		r.logger.Error("Failed to create user", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	query := selectUser + ` WHERE id = ?`
	return r.scanOne(sqlite.Executor(ctx, r.db).QueryRowContext(ctx, query, id), fmt.Sprintf("user %d", id))
}

// GetByEmail retrieves a user by email address
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := selectUser + ` WHERE email = ?`
	return r.scanOne(sqlite.Executor(ctx, r.db).QueryRowContext(ctx, query, email), "user "+email)
}

// ListByCompany retrieves all users in a company
func (r *UserRepository) ListByCompany(ctx context.Context, companyID int64) ([]*entity.User, error) {
	query := selectUser + ` WHERE company_id = ? ORDER BY created_at`

	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by company: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// ListByManager retrieves the direct reports of a manager
func (r *UserRepository) ListByManager(ctx context.Context, managerID int64) ([]*entity.User, error) {
	query := selectUser + ` WHERE manager_id = ? ORDER BY created_at`

	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by manager: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// Update persists changes to an existing user
func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users
		SET name = ?, email = ?, password_hash = ?, role = ?, manager_id = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Role, user.ManagerID,
		time.Now().UTC(), user.ID)
	if err != nil {
		r.logger.Error("Failed to update user", zap.Int64("user_id", user.ID), zap.Error(err))
		return fmt.Errorf("failed to update user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: user %d", entity.ErrNotFound, user.ID)
	}
	return nil
}

const selectUser = `
	SELECT id, company_id, name, email, password_hash, role, manager_id, created_at, updated_at
	FROM users
`

func (r *UserRepository) scanOne(row *sql.Row, desc string) (*entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.ID,
		&user.CompanyID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.ManagerID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrNotFound, desc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) scanAll(rows *sql.Rows) ([]*entity.User, error) {
	var users []*entity.User
	for rows.Next() {
		var user entity.User
		if err := rows.Scan(
			&user.ID,
			&user.CompanyID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
			&user.ManagerID,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

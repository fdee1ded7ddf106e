package service

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
	"github.com/expenseflow/expenseflow/pkg/utils"
)

// CreateUserInput carries the fields of a new account created by an admin.
type CreateUserInput struct {
	Name      string
	Email     string
	Password  string
	Role      string
	ManagerID *int64
}

// UpdateUserInput carries the admin-editable fields of an existing account.
type UpdateUserInput struct {
	Role      *string
	ManagerID *int64
}

// UserService manages the company's user accounts.
type UserService interface {
	Create(ctx context.Context, actor *entity.User, input CreateUserInput) (*entity.User, error)
	Get(ctx context.Context, id int64, actor *entity.User) (*entity.User, error)
	List(ctx context.Context, actor *entity.User) ([]*entity.User, error)
	Update(ctx context.Context, id int64, actor *entity.User, input UpdateUserInput) (*entity.User, error)
}

type userServiceImpl struct {
	userRepo port.UserRepository
	logger   Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo port.UserRepository, logger Logger) UserService {
	return &userServiceImpl{userRepo: userRepo, logger: logger}
}

// Create adds a user to the actor's company with a hashed password.
func (s *userServiceImpl) Create(ctx context.Context, actor *entity.User, input CreateUserInput) (*entity.User, error) {
	if err := utils.ValidateEmail(input.Email); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrValidation, err)
	}
	if len(input.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", entity.ErrValidation)
	}
	if input.Role == "" {
		input.Role = entity.RoleEmployee
	}
	if !validRole(input.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", entity.ErrValidation, input.Role)
	}

	if existing, err := s.userRepo.GetByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: user already exists", entity.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		CompanyID:    actor.CompanyID,
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         input.Role,
		ManagerID:    input.ManagerID,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.Error("Failed to create user", "error", err, "email", input.Email)
		return nil, err
	}

	s.logger.Info("User created", "id", user.ID, "role", user.Role)
	return user, nil
}

// Get retrieves a user scoped to the actor's company.
func (s *userServiceImpl) Get(ctx context.Context, id int64, actor *entity.User) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.CompanyID != actor.CompanyID {
		return nil, entity.ErrNotFound
	}
	return user, nil
}

// List returns every user in the actor's company.
func (s *userServiceImpl) List(ctx context.Context, actor *entity.User) ([]*entity.User, error) {
	return s.userRepo.ListByCompany(ctx, actor.CompanyID)
}

// Update changes a user's role or manager assignment.
func (s *userServiceImpl) Update(ctx context.Context, id int64, actor *entity.User, input UpdateUserInput) (*entity.User, error) {
	user, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	if input.Role != nil {
		if !validRole(*input.Role) {
			return nil, fmt.Errorf("%w: unknown role %q", entity.ErrValidation, *input.Role)
		}
		user.Role = *input.Role
	}
	if input.ManagerID != nil {
		if *input.ManagerID == 0 {
			user.ManagerID = nil
		} else {
			manager, err := s.userRepo.GetByID(ctx, *input.ManagerID)
			if err != nil || manager.CompanyID != actor.CompanyID {
				return nil, fmt.Errorf("%w: invalid manager", entity.ErrValidation)
			}
			user.ManagerID = input.ManagerID
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user", "error", err, "id", id)
		return nil, err
	}

	s.logger.Info("User updated", "id", id)
	return user, nil
}

func validRole(role string) bool {
	switch role {
	case entity.RoleEmployee, entity.RoleManager, entity.RoleAdmin:
		return true
	default:
		return false
	}
}

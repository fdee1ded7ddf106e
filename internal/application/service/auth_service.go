package service

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
	"github.com/expenseflow/expenseflow/pkg/utils"
)

const bcryptCost = 12

// SignupInput carries the fields of a first-user signup. Signup creates a
// fresh company in the country's currency and an Admin account owning it.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Country  string
}

// AuthService handles signup, login and password changes.
type AuthService interface {
	Signup(ctx context.Context, input SignupInput) (*entity.User, string, error)
	Login(ctx context.Context, email, password string) (*entity.User, string, error)
	ChangePassword(ctx context.Context, actor *entity.User, current, next string) error
}

type authServiceImpl struct {
	userRepo    port.UserRepository
	companyRepo port.CompanyRepository
	txManager   port.TransactionManager
	countries   port.CountryResolver
	tokens      port.TokenIssuer
	logger      Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo port.UserRepository,
	companyRepo port.CompanyRepository,
	txManager port.TransactionManager,
	countries port.CountryResolver,
	tokens port.TokenIssuer,
	logger Logger,
) AuthService {
	return &authServiceImpl{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		txManager:   txManager,
		countries:   countries,
		tokens:      tokens,
		logger:      logger,
	}
}

// Signup creates a company and its first Admin user, returning the user
// and a signed token.
func (s *authServiceImpl) Signup(ctx context.Context, input SignupInput) (*entity.User, string, error) {
	if err := utils.ValidateEmail(input.Email); err != nil {
		return nil, "", fmt.Errorf("%w: %v", entity.ErrValidation, err)
	}
	if len(input.Password) < 6 {
		return nil, "", fmt.Errorf("%w: password must be at least 6 characters", entity.ErrValidation)
	}
	if input.Country == "" {
		return nil, "", fmt.Errorf("%w: country is required", entity.ErrValidation)
	}

	if existing, err := s.userRepo.GetByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, "", fmt.Errorf("%w: user already exists", entity.ErrValidation)
	}

	currency, err := s.countries.CurrencyFor(ctx, input.Country)
	if err != nil {
		s.logger.Error("Country currency lookup failed, defaulting to USD",
			"error", err, "country", input.Country)
		currency = "USD"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         entity.RoleAdmin,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		company := &entity.Company{
			Name:     fmt.Sprintf("%s's Company", input.Name),
			Country:  input.Country,
			Currency: currency,
		}
		if err := s.companyRepo.Create(txCtx, company); err != nil {
			return fmt.Errorf("create company: %w", err)
		}

		user.CompanyID = company.ID
		if err := s.userRepo.Create(txCtx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Signup failed", "error", err, "email", input.Email)
		return nil, "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("Company signed up", "company_id", user.CompanyID, "admin_id", user.ID, "currency", currency)
	return user, token, nil
}

// Login verifies credentials and returns the user with a signed token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *authServiceImpl) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid credentials", entity.ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("%w: invalid credentials", entity.ErrUnauthorized)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("User logged in", "id", user.ID)
	return user, token, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *authServiceImpl) ChangePassword(ctx context.Context, actor *entity.User, current, next string) error {
	if len(next) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", entity.ErrValidation)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(current)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", entity.ErrUnauthorized)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	actor.PasswordHash = string(hash)
	if err := s.userRepo.Update(ctx, actor); err != nil {
		s.logger.Error("Failed to change password", "error", err, "id", actor.ID)
		return err
	}

	s.logger.Info("Password changed", "id", actor.ID)
	return nil
}

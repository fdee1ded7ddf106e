package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

type mockCountryResolver struct {
	currencyForFunc func(ctx context.Context, country string) (string, error)
}

func (m *mockCountryResolver) CurrencyFor(ctx context.Context, country string) (string, error) {
	if m.currencyForFunc != nil {
		return m.currencyForFunc(ctx, country)
	}
	return "USD", nil
}

func (m *mockCountryResolver) Countries(ctx context.Context) ([]port.Country, error) {
	return nil, nil
}

type mockTokenIssuer struct{}

func (m *mockTokenIssuer) Issue(user *entity.User) (string, error) {
	return "signed-token", nil
}

func (m *mockTokenIssuer) Verify(token string) (int64, string, error) {
	return 0, "", errors.New("not implemented")
}

func newAuthService(userRepo *mockUserRepo, companyRepo *mockCompanyRepo, countries *mockCountryResolver) AuthService {
	return NewAuthService(userRepo, companyRepo, &mockTxManager{}, countries, &mockTokenIssuer{}, &mockLogger{})
}

func TestSignup_CreatesCompanyAndAdmin(t *testing.T) {
	userRepo := &mockUserRepo{}
	companyRepo := &mockCompanyRepo{}
	countries := &mockCountryResolver{
		currencyForFunc: func(_ context.Context, country string) (string, error) {
			assert.Equal(t, "India", country)
			return "INR", nil
		},
	}
	svc := newAuthService(userRepo, companyRepo, countries)

	user, token, err := svc.Signup(context.Background(), SignupInput{
		Name:     "Priya",
		Email:    "priya@example.com",
		Password: "secret123",
		Country:  "India",
	})
	require.NoError(t, err)
	assert.Equal(t, "signed-token", token)
	assert.Equal(t, entity.RoleAdmin, user.Role)

	require.Len(t, companyRepo.created, 1)
	company := companyRepo.created[0]
	assert.Equal(t, "Priya's Company", company.Name)
	assert.Equal(t, "INR", company.Currency)
	assert.Equal(t, company.ID, user.CompanyID)

	// The stored hash must verify against the raw password.
	require.Len(t, userRepo.created, 1)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))
}

func TestSignup_CurrencyLookupFailureDefaultsToUSD(t *testing.T) {
	companyRepo := &mockCompanyRepo{}
	countries := &mockCountryResolver{
		currencyForFunc: func(_ context.Context, _ string) (string, error) {
			return "", errors.New("provider down")
		},
	}
	svc := newAuthService(&mockUserRepo{}, companyRepo, countries)

	_, _, err := svc.Signup(context.Background(), SignupInput{
		Name:     "Sam",
		Email:    "sam@example.com",
		Password: "secret123",
		Country:  "Atlantis",
	})
	require.NoError(t, err)
	require.Len(t, companyRepo.created, 1)
	assert.Equal(t, "USD", companyRepo.created[0].Currency)
}

func TestSignup_Validation(t *testing.T) {
	svc := newAuthService(&mockUserRepo{}, &mockCompanyRepo{}, &mockCountryResolver{})

	tests := []struct {
		name  string
		input SignupInput
	}{
		{"bad email", SignupInput{Name: "A", Email: "not-an-email", Password: "secret123", Country: "US"}},
		{"short password", SignupInput{Name: "A", Email: "a@example.com", Password: "123", Country: "US"}},
		{"missing country", SignupInput{Name: "A", Email: "a@example.com", Password: "secret123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Signup(context.Background(), tt.input)
			assert.ErrorIs(t, err, entity.ErrValidation)
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	userRepo := &mockUserRepo{
		getByEmailFunc: func(_ context.Context, email string) (*entity.User, error) {
			return &entity.User{ID: 1, Email: email}, nil
		},
	}
	svc := newAuthService(userRepo, &mockCompanyRepo{}, &mockCountryResolver{})

	_, _, err := svc.Signup(context.Background(), SignupInput{
		Name:     "A",
		Email:    "taken@example.com",
		Password: "secret123",
		Country:  "US",
	})
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &entity.User{ID: 7, Email: "priya@example.com", PasswordHash: string(hash)}
	userRepo := &mockUserRepo{
		getByEmailFunc: func(_ context.Context, email string) (*entity.User, error) {
			if email == stored.Email {
				return stored, nil
			}
			return nil, entity.ErrNotFound
		},
	}
	svc := newAuthService(userRepo, &mockCompanyRepo{}, &mockCountryResolver{})

	t.Run("valid credentials", func(t *testing.T) {
		user, token, err := svc.Login(context.Background(), "priya@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, int64(7), user.ID)
		assert.Equal(t, "signed-token", token)
	})

	// Unknown email and wrong password come back identical.
	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "priya@example.com", "wrong")
		assert.ErrorIs(t, err, entity.ErrUnauthorized)
	})
	t.Run("unknown email", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "ghost@example.com", "secret123")
		assert.ErrorIs(t, err, entity.ErrUnauthorized)
	})
}

func TestChangePassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("oldpass"), bcrypt.MinCost)
	require.NoError(t, err)
	actor := &entity.User{ID: 7, PasswordHash: string(hash)}
	svc := newAuthService(&mockUserRepo{}, &mockCompanyRepo{}, &mockCountryResolver{})

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(context.Background(), actor, "nope", "newpass1")
		assert.ErrorIs(t, err, entity.ErrUnauthorized)
	})

	t.Run("short new password", func(t *testing.T) {
		err := svc.ChangePassword(context.Background(), actor, "oldpass", "123")
		assert.ErrorIs(t, err, entity.ErrValidation)
	})

	t.Run("success", func(t *testing.T) {
		err := svc.ChangePassword(context.Background(), actor, "oldpass", "newpass1")
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte("newpass1")))
	})
}

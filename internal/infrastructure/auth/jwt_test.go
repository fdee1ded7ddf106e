package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewJWTIssuer("test-secret", time.Hour)
	user := &entity.User{ID: 42, Role: entity.RoleManager}

	token, err := issuer.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, role, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
	assert.Equal(t, entity.RoleManager, role)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := NewJWTIssuer("secret-a", time.Hour).Issue(&entity.User{ID: 1, Role: entity.RoleEmployee})
	require.NoError(t, err)

	_, _, err = NewJWTIssuer("secret-b", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	issuer := NewJWTIssuer("test-secret", -time.Minute)
	token, err := issuer.Issue(&entity.User{ID: 1, Role: entity.RoleEmployee})
	require.NoError(t, err)

	_, _, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	issuer := NewJWTIssuer("test-secret", time.Hour)

	_, _, err := issuer.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

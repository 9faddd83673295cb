package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	m, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	signed, issued, err := m.Issue("user-1", "sam@example.com", "staff")
	require.NoError(t, err)

	claims, err := m.Parse(signed, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "staff", claims.Role)
	assert.Equal(t, issued.TokenID, claims.TokenID)
	assert.WithinDuration(t, issued.ExpiresAt, claims.ExpiresAt, time.Second)
}

func TestParse_Expired(t *testing.T) {
	m, err := NewTokenManager("test-secret", time.Minute)
	require.NoError(t, err)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	signed, _, err := m.Issue("user-1", "sam@example.com", "customer")
	require.NoError(t, err)

	_, err = m.Parse(signed, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_WrongSecretAndType(t *testing.T) {
	m, _ := NewTokenManager("test-secret", time.Hour)
	other, _ := NewTokenManager("other-secret", time.Hour)

	signed, _, err := other.Issue("user-1", "sam@example.com", "customer")
	require.NoError(t, err)
	_, err = m.Parse(signed, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"typ": "refresh",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := refresh.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = m.Parse(s, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	_, err := NewTokenManager("", time.Hour)
	assert.ErrorIs(t, err, ErrSecretMissing)
}

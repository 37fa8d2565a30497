package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *Manager {
	return &Manager{
		Secret:     []byte("test-secret"),
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		Issuer:     "taxsavings-backend",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testManager()
	token, err := m.NewAccessToken("jordan", RoleAdmin)
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, KindAccess, claims.Kind)
	assert.Equal(t, "jordan", claims.Subject)
}

func TestParseRejectsForeignSecretAndIssuer(t *testing.T) {
	m := testManager()
	token, err := m.NewRefreshToken("jordan", RoleAdmin)
	require.NoError(t, err)

	other := testManager()
	other.Secret = []byte("other")
	_, err = other.Parse(token)
	assert.Error(t, err)

	other = testManager()
	other.Issuer = "someone-else"
	_, err = other.Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	m := testManager()
	m.AccessTTL = -time.Minute
	token, err := m.NewAccessToken("jordan", RoleAdmin)
	require.NoError(t, err)
	_, err = m.Parse(token)
	assert.Error(t, err)
}

func TestClaimsContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithClaims(context.Background(), &Claims{Role: RoleAdmin})
	claims, ok := ClaimsFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "correct horse"))
	assert.Error(t, ComparePassword(hash, "battery staple"))

	_, err = HashPassword("")
	assert.Error(t, err)
}

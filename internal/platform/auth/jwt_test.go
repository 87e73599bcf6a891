package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lenderhub/internal/platform/config"
)

func testConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "lenderhub", AccessTokenTTL: time.Hour}
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService(testConfig())

	token, err := svc.GenerateAccessToken("user_1", "org_1", "admin", "ops@lender.test")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user_1", claims.Subject)
	assert.Equal(t, "org_1", claims.OrgID)

	s := claims.Session()
	assert.Equal(t, "user_1", s.UserID)
	assert.Equal(t, "org_1", s.OrgID)
	assert.Equal(t, "admin", s.Role)
	assert.False(t, s.ExpiresAt.IsZero())
}

func TestTokenService_Rejects(t *testing.T) {
	svc := NewTokenService(testConfig())

	other := NewTokenService(config.JWTConfig{Secret: "other", Issuer: "lenderhub", AccessTokenTTL: time.Hour})
	forged, err := other.GenerateAccessToken("user_1", "org_1", "admin", "")
	require.NoError(t, err)
	_, err = svc.ValidateToken(forged)
	assert.Error(t, err, "wrong signing key")

	expired := NewTokenService(testConfig())
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.GenerateAccessToken("user_1", "org_1", "admin", "")
	require.NoError(t, err)
	_, err = svc.ValidateToken(old)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	noOrg, err := svc.GenerateAccessToken("user_1", "", "admin", "")
	require.NoError(t, err)
	_, err = svc.ValidateToken(noOrg)
	assert.Error(t, err)

	_, err = svc.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}

func TestTokenService_NoSecret(t *testing.T) {
	svc := NewTokenService(config.JWTConfig{})
	_, err := svc.GenerateAccessToken("u", "o", "r", "e")
	assert.Error(t, err)
	_, err = svc.ValidateToken("x")
	assert.Error(t, err)
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-contacts-api/config"
	"github.com/FACorreiaa/go-contacts-api/internal/api"
)

func testAuthConfig() config.AuthConfig {
	cfg := config.AuthConfig{}
	cfg.JWT.SecretKey = "test-access-secret"
	cfg.JWT.Issuer = "test-issuer"
	cfg.JWT.AccessTokenTTL = 15 * time.Minute
	cfg.JWT.ResetTokenTTL = 20 * time.Minute
	cfg.BcryptCost = 4
	cfg.IdentityCacheTTL = time.Hour
	cfg.RateLimit.Window = time.Minute
	cfg.RateLimit.AuthRequests = 5
	cfg.RateLimit.UserRequests = 10
	return cfg
}

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService(testAuthConfig())
	require.NoError(t, err)
	return svc
}

func TestTokenService_AccessRoundTrip(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.IssueAccess("alice@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := svc.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", subject)
}

func TestTokenService_AccessExpiry(t *testing.T) {
	svc := newTestTokenService(t)
	base := time.Now()
	svc.now = func() time.Time { return base }

	token, err := svc.IssueAccess("alice@x.com")
	require.NoError(t, err)

	// Still valid just inside the 15 minute lifetime.
	svc.now = func() time.Time { return base.Add(14 * time.Minute) }
	subject, err := svc.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", subject)

	svc.now = func() time.Time { return base.Add(16 * time.Minute) }
	_, err = svc.VerifyAccess(token)
	assert.ErrorIs(t, err, api.ErrTokenExpired)
}

func TestTokenService_NamespaceIsolation(t *testing.T) {
	svc := newTestTokenService(t)

	access, err := svc.IssueAccess("alice@x.com")
	require.NoError(t, err)
	reset, _, _, err := svc.IssueReset("alice@x.com")
	require.NoError(t, err)

	_, _, err = svc.VerifyReset(access)
	assert.ErrorIs(t, err, api.ErrInvalidToken)

	_, err = svc.VerifyAccess(reset)
	assert.ErrorIs(t, err, api.ErrInvalidToken)
}

func TestTokenService_TamperedToken(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.IssueAccess("alice@x.com")
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = svc.VerifyAccess(tampered)
	assert.ErrorIs(t, err, api.ErrInvalidToken)

	_, err = svc.VerifyAccess("not-a-jwt")
	assert.ErrorIs(t, err, api.ErrInvalidToken)
}

func TestTokenService_SecretRotationInvalidatesTokens(t *testing.T) {
	svc := newTestTokenService(t)
	token, err := svc.IssueAccess("alice@x.com")
	require.NoError(t, err)

	rotated := testAuthConfig()
	rotated.JWT.SecretKey = "rotated-secret"
	svc2, err := NewTokenService(rotated)
	require.NoError(t, err)

	_, err = svc2.VerifyAccess(token)
	assert.ErrorIs(t, err, api.ErrInvalidToken)
}

func TestTokenService_EmptySecretRejected(t *testing.T) {
	cfg := testAuthConfig()
	cfg.JWT.SecretKey = ""
	_, err := NewTokenService(cfg)
	assert.Error(t, err)
}

func TestTokenService_ResetExpiry(t *testing.T) {
	svc := newTestTokenService(t)
	base := time.Now()
	svc.now = func() time.Time { return base }

	token, tokenID, ttl, err := svc.IssueReset("bob@x.com")
	require.NoError(t, err)
	assert.NotEmpty(t, tokenID)
	assert.Equal(t, 20*time.Minute, ttl)

	svc.now = func() time.Time { return base.Add(21 * time.Minute) }
	_, _, err = svc.VerifyReset(token)
	assert.ErrorIs(t, err, api.ErrTokenExpired)
}

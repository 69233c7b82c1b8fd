package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-contacts-api/config"
	"github.com/FACorreiaa/go-contacts-api/internal/api"
)

// Token scopes. An access token never verifies as a reset token and vice
// versa.
const (
	scopeAccess = "access"
	scopeReset  = "password_reset"
)

// TokenService issues and verifies signed, time-limited bearer tokens.
// Verification is purely cryptographic plus an expiry check; no state is
// touched. The signing secret is injected once at construction; rotating it
// invalidates every outstanding token, which is the accepted behavior.
type TokenService struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	resetTTL  time.Duration

	now func() time.Time
}

func NewTokenService(cfg config.AuthConfig) (*TokenService, error) {
	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("JWT secret key cannot be empty")
	}
	return &TokenService{
		secret:    []byte(cfg.JWT.SecretKey),
		issuer:    cfg.JWT.Issuer,
		accessTTL: cfg.JWT.AccessTokenTTL,
		resetTTL:  cfg.JWT.ResetTokenTTL,
		now:       time.Now,
	}, nil
}

// IssueAccess produces a signed access token for subject.
func (s *TokenService) IssueAccess(subject string) (string, error) {
	return s.sign(subject, scopeAccess, s.accessTTL)
}

// VerifyAccess validates token and returns its subject. Fails with
// api.ErrInvalidToken on anything malformed or tampered, api.ErrTokenExpired
// past expiry.
func (s *TokenService) VerifyAccess(token string) (string, error) {
	claims, err := s.parse(token, scopeAccess)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IssueReset produces a reset token in its own scope with the shorter reset
// TTL. The returned token ID keys the single-use record the caller persists.
func (s *TokenService) IssueReset(subject string) (token, tokenID string, ttl time.Duration, err error) {
	tokenID = uuid.NewString()
	token, err = s.signWithID(subject, scopeReset, s.resetTTL, tokenID)
	return token, tokenID, s.resetTTL, err
}

// VerifyReset validates a reset token and returns its subject and token ID.
// Consumption state lives with the caller; this check is stateless.
func (s *TokenService) VerifyReset(token string) (subject, tokenID string, err error) {
	claims, err := s.parse(token, scopeReset)
	if err != nil {
		return "", "", err
	}
	if claims.ID == "" {
		return "", "", fmt.Errorf("reset token missing id: %w", api.ErrInvalidToken)
	}
	return claims.Subject, claims.ID, nil
}

func (s *TokenService) sign(subject, scope string, ttl time.Duration) (string, error) {
	return s.signWithID(subject, scope, ttl, uuid.NewString())
}

func (s *TokenService) signWithID(subject, scope string, ttl time.Duration, id string) (string, error) {
	now := s.now()
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) parse(tokenString, wantScope string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		// Signature and malformed failures abort before claim validation, so
		// ErrTokenExpired here means the token is authentic but stale.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %s", api.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %s", api.ErrInvalidToken, err)
	}
	if claims.Scope != wantScope {
		return nil, fmt.Errorf("token scope mismatch: %w", api.ErrInvalidToken)
	}
	return claims, nil
}

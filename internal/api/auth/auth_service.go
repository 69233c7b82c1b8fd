package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-contacts-api/app/observability/metrics"
	"github.com/FACorreiaa/go-contacts-api/internal/api"
)

var _ AuthService = (*AuthServiceImpl)(nil)

type AuthService interface {
	// Signup creates an unverified account and dispatches a verification email.
	Signup(ctx context.Context, email, password string) (*UserAuth, error)
	// Login checks credentials and returns a signed access token.
	Login(ctx context.Context, email, password string) (string, error)
	// VerifyEmail redeems a verification token, marking the account verified.
	VerifyEmail(ctx context.Context, token string) (*UserAuth, error)
	// ResendVerification rotates and re-sends the verification token.
	ResendVerification(ctx context.Context, email string) error
}

type AuthServiceImpl struct {
	repo   UserRepo
	hasher *Hasher
	tokens *TokenService
	cache  *IdentityCache
	mailer Mailer
	logger *slog.Logger
}

func NewAuthService(repo UserRepo, hasher *Hasher, tokens *TokenService, cache *IdentityCache, mailer Mailer, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		cache:  cache,
		mailer: mailer,
		logger: logger,
	}
}

func (s *AuthServiceImpl) Signup(ctx context.Context, email, password string) (*UserAuth, error) {
	metrics.Get().SignupRequestsTotal.Add(ctx, 1)

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email address: %w", api.ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	verificationToken := uuid.NewString()
	user, err := s.repo.CreateUser(ctx, email, hash, verificationToken)
	if err != nil {
		return nil, err
	}

	if err := s.mailer.Send(ctx, user.Email, MailVerification, map[string]string{"token": verificationToken}); err != nil {
		s.logger.ErrorContext(ctx, "Failed to dispatch verification email",
			slog.String("email", user.Email), slog.Any("error", err))
	}
	return user, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, error) {
	metrics.Get().LoginAttemptsTotal.Add(ctx, 1)

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return "", api.ErrUnauthenticated
		}
		return "", fmt.Errorf("login lookup: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.logger.ErrorContext(ctx, "Stored credential hash is corrupt",
			slog.String("email", email), slog.Any("error", err))
		return "", api.ErrUnauthenticated
	}
	if !ok {
		return "", api.ErrUnauthenticated
	}

	if !user.Verified {
		return "", ErrEmailNotVerified
	}

	token, err := s.tokens.IssueAccess(user.Email)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return token, nil
}

func (s *AuthServiceImpl) VerifyEmail(ctx context.Context, token string) (*UserAuth, error) {
	if token == "" {
		return nil, fmt.Errorf("empty verification token: %w", api.ErrInvalidInput)
	}

	user, err := s.repo.GetUserByVerificationToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	user.Verified = true

	// The verified flag gates logins, so any cached snapshot is now stale.
	s.cache.Invalidate(ctx, user.Email)
	return user, nil
}

func (s *AuthServiceImpl) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Verified {
		return fmt.Errorf("user already verified: %w", api.ErrConflict)
	}

	verificationToken := uuid.NewString()
	if err := s.repo.SetVerificationToken(ctx, user.ID, verificationToken); err != nil {
		return fmt.Errorf("rotate verification token: %w", err)
	}

	if err := s.mailer.Send(ctx, user.Email, MailVerification, map[string]string{"token": verificationToken}); err != nil {
		s.logger.ErrorContext(ctx, "Failed to dispatch verification email",
			slog.String("email", user.Email), slog.Any("error", err))
	}
	return nil
}

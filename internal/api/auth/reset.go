package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/go-contacts-api/app/kv"
	"github.com/FACorreiaa/go-contacts-api/app/observability/metrics"
	"github.com/FACorreiaa/go-contacts-api/internal/api"
)

const resetKeyPrefix = "reset:"

// Reset record states. The record moves issued -> consumed exactly once via
// compare-and-swap; expiry is enforced lazily by the store's TTL.
const (
	resetStateIssued   = "issued"
	resetStateConsumed = "consumed"
)

// PasswordResetFlow orchestrates single-use reset tokens: issuance plus email
// dispatch on request, atomic consumption plus credential update on redeem.
type PasswordResetFlow struct {
	tokens *TokenService
	store  kv.Store
	repo   UserRepo
	cache  *IdentityCache
	hasher *Hasher
	mailer Mailer
	logger *slog.Logger
}

func NewPasswordResetFlow(tokens *TokenService, store kv.Store, repo UserRepo, cache *IdentityCache, hasher *Hasher, mailer Mailer, logger *slog.Logger) *PasswordResetFlow {
	return &PasswordResetFlow{
		tokens: tokens,
		store:  store,
		repo:   repo,
		cache:  cache,
		hasher: hasher,
		mailer: mailer,
		logger: logger,
	}
}

// RequestReset issues a reset token for email if the account exists. The
// caller observes the same outcome whether or not the address is registered;
// lookup misses and mail failures are logged, never returned, to prevent
// account enumeration. Only genuine persistent-store failures surface.
func (f *PasswordResetFlow) RequestReset(ctx context.Context, email string) error {
	metrics.Get().ResetRequestsTotal.Add(ctx, 1)

	user, err := f.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			f.logger.DebugContext(ctx, "Reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("reset request lookup: %w", err)
	}

	token, tokenID, ttl, err := f.tokens.IssueReset(user.Email)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	if err := f.store.SetWithTTL(ctx, resetKeyPrefix+tokenID, []byte(resetStateIssued), ttl); err != nil {
		// Without the record the token can never be redeemed, so this is a
		// real failure of the request, not a swallowable cache error.
		return fmt.Errorf("%w: persist reset record: %s", api.ErrStoreUnavailable, err)
	}

	if err := f.mailer.Send(ctx, user.Email, MailPasswordReset, map[string]string{"token": token}); err != nil {
		f.logger.ErrorContext(ctx, "Failed to dispatch reset email", slog.Any("error", err))
	}
	return nil
}

// ConfirmReset redeems token and sets newPassword. The consumption mark and
// the credential update form one logical transaction with a fail-safe bias:
// once the record is swapped to consumed the token is burned, even if the
// credential update then fails. A second redemption of the same token fails
// with api.ErrTokenConsumed regardless of interleaving; the swap is a single
// store-side compare-and-swap, so two concurrent attempts cannot both win.
func (f *PasswordResetFlow) ConfirmReset(ctx context.Context, token, newPassword string) error {
	subject, tokenID, err := f.tokens.VerifyReset(token)
	if err != nil {
		return err
	}

	// Hash before consuming so invalid input does not burn the token.
	newHash, err := f.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	key := resetKeyPrefix + tokenID
	swapped, err := f.store.CompareAndSwap(ctx, key, []byte(resetStateIssued), []byte(resetStateConsumed))
	if err != nil {
		return fmt.Errorf("%w: consume reset record: %s", api.ErrStoreUnavailable, err)
	}
	if !swapped {
		// Distinguish a consumed record from one the store already expired.
		if _, gerr := f.store.Get(ctx, key); errors.Is(gerr, kv.ErrMiss) {
			return api.ErrTokenExpired
		}
		return api.ErrTokenConsumed
	}

	if err := f.repo.UpdatePasswordHash(ctx, subject, newHash); err != nil {
		// Token stays burned; the user must request a fresh reset.
		f.logger.ErrorContext(ctx, "Credential update failed after consuming reset token",
			slog.String("subject", subject), slog.Any("error", err))
		return fmt.Errorf("update credential: %w", err)
	}

	f.cache.Invalidate(ctx, subject)
	metrics.Get().ResetRedemptionsTotal.Add(ctx, 1)
	return nil
}

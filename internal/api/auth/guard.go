package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/FACorreiaa/go-contacts-api/internal/api"
)

type contextKey string

const currentUserKey contextKey = "currentUser"

// CurrentUserFromContext returns the identity the Authenticate middleware
// resolved for this request.
func CurrentUserFromContext(ctx context.Context) (*UserAuth, bool) {
	user, ok := ctx.Value(currentUserKey).(*UserAuth)
	return user, ok
}

// Guard resolves "who is this request from" and enforces role requirements.
// It composes the token service with the identity cache, falling through to
// the persistent store on a miss. It never mutates the user identity;
// mutators must call IdentityCache.Invalidate themselves.
type Guard struct {
	tokens *TokenService
	cache  *IdentityCache
	repo   UserRepo
	logger *slog.Logger
}

func NewGuard(tokens *TokenService, cache *IdentityCache, repo UserRepo, logger *slog.Logger) *Guard {
	return &Guard{tokens: tokens, cache: cache, repo: repo, logger: logger}
}

// ResolveCurrentUser verifies rawToken and materializes the user it asserts.
// All token failures map to api.ErrUnauthenticated; the specific failure is
// logged, never returned. Persistent-store failures surface as-is since the
// store is the source of truth.
func (g *Guard) ResolveCurrentUser(ctx context.Context, rawToken string) (*UserAuth, error) {
	subject, err := g.tokens.VerifyAccess(rawToken)
	if err != nil {
		g.logger.DebugContext(ctx, "Access token rejected", slog.Any("error", err))
		return nil, api.ErrUnauthenticated
	}

	if user, ok := g.cache.Get(ctx, subject); ok {
		return user, nil
	}

	user, err := g.repo.GetUserByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			// Token is valid but its subject no longer exists.
			return nil, api.ErrUnauthenticated
		}
		return nil, fmt.Errorf("resolve current user: %w", err)
	}

	g.cache.Put(ctx, subject, user)
	return user, nil
}

// RequireRole is a pure predicate over the flat two-role model.
func RequireRole(user *UserAuth, role string) error {
	if user == nil || user.Role != role {
		return api.ErrForbidden
	}
	return nil
}

// Authenticate extracts the bearer token from the Authorization header,
// resolves the identity and stores it in the request context.
func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") {
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		user, err := g.ResolveCurrentUser(r.Context(), headerParts[1])
		if err != nil {
			if errors.Is(err, api.ErrUnauthenticated) {
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Could not validate credentials")
				return
			}
			g.logger.ErrorContext(r.Context(), "Failed to resolve current user", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
			return
		}

		ctx := context.WithValue(r.Context(), currentUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates a route on the admin role. Runs after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUserFromContext(r.Context())
		if !ok {
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}
		if err := RequireRole(user, RoleAdmin); err != nil {
			api.ErrorResponse(w, r, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

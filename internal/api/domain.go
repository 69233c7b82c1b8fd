package api

import "errors"

// Shared error taxonomy. Services return these sentinels (wrapped with
// context); handlers translate them to HTTP statuses via StatusFromError.
// Token errors are collapsed to a single 401 message at the HTTP boundary so
// callers cannot distinguish signature, expiry and malformed failures.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrCorruptCredential = errors.New("malformed credential hash")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenConsumed     = errors.New("token already consumed")
	ErrUnauthenticated   = errors.New("authentication required or invalid credentials")
	ErrForbidden         = errors.New("action forbidden")
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrStoreUnavailable  = errors.New("volatile store unavailable")
	ErrNotFound          = errors.New("requested item not found")
	ErrConflict          = errors.New("item already exists or conflict")
)

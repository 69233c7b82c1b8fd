package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Flat two-role model. Admin-only routes require RoleAdmin; there is no
// hierarchy between the two.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ErrEmailNotVerified rejects logins for accounts that never confirmed their
// email address.
var ErrEmailNotVerified = errors.New("email address not verified")

// UserAuth is the materialized user identity the auth core works with. The
// password hash never serializes, so cached snapshots carry only what the
// access-control guard needs.
type UserAuth struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	AvatarURL    *string   `json:"avatar,omitempty"`
	Verified     bool      `json:"verified"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Claims is the JWT payload for both access and reset tokens; Scope keeps the
// two namespaces from ever verifying interchangeably.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// SignupRequest represents the expected JSON body for user registration.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the successful JSON response after login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type ResendVerificationRequest struct {
	Email string `json:"email"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordResetConfirm struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// Generic response for simple success/error messages.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

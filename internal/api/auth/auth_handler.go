package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/go-contacts-api/internal/api"
)

type AuthHandler struct {
	service AuthService
	reset   *PasswordResetFlow
	logger  *slog.Logger
}

func NewAuthHandler(service AuthService, reset *PasswordResetFlow, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		reset:   reset,
		logger:  logger,
	}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, api.ErrConflict) {
			api.ErrorResponse(w, r, http.StatusConflict, "Email already registered")
			return
		}
		h.respondError(w, r, err, "Signup failed")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailNotVerified):
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Please verify your email address")
		case errors.Is(err, api.ErrUnauthenticated):
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Incorrect email or password")
		default:
			h.respondError(w, r, err, "Login failed")
		}
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, LoginResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	user, err := h.service.VerifyEmail(r.Context(), token)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found or already verified")
			return
		}
		h.respondError(w, r, err, "Email verification failed")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, user)
}

func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req ResendVerificationRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.ResendVerification(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, api.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
		case errors.Is(err, api.ErrConflict):
			api.ErrorResponse(w, r, http.StatusBadRequest, "User already verified")
		default:
			h.respondError(w, r, err, "Resend verification failed")
		}
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, Response{Success: true, Message: "Verification email resent"})
}

// RequestReset answers identically whether or not the email is registered.
func (h *AuthHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.reset.RequestReset(r.Context(), req.Email); err != nil {
		h.respondError(w, r, err, "Password reset request failed")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusAccepted, Response{
		Success: true,
		Message: "If that account exists, a reset message is on its way",
	})
}

func (h *AuthHandler) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirm
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.reset.ConfirmReset(r.Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, api.ErrTokenConsumed):
			api.ErrorResponse(w, r, http.StatusGone, "Reset token already used")
		case errors.Is(err, api.ErrInvalidToken), errors.Is(err, api.ErrTokenExpired):
			// Collapsed on purpose; do not reveal which check failed.
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid or expired reset token")
		case errors.Is(err, api.ErrInvalidInput):
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid new password")
		default:
			h.respondError(w, r, err, "Password reset failed")
		}
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, Response{Success: true, Message: "Password updated"})
}

func (h *AuthHandler) respondError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := api.StatusFromError(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), msg, slog.Any("error", err))
		api.ErrorResponse(w, r, status, "Internal server error")
		return
	}
	h.logger.WarnContext(r.Context(), msg, slog.Any("error", err))
	api.ErrorResponse(w, r, status, msg)
}

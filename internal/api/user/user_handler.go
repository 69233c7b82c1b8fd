package user

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-contacts-api/internal/api"
	"github.com/FACorreiaa/go-contacts-api/internal/api/auth"
)

// UserHandler serves the current-user endpoints and the admin-gated role
// update. Every mutation of a user is followed by an explicit identity-cache
// invalidation so authorization decisions never run on a stale snapshot.
type UserHandler struct {
	repo    auth.UserRepo
	cache   *auth.IdentityCache
	avatars AvatarStorage
	logger  *slog.Logger
}

func NewUserHandler(repo auth.UserRepo, cache *auth.IdentityCache, avatars AvatarStorage, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		repo:    repo,
		cache:   cache,
		avatars: avatars,
		logger:  logger,
	}
}

// Me returns the identity resolved by the Authenticate middleware.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, user)
}

// UpdateAvatar stores the uploaded file through the avatar collaborator and
// persists the resulting URL.
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	current, ok := auth.CurrentUserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Missing avatar file")
		return
	}
	defer file.Close()

	url, err := h.avatars.Upload(r.Context(), current.ID, file)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Avatar upload failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Avatar upload failed")
		return
	}

	if err := h.repo.UpdateAvatar(r.Context(), current.ID, url); err != nil {
		h.logger.ErrorContext(r.Context(), "Avatar update failed", slog.Any("error", err))
		api.ErrorResponse(w, r, api.StatusFromError(err), "Avatar update failed")
		return
	}
	h.cache.Invalidate(r.Context(), current.Email)

	updated := *current
	updated.AvatarURL = &url
	api.WriteJSONResponse(w, r, http.StatusOK, updated)
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateRole flips a user between the two flat roles. Mounted behind
// RequireAdmin.
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user id")
		return
	}

	var req updateRoleRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	target, err := h.repo.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "Role update lookup failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.repo.UpdateRole(r.Context(), userID, req.Role); err != nil {
		api.ErrorResponse(w, r, api.StatusFromError(err), "Role update failed")
		return
	}
	// Role gates authorization; the cached snapshot must die with the change.
	h.cache.Invalidate(r.Context(), target.Email)

	target.Role = req.Role
	api.WriteJSONResponse(w, r, http.StatusOK, target)
}

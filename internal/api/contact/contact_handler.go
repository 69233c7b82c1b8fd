package contact

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-contacts-api/internal/api"
	"github.com/FACorreiaa/go-contacts-api/internal/api/auth"
)

const (
	defaultLimit   = 100
	birthdayWindow = 7 * 24 * time.Hour
)

type ContactHandler struct {
	repo   ContactRepo
	logger *slog.Logger
}

func NewContactHandler(repo ContactRepo, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{
		repo:   repo,
		logger: logger,
	}
}

func (h *ContactHandler) parseUpsert(w http.ResponseWriter, r *http.Request) (UpsertParams, bool) {
	var req UpsertContactRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return UpsertParams{}, false
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "first_name, last_name and email are required")
		return UpsertParams{}, false
	}
	birthday, err := time.Parse("2006-01-02", req.Birthday)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "birthday must be YYYY-MM-DD")
		return UpsertParams{}, false
	}
	return UpsertParams{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		Birthday:       birthday,
		AdditionalData: req.AdditionalData,
	}, true
}

func currentUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	user, ok := auth.CurrentUserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	return user.ID, true
}

func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	params, ok := h.parseUpsert(w, r)
	if !ok {
		return
	}

	created, err := h.repo.Create(r.Context(), userID, params)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to create contact", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create contact")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, created)
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > defaultLimit {
		limit = defaultLimit
	}
	if skip < 0 {
		skip = 0
	}

	contacts, err := h.repo.List(r.Context(), userID, skip, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to list contacts", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list contacts")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, contacts)
}

func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	contactID, err := uuid.Parse(chi.URLParam(r, "contactID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid contact id")
		return
	}

	c, err := h.repo.GetByID(r.Context(), contactID, userID)
	if err != nil {
		h.respondRepoError(w, r, err, "Failed to fetch contact")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, c)
}

func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	contactID, err := uuid.Parse(chi.URLParam(r, "contactID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid contact id")
		return
	}
	params, ok := h.parseUpsert(w, r)
	if !ok {
		return
	}

	updated, err := h.repo.Update(r.Context(), contactID, userID, params)
	if err != nil {
		h.respondRepoError(w, r, err, "Failed to update contact")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, updated)
}

func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	contactID, err := uuid.Parse(chi.URLParam(r, "contactID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid contact id")
		return
	}

	if err := h.repo.Delete(r.Context(), contactID, userID); err != nil {
		h.respondRepoError(w, r, err, "Failed to delete contact")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

func (h *ContactHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	query := r.URL.Query().Get("query")
	if query == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "query parameter is required")
		return
	}

	contacts, err := h.repo.Search(r.Context(), userID, query)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Contact search failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Contact search failed")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, contacts)
}

func (h *ContactHandler) Birthdays(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	contacts, err := h.repo.UpcomingBirthdays(r.Context(), userID, birthdayWindow)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Birthday lookup failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Birthday lookup failed")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, contacts)
}

func (h *ContactHandler) respondRepoError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, api.ErrNotFound) {
		api.ErrorResponse(w, r, http.StatusNotFound, "Contact not found")
		return
	}
	h.logger.ErrorContext(r.Context(), msg, slog.Any("error", err))
	api.ErrorResponse(w, r, http.StatusInternalServerError, msg)
}

package user

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/toybox/toybox-api/internal/middleware"
	"github.com/toybox/toybox-api/internal/pkg/response"
	"github.com/toybox/toybox-api/internal/pkg/validator"
)

// Handler handles user profile HTTP requests
type Handler struct {
	repo Repository
}

// NewHandler creates new user handler
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// GetByID handles GET /users/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	u, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("user_id", id.String()).Msg("Failed to load user")
		response.InternalError(w)
		return
	}
	if u == nil {
		response.Error(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}

	response.OK(w, u.ToPublicProfile())
}

// UpdateMe handles PUT /users/me
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "User not authenticated")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	u, err := h.repo.GetByID(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to load user")
		response.InternalError(w)
		return
	}
	if u == nil {
		response.Error(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}

	u.Name = req.Name
	u.Phone = sql.NullString{String: req.Phone, Valid: req.Phone != ""}
	u.City = sql.NullString{String: req.City, Valid: req.City != ""}
	u.Bio = sql.NullString{String: req.Bio, Valid: req.Bio != ""}
	u.AvatarURL = sql.NullString{String: req.AvatarURL, Valid: req.AvatarURL != ""}

	if err := h.repo.UpdateProfile(r.Context(), u); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to update profile")
		response.InternalError(w)
		return
	}

	response.OK(w, u.ToPublicProfile())
}

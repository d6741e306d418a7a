package category

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/toybox/toybox-api/internal/pkg/response"
	"github.com/toybox/toybox-api/internal/pkg/validator"
)

// CategoryRequest is the admin create/update payload
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Slug        string `json:"slug" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

// Handler handles category HTTP requests
type Handler struct {
	repo *Repository
}

// NewHandler creates category handler
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /categories
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list categories")
		response.InternalError(w)
		return
	}

	response.OK(w, categories)
}

// Create handles POST /categories (admin)
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	c := &Category{
		ID:          uuid.New(),
		Name:        req.Name,
		Slug:        req.Slug,
		Description: sql.NullString{String: req.Description, Valid: req.Description != ""},
	}

	if err := h.repo.Create(r.Context(), c); err != nil {
		if err == ErrDuplicateSlug {
			response.Conflict(w, "Category slug already exists")
			return
		}
		log.Error().Err(err).Str("slug", req.Slug).Msg("Failed to create category")
		response.InternalError(w)
		return
	}

	response.Created(w, c)
}

// Update handles PUT /categories/{id} (admin)
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid category ID")
		return
	}

	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	c := &Category{
		ID:          id,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: sql.NullString{String: req.Description, Valid: req.Description != ""},
	}

	if err := h.repo.Update(r.Context(), c); err != nil {
		switch err {
		case ErrCategoryNotFound:
			response.NotFound(w, "Category not found")
		case ErrDuplicateSlug:
			response.Conflict(w, "Category slug already exists")
		default:
			log.Error().Err(err).Str("category_id", id.String()).Msg("Failed to update category")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, c)
}

// Delete handles DELETE /categories/{id} (admin)
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid category ID")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if err == ErrCategoryNotFound {
			response.NotFound(w, "Category not found")
			return
		}
		log.Error().Err(err).Str("category_id", id.String()).Msg("Failed to delete category")
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}

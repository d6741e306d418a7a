package comment

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/toybox/toybox-api/internal/middleware"
	"github.com/toybox/toybox-api/internal/pkg/response"
	"github.com/toybox/toybox-api/internal/pkg/validator"
)

// CreateCommentRequest represents comment creation input
type CreateCommentRequest struct {
	Body string `json:"body" validate:"required,max=1000"`
}

// Handler handles comment HTTP requests
type Handler struct {
	repo Repository
}

// NewHandler creates new comment handler
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// ListByToy handles GET /toys/{id}/comments
func (h *Handler) ListByToy(w http.ResponseWriter, r *http.Request) {
	toyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid toy ID")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	comments, total, err := h.repo.ListByToy(r.Context(), toyID, page, limit)
	if err != nil {
		log.Error().Err(err).Str("toy_id", toyID.String()).Msg("Failed to list comments")
		response.InternalError(w)
		return
	}

	response.WithMeta(w, comments, response.NewMeta(total, page, limit))
}

// Create handles POST /toys/{id}/comments
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	toyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid toy ID")
		return
	}

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	comment := &Comment{
		ID:       uuid.New(),
		ToyID:    toyID,
		AuthorID: userID,
		Body:     req.Body,
	}

	if err := h.repo.Create(r.Context(), comment); err != nil {
		log.Error().Err(err).Str("toy_id", toyID.String()).Msg("Failed to create comment")
		response.InternalError(w)
		return
	}

	response.Created(w, comment)
}

// Delete handles DELETE /comments/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid comment ID")
		return
	}

	comment, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("comment_id", id.String()).Msg("Failed to load comment")
		response.InternalError(w)
		return
	}
	if comment == nil {
		response.NotFound(w, "Comment not found")
		return
	}
	if comment.AuthorID != userID {
		response.Forbidden(w, "You can only delete your own comments")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if err == ErrCommentNotFound {
			response.NotFound(w, "Comment not found")
			return
		}
		log.Error().Err(err).Str("comment_id", id.String()).Msg("Failed to delete comment")
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}

// RegisterRoutes registers comment routes
func RegisterRoutes(r chi.Router, handler *Handler, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/toys/{id}/comments", handler.ListByToy)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/toys/{id}/comments", handler.Create)
		r.Delete("/comments/{id}", handler.Delete)
	})
}

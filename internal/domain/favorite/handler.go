package favorite

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/toybox/toybox-api/internal/middleware"
	"github.com/toybox/toybox-api/internal/pkg/response"
)

// Handler handles favorite HTTP requests
type Handler struct {
	repo Repository
}

// NewHandler creates new favorite handler
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// Add handles POST /toys/{id}/favorite
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	toyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid toy ID")
		return
	}

	if err := h.repo.Add(r.Context(), userID, toyID); err != nil {
		log.Error().Err(err).Str("toy_id", toyID.String()).Msg("Failed to add favorite")
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]bool{"favorited": true})
}

// Remove handles DELETE /toys/{id}/favorite
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	toyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid toy ID")
		return
	}

	if err := h.repo.Remove(r.Context(), userID, toyID); err != nil {
		log.Error().Err(err).Str("toy_id", toyID.String()).Msg("Failed to remove favorite")
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]bool{"favorited": false})
}

// List handles GET /favorites
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	favorites, err := h.repo.ListByUser(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list favorites")
		response.InternalError(w)
		return
	}

	response.OK(w, favorites)
}

// RegisterRoutes registers favorite routes, all behind auth
func RegisterRoutes(r chi.Router, handler *Handler, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/toys/{id}/favorite", handler.Add)
		r.Delete("/toys/{id}/favorite", handler.Remove)
		r.Get("/favorites", handler.List)
	})
}

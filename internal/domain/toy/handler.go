package toy

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

const maxPhotoUploadBytes = 10 << 20 // 10 MB

// Handler handles toy HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates new toy handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /toys
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := &Filter{}
	if v := q.Get("q"); v != "" {
		filter.Query = &v
	}
	if v := q.Get("category"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.CategoryID = &id
		}
	}
	if v := q.Get("owner"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.OwnerID = &id
		}
	}
	if v := q.Get("condition"); v != "" {
		c := Condition(v)
		filter.Condition = &c
	}
	if v := q.Get("status"); v != "" {
		st := Status(v)
		filter.Status = &st
	}
	if v := q.Get("city"); v != "" {
		filter.City = &v
	}
	if v := q.Get("rate_min"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.RateMin = &f
		}
	}
	if v := q.Get("rate_max"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.RateMax = &f
		}
	}
	if v := q.Get("age"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.AgeYears = &n
		}
	}

	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	pagination := &Pagination{Page: page, Limit: limit}

	toys, total, err := h.service.List(r.Context(), filter, SortBy(q.Get("sort")), pagination)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list toys")
		response.InternalError(w)
		return
	}

	items := make([]*ToyResponse, len(toys))
	for i, t := range toys {
		items[i] = t.ToResponse()
	}

	response.WithMeta(w, items, response.NewMeta(total, pagination.Page, pagination.Limit))
}

// Get handles GET /toys/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid toy ID")
		return
	}

	toy, err := h.service.Get(r.Context(), id, true)
	if err != nil {
		if err == ErrToyNotFound {
			response.Error(w, http.StatusNotFound, "TOY_NOT_FOUND", "Toy not found")
			return
		}
		log.Error().Err(err).Str("toy_id", id.String()).Msg("Failed to load toy")
		response.InternalError(w)
		return
	}

	response.OK(w, toy.ToResponse())
}

// Create handles POST /toys
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "User not authenticated")
		return
	}

	var req CreateToyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	if req.AgeMin != nil && req.AgeMax != nil && *req.AgeMin > *req.AgeMax {
		response.ValidationError(w, map[string]string{"age_min": "age_min must not exceed age_max"})
		return
	}

	toy, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		if err == ErrInvalidCategory {
			response.ValidationError(w, map[string]string{"category_id": "Category does not exist"})
			return
		}
		log.Error().Err(err).Str("owner_id", userID.String()).Msg("Failed to create toy")
		response.InternalError(w)
		return
	}

	response.Created(w, toy.ToResponse())
}

// Update handles PUT /toys/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid toy ID")
		return
	}

	var req UpdateToyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	toy, err := h.service.Update(r.Context(), userID, id, &req)
	if err != nil {
		switch err {
		case ErrToyNotFound:
			response.Error(w, http.StatusNotFound, "TOY_NOT_FOUND", "Toy not found")
		case ErrNotToyOwner:
			response.Forbidden(w, "You can only edit your own toys")
		case ErrInvalidCategory:
			response.ValidationError(w, map[string]string{"category_id": "Category does not exist"})
		default:
			log.Error().Err(err).Str("toy_id", id.String()).Msg("Failed to update toy")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, toy.ToResponse())
}

// Delete handles DELETE /toys/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid toy ID")
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		switch err {
		case ErrToyNotFound:
			response.Error(w, http.StatusNotFound, "TOY_NOT_FOUND", "Toy not found")
		case ErrNotToyOwner:
			response.Forbidden(w, "You can only delete your own toys")
		case ErrToyBorrowed:
			response.Conflict(w, "Toy is currently borrowed")
		default:
			log.Error().Err(err).Str("toy_id", id.String()).Msg("Failed to delete toy")
			response.InternalError(w)
		}
		return
	}

	response.NoContent(w)
}

// UploadPhoto handles POST /toys/{id}/photos (multipart/form-data, field "photo")
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid toy ID")
		return
	}

	if err := r.ParseMultipartForm(maxPhotoUploadBytes); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		response.BadRequest(w, "Missing photo file")
		return
	}
	defer file.Close()

	photo, err := h.service.UploadPhoto(r.Context(), userID, id, file)
	if err != nil {
		switch err {
		case ErrToyNotFound:
			response.Error(w, http.StatusNotFound, "TOY_NOT_FOUND", "Toy not found")
		case ErrNotToyOwner:
			response.Forbidden(w, "You can only add photos to your own toys")
		case ErrTooManyPhotos:
			response.Conflict(w, "Photo limit reached for this toy")
		case ErrUnsupportedFormat:
			response.BadRequest(w, "Unsupported image format")
		default:
			log.Error().Err(err).Str("toy_id", id.String()).Msg("Failed to upload toy photo")
			response.InternalError(w)
		}
		return
	}

	response.Created(w, photo)
}

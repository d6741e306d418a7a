package booking

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

// Handler handles booking HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates new booking handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /bookings
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	q := r.URL.Query()

	filter := &ListFilter{}
	if v := q.Get("status"); v != "" {
		st := Status(v)
		if !st.IsValid() {
			response.Error(w, http.StatusBadRequest, "INVALID_STATUS", "Unknown booking status")
			return
		}
		filter.Status = &st
	}
	switch role := q.Get("role"); role {
	case "borrower":
		filter.Role = RoleBorrower
	case "lender":
		filter.Role = RoleLender
	case "", "all":
		filter.Role = RoleAny
	default:
		response.BadRequest(w, "Role must be borrower, lender or all")
		return
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	bookings, total, err := h.service.List(r.Context(), userID, filter)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list bookings")
		response.InternalError(w)
		return
	}

	items := make([]*BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = b.ToResponse()
	}

	response.WithMeta(w, items, response.NewMeta(total, filter.Page, filter.Limit))
}

// Get handles GET /bookings/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	booking, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, err, id)
		return
	}

	response.OK(w, booking.ToResponse())
}

// Create handles POST /bookings
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	booking, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		if err == ErrInvalidDates {
			response.ValidationError(w, map[string]string{
				"start_date": "start_date must be in the future and before end_date",
			})
			return
		}
		h.writeError(w, err, req.ToyID)
		return
	}

	response.Created(w, booking.ToResponse())
}

// UpdateStatus handles PUT /bookings/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	booking, err := h.service.UpdateStatus(r.Context(), userID, id, &req)
	if err != nil {
		h.writeError(w, err, id)
		return
	}

	response.OK(w, booking.ToResponse())
}

// Return handles PUT /bookings/{id}/return
func (h *Handler) Return(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	booking, err := h.service.Return(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, err, id)
		return
	}

	response.OK(w, booking.ToResponse())
}

// CheckExpired handles POST /bookings/check-expired
func (h *Handler) CheckExpired(w http.ResponseWriter, r *http.Request) {
	swept, err := h.service.SweepExpired(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Expiry sweep failed")
		response.InternalError(w)
		return
	}

	resp := &SweepResponse{
		Count:    len(swept),
		Bookings: make([]*BookingResponse, len(swept)),
	}
	for i, b := range swept {
		resp.Bookings[i] = b.ToResponse()
	}

	response.OK(w, resp)
}

// Rate handles PUT /bookings/{id}/rate
func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	var req RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	booking, err := h.service.Rate(r.Context(), userID, id, &req)
	if err != nil {
		h.writeError(w, err, id)
		return
	}

	response.OK(w, booking.ToResponse())
}

// writeError maps booking domain errors onto the stable code taxonomy
func (h *Handler) writeError(w http.ResponseWriter, err error, id uuid.UUID) {
	switch err {
	case ErrToyNotFound:
		response.Error(w, http.StatusNotFound, "TOY_NOT_FOUND", "Toy not found")
	case ErrToyNotAvailable:
		response.Error(w, http.StatusConflict, "TOY_NOT_AVAILABLE", "Toy is not available for borrowing")
	case ErrCannotBorrowOwn:
		response.Error(w, http.StatusBadRequest, "CANNOT_BORROW_OWN_TOY", "You cannot borrow your own toy")
	case ErrBookingConflict:
		response.Error(w, http.StatusConflict, "BOOKING_CONFLICT", "Toy is already booked for these dates")
	case ErrInvalidPayment:
		response.Error(w, http.StatusBadRequest, "INVALID_PAYMENT_INFO", "Payment amount, method and transaction ID are required together")
	case ErrBookingNotFound:
		response.Error(w, http.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found")
	case ErrForbidden, ErrNotBorrower, ErrNotLender:
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "You are not allowed to perform this action")
	case ErrInvalidStatus:
		response.Error(w, http.StatusBadRequest, "INVALID_STATUS", "Unknown booking status")
	case ErrInvalidTransition, ErrNotConfirmed, ErrNotCompleted:
		response.Error(w, http.StatusBadRequest, "INVALID_STATUS_TRANSITION", "Booking status does not allow this action")
	case ErrInvalidRating:
		response.Error(w, http.StatusBadRequest, "INVALID_RATING", "Rating score must be between 1 and 5")
	case ErrAlreadyRated:
		response.Error(w, http.StatusConflict, "ALREADY_RATED", "Booking has already been rated")
	default:
		log.Error().Err(err).Str("booking_id", id.String()).Msg("Booking operation failed")
		response.InternalError(w)
	}
}

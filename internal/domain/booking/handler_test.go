package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toybox/toybox-api/internal/domain/toy"
	"github.com/toybox/toybox-api/internal/middleware"
	"github.com/toybox/toybox-api/internal/pkg/response"
)

// fakeAuth injects a fixed caller, standing in for the JWT middleware.
func fakeAuth(userID uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newBookingRouter(e *env, callerID uuid.UUID) *chi.Mux {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(e.service), fakeAuth(callerID))
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, *response.Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp response.Response
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, &resp
}

func createBody(e *env, startOffset, endOffset int) map[string]interface{} {
	return map[string]interface{}{
		"toy_id":     e.toyID,
		"start_date": e.day(startOffset).Format(time.RFC3339),
		"end_date":   e.day(endOffset).Format(time.RFC3339),
	}
}

func TestHandlerCreateBooking(t *testing.T) {
	e := newEnv(t)
	router := newBookingRouter(e, e.borrowerID)

	rec, resp := doJSON(t, router, http.MethodPost, "/bookings", createBody(e, 1, 3))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "confirmed", data["status"])
	assert.Equal(t, e.toyID.String(), data["toy_id"])
}

func TestHandlerCreateBookingConflict(t *testing.T) {
	e := newEnv(t)

	rec, _ := doJSON(t, newBookingRouter(e, e.borrowerID), http.MethodPost, "/bookings", createBody(e, 1, 3))
	require.Equal(t, http.StatusCreated, rec.Code)

	e.toys.toys[e.toyID].Status = toy.StatusAvailable

	rec, resp := doJSON(t, newBookingRouter(e, uuid.New()), http.MethodPost, "/bookings", createBody(e, 2, 4))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "BOOKING_CONFLICT", resp.Error.Code)
}

func TestHandlerCreateBookingOwnToy(t *testing.T) {
	e := newEnv(t)

	rec, resp := doJSON(t, newBookingRouter(e, e.ownerID), http.MethodPost, "/bookings", createBody(e, 1, 3))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CANNOT_BORROW_OWN_TOY", resp.Error.Code)
}

func TestHandlerCreateBookingBadDates(t *testing.T) {
	e := newEnv(t)

	rec, resp := doJSON(t, newBookingRouter(e, e.borrowerID), http.MethodPost, "/bookings", createBody(e, 3, 1))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "start_date")
}

func TestHandlerUpdateStatus(t *testing.T) {
	e := newEnv(t)

	booking, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)

	path := fmt.Sprintf("/bookings/%s/status", booking.ID)

	// Borrower may not drive the lifecycle.
	rec, resp := doJSON(t, newBookingRouter(e, e.borrowerID), http.MethodPut, path, map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)

	rec, resp = doJSON(t, newBookingRouter(e, e.ownerID), http.MethodPut, path, map[string]string{"status": "requested"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_STATUS", resp.Error.Code)

	rec, resp = doJSON(t, newBookingRouter(e, e.ownerID), http.MethodPut, path, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "completed", data["status"])

	rec, resp = doJSON(t, newBookingRouter(e, e.ownerID), http.MethodPut, path, map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", resp.Error.Code)
}

func TestHandlerReturn(t *testing.T) {
	e := newEnv(t)

	booking, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)

	path := fmt.Sprintf("/bookings/%s/return", booking.ID)

	rec, resp := doJSON(t, newBookingRouter(e, e.borrowerID), http.MethodPut, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "completed", data["status"])
	assert.NotNil(t, data["returned_at"])
}

func TestHandlerRate(t *testing.T) {
	e := newEnv(t)

	booking, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)
	_, err = e.service.Return(context.Background(), e.borrowerID, booking.ID)
	require.NoError(t, err)

	path := fmt.Sprintf("/bookings/%s/rate", booking.ID)
	router := newBookingRouter(e, e.borrowerID)

	rec, resp := doJSON(t, router, http.MethodPut, path, map[string]interface{}{"score": 9})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)

	rec, _ = doJSON(t, router, http.MethodPut, path, map[string]interface{}{"score": 5, "comment": "great"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp = doJSON(t, router, http.MethodPut, path, map[string]interface{}{"score": 3})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_RATED", resp.Error.Code)
}

func TestHandlerGetNotParty(t *testing.T) {
	e := newEnv(t)

	booking, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)

	rec, resp := doJSON(t, newBookingRouter(e, uuid.New()), http.MethodGet, "/bookings/"+booking.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)

	rec, _ = doJSON(t, newBookingRouter(e, e.borrowerID), http.MethodGet, "/bookings/"+booking.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerList(t *testing.T) {
	e := newEnv(t)

	_, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)

	rec, resp := doJSON(t, newBookingRouter(e, e.borrowerID), http.MethodGet, "/bookings?role=borrower", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 1, resp.Meta.Total)

	rec, resp = doJSON(t, newBookingRouter(e, e.borrowerID), http.MethodGet, "/bookings?role=banker", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", resp.Error.Code)
}

func TestHandlerCheckExpired(t *testing.T) {
	e := newEnv(t)

	_, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)
	e.now = e.day(4)

	rec, resp := doJSON(t, newBookingRouter(e, e.ownerID), http.MethodPost, "/bookings/check-expired", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := resp.Data.(map[string]interface{})
	assert.EqualValues(t, 1, data["count"])
}

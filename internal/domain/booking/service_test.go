package booking

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toybox/toybox-api/internal/domain/toy"
)

// stubRepo keeps bookings in memory; transactions come from a sqlmock
// database so the service's begin/commit/rollback calls have somewhere
// to go.
type stubRepo struct {
	db       *sqlx.DB
	bookings map[uuid.UUID]*Booking
}

func (r *stubRepo) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}

func (r *stubRepo) CreateTx(_ context.Context, _ *sqlx.Tx, booking *Booking) error {
	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	stored := *booking
	r.bookings[booking.ID] = &stored
	return nil
}

func (r *stubRepo) GetByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	booking, ok := r.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *booking
	return &copied, nil
}

func (r *stubRepo) GetByIDForUpdateTx(ctx context.Context, _ *sqlx.Tx, id uuid.UUID) (*Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *stubRepo) UpdateTx(_ context.Context, _ *sqlx.Tx, booking *Booking) error {
	stored := *booking
	stored.UpdatedAt = time.Now()
	r.bookings[booking.ID] = &stored
	return nil
}

func (r *stubRepo) HasOverlapTx(_ context.Context, _ *sqlx.Tx, toyID uuid.UUID, start, end time.Time) (bool, error) {
	for _, b := range r.bookings {
		if b.ToyID == toyID && b.Status == StatusConfirmed &&
			b.StartDate.Before(end) && b.EndDate.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubRepo) ListExpiredForUpdateTx(_ context.Context, _ *sqlx.Tx, now time.Time) ([]*Booking, error) {
	var expired []*Booking
	for _, b := range r.bookings {
		if b.Status == StatusConfirmed && b.EndDate.Before(now) {
			copied := *b
			expired = append(expired, &copied)
		}
	}
	return expired, nil
}

func (r *stubRepo) ListByUser(_ context.Context, userID uuid.UUID, filter *ListFilter) ([]*Booking, int, error) {
	var result []*Booking
	for _, b := range r.bookings {
		switch filter.Role {
		case RoleBorrower:
			if b.BorrowerID != userID {
				continue
			}
		case RoleLender:
			if b.LenderID != userID {
				continue
			}
		default:
			if !b.IsParty(userID) {
				continue
			}
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		copied := *b
		result = append(result, &copied)
	}
	return result, len(result), nil
}

func (r *stubRepo) SetRating(_ context.Context, id uuid.UUID, score int, comment *string, ratedAt time.Time) error {
	booking, ok := r.bookings[id]
	if !ok || booking.RatingScore.Valid {
		return ErrAlreadyRated
	}
	booking.RatingScore = sql.NullInt32{Int32: int32(score), Valid: true}
	if comment != nil {
		booking.RatingComment = sql.NullString{String: *comment, Valid: true}
	}
	booking.RatedAt = sql.NullTime{Time: ratedAt, Valid: true}
	return nil
}

type stubToys struct {
	toys map[uuid.UUID]*toy.Toy
}

func (s *stubToys) GetByIDForUpdateTx(_ context.Context, _ *sqlx.Tx, id uuid.UUID) (*toy.Toy, error) {
	t, ok := s.toys[id]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (s *stubToys) UpdateStatusTx(_ context.Context, _ *sqlx.Tx, id uuid.UUID, status toy.Status) error {
	s.toys[id].Status = status
	return nil
}

type stubStats struct {
	borrowed map[uuid.UUID]int
}

func (s *stubStats) IncrementToysBorrowedTx(_ context.Context, _ *sqlx.Tx, id uuid.UUID) error {
	s.borrowed[id]++
	return nil
}

type env struct {
	service *Service
	repo    *stubRepo
	toys    *stubToys
	stats   *stubStats
	now     time.Time

	ownerID    uuid.UUID
	borrowerID uuid.UUID
	toyID      uuid.UUID
}

func newEnv(t *testing.T) *env {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	// The stubs never touch SQL; only begin/commit/rollback reach the
	// mock driver. Preload enough of each in any order.
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 32; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}

	e := &env{
		repo:       &stubRepo{db: sqlx.NewDb(mockDB, "sqlmock"), bookings: map[uuid.UUID]*Booking{}},
		toys:       &stubToys{toys: map[uuid.UUID]*toy.Toy{}},
		stats:      &stubStats{borrowed: map[uuid.UUID]int{}},
		now:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		ownerID:    uuid.New(),
		borrowerID: uuid.New(),
		toyID:      uuid.New(),
	}

	e.toys.toys[e.toyID] = &toy.Toy{
		ID:       e.toyID,
		OwnerID:  e.ownerID,
		Name:     "Wooden train set",
		Status:   toy.StatusAvailable,
		IsActive: true,
	}

	e.service = NewService(e.repo, e.toys, e.stats)
	e.service.now = func() time.Time { return e.now }

	return e
}

func (e *env) day(offset int) time.Time {
	return e.now.AddDate(0, 0, offset)
}

func (e *env) createReq(startOffset, endOffset int) *CreateBookingRequest {
	return &CreateBookingRequest{
		ToyID:     e.toyID,
		StartDate: e.day(startOffset),
		EndDate:   e.day(endOffset),
	}
}

func TestCreateBooking(t *testing.T) {
	e := newEnv(t)

	booking, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, booking.Status)
	assert.Equal(t, e.borrowerID, booking.BorrowerID)
	assert.Equal(t, e.ownerID, booking.LenderID)
	assert.Equal(t, toy.StatusBorrowed, e.toys.toys[e.toyID].Status)
}

func TestCreateBookingStartNotInFuture(t *testing.T) {
	e := newEnv(t)

	req := e.createReq(0, 2)
	req.StartDate = e.now

	_, err := e.service.Create(context.Background(), e.borrowerID, req)
	assert.ErrorIs(t, err, ErrInvalidDates)
}

func TestCreateBookingEndBeforeStart(t *testing.T) {
	e := newEnv(t)

	_, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(3, 1))
	assert.ErrorIs(t, err, ErrInvalidDates)

	_, err = e.service.Create(context.Background(), e.borrowerID, e.createReq(2, 2))
	assert.ErrorIs(t, err, ErrInvalidDates)
}

func TestCreateBookingToyMissing(t *testing.T) {
	e := newEnv(t)

	req := e.createReq(1, 3)
	req.ToyID = uuid.New()

	_, err := e.service.Create(context.Background(), e.borrowerID, req)
	assert.ErrorIs(t, err, ErrToyNotFound)
}

func TestCreateBookingToyInactive(t *testing.T) {
	e := newEnv(t)
	e.toys.toys[e.toyID].IsActive = false

	_, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	assert.ErrorIs(t, err, ErrToyNotFound)
}

func TestCreateBookingToyBorrowed(t *testing.T) {
	e := newEnv(t)
	e.toys.toys[e.toyID].Status = toy.StatusBorrowed

	_, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	assert.ErrorIs(t, err, ErrToyNotAvailable)
}

func TestCreateBookingOwnToy(t *testing.T) {
	e := newEnv(t)

	_, err := e.service.Create(context.Background(), e.ownerID, e.createReq(1, 3))
	assert.ErrorIs(t, err, ErrCannotBorrowOwn)
}

func TestCreateBookingOverlapConflict(t *testing.T) {
	e := newEnv(t)

	_, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)

	// Overlap checks look at confirmed bookings regardless of the toy's
	// availability flag.
	e.toys.toys[e.toyID].Status = toy.StatusAvailable

	other := uuid.New()
	_, err = e.service.Create(context.Background(), other, e.createReq(2, 4))
	assert.ErrorIs(t, err, ErrBookingConflict)
}

func TestCreateBookingAdjacentRangesDoNotConflict(t *testing.T) {
	e := newEnv(t)

	_, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)

	e.toys.toys[e.toyID].Status = toy.StatusAvailable

	// Half-open intervals: one ends exactly where the other starts.
	other := uuid.New()
	_, err = e.service.Create(context.Background(), other, e.createReq(3, 5))
	assert.NoError(t, err)
}

func TestCreateBookingIncompletePayment(t *testing.T) {
	e := newEnv(t)

	amount := 5.0
	req := e.createReq(1, 3)
	req.PaymentInfo = &PaymentInfoRequest{Amount: &amount, Method: "cash"}

	_, err := e.service.Create(context.Background(), e.borrowerID, req)
	assert.ErrorIs(t, err, ErrInvalidPayment)
}

func TestCreateBookingWithPayment(t *testing.T) {
	e := newEnv(t)

	amount := 12.5
	req := e.createReq(1, 3)
	req.PaymentInfo = &PaymentInfoRequest{Amount: &amount, Method: "momo", TransactionID: "tx-001"}

	booking, err := e.service.Create(context.Background(), e.borrowerID, req)
	require.NoError(t, err)

	assert.Equal(t, 12.5, booking.PaymentAmount.Float64)
	assert.Equal(t, string(PaymentPending), booking.PaymentStatus.String)
}

func TestUpdateStatusLenderOnly(t *testing.T) {
	e := newEnv(t)

	booking, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)

	_, err = e.service.UpdateStatus(context.Background(), e.borrowerID, booking.ID, &UpdateStatusRequest{Status: "cancelled"})
	assert.ErrorIs(t, err, ErrNotLender)
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	e := newEnv(t)

	booking, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)

	_, err = e.service.UpdateStatus(context.Background(), e.ownerID, booking.ID, &UpdateStatusRequest{Status: "requested"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	e := newEnv(t)

	booking, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)

	_, err = e.service.UpdateStatus(context.Background(), e.ownerID, booking.ID, &UpdateStatusRequest{Status: "completed"})
	require.NoError(t, err)

	_, err = e.service.UpdateStatus(context.Background(), e.ownerID, booking.ID, &UpdateStatusRequest{Status: "confirmed"})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = e.service.UpdateStatus(context.Background(), e.ownerID, booking.ID, &UpdateStatusRequest{Status: "cancelled"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatusCancel(t *testing.T) {
	e := newEnv(t)

	booking, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)

	resp := "sorry, broke it myself"
	updated, err := e.service.UpdateStatus(context.Background(), e.ownerID, booking.ID, &UpdateStatusRequest{
		Status:         "cancelled",
		LenderResponse: &resp,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, updated.Status)
	assert.Equal(t, resp, updated.LenderResponse.String)
	assert.Equal(t, toy.StatusAvailable, e.toys.toys[e.toyID].Status)
	assert.Zero(t, e.stats.borrowed[e.borrowerID])
}

func TestUpdateStatusComplete(t *testing.T) {
	e := newEnv(t)

	booking, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)

	updated, err := e.service.UpdateStatus(context.Background(), e.ownerID, booking.ID, &UpdateStatusRequest{Status: "completed"})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, updated.Status)
	assert.Equal(t, toy.StatusAvailable, e.toys.toys[e.toyID].Status)
	assert.Equal(t, 1, e.stats.borrowed[e.borrowerID])
}

func TestReturn(t *testing.T) {
	e := newEnv(t)

	booking, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)

	returned, err := e.service.Return(context.Background(), e.borrowerID, booking.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, returned.Status)
	assert.True(t, returned.ReturnedAt.Valid)
	assert.Equal(t, e.now, returned.ReturnedAt.Time)
	assert.False(t, returned.AutoReturned)
	assert.Equal(t, toy.StatusAvailable, e.toys.toys[e.toyID].Status)
	assert.Equal(t, 1, e.stats.borrowed[e.borrowerID])
}

func TestReturnNotBorrower(t *testing.T) {
	e := newEnv(t)

	booking, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)

	_, err = e.service.Return(context.Background(), e.ownerID, booking.ID)
	assert.ErrorIs(t, err, ErrNotBorrower)
}

func TestReturnNotConfirmed(t *testing.T) {
	e := newEnv(t)

	booking, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)

	_, err = e.service.Return(context.Background(), e.borrowerID, booking.ID)
	require.NoError(t, err)

	_, err = e.service.Return(context.Background(), e.borrowerID, booking.ID)
	assert.ErrorIs(t, err, ErrNotConfirmed)
}

func TestReturnNotFound(t *testing.T) {
	e := newEnv(t)

	_, err := e.service.Return(context.Background(), e.borrowerID, uuid.New())
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestSweepExpired(t *testing.T) {
	e := newEnv(t)

	booking, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)

	// Nothing has expired yet.
	swept, err := e.service.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Empty(t, swept)

	// Jump past the end date.
	e.now = e.day(4)

	swept, err = e.service.SweepExpired(context.Background())
	require.NoError(t, err)
	require.Len(t, swept, 1)

	stored := e.repo.bookings[booking.ID]
	assert.Equal(t, StatusCompleted, stored.Status)
	assert.True(t, stored.AutoReturned)
	assert.True(t, stored.ReturnedAt.Valid)
	assert.Equal(t, toy.StatusAvailable, e.toys.toys[e.toyID].Status)
	assert.Equal(t, 1, e.stats.borrowed[e.borrowerID])
}

func TestSweepIdempotent(t *testing.T) {
	e := newEnv(t)

	_, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)

	e.now = e.day(4)

	first, err := e.service.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := e.service.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second)

	// The counter moved exactly once.
	assert.Equal(t, 1, e.stats.borrowed[e.borrowerID])
}

func TestRate(t *testing.T) {
	e := newEnv(t)

	booking, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)
	_, err = e.service.Return(context.Background(), e.borrowerID, booking.ID)
	require.NoError(t, err)

	comment := "kids loved it"
	rated, err := e.service.Rate(context.Background(), e.borrowerID, booking.ID, &RateRequest{Score: 5, Comment: &comment})
	require.NoError(t, err)

	assert.EqualValues(t, 5, rated.RatingScore.Int32)
	assert.Equal(t, comment, rated.RatingComment.String)
	assert.True(t, rated.RatedAt.Valid)
}

func TestRateScoreOutOfRange(t *testing.T) {
	e := newEnv(t)

	_, err := e.service.Rate(context.Background(), e.borrowerID, uuid.New(), &RateRequest{Score: 0})
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = e.service.Rate(context.Background(), e.borrowerID, uuid.New(), &RateRequest{Score: 6})
	assert.ErrorIs(t, err, ErrInvalidRating)
}

func TestRateNotCompleted(t *testing.T) {
	e := newEnv(t)

	booking, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)

	_, err = e.service.Rate(context.Background(), e.borrowerID, booking.ID, &RateRequest{Score: 4})
	assert.ErrorIs(t, err, ErrNotCompleted)
}

func TestRateNotBorrower(t *testing.T) {
	e := newEnv(t)

	booking, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)
	_, err = e.service.Return(context.Background(), e.borrowerID, booking.ID)
	require.NoError(t, err)

	_, err = e.service.Rate(context.Background(), e.ownerID, booking.ID, &RateRequest{Score: 4})
	assert.ErrorIs(t, err, ErrNotBorrower)
}

func TestRateTwice(t *testing.T) {
	e := newEnv(t)

	booking, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)
	_, err = e.service.Return(context.Background(), e.borrowerID, booking.ID)
	require.NoError(t, err)

	_, err = e.service.Rate(context.Background(), e.borrowerID, booking.ID, &RateRequest{Score: 4})
	require.NoError(t, err)

	_, err = e.service.Rate(context.Background(), e.borrowerID, booking.ID, &RateRequest{Score: 5})
	assert.ErrorIs(t, err, ErrAlreadyRated)
}

func TestGetPartyOnly(t *testing.T) {
	e := newEnv(t)

	booking, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)

	_, err = e.service.Get(context.Background(), e.borrowerID, booking.ID)
	assert.NoError(t, err)

	_, err = e.service.Get(context.Background(), e.ownerID, booking.ID)
	assert.NoError(t, err)

	_, err = e.service.Get(context.Background(), uuid.New(), booking.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListFilters(t *testing.T) {
	e := newEnv(t)

	booking, err := e.service.Create(context.Background(), e.borrowerID, e.createReq(1, 3))
	require.NoError(t, err)

	asBorrower, total, err := e.service.List(context.Background(), e.borrowerID, &ListFilter{Role: RoleBorrower})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, asBorrower, 1)
	assert.Equal(t, booking.ID, asBorrower[0].ID)

	asLender, _, err := e.service.List(context.Background(), e.borrowerID, &ListFilter{Role: RoleLender})
	require.NoError(t, err)
	assert.Empty(t, asLender)

	completed := StatusCompleted
	none, _, err := e.service.List(context.Background(), e.borrowerID, &ListFilter{Status: &completed})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusConfirmed.CanTransition(StatusCompleted))
	assert.True(t, StatusConfirmed.CanTransition(StatusCancelled))
	assert.False(t, StatusConfirmed.CanTransition(StatusConfirmed))
	assert.False(t, StatusCompleted.CanTransition(StatusConfirmed))
	assert.False(t, StatusCompleted.CanTransition(StatusCancelled))
	assert.False(t, StatusCancelled.CanTransition(StatusCompleted))
	assert.False(t, Status("requested").IsValid())
}

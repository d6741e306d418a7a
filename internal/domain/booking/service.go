package booking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/toybox/toybox-api/internal/domain/toy"
	"github.com/toybox/toybox-api/internal/pkg/metrics"
)

// ToyCatalog is the slice of the toy domain the booking lifecycle
// consumes: a locked lookup and a status flip, both transactional.
type ToyCatalog interface {
	GetByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*toy.Toy, error)
	UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status toy.Status) error
}

// BorrowerStats is the slice of the user domain the booking lifecycle
// consumes: one counter bump per completion, inside the same transaction.
type BorrowerStats interface {
	IncrementToysBorrowedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error
}

// Service handles booking business logic
type Service struct {
	repo  Repository
	toys  ToyCatalog
	stats BorrowerStats
	now   func() time.Time
}

// NewService creates new booking service
func NewService(repo Repository, toys ToyCatalog, stats BorrowerStats) *Service {
	return &Service{
		repo:  repo,
		toys:  toys,
		stats: stats,
		now:   time.Now,
	}
}

// Create creates a booking for the caller as borrower. The precondition
// chain runs inside one transaction with the toy row locked, so two
// concurrent requests for the same toy serialize and the second sees the
// first one's booking.
func (s *Service) Create(ctx context.Context, borrowerID uuid.UUID, req *CreateBookingRequest) (*Booking, error) {
	now := s.now()
	if !req.StartDate.After(now) {
		return nil, ErrInvalidDates
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, ErrInvalidDates
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking create: begin tx: %w", err)
	}
	defer tx.Rollback()

	t, err := s.toys.GetByIDForUpdateTx(ctx, tx, req.ToyID)
	if err != nil {
		return nil, fmt.Errorf("booking create: load toy: %w", err)
	}
	if t == nil || !t.IsActive {
		return nil, ErrToyNotFound
	}
	if t.Status != toy.StatusAvailable {
		return nil, ErrToyNotAvailable
	}
	if t.OwnerID == borrowerID {
		return nil, ErrCannotBorrowOwn
	}

	overlap, err := s.repo.HasOverlapTx(ctx, tx, req.ToyID, req.StartDate, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("booking create: overlap check: %w", err)
	}
	if overlap {
		metrics.IncBookingConflict()
		return nil, ErrBookingConflict
	}

	if req.PaymentInfo != nil && !req.PaymentInfo.Complete() {
		return nil, ErrInvalidPayment
	}

	booking := &Booking{
		ID:         uuid.New(),
		ToyID:      req.ToyID,
		BorrowerID: borrowerID,
		LenderID:   t.OwnerID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Status:     StatusConfirmed,
	}
	if req.BorrowerMessage != nil {
		booking.BorrowerMessage = sql.NullString{String: *req.BorrowerMessage, Valid: true}
	}
	if req.PaymentInfo != nil {
		booking.PaymentAmount = sql.NullFloat64{Float64: *req.PaymentInfo.Amount, Valid: true}
		booking.PaymentMethod = sql.NullString{String: req.PaymentInfo.Method, Valid: true}
		booking.PaymentTransactionID = sql.NullString{String: req.PaymentInfo.TransactionID, Valid: true}
		booking.PaymentStatus = sql.NullString{String: string(PaymentPending), Valid: true}
	}

	if err := s.repo.CreateTx(ctx, tx, booking); err != nil {
		if err == ErrBookingConflict {
			metrics.IncBookingConflict()
		}
		return nil, err
	}

	if err := s.toys.UpdateStatusTx(ctx, tx, t.ID, toy.StatusBorrowed); err != nil {
		return nil, fmt.Errorf("booking create: flip toy status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("booking create: commit: %w", err)
	}

	metrics.IncBookingCreated()
	log.Info().
		Str("booking_id", booking.ID.String()).
		Str("toy_id", t.ID.String()).
		Str("borrower_id", borrowerID.String()).
		Msg("Booking created")

	return s.reload(ctx, booking)
}

// UpdateStatus transitions a booking along a declared edge. Only the
// lender may call it.
func (s *Service) UpdateStatus(ctx context.Context, callerID, id uuid.UUID, req *UpdateStatusRequest) (*Booking, error) {
	target := Status(req.Status)
	if !target.IsValid() {
		return nil, ErrInvalidStatus
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking update status: begin tx: %w", err)
	}
	defer tx.Rollback()

	booking, err := s.repo.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("booking update status: load: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if booking.LenderID != callerID {
		return nil, ErrNotLender
	}
	if !booking.Status.CanTransition(target) {
		return nil, ErrInvalidTransition
	}

	if req.LenderResponse != nil {
		booking.LenderResponse = sql.NullString{String: *req.LenderResponse, Valid: true}
	}

	switch target {
	case StatusCompleted:
		if err := s.completeTx(ctx, tx, booking); err != nil {
			return nil, err
		}
	case StatusCancelled:
		booking.Status = StatusCancelled
		if err := s.repo.UpdateTx(ctx, tx, booking); err != nil {
			return nil, err
		}
		if err := s.toys.UpdateStatusTx(ctx, tx, booking.ToyID, toy.StatusAvailable); err != nil {
			return nil, fmt.Errorf("booking cancel: flip toy status: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("booking update status: commit: %w", err)
	}

	if target == StatusCompleted {
		metrics.IncBookingCompleted("status")
	}

	return s.reload(ctx, booking)
}

// Return completes a confirmed booking at the borrower's request
func (s *Service) Return(ctx context.Context, callerID, id uuid.UUID) (*Booking, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking return: begin tx: %w", err)
	}
	defer tx.Rollback()

	booking, err := s.repo.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("booking return: load: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if booking.BorrowerID != callerID {
		return nil, ErrNotBorrower
	}
	if booking.Status != StatusConfirmed {
		return nil, ErrNotConfirmed
	}

	booking.ReturnedAt = sql.NullTime{Time: s.now(), Valid: true}
	if err := s.completeTx(ctx, tx, booking); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("booking return: commit: %w", err)
	}

	metrics.IncBookingCompleted("return")

	return s.reload(ctx, booking)
}

// SweepExpired completes every confirmed booking whose end date has
// passed. Re-running it is a no-op for already swept bookings because
// the status filter excludes them.
func (s *Service) SweepExpired(ctx context.Context) ([]*Booking, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking sweep: begin tx: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	expired, err := s.repo.ListExpiredForUpdateTx(ctx, tx, now)
	if err != nil {
		return nil, err
	}

	for _, booking := range expired {
		booking.ReturnedAt = sql.NullTime{Time: now, Valid: true}
		booking.AutoReturned = true
		if err := s.completeTx(ctx, tx, booking); err != nil {
			return nil, fmt.Errorf("booking sweep: complete %s: %w", booking.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("booking sweep: commit: %w", err)
	}

	for range expired {
		metrics.IncBookingCompleted("sweep")
	}
	if len(expired) > 0 {
		log.Info().Int("count", len(expired)).Msg("Expired bookings auto-returned")
	}

	return expired, nil
}

// Rate records the borrower's rating on a completed booking, once
func (s *Service) Rate(ctx context.Context, callerID, id uuid.UUID, req *RateRequest) (*Booking, error) {
	if req.Score < 1 || req.Score > 5 {
		return nil, ErrInvalidRating
	}

	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("booking rate: load: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if booking.BorrowerID != callerID {
		return nil, ErrNotBorrower
	}
	if booking.Status != StatusCompleted {
		return nil, ErrNotCompleted
	}
	if booking.HasRating() {
		return nil, ErrAlreadyRated
	}

	if err := s.repo.SetRating(ctx, id, req.Score, req.Comment, s.now()); err != nil {
		return nil, err
	}

	return s.reload(ctx, booking)
}

// List returns the caller's bookings, on either side or one
func (s *Service) List(ctx context.Context, userID uuid.UUID, filter *ListFilter) ([]*Booking, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}

	return s.repo.ListByUser(ctx, userID, filter)
}

// Get returns a booking visible only to its two parties
func (s *Service) Get(ctx context.Context, callerID, id uuid.UUID) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("booking get: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if !booking.IsParty(callerID) {
		return nil, ErrForbidden
	}

	return booking, nil
}

// completeTx applies the completion effects for one booking inside the
// caller's transaction: booking row, toy status and borrower counter
// move together or not at all. Callers set returned_at and
// auto_returned beforehand when the path calls for them.
func (s *Service) completeTx(ctx context.Context, tx *sqlx.Tx, booking *Booking) error {
	booking.Status = StatusCompleted

	if err := s.repo.UpdateTx(ctx, tx, booking); err != nil {
		return err
	}
	if err := s.toys.UpdateStatusTx(ctx, tx, booking.ToyID, toy.StatusAvailable); err != nil {
		return fmt.Errorf("booking complete: flip toy status: %w", err)
	}
	if err := s.stats.IncrementToysBorrowedTx(ctx, tx, booking.BorrowerID); err != nil {
		return fmt.Errorf("booking complete: borrower stat: %w", err)
	}

	return nil
}

// reload re-reads the booking with joined names for the response; falls
// back to the in-memory copy when the read fails.
func (s *Service) reload(ctx context.Context, booking *Booking) (*Booking, error) {
	fresh, err := s.repo.GetByID(ctx, booking.ID)
	if err != nil || fresh == nil {
		if err != nil {
			log.Warn().Err(err).Str("booking_id", booking.ID.String()).Msg("Failed to reload booking")
		}
		return booking, nil
	}
	return fresh, nil
}

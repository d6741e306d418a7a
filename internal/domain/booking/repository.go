package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Role filters listings by the caller's side of the booking
type Role string

const (
	RoleBorrower Role = "borrower"
	RoleLender   Role = "lender"
	RoleAny      Role = ""
)

// ListFilter narrows booking listings
type ListFilter struct {
	Status *Status
	Role   Role
	Page   int
	Limit  int
}

// Repository defines booking data access interface. The Tx variants run
// against a caller-owned transaction so the service can compose the
// conflict check, insert and toy status flip atomically.
type Repository interface {
	BeginTx(ctx context.Context) (*sqlx.Tx, error)

	CreateTx(ctx context.Context, tx *sqlx.Tx, booking *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Booking, error)
	UpdateTx(ctx context.Context, tx *sqlx.Tx, booking *Booking) error

	// HasOverlapTx reports whether any confirmed booking on the toy
	// overlaps [start, end) half-open.
	HasOverlapTx(ctx context.Context, tx *sqlx.Tx, toyID uuid.UUID, start, end time.Time) (bool, error)

	// ListExpiredForUpdateTx locks and returns all confirmed bookings
	// whose end date has passed.
	ListExpiredForUpdateTx(ctx context.Context, tx *sqlx.Tx, now time.Time) ([]*Booking, error)

	ListByUser(ctx context.Context, userID uuid.UUID, filter *ListFilter) ([]*Booking, int, error)
	SetRating(ctx context.Context, id uuid.UUID, score int, comment *string, ratedAt time.Time) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new booking repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const bookingSelectColumns = `
	b.id, b.toy_id, b.borrower_id, b.lender_id,
	b.start_date, b.end_date, b.status,
	b.borrower_message, b.lender_response,
	b.payment_amount, b.payment_method, b.payment_transaction_id, b.payment_status, b.paid_at,
	b.rating_score, b.rating_comment, b.rated_at,
	b.returned_at, b.auto_returned,
	b.created_at, b.updated_at
`

const bookingJoinedColumns = bookingSelectColumns + `,
	t.name AS toy_name,
	bu.name AS borrower_name,
	lu.name AS lender_name
`

const bookingJoins = `
	JOIN toys t ON t.id = b.toy_id
	JOIN users bu ON bu.id = b.borrower_id
	JOIN users lu ON lu.id = b.lender_id
`

func (r *repository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}

// CreateTx inserts a booking inside the caller's transaction. The
// exclusion constraint on (toy_id, daterange) backs up the in-code
// overlap check; its violation surfaces as ErrBookingConflict.
func (r *repository) CreateTx(ctx context.Context, tx *sqlx.Tx, booking *Booking) error {
	query := `
		INSERT INTO bookings (
			id, toy_id, borrower_id, lender_id,
			start_date, end_date, status,
			borrower_message,
			payment_amount, payment_method, payment_transaction_id, payment_status, paid_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRowxContext(ctx, query,
		booking.ID,
		booking.ToyID,
		booking.BorrowerID,
		booking.LenderID,
		booking.StartDate,
		booking.EndDate,
		booking.Status,
		booking.BorrowerMessage,
		booking.PaymentAmount,
		booking.PaymentMethod,
		booking.PaymentTransactionID,
		booking.PaymentStatus,
		booking.PaidAt,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23P01" {
			return ErrBookingConflict
		}
		return fmt.Errorf("booking repository create: %w", err)
	}

	return nil
}

// GetByID returns a booking with joined names, nil when absent
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	query := `SELECT ` + bookingJoinedColumns + ` FROM bookings b ` + bookingJoins + ` WHERE b.id = $1`

	var booking Booking
	err := r.db.GetContext(ctx, &booking, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &booking, nil
}

// GetByIDForUpdateTx locks the booking row for the transaction, nil when absent
func (r *repository) GetByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Booking, error) {
	query := `SELECT ` + bookingSelectColumns + ` FROM bookings b WHERE b.id = $1 FOR UPDATE`

	var booking Booking
	err := tx.GetContext(ctx, &booking, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &booking, nil
}

// UpdateTx persists the mutable lifecycle fields inside the caller's transaction
func (r *repository) UpdateTx(ctx context.Context, tx *sqlx.Tx, booking *Booking) error {
	query := `
		UPDATE bookings
		SET status = $2, lender_response = $3, returned_at = $4, auto_returned = $5, updated_at = NOW()
		WHERE id = $1
	`

	_, err := tx.ExecContext(ctx, query,
		booking.ID,
		booking.Status,
		booking.LenderResponse,
		booking.ReturnedAt,
		booking.AutoReturned,
	)
	if err != nil {
		return fmt.Errorf("booking repository update: %w", err)
	}

	return nil
}

// HasOverlapTx checks for a confirmed booking overlapping [start, end)
func (r *repository) HasOverlapTx(ctx context.Context, tx *sqlx.Tx, toyID uuid.UUID, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE toy_id = $1
			  AND status = 'confirmed'
			  AND start_date < $3
			  AND end_date > $2
		)
	`

	var exists bool
	if err := tx.GetContext(ctx, &exists, query, toyID, start, end); err != nil {
		return false, fmt.Errorf("booking repository overlap check: %w", err)
	}

	return exists, nil
}

// ListExpiredForUpdateTx locks all confirmed bookings past their end date
func (r *repository) ListExpiredForUpdateTx(ctx context.Context, tx *sqlx.Tx, now time.Time) ([]*Booking, error) {
	query := `
		SELECT ` + bookingSelectColumns + `
		FROM bookings b
		WHERE b.status = 'confirmed' AND b.end_date < $1
		ORDER BY b.end_date
		FOR UPDATE
	`

	var bookings []*Booking
	if err := tx.SelectContext(ctx, &bookings, query, now); err != nil {
		return nil, fmt.Errorf("booking repository list expired: %w", err)
	}

	return bookings, nil
}

// ListByUser returns bookings where the user is a party, filtered and paginated
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, filter *ListFilter) ([]*Booking, int, error) {
	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	switch filter.Role {
	case RoleBorrower:
		conditions = append(conditions, fmt.Sprintf("b.borrower_id = $%d", argIndex))
		args = append(args, userID)
		argIndex++
	case RoleLender:
		conditions = append(conditions, fmt.Sprintf("b.lender_id = $%d", argIndex))
		args = append(args, userID)
		argIndex++
	default:
		conditions = append(conditions, fmt.Sprintf("(b.borrower_id = $%d OR b.lender_id = $%d)", argIndex, argIndex))
		args = append(args, userID)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("b.status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := `SELECT COUNT(*) FROM bookings b ` + whereClause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("booking repository count: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	listQuery := `SELECT ` + bookingJoinedColumns + ` FROM bookings b ` + bookingJoins + ` ` +
		whereClause +
		fmt.Sprintf(" ORDER BY b.created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.Limit, offset)

	var bookings []*Booking
	if err := r.db.SelectContext(ctx, &bookings, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("booking repository list: %w", err)
	}

	return bookings, total, nil
}

// SetRating writes the rating sub-record once
func (r *repository) SetRating(ctx context.Context, id uuid.UUID, score int, comment *string, ratedAt time.Time) error {
	query := `
		UPDATE bookings
		SET rating_score = $2, rating_comment = $3, rated_at = $4, updated_at = NOW()
		WHERE id = $1 AND rating_score IS NULL
	`

	res, err := r.db.ExecContext(ctx, query, id, score, comment, ratedAt)
	if err != nil {
		return fmt.Errorf("booking repository set rating: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("booking repository set rating: %w", err)
	}
	if affected == 0 {
		return ErrAlreadyRated
	}

	return nil
}

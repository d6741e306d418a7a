package booking

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status represents the booking state (matches booking_status enum)
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// IsValid reports whether s is a known booking status
func (s Status) IsValid() bool {
	switch s {
	case StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// transitions declares the legal status edges. completed and
// cancelled are terminal.
var transitions = map[Status][]Status{
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CanTransition reports whether a booking in status s may move to target
func (s Status) CanTransition(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// PaymentMethod for the simulated payment record
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentMomo         PaymentMethod = "momo"
	PaymentZaloPay      PaymentMethod = "zalopay"
)

// PaymentStatus for the simulated payment record
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Booking is the loan agreement between a borrower and a lender over
// one toy. References are set at creation and never change.
type Booking struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	ToyID      uuid.UUID `db:"toy_id"`
	BorrowerID uuid.UUID `db:"borrower_id"`
	LenderID   uuid.UUID `db:"lender_id"`

	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	Status    Status    `db:"status"`

	BorrowerMessage sql.NullString `db:"borrower_message"`
	LenderResponse  sql.NullString `db:"lender_response"`

	// Simulated payment, present only when supplied at creation
	PaymentAmount        sql.NullFloat64 `db:"payment_amount"`
	PaymentMethod        sql.NullString  `db:"payment_method"`
	PaymentTransactionID sql.NullString  `db:"payment_transaction_id"`
	PaymentStatus        sql.NullString  `db:"payment_status"`
	PaidAt               sql.NullTime    `db:"paid_at"`

	// Rating, populated at most once after completion
	RatingScore   sql.NullInt32  `db:"rating_score"`
	RatingComment sql.NullString `db:"rating_comment"`
	RatedAt       sql.NullTime   `db:"rated_at"`

	ReturnedAt   sql.NullTime `db:"returned_at"`
	AutoReturned bool         `db:"auto_returned"`

	// Joined data (not columns on bookings)
	ToyName      string `db:"toy_name"`
	BorrowerName string `db:"borrower_name"`
	LenderName   string `db:"lender_name"`
}

// HasRating reports whether the booking was already rated
func (b *Booking) HasRating() bool {
	return b.RatingScore.Valid
}

// IsParty reports whether userID is the borrower or the lender
func (b *Booking) IsParty(userID uuid.UUID) bool {
	return b.BorrowerID == userID || b.LenderID == userID
}

package booking

import (
	"time"

	"github.com/google/uuid"
)

// PaymentInfoRequest is the optional simulated payment block on create.
// When present, amount, method and transaction_id are required together.
type PaymentInfoRequest struct {
	Amount        *float64 `json:"amount" validate:"omitempty,gte=0"`
	Method        string   `json:"method" validate:"omitempty,payment_method"`
	TransactionID string   `json:"transaction_id"`
}

// Complete reports whether all three required payment fields are present
func (p *PaymentInfoRequest) Complete() bool {
	return p.Amount != nil && p.Method != "" && p.TransactionID != ""
}

// CreateBookingRequest represents booking creation input
type CreateBookingRequest struct {
	ToyID           uuid.UUID           `json:"toy_id" validate:"required"`
	StartDate       time.Time           `json:"start_date" validate:"required"`
	EndDate         time.Time           `json:"end_date" validate:"required"`
	BorrowerMessage *string             `json:"borrower_message" validate:"omitempty,max=500"`
	PaymentInfo     *PaymentInfoRequest `json:"payment_info" validate:"omitempty"`
}

// UpdateStatusRequest represents a status transition request
type UpdateStatusRequest struct {
	Status         string  `json:"status" validate:"required"`
	LenderResponse *string `json:"lender_response" validate:"omitempty,max=500"`
}

// RateRequest represents a rating submission
type RateRequest struct {
	Score   int     `json:"score" validate:"required,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=500"`
}

// PaymentResponse mirrors the stored payment record
type PaymentResponse struct {
	Amount        float64    `json:"amount"`
	Method        string     `json:"method"`
	TransactionID string     `json:"transaction_id"`
	Status        string     `json:"status"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

// RatingResponse mirrors the stored rating record
type RatingResponse struct {
	Score   int       `json:"score"`
	Comment string    `json:"comment,omitempty"`
	RatedAt time.Time `json:"rated_at"`
}

// BookingResponse represents booking data in API responses
type BookingResponse struct {
	ID              uuid.UUID        `json:"id"`
	ToyID           uuid.UUID        `json:"toy_id"`
	ToyName         string           `json:"toy_name,omitempty"`
	BorrowerID      uuid.UUID        `json:"borrower_id"`
	BorrowerName    string           `json:"borrower_name,omitempty"`
	LenderID        uuid.UUID        `json:"lender_id"`
	LenderName      string           `json:"lender_name,omitempty"`
	StartDate       time.Time        `json:"start_date"`
	EndDate         time.Time        `json:"end_date"`
	Status          Status           `json:"status"`
	BorrowerMessage string           `json:"borrower_message,omitempty"`
	LenderResponse  string           `json:"lender_response,omitempty"`
	Payment         *PaymentResponse `json:"payment,omitempty"`
	Rating          *RatingResponse  `json:"rating,omitempty"`
	ReturnedAt      *time.Time       `json:"returned_at,omitempty"`
	AutoReturned    bool             `json:"auto_returned"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// SweepResponse is the result of an expiry sweep run
type SweepResponse struct {
	Count    int                `json:"count"`
	Bookings []*BookingResponse `json:"bookings"`
}

// ToResponse converts entity to response DTO
func (b *Booking) ToResponse() *BookingResponse {
	resp := &BookingResponse{
		ID:           b.ID,
		ToyID:        b.ToyID,
		ToyName:      b.ToyName,
		BorrowerID:   b.BorrowerID,
		BorrowerName: b.BorrowerName,
		LenderID:     b.LenderID,
		LenderName:   b.LenderName,
		StartDate:    b.StartDate,
		EndDate:      b.EndDate,
		Status:       b.Status,
		AutoReturned: b.AutoReturned,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}

	if b.BorrowerMessage.Valid {
		resp.BorrowerMessage = b.BorrowerMessage.String
	}
	if b.LenderResponse.Valid {
		resp.LenderResponse = b.LenderResponse.String
	}
	if b.ReturnedAt.Valid {
		t := b.ReturnedAt.Time
		resp.ReturnedAt = &t
	}

	if b.PaymentAmount.Valid {
		payment := &PaymentResponse{
			Amount:        b.PaymentAmount.Float64,
			Method:        b.PaymentMethod.String,
			TransactionID: b.PaymentTransactionID.String,
			Status:        b.PaymentStatus.String,
		}
		if b.PaidAt.Valid {
			t := b.PaidAt.Time
			payment.PaidAt = &t
		}
		resp.Payment = payment
	}

	if b.RatingScore.Valid {
		resp.Rating = &RatingResponse{
			Score:   int(b.RatingScore.Int32),
			Comment: b.RatingComment.String,
			RatedAt: b.RatedAt.Time,
		}
	}

	return resp
}

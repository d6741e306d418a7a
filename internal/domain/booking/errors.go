package booking

import "errors"

var (
	ErrToyNotFound       = errors.New("toy not found or inactive")
	ErrToyNotAvailable   = errors.New("toy is not available")
	ErrCannotBorrowOwn   = errors.New("cannot borrow your own toy")
	ErrBookingConflict   = errors.New("overlapping confirmed booking exists")
	ErrInvalidPayment    = errors.New("payment info incomplete")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrForbidden         = errors.New("caller is not a party to this booking")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrInvalidStatus     = errors.New("unknown target status")
	ErrInvalidRating     = errors.New("rating score out of range")
	ErrAlreadyRated      = errors.New("booking already rated")
	ErrInvalidDates      = errors.New("invalid booking dates")
	ErrNotBorrower       = errors.New("only the borrower may perform this action")
	ErrNotLender         = errors.New("only the lender may perform this action")
	ErrNotConfirmed      = errors.New("booking is not in confirmed state")
	ErrNotCompleted      = errors.New("booking is not completed")
)

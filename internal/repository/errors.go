// Package repository defines error values that are reused across multiple
// repositories and by the service layer. These sentinel values let higher
// layers such as handlers distinguish failure scenarios with errors.Is and
// translate them into HTTP responses in one place. None of them wrap a
// database error; store-level failures pass through unwrapped and fall to
// the generic 500 path.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by someone else, such as cancelling another user's
// booking. Handlers translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrUserNotFound is returned when a referenced user row does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrItemNotFound is returned when a trip or transport route does not
// exist. Handlers translate this into an HTTP 404 response.
var ErrItemNotFound = errors.New("item not found")

// ErrBookingNotFound is returned when a booking does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrRefundNotFound is returned when a refund request does not exist.
var ErrRefundNotFound = errors.New("refund request not found")

// ErrTxNotFound is returned when a wallet transaction does not exist.
var ErrTxNotFound = errors.New("transaction not found")

// ErrAlreadyBooked is returned when the user already holds an ACTIVE
// booking for the same item. Handlers translate this into HTTP 409.
var ErrAlreadyBooked = errors.New("already booked")

// ErrAlreadyCancelled is returned when cancelling a booking that is
// already in the CANCELLED state.
var ErrAlreadyCancelled = errors.New("booking already cancelled")

// ErrInsufficientFunds is returned when the wallet balance does not
// cover the item price. No partial debit ever happens.
var ErrInsufficientFunds = errors.New("insufficient wallet balance")

// ErrCapacityExceeded is returned when a transport route is fully
// booked. The check runs on a row locked inside the booking
// transaction, so two racers for the last seat see exactly one winner.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// ErrInvalidState is returned when resolving a refund request or
// confirming a top-up that is not in the PENDING state.
var ErrInvalidState = errors.New("invalid state")

// ErrDuplicateRequest is returned when a booking carries an
// idempotency key that was already committed. The caller should treat
// the original attempt as the outcome instead of retrying further.
var ErrDuplicateRequest = errors.New("duplicate request")

// ErrNotOpen is returned when booking an item whose status is not
// active, such as a coming_soon trip. Handlers translate this into
// HTTP 409.
var ErrNotOpen = errors.New("item not open for booking")

// Package repository defines the sentinel errors shared by the data
// access layer and the reservation engine.  Handlers compare against
// these values with errors.Is to pick HTTP status codes, so every
// failure the engine can surface to a caller has exactly one sentinel.
package repository

import "errors"

// Seat lifecycle conflicts.
var (
	// ErrSeatNotFound is returned when no availability row exists for
	// the requested (screening, seat) pair.
	ErrSeatNotFound = errors.New("seat not found")

	// ErrSeatUnavailable is returned when a hold is attempted on a seat
	// that is not AVAILABLE.  First hold to observe AVAILABLE wins;
	// later attempts on the same seat get this error.
	ErrSeatUnavailable = errors.New("seat unavailable")

	// ErrNotHoldOwner is returned when a release or reservation touches
	// a seat held by somebody else.
	ErrNotHoldOwner = errors.New("not hold owner")

	// ErrSeatNotHeld is returned when a pending reservation references
	// a seat that is no longer HELD, for example after the sweeper
	// reclaimed an expired hold.
	ErrSeatNotHeld = errors.New("seat not held")
)

// Reservation lifecycle conflicts.
var (
	// ErrReservationNotFound is returned when the reservation id does
	// not exist.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrNotOwner is returned when a caller operates on a reservation
	// belonging to a different holder.
	ErrNotOwner = errors.New("not reservation owner")

	// ErrAlreadyProcessed is returned when confirming or canceling a
	// reservation that is not in the state the operation requires.
	// Confirming twice yields this error, never a second point award.
	ErrAlreadyProcessed = errors.New("reservation already processed")
)

// Policy and validation failures.  These are rejected before any
// mutation takes place.
var (
	// ErrPriceNotFound is returned when no price row exists for the
	// room and ticket type combination.
	ErrPriceNotFound = errors.New("price not found")

	// ErrGuestPointsNotAllowed is returned when a guest attempts to
	// spend points.
	ErrGuestPointsNotAllowed = errors.New("guests cannot use points")

	// ErrInsufficientPoints is returned when a customer spends more
	// points than their balance carries.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrScreeningNotFound is returned when the screening id does not
	// exist.
	ErrScreeningNotFound = errors.New("screening not found")
)

package booking

import "errors"

var (
	// ErrNotFound is returned by the repository when no booking matches.
	ErrNotFound = errors.New("booking: not found")

	// ErrConflict is returned by the repository/service when a candidate
	// booking overlaps an existing non-cancelled booking (I1).
	ErrConflict = errors.New("booking: conflicts with an existing booking")

	errConfirmRequiresAdmin = errors.New("confirming a booking requires the admin role")
	errCrossTenantDenied    = errors.New("cross-tenant access is always denied")
)

// ConflictingBooking is the minimal shape surfaced in a 409 response body's
// conflicts array, per spec.md §6.
type ConflictingBooking struct {
	BookingID string
	StartTime string
	EndTime   string
}

// ConflictError carries the specific rows that conflicted with a candidate
// booking, so the HTTP layer can populate the 409 body's conflicts array.
type ConflictError struct {
	Conflicts []ConflictingBooking
}

func (e *ConflictError) Error() string { return "booking: conflicts with an existing booking" }

func (e *ConflictError) Unwrap() error { return ErrConflict }

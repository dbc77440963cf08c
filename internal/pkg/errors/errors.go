package errors

import "errors"

// Application-wide sentinel errors. Services wrap them with fmt.Errorf("%w: ...")
// and handlers map them to HTTP status codes with errors.Is.
var (
	// ErrNotFound is returned when a record or resource does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is returned for missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller may not act on the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is returned for invalid input.
	ErrValidation = errors.New("validation failed")

	// ErrExpiredToken is returned when a token has expired or was revoked.
	ErrExpiredToken = errors.New("token is expired")

	// ErrConflict is returned for state conflicts, e.g. a duplicate email or a
	// submission that is already in flight.
	ErrConflict = errors.New("resource state conflict")
)

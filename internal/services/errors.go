package services

import (
	"errors"
)

// Rate calculation rejections. Messages are surfaced to end users verbatim
// by the quote endpoints, so they stay human-readable and free of internals.
var (
	// ErrNoChargeableWeight signals the request resolved to zero billing weight.
	ErrNoChargeableWeight = errors.New("no chargeable weight information")
	// ErrZoneNotFound signals the destination country maps to no active zone.
	ErrZoneNotFound = errors.New("no shipping zone found for destination country")
	// ErrRateNotFound signals no active, date-valid rate exists for the lane.
	ErrRateNotFound = errors.New("no active rate found for this route")
	// ErrWeightExceedsLimit signals the billing weight exceeds the lane cap.
	ErrWeightExceedsLimit = errors.New("weight exceeds maximum limit for this service")
	// ErrUnknownServiceType signals an unrecognised service level string.
	ErrUnknownServiceType = errors.New("unknown service type")
	// ErrRateLookup hides backend failures behind a generic, user-safe message.
	ErrRateLookup = errors.New("unable to calculate shipping rate")
)

// QuoteError carries a user-facing message while categorising as one of the
// sentinel rejections above, so callers can both match with errors.Is and
// pass Error() straight through to API responses.
type QuoteError struct {
	kind    error
	message string
}

// Error returns the user-facing message.
func (e *QuoteError) Error() string {
	return e.message
}

// Unwrap exposes the sentinel the error categorises as.
func (e *QuoteError) Unwrap() error {
	return e.kind
}

func quoteError(kind error, message string) *QuoteError {
	return &QuoteError{kind: kind, message: message}
}

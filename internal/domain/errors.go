package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrRateLimited  = errors.New("rate limited")

	// ErrDelivery marks a notification send failure. The code may have been
	// persisted, but the caller must not report the flow as succeeded.
	ErrDelivery = errors.New("delivery failed")
)

// One-time-code validation outcomes. Kept distinct so the API can tell the
// user exactly why a code was refused instead of a blanket "invalid code".
var (
	ErrCodeNotFound = errors.New("code not found")
	ErrCodeExpired  = errors.New("code expired")
	ErrCodeMismatch = errors.New("code mismatch")
	ErrCodeConsumed = errors.New("code already used")
)

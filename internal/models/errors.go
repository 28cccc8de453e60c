package models

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown principal or a wrong secret.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid is returned when a token is malformed or its signature does not verify.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenRevoked is returned when the token id was revoked by logout.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrTokenExpired is returned when the token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrNotFound is returned when no product has the requested id.
	ErrNotFound = errors.New("product not found")
)

// ValidationError describes a malformed product payload.
type ValidationError struct {
	// Field is the offending JSON field.
	Field string
	// Reason is the human-readable message returned to the caller.
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

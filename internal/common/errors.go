// Package common defines shared constants and sentinel errors used across
// the mymee server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal         = errors.New("internal error")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrorDeliveryFailure  = errors.New("delivery failure")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Validation errors.
	ErrorInvalidInput     = errors.New("invalid input")
	ErrorValidationFailed = errors.New("validation failed")

	// OTP challenge errors.
	ErrorExpired  = errors.New("otp expired")
	ErrorMismatch = errors.New("otp mismatch")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)

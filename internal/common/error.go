// Package common defines shared constants and sentinel errors used across
// MediaVault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a conditional write's precondition failed,
	// e.g. renaming a soft-deleted file or claiming a taken username.
	ErrConflict = errors.New("conflict")

	// Validation errors (bad input shape, size or type; client fault).
	ErrValidation = errors.New("validation error")

	// ErrDecryption is returned when a stored blob fails AEAD authentication
	// or is too short to contain a nonce. It indicates tampering or a key
	// derivation mismatch and is never relayed to clients in detail.
	ErrDecryption = errors.New("decryption failed")

	// ErrStorage wraps object or metadata store backend failures.
	ErrStorage = errors.New("storage error")

	// Auth errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

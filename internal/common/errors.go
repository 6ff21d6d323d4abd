// Package common defines shared constants and sentinel errors used across
// the service. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// ErrStorageUnavailable marks ledger/directory I/O failures. It is always
	// surfaced to the caller and never downgraded to "not found": the service
	// must not decide token or account state off a failed read.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Credential errors. ErrInvalidCredentials covers both an unknown email
	// and a wrong password so that login responses do not reveal which
	// part failed.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("user with this email already exists")

	// Token lifecycle errors. ErrInvalidToken covers bad signature, malformed
	// structure, expiry, issuer/audience mismatch and revoked refresh tokens;
	// callers are deliberately not told which.
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("access token is required")

	// ErrUnknownUser is returned when a token verifies but its subject no
	// longer exists or is deactivated.
	ErrUnknownUser = errors.New("user not found")
)

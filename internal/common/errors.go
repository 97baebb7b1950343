// Package common defines shared constants and sentinel errors used across
// client and server layers of SpendKeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrValidation     = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Local store preconditions. Distinct on purpose: the first means the
	// store handle is missing, the second that nobody is logged in.
	ErrStoreNotInitialized = errors.New("store not initialized")
	ErrNoActiveUser        = errors.New("no active user")

	// Entry lifecycle.
	ErrEntryDeleted = errors.New("entry is deleted")
	ErrAborted      = errors.New("operation aborted")

	// Identifier generation gave up after the configured number of attempts.
	ErrIDGenerationExhausted = errors.New("id generation attempts exhausted")
)

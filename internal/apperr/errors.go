// Package apperr holds the sentinel errors shared across sislog packages.
// Callers match them with errors.Is; every layer wraps them with context.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidTimecode is returned when a timecode string is not four
	// zero-padded numeric fields (HH:MM:SS:FF) within range.
	ErrInvalidTimecode = errors.New("invalid timecode")

	// ErrClosed is returned by components that have been shut down.
	ErrClosed = errors.New("closed")
)

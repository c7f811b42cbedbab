package model

import "errors"

var (
	// ErrStorage indicates the backing medium could not be read or written,
	// or held content that does not parse.
	ErrStorage = errors.New("storage error")

	// ErrValidation indicates malformed input: an import payload without the
	// required collections, or a missing required field on create.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates an update referenced an absent id.
	ErrNotFound = errors.New("not found")

	// ErrConnection indicates the remote probe or a transfer failed.
	ErrConnection = errors.New("connection error")
)

package storage

import "errors"

// Storage errors shared by all adapters.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreMissing is returned when a configured store location does not
	// exist. It is a configuration error and aborts the run.
	ErrStoreMissing = errors.New("store missing")
)

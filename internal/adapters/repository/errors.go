package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound       = errors.New("athlete has no documents")
	ErrInvalidAthlete = errors.New("athlete id must not be empty")
	ErrUnknownDriver  = errors.New("unknown store driver")
	ErrClosed         = errors.New("store closed")
)

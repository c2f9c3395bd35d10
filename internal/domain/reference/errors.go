package reference

import "errors"

// Sentinel error kinds for this package.
var (
	ErrLoad      = errors.New("load reference table failed")
	ErrInvalid   = errors.New("invalid reference table")
	ErrDuplicate = errors.New("duplicate reference entry")
)

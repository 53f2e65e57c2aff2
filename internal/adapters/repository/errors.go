package repository

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrInvalidLimit = errors.New("invalid event limit")
)

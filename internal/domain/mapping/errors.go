package mapping

import "errors"

// Sentinel kinds for mapping errors.
var (
	ErrNotFound       = errors.New("player mapping not found")
	ErrSyncInProgress = errors.New("player sync already in progress")
	ErrNoDirectory    = errors.New("no player directory configured")
)

package provider

import "errors"

// Sentinel kinds for poller errors.
var (
	ErrNoSource         = errors.New("no source configured")
	ErrEmergencyStopped = errors.New("emergency stop engaged")
	ErrCircuitOpen      = errors.New("circuit open")
	ErrQuotaExceeded    = errors.New("daily quota exceeded")
)

package api

import "errors"

var (
	// ErrMissingLeagueID is returned when the league_id query parameter is absent.
	ErrMissingLeagueID = errors.New("league_id query parameter is required")
	// ErrInvalidLimit is returned when the limit query parameter is not a number.
	ErrInvalidLimit = errors.New("limit must be a positive integer")
	// ErrInvalidToggle is returned when the enabled query parameter is not true or false.
	ErrInvalidToggle = errors.New("enabled must be true or false")
	// ErrInvalidResetTarget is returned when the reset target is unknown.
	ErrInvalidResetTarget = errors.New("target must be emergency-stop, circuits or quotas")
)

// Package replay drives the full polling and attribution pipeline in
// process against scripted game data, then verifies what reached the
// event cache. It is a development tool for exercising the pipeline
// without live provider credentials.
package replay

import "time"

// Config holds the replay scenario parameters.
type Config struct {
	Leagues        int
	TeamsPerLeague int
	Players        int
	Games          int
	PlaysPerGame   int
	Rounds         int
	Seed           int64
	Verbose        bool
	LogFile        string
}

// Stats tracks replay progress and verification results.
type Stats struct {
	PlaysScripted    int
	ScoringPlays     int
	RoundsPolled     int
	EventsAttributed int
	EventsExpected   int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}

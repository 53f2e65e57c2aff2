// Package model contains domain models passed between layers.
package model

import (
	"strconv"
	"time"
)

// Platform identifies a fantasy or data platform whose player-id namespace
// we have to map between.
type Platform string

// Known platforms.
const (
	PlatformSleeper Platform = "sleeper"
	PlatformYahoo   Platform = "yahoo"
	PlatformESPN    Platform = "espn"
	PlatformTank01  Platform = "tank01"
)

// EventType classifies a scoring play.
type EventType string

// Scoring play classifications emitted by the pollers.
const (
	EventRushingTD     EventType = "rushing_td"
	EventPassingTD     EventType = "passing_td"
	EventReceivingTD   EventType = "receiving_td"
	EventFieldGoal     EventType = "field_goal"
	EventTurnover      EventType = "turnover"
	EventBigPlay       EventType = "big_play"
	EventStatMilestone EventType = "stat_milestone"
)

// StatLine carries the fantasy-relevant stat deltas of a single play.
// Zero values mean "no change"; the scoring engine multiplies these by
// per-league weights.
type StatLine struct {
	PassYards    float64 `json:"pass_yards,omitempty"`
	PassTD       float64 `json:"pass_td,omitempty"`
	Interception float64 `json:"interception,omitempty"`
	RushYards    float64 `json:"rush_yards,omitempty"`
	RushTD       float64 `json:"rush_td,omitempty"`
	Receptions   float64 `json:"receptions,omitempty"`
	RecYards     float64 `json:"rec_yards,omitempty"`
	RecTD        float64 `json:"rec_td,omitempty"`
	FGMade       float64 `json:"fg_made,omitempty"`
	XPMade       float64 `json:"xp_made,omitempty"`
	FumbleLost   float64 `json:"fumble_lost,omitempty"`
	TwoPointConv float64 `json:"two_point_conv,omitempty"`
}

// IsZero reports whether the line carries no stat deltas at all.
func (s StatLine) IsZero() bool {
	return s == StatLine{}
}

// RawPlay is one play-by-play entry as fetched from a provider. It is
// ephemeral: pollers diff raw plays against their last-seen marker and
// discard them after normalization.
type RawPlay struct {
	PlayID      string
	GameID      string
	Period      int
	Clock       string
	PlayerID    string
	TeamID      string
	Description string
	Scoring     bool
	Stats       StatLine
}

// NormalizedScoringEvent is the provider-agnostic record a poller emits for
// each newly seen scoring play. Immutable once emitted; flows by value.
type NormalizedScoringEvent struct {
	// PlayerID is the canonical player id when resolved, otherwise the
	// provider-native id. RawPlayerID is always the provider-native id.
	PlayerID    string
	RawPlayerID string
	Platform    Platform
	Type        EventType
	Stats       StatLine
	GameID      string
	Period      int
	Clock       string
	Description string
	TS          time.Time
	Provider    string
}

// PlayIdentity uniquely identifies the underlying play for deduplication.
// The key uses the provider's own game id, player id and clock format, so
// re-deliveries by the same provider across consecutive polls collapse to
// one identity; the same play reported by a different provider does not.
func (e NormalizedScoringEvent) PlayIdentity() string {
	return e.GameID + "|" + strconv.Itoa(e.Period) + "|" + e.Clock + "|" + e.RawPlayerID + "|" + string(e.Type)
}

// CanonicalPlayer unifies one player's identifiers across platforms.
// For a given platform, at most one mapping may claim a platform-specific id.
type CanonicalPlayer struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Team        string              `json:"team"`
	Position    string              `json:"position"`
	PlatformIDs map[Platform]string `json:"platform_ids"`
	Active      bool                `json:"active"`
	LastPlayed  time.Time           `json:"last_played"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// RosterEntry is a read-only input to attribution: the players one fantasy
// team holds in one league. PlayerIDs may be canonical or platform-native.
type RosterEntry struct {
	LeagueID  string
	Platform  Platform
	TeamID    string
	PlayerIDs []string
}

// LeagueConfig is supplied by the external configuration layer.
type LeagueConfig struct {
	LeagueID       string
	Platform       Platform
	Enabled        bool
	CustomTeamName string
	Username       string
}

// AttributedEvent is the league-scoped result of matching a scoring play to
// a roster and applying that league's scoring rules. Append-only per league;
// Recent is demoted as newer events arrive.
type AttributedEvent struct {
	ID          string    `json:"id"`
	LeagueID    string    `json:"league_id"`
	TeamID      string    `json:"team_id"`
	PlayerID    string    `json:"player_id"`
	PlayerName  string    `json:"player_name,omitempty"`
	Type        EventType `json:"type"`
	Points      float64   `json:"points"`
	Description string    `json:"description"`
	TS          time.Time `json:"ts"`
	Recent      bool      `json:"recent"`
}

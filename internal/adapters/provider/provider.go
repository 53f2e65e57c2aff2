// Package provider implements the per-source polling state machine: fetch
// active games, diff play-by-play against seen plays, and emit normalized
// scoring events.
package provider

import (
	"context"
	"time"

	"github.com/okian/redzone/internal/adapters/httpclient"
	"github.com/okian/redzone/internal/domain/model"
)

// Source is one external game-data API. Implementations own their HTTP
// client; the poller owns cadence, quota and failure handling.
type Source interface {
	// Name tags logs, metrics and diagnostics.
	Name() string

	// Platform is the player-id namespace the source reports plays in.
	Platform() model.Platform

	// ActiveGames returns ids of games currently in progress.
	ActiveGames(ctx context.Context) ([]string, error)

	// PlayByPlay returns the full play list for a game in chronological
	// order. The poller diffs it against already-seen play ids.
	PlayByPlay(ctx context.Context, gameID string) ([]model.RawPlay, error)
}

// requestStatser is implemented by sources that can report their HTTP
// client's accounting; the poller folds it into State.
type requestStatser interface {
	RequestStats() httpclient.Stats
}

// State is the diagnostic snapshot of one poller.
type State struct {
	Provider         string           `json:"provider"`
	Platform         model.Platform   `json:"platform"`
	Polling          bool             `json:"polling"`
	Forwarding       bool             `json:"forwarding"`
	EmergencyStopped bool             `json:"emergency_stopped"`
	Circuit          BreakerState     `json:"circuit"`
	Quota            QuotaState       `json:"quota"`
	Requests         httpclient.Stats `json:"requests"`
	LastPoll         time.Time        `json:"last_poll"`
	LastError        string           `json:"last_error,omitempty"`
	GamesTracked     int              `json:"games_tracked"`
}

// normalize classifies a scoring play and builds the provider-agnostic
// event. The play's raw player id is kept alongside so attribution can
// fall back to same-platform roster matching when mapping fails.
func normalize(src Source, play model.RawPlay, ts time.Time) model.NormalizedScoringEvent {
	return model.NormalizedScoringEvent{
		PlayerID:    play.PlayerID,
		RawPlayerID: play.PlayerID,
		Platform:    src.Platform(),
		Type:        classify(play.Stats),
		Stats:       play.Stats,
		GameID:      play.GameID,
		Period:      play.Period,
		Clock:       play.Clock,
		Description: play.Description,
		TS:          ts,
		Provider:    src.Name(),
	}
}

// Big-play yardage thresholds.
const (
	bigRushYards = 25
	bigRecYards  = 25
	bigPassYards = 40
)

// classify picks the event type from a play's stat deltas. Touchdowns win
// over everything; turnovers beat yardage milestones.
func classify(s model.StatLine) model.EventType {
	switch {
	case s.RushTD > 0:
		return model.EventRushingTD
	case s.RecTD > 0:
		return model.EventReceivingTD
	case s.PassTD > 0:
		return model.EventPassingTD
	case s.FGMade > 0 || s.XPMade > 0:
		return model.EventFieldGoal
	case s.Interception > 0 || s.FumbleLost > 0:
		return model.EventTurnover
	case s.RushYards >= bigRushYards || s.RecYards >= bigRecYards || s.PassYards >= bigPassYards:
		return model.EventBigPlay
	default:
		return model.EventStatMilestone
	}
}

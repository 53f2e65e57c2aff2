// Package attribution matches normalized scoring events against fantasy
// rosters, applies per-league scoring, deduplicates cross-provider
// re-deliveries, and records the attributed results.
package attribution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/redzone/internal/domain/dedupe"
	"github.com/okian/redzone/internal/domain/mapping"
	"github.com/okian/redzone/internal/domain/model"
	"github.com/okian/redzone/internal/domain/scoring"
	"github.com/okian/redzone/pkg/logger"
	"github.com/okian/redzone/pkg/metrics"
)

// Resolver maps platform-native player ids to canonical records.
// *mapping.Service satisfies it.
type Resolver interface {
	FindByPlatformID(ctx context.Context, platform model.Platform, id string) (model.CanonicalPlayer, error)
}

// Recorder stores attributed events for later reads.
type Recorder interface {
	Record(ctx context.Context, event model.AttributedEvent) error
}

// Subscriber receives attributed events after they are recorded.
type Subscriber func(model.AttributedEvent)

// Engine runs the match-score-dedupe pipeline for every configured league.
// One malformed or unmatchable event never affects the others.
type Engine struct {
	resolver Resolver
	scorer   scoring.Engine
	deduper  dedupe.Deduper
	recorder Recorder

	mu      sync.RWMutex
	leagues map[string]model.LeagueConfig
	rosters map[string][]model.RosterEntry

	subMu       sync.RWMutex
	subscribers []Subscriber

	now   func() time.Time
	newID func() string
	log   logger.Logger
}

// NewEngine creates an engine with configuration options.
func NewEngine(resolver Resolver, scorer scoring.Engine, deduper dedupe.Deduper, recorder Recorder, opts ...Option) *Engine {
	e := &Engine{
		resolver: resolver,
		scorer:   scorer,
		deduper:  deduper,
		recorder: recorder,
		leagues:  make(map[string]model.LeagueConfig),
		rosters:  make(map[string][]model.RosterEntry),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Get().Named("attribution")
	}
	return e
}

// SetLeagues replaces the set of leagues events are attributed against.
// Disabled leagues stay registered but receive no events.
func (e *Engine) SetLeagues(leagues []model.LeagueConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.leagues = make(map[string]model.LeagueConfig, len(leagues))
	for _, league := range leagues {
		e.leagues[league.LeagueID] = league
	}
}

// SetRosters replaces one league's roster entries.
func (e *Engine) SetRosters(leagueID string, entries []model.RosterEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rosters[leagueID] = entries
}

// OnAttributed registers a subscriber invoked after an event is recorded.
func (e *Engine) OnAttributed(fn Subscriber) {
	if fn == nil {
		return
	}
	e.subMu.Lock()
	e.subscribers = append(e.subscribers, fn)
	e.subMu.Unlock()
}

// Process attributes one normalized event to every enabled league whose
// roster holds the player. Events matching no roster are dropped and
// counted; duplicates of already-processed plays are skipped per league.
// The returned error reports storage failures only.
func (e *Engine) Process(ctx context.Context, event model.NormalizedScoringEvent) error {
	start := e.now()
	defer func() {
		metrics.RecordAttributionLatency(float64(time.Since(start).Milliseconds()))
	}()

	player, resolved := e.resolve(ctx, event)

	e.mu.RLock()
	leagues := make([]model.LeagueConfig, 0, len(e.leagues))
	for _, league := range e.leagues {
		if league.Enabled {
			leagues = append(leagues, league)
		}
	}
	e.mu.RUnlock()

	var matched bool
	var errs []error
	for _, league := range leagues {
		teamID, ok := e.matchRoster(league, event, player, resolved)
		if !ok {
			continue
		}
		matched = true

		key := league.LeagueID + "|" + event.PlayIdentity()
		if e.deduper.SeenAndRecord(ctx, key) {
			metrics.RecordEventDuplicate()
			e.log.Debug(ctx, "duplicate play skipped",
				logger.String("league", league.LeagueID),
				logger.String("play", event.PlayIdentity()),
			)
			continue
		}

		attributed := e.build(ctx, league, teamID, event, player, resolved)
		if err := e.recorder.Record(ctx, attributed); err != nil {
			// Let a redelivery of the same play retry the write.
			e.deduper.Unrecord(ctx, key)
			metrics.RecordEventDropped("storage_error")
			errs = append(errs, fmt.Errorf("record league %s: %w", league.LeagueID, err))
			continue
		}

		metrics.RecordEventAttributed()
		e.publish(attributed)
	}

	if !matched {
		metrics.RecordEventDropped("unmatched")
		e.log.Debug(ctx, "event matched no roster",
			logger.String("platform", string(event.Platform)),
			logger.String("player", event.RawPlayerID),
			logger.String("type", string(event.Type)),
		)
	}
	return errors.Join(errs...)
}

// resolve looks up the canonical player; a miss is not fatal because
// same-platform rosters can still match on the raw id.
func (e *Engine) resolve(ctx context.Context, event model.NormalizedScoringEvent) (model.CanonicalPlayer, bool) {
	player, err := e.resolver.FindByPlatformID(ctx, event.Platform, event.RawPlayerID)
	if err != nil {
		if !errors.Is(err, mapping.ErrNotFound) {
			e.log.Warn(ctx, "player resolution failed",
				logger.String("platform", string(event.Platform)),
				logger.String("player", event.RawPlayerID),
				logger.Error(err),
			)
		}
		return model.CanonicalPlayer{}, false
	}
	return player, true
}

// matchRoster finds the team in a league holding the event's player.
// Rosters list ids in their own platform's namespace, so the canonical
// record bridges platforms; without it only same-platform ids can match.
func (e *Engine) matchRoster(league model.LeagueConfig, event model.NormalizedScoringEvent, player model.CanonicalPlayer, resolved bool) (string, bool) {
	e.mu.RLock()
	entries := e.rosters[league.LeagueID]
	e.mu.RUnlock()

	for _, entry := range entries {
		want := make(map[string]struct{}, 3)
		if resolved {
			want[player.ID] = struct{}{}
			if id := player.PlatformIDs[entry.Platform]; id != "" {
				want[id] = struct{}{}
			}
		}
		if entry.Platform == event.Platform {
			want[event.RawPlayerID] = struct{}{}
		}
		for _, id := range entry.PlayerIDs {
			if _, ok := want[id]; ok {
				return entry.TeamID, true
			}
		}
	}
	return "", false
}

func (e *Engine) build(ctx context.Context, league model.LeagueConfig, teamID string, event model.NormalizedScoringEvent, player model.CanonicalPlayer, resolved bool) model.AttributedEvent {
	playerID := event.RawPlayerID
	var playerName string
	if resolved {
		playerID = player.ID
		playerName = player.Name
	}

	return model.AttributedEvent{
		ID:          e.newID(),
		LeagueID:    league.LeagueID,
		TeamID:      teamID,
		PlayerID:    playerID,
		PlayerName:  playerName,
		Type:        event.Type,
		Points:      e.scorer.Points(ctx, league.LeagueID, event.Stats),
		Description: event.Description,
		TS:          event.TS,
		Recent:      true,
	}
}

// publish fans an attributed event out to subscribers, isolating each one.
func (e *Engine) publish(event model.AttributedEvent) {
	e.subMu.RLock()
	subs := make([]Subscriber, len(e.subscribers))
	copy(subs, e.subscribers)
	e.subMu.RUnlock()

	for _, fn := range subs {
		func(fn Subscriber) {
			defer func() {
				if r := recover(); r != nil {
					e.log.Error(context.Background(), "subscriber panicked", logger.Any("panic", r))
				}
			}()
			fn(event)
		}(fn)
	}
}

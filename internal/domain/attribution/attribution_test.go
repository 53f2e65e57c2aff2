package attribution_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/redzone/internal/domain/attribution"
	"github.com/okian/redzone/internal/domain/dedupe"
	"github.com/okian/redzone/internal/domain/mapping"
	"github.com/okian/redzone/internal/domain/model"
	"github.com/okian/redzone/internal/domain/scoring"
)

type fakeResolver struct {
	players map[string]model.CanonicalPlayer // keyed by platform|id
	err     error
}

func (r *fakeResolver) FindByPlatformID(ctx context.Context, platform model.Platform, id string) (model.CanonicalPlayer, error) {
	if r.err != nil {
		return model.CanonicalPlayer{}, r.err
	}
	player, ok := r.players[string(platform)+"|"+id]
	if !ok {
		return model.CanonicalPlayer{}, mapping.ErrNotFound
	}
	return player, nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []model.AttributedEvent
	err    error
}

func (r *fakeRecorder) Record(ctx context.Context, event model.AttributedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *fakeRecorder) all() []model.AttributedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.AttributedEvent(nil), r.events...)
}

func rushingTD(rawID string) model.NormalizedScoringEvent {
	return model.NormalizedScoringEvent{
		RawPlayerID: rawID,
		Platform:    model.PlatformTank01,
		Type:        model.EventRushingTD,
		Stats:       model.StatLine{RushTD: 1},
		GameID:      "20251109_KC@BUF",
		Period:      2,
		Clock:       "05:12",
		Description: "I.Pacheco rush up the middle, TOUCHDOWN",
		TS:          time.Date(2025, 11, 9, 18, 30, 0, 0, time.UTC),
	}
}

func newEngine(resolver attribution.Resolver, recorder attribution.Recorder) *attribution.Engine {
	var seq int
	eng := attribution.NewEngine(
		resolver,
		scoring.NewBook(),
		dedupe.NewInMemoryDeduper(),
		recorder,
		attribution.WithIDGenerator(func() string {
			seq++
			return "evt-" + strconv.Itoa(seq)
		}),
	)
	eng.SetLeagues([]model.LeagueConfig{
		{LeagueID: "league-1", Platform: model.PlatformSleeper, Enabled: true},
	})
	eng.SetRosters("league-1", []model.RosterEntry{
		{LeagueID: "league-1", Platform: model.PlatformSleeper, TeamID: "team-7", PlayerIDs: []string{"8155"}},
	})
	return eng
}

func pacheco() model.CanonicalPlayer {
	return model.CanonicalPlayer{
		ID:   "nfl-4361529",
		Name: "Isiah Pacheco",
		PlatformIDs: map[model.Platform]string{
			model.PlatformTank01:  "4361529",
			model.PlatformSleeper: "8155",
		},
		Active: true,
	}
}

func TestAttributionBasic(t *testing.T) {
	Convey("Given a rostered player and a rushing touchdown", t, func() {
		ctx := context.Background()
		resolver := &fakeResolver{players: map[string]model.CanonicalPlayer{
			"tank01|4361529": pacheco(),
		}}
		recorder := &fakeRecorder{}
		eng := newEngine(resolver, recorder)

		Convey("When the event is processed", func() {
			So(eng.Process(ctx, rushingTD("4361529")), ShouldBeNil)

			Convey("Then one attributed event lands with league scoring applied", func() {
				events := recorder.all()
				So(events, ShouldHaveLength, 1)
				So(events[0].LeagueID, ShouldEqual, "league-1")
				So(events[0].TeamID, ShouldEqual, "team-7")
				So(events[0].PlayerID, ShouldEqual, "nfl-4361529")
				So(events[0].PlayerName, ShouldEqual, "Isiah Pacheco")
				So(events[0].Points, ShouldEqual, 6)
				So(events[0].Recent, ShouldBeTrue)
			})
		})

		Convey("When the same play is delivered twice", func() {
			So(eng.Process(ctx, rushingTD("4361529")), ShouldBeNil)
			So(eng.Process(ctx, rushingTD("4361529")), ShouldBeNil)

			Convey("Then the duplicate is skipped", func() {
				So(recorder.all(), ShouldHaveLength, 1)
			})
		})
	})
}

func TestAttributionUnmatched(t *testing.T) {
	Convey("Given an event for a player on no roster", t, func() {
		ctx := context.Background()
		resolver := &fakeResolver{players: map[string]model.CanonicalPlayer{}}
		recorder := &fakeRecorder{}
		eng := newEngine(resolver, recorder)

		Convey("When the event is processed", func() {
			err := eng.Process(ctx, rushingTD("0000000"))

			Convey("Then it is dropped without error", func() {
				So(err, ShouldBeNil)
				So(recorder.all(), ShouldBeEmpty)
			})
		})
	})
}

func TestAttributionSamePlatformFallback(t *testing.T) {
	Convey("Given a player unknown to mapping but rostered by raw id", t, func() {
		ctx := context.Background()
		resolver := &fakeResolver{players: map[string]model.CanonicalPlayer{}}
		recorder := &fakeRecorder{}
		eng := newEngine(resolver, recorder)
		eng.SetRosters("league-1", []model.RosterEntry{
			{LeagueID: "league-1", Platform: model.PlatformTank01, TeamID: "team-3", PlayerIDs: []string{"4361529"}},
		})

		Convey("When the event comes from the roster's own platform", func() {
			So(eng.Process(ctx, rushingTD("4361529")), ShouldBeNil)

			Convey("Then the raw-id fallback attributes it", func() {
				events := recorder.all()
				So(events, ShouldHaveLength, 1)
				So(events[0].TeamID, ShouldEqual, "team-3")
				So(events[0].PlayerID, ShouldEqual, "4361529")
				So(events[0].PlayerName, ShouldBeEmpty)
			})
		})
	})
}

func TestAttributionDisabledLeague(t *testing.T) {
	Convey("Given a disabled league", t, func() {
		ctx := context.Background()
		resolver := &fakeResolver{players: map[string]model.CanonicalPlayer{
			"tank01|4361529": pacheco(),
		}}
		recorder := &fakeRecorder{}
		eng := newEngine(resolver, recorder)
		eng.SetLeagues([]model.LeagueConfig{
			{LeagueID: "league-1", Platform: model.PlatformSleeper, Enabled: false},
		})

		Convey("When an otherwise matching event is processed", func() {
			So(eng.Process(ctx, rushingTD("4361529")), ShouldBeNil)

			Convey("Then nothing is attributed", func() {
				So(recorder.all(), ShouldBeEmpty)
			})
		})
	})
}

func TestAttributionMultiLeague(t *testing.T) {
	Convey("Given two leagues rostering the same player", t, func() {
		ctx := context.Background()
		resolver := &fakeResolver{players: map[string]model.CanonicalPlayer{
			"tank01|4361529": pacheco(),
		}}
		recorder := &fakeRecorder{}
		eng := newEngine(resolver, recorder)
		eng.SetLeagues([]model.LeagueConfig{
			{LeagueID: "league-1", Platform: model.PlatformSleeper, Enabled: true},
			{LeagueID: "league-2", Platform: model.PlatformTank01, Enabled: true},
		})
		eng.SetRosters("league-2", []model.RosterEntry{
			{LeagueID: "league-2", Platform: model.PlatformTank01, TeamID: "team-9", PlayerIDs: []string{"4361529"}},
		})

		Convey("When one play is processed", func() {
			So(eng.Process(ctx, rushingTD("4361529")), ShouldBeNil)

			Convey("Then each league gets its own attributed event", func() {
				events := recorder.all()
				So(events, ShouldHaveLength, 2)
				So(events[0].ID, ShouldNotEqual, events[1].ID)
			})
		})
	})
}

func TestAttributionStorageFailure(t *testing.T) {
	Convey("Given a recorder that fails", t, func() {
		ctx := context.Background()
		resolver := &fakeResolver{players: map[string]model.CanonicalPlayer{
			"tank01|4361529": pacheco(),
		}}
		recorder := &fakeRecorder{err: errors.New("disk full")}
		eng := newEngine(resolver, recorder)

		Convey("When processing fails to record", func() {
			err := eng.Process(ctx, rushingTD("4361529"))
			So(err, ShouldNotBeNil)

			Convey("Then a redelivery after recovery is not treated as duplicate", func() {
				recorder.mu.Lock()
				recorder.err = nil
				recorder.mu.Unlock()

				So(eng.Process(ctx, rushingTD("4361529")), ShouldBeNil)
				So(recorder.all(), ShouldHaveLength, 1)
			})
		})
	})
}

func TestAttributionSubscribers(t *testing.T) {
	Convey("Given a panicking and a healthy subscriber", t, func() {
		ctx := context.Background()
		resolver := &fakeResolver{players: map[string]model.CanonicalPlayer{
			"tank01|4361529": pacheco(),
		}}
		recorder := &fakeRecorder{}
		eng := newEngine(resolver, recorder)

		eng.OnAttributed(func(model.AttributedEvent) { panic("boom") })
		var got []model.AttributedEvent
		eng.OnAttributed(func(e model.AttributedEvent) { got = append(got, e) })

		Convey("When an event is attributed", func() {
			So(eng.Process(ctx, rushingTD("4361529")), ShouldBeNil)

			Convey("Then the healthy subscriber still fires", func() {
				So(got, ShouldHaveLength, 1)
				So(got[0].Points, ShouldEqual, 6)
			})
		})
	})
}

package provider_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/redzone/internal/adapters/provider"
	"github.com/okian/redzone/internal/domain/model"
)

type fakeSource struct {
	mu    sync.Mutex
	games []string
	plays map[string][]model.RawPlay
	fail  bool
	calls int
}

func (f *fakeSource) Name() string             { return "fake" }
func (f *fakeSource) Platform() model.Platform { return model.PlatformSleeper }

func (f *fakeSource) ActiveGames(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, errors.New("connection refused")
	}
	return f.games, nil
}

func (f *fakeSource) PlayByPlay(ctx context.Context, gameID string) ([]model.RawPlay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, errors.New("connection refused")
	}
	return f.plays[gameID], nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSource) setFail(fail bool) {
	f.mu.Lock()
	f.fail = fail
	f.mu.Unlock()
}

func (f *fakeSource) addPlay(gameID string, play model.RawPlay) {
	f.mu.Lock()
	f.plays[gameID] = append(f.plays[gameID], play)
	f.mu.Unlock()
}

func scoringPlay(id string, rushTD float64) model.RawPlay {
	return model.RawPlay{
		PlayID:      id,
		GameID:      "g1",
		PlayerID:    "p1",
		Period:      2,
		Clock:       "05:12",
		Description: id,
		Scoring:     true,
		Stats:       model.StatLine{RushTD: rushTD, RushYards: 3},
	}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		games: []string{"g1"},
		plays: map[string][]model.RawPlay{},
	}
}

func collect(p *provider.Poller) *[]model.NormalizedScoringEvent {
	events := &[]model.NormalizedScoringEvent{}
	var mu sync.Mutex
	p.OnScoringEvent(func(e model.NormalizedScoringEvent) {
		mu.Lock()
		*events = append(*events, e)
		mu.Unlock()
	})
	return events
}

func TestPollerEmitsNewPlaysOnce(t *testing.T) {
	Convey("Given a source with two scoring plays", t, func() {
		src := newFakeSource()
		src.addPlay("g1", scoringPlay("play-1", 1))
		src.addPlay("g1", scoringPlay("play-2", 1))

		p := provider.NewPoller(src)
		events := collect(p)

		Convey("When the poller polls once", func() {
			err := p.ManualPoll(context.Background())

			Convey("Then both plays are emitted in play order", func() {
				So(err, ShouldBeNil)
				So(*events, ShouldHaveLength, 2)
				So((*events)[0].Description, ShouldEqual, "play-1")
				So((*events)[1].Description, ShouldEqual, "play-2")
				So((*events)[0].Type, ShouldEqual, model.EventRushingTD)
			})
		})

		Convey("When the same plays come back on a second poll", func() {
			So(p.ManualPoll(context.Background()), ShouldBeNil)
			So(p.ManualPoll(context.Background()), ShouldBeNil)

			Convey("Then each play is emitted exactly once", func() {
				So(*events, ShouldHaveLength, 2)
			})
		})

		Convey("When a new play appears between polls", func() {
			So(p.ManualPoll(context.Background()), ShouldBeNil)
			src.addPlay("g1", scoringPlay("play-3", 1))
			So(p.ManualPoll(context.Background()), ShouldBeNil)

			Convey("Then only the new play is emitted on the second cycle", func() {
				So(*events, ShouldHaveLength, 3)
			})
		})
	})
}

func TestPollerSkipsNonScoringPlays(t *testing.T) {
	Convey("Given a mix of scoring and non-scoring plays", t, func() {
		src := newFakeSource()
		src.addPlay("g1", model.RawPlay{PlayID: "run-1", GameID: "g1", PlayerID: "p1", Scoring: false})
		src.addPlay("g1", scoringPlay("td-1", 1))

		p := provider.NewPoller(src)
		events := collect(p)

		Convey("When the poller polls", func() {
			So(p.ManualPoll(context.Background()), ShouldBeNil)

			Convey("Then only the scoring play is emitted", func() {
				So(*events, ShouldHaveLength, 1)
				So((*events)[0].Type, ShouldEqual, model.EventRushingTD)
			})
		})
	})
}

func TestPollerForwardingSuppression(t *testing.T) {
	Convey("Given a poller with forwarding disabled", t, func() {
		src := newFakeSource()
		src.addPlay("g1", scoringPlay("play-1", 1))

		p := provider.NewPoller(src, provider.WithForwarding(false))
		events := collect(p)

		Convey("When it polls", func() {
			So(p.ManualPoll(context.Background()), ShouldBeNil)

			Convey("Then it fetched but emitted nothing", func() {
				So(src.callCount(), ShouldBeGreaterThan, 0)
				So(*events, ShouldBeEmpty)
			})

			Convey("And re-enabling forwarding does not replay old plays", func() {
				p.SetForwarding(true)
				So(p.ManualPoll(context.Background()), ShouldBeNil)
				So(*events, ShouldBeEmpty)

				src.addPlay("g1", scoringPlay("play-2", 1))
				So(p.ManualPoll(context.Background()), ShouldBeNil)
				So(*events, ShouldHaveLength, 1)
			})
		})
	})
}

func TestPollerCircuitBreaker(t *testing.T) {
	Convey("Given a failing source", t, func() {
		src := newFakeSource()
		src.setFail(true)

		now := time.Date(2025, 11, 9, 18, 0, 0, 0, time.UTC)
		var clockMu sync.Mutex
		clock := func() time.Time {
			clockMu.Lock()
			defer clockMu.Unlock()
			return now
		}
		advance := func(d time.Duration) {
			clockMu.Lock()
			now = now.Add(d)
			clockMu.Unlock()
		}

		p := provider.NewPoller(src,
			provider.WithFailureThreshold(5),
			provider.WithCooldown(2*time.Minute),
			provider.WithClock(clock),
		)

		Convey("When five consecutive polls fail", func() {
			for i := 0; i < 5; i++ {
				So(p.ManualPoll(context.Background()), ShouldBeNil)
			}

			Convey("Then the circuit is open", func() {
				So(p.State().Circuit.Open, ShouldBeTrue)
				So(p.State().Circuit.ConsecutiveFailures, ShouldEqual, 5)
			})

			Convey("And further polls skip the network entirely", func() {
				before := src.callCount()
				err := p.ManualPoll(context.Background())
				So(err, ShouldEqual, provider.ErrCircuitOpen)
				So(src.callCount(), ShouldEqual, before)
			})

			Convey("And after the cool-down a probe succeeds and closes it", func() {
				advance(3 * time.Minute)
				src.setFail(false)
				So(p.ManualPoll(context.Background()), ShouldBeNil)
				So(p.State().Circuit.Open, ShouldBeFalse)
				So(p.State().Circuit.ConsecutiveFailures, ShouldEqual, 0)
			})

			Convey("And ResetCircuit closes it without waiting", func() {
				p.ResetCircuit()
				So(p.State().Circuit.Open, ShouldBeFalse)
			})
		})
	})
}

func TestPollerEmergencyStop(t *testing.T) {
	Convey("Given a healthy poller", t, func() {
		src := newFakeSource()
		src.addPlay("g1", scoringPlay("play-1", 1))
		p := provider.NewPoller(src)

		Convey("When the emergency stop is engaged", func() {
			p.EmergencyStop()

			Convey("Then manual polls make zero network calls", func() {
				err := p.ManualPoll(context.Background())
				So(err, ShouldEqual, provider.ErrEmergencyStopped)
				So(src.callCount(), ShouldEqual, 0)
			})

			Convey("And StartPolling is refused", func() {
				err := p.StartPolling(context.Background(), time.Second)
				So(err, ShouldEqual, provider.ErrEmergencyStopped)
			})

			Convey("And after reset exactly one cycle runs", func() {
				p.ResetEmergencyStop()
				So(p.ManualPoll(context.Background()), ShouldBeNil)
				So(src.callCount(), ShouldEqual, 2) // games + one play-by-play
			})
		})
	})
}

func TestPollerQuota(t *testing.T) {
	Convey("Given a poller with a three-request daily quota", t, func() {
		src := newFakeSource()
		src.addPlay("g1", scoringPlay("play-1", 1))
		p := provider.NewPoller(src, provider.WithQuotaLimit(3))

		Convey("When the quota is exhausted", func() {
			// Each cycle issues two requests (games + one play-by-play).
			So(p.ManualPoll(context.Background()), ShouldBeNil)
			So(p.ManualPoll(context.Background()), ShouldBeNil)

			Convey("Then further polls are skipped without network calls", func() {
				before := src.callCount()
				err := p.ManualPoll(context.Background())
				So(err, ShouldEqual, provider.ErrQuotaExceeded)
				So(src.callCount(), ShouldEqual, before)
				So(p.State().Quota.Used, ShouldEqual, 4)
			})

			Convey("And ResetQuota lets polling resume", func() {
				p.ResetQuota()
				So(p.ManualPoll(context.Background()), ShouldBeNil)
			})
		})
	})
}

func TestPollerScheduling(t *testing.T) {
	Convey("Given a started poller", t, func() {
		src := newFakeSource()
		src.addPlay("g1", scoringPlay("play-1", 1))
		p := provider.NewPoller(src)
		events := collect(p)

		Convey("When started with a short interval", func() {
			err := p.StartPolling(context.Background(), 20*time.Millisecond)
			So(err, ShouldBeNil)
			defer p.StopPolling()

			Convey("Then it polls and emits soon after start", func() {
				deadline := time.After(2 * time.Second)
				for len(*events) == 0 {
					select {
					case <-deadline:
						t.Fatal("no events emitted before deadline")
					case <-time.After(5 * time.Millisecond):
					}
				}
				So(p.State().Polling, ShouldBeTrue)
			})

			Convey("And a second start is a no-op", func() {
				So(p.StartPolling(context.Background(), time.Second), ShouldBeNil)
			})
		})

		Convey("When stopped", func() {
			So(p.StartPolling(context.Background(), 10*time.Millisecond), ShouldBeNil)
			p.StopPolling()

			Convey("Then no further network calls happen", func() {
				after := src.callCount()
				time.Sleep(50 * time.Millisecond)
				So(src.callCount(), ShouldEqual, after)
				So(p.State().Polling, ShouldBeFalse)
			})
		})
	})
}

func TestPollerSubscriberIsolation(t *testing.T) {
	Convey("Given one panicking and one healthy subscriber", t, func() {
		src := newFakeSource()
		src.addPlay("g1", scoringPlay("play-1", 1))
		p := provider.NewPoller(src)

		p.OnScoringEvent(func(model.NormalizedScoringEvent) { panic("boom") })
		events := collect(p)

		Convey("When an event is published", func() {
			So(p.ManualPoll(context.Background()), ShouldBeNil)

			Convey("Then the healthy subscriber still receives it", func() {
				So(*events, ShouldHaveLength, 1)
			})
		})
	})
}

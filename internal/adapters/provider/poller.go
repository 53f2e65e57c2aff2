package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/redzone/internal/domain/model"
	"github.com/okian/redzone/pkg/logger"
	"github.com/okian/redzone/pkg/metrics"
)

// Subscriber receives normalized scoring events. Panics are recovered per
// subscriber so one failing consumer cannot break delivery to others.
type Subscriber func(model.NormalizedScoringEvent)

// Poller drives one Source: Idle -> Polling -> (CircuitOpen |
// EmergencyStopped) -> Idle. Scheduled and manual polls are serialized so
// they can never race to advance the seen-play markers.
type Poller struct {
	source Source

	breaker *breaker
	quota   *quotaTracker

	interval   time.Duration
	intervalFn func() time.Duration
	now        func() time.Time

	breakerThreshold int
	breakerCooldown  time.Duration
	quotaLimit       int

	mu               sync.Mutex
	polling          bool
	forwarding       bool
	emergencyStopped bool
	cancel           context.CancelFunc
	loopDone         chan struct{}
	lastPoll         time.Time
	lastError        string
	// seen tracks play ids already processed per game; the poller emits
	// only plays not yet in the set and never emits the same play twice.
	seen map[string]map[string]struct{}

	subMu       sync.RWMutex
	subscribers []Subscriber

	pollMu sync.Mutex // serializes poll cycles (scheduled vs manual)

	log logger.Logger
}

// NewPoller creates a poller for one source with configuration options.
func NewPoller(source Source, opts ...Option) *Poller {
	p := &Poller{
		source:           source,
		interval:         defaultInterval,
		forwarding:       true,
		now:              time.Now,
		breakerThreshold: defaultFailureThreshold,
		breakerCooldown:  defaultCooldown,
		seen:             make(map[string]map[string]struct{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.breaker = newBreaker(p.breakerThreshold, p.breakerCooldown, p.now)
	p.quota = newQuotaTracker(p.quotaLimit, p.now)
	if p.log == nil {
		name := "poller"
		if source != nil {
			name = source.Name()
		}
		p.log = logger.Get().Named("poller").Named(name)
	}

	return p
}

// StartPolling schedules repeating poll cycles. Starting an already-polling
// poller is a logged no-op. Returns ErrNoSource when constructed without a
// source and ErrEmergencyStopped while the kill switch is engaged.
func (p *Poller) StartPolling(ctx context.Context, interval time.Duration) error {
	if p.source == nil {
		return ErrNoSource
	}

	p.mu.Lock()
	if p.emergencyStopped {
		p.mu.Unlock()
		p.log.Warn(ctx, "start refused: emergency stop engaged")
		return ErrEmergencyStopped
	}
	if p.polling {
		p.mu.Unlock()
		p.log.Info(ctx, "already polling; start ignored")
		return nil
	}
	if interval > 0 {
		p.interval = interval
	}
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.polling = true
	p.loopDone = make(chan struct{})
	done := p.loopDone
	p.mu.Unlock()

	go p.loop(loopCtx, done)
	p.log.Info(ctx, "polling started", logger.Duration("interval", p.currentInterval()))
	return nil
}

// StopPolling cancels the schedule. Safe to call while a fetch is in
// flight: the in-flight cycle is cancelled through its context and is not
// rescheduled.
func (p *Poller) StopPolling() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.loopDone
	p.cancel = nil
	p.polling = false
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	p.log.Info(context.Background(), "polling stopped")
}

// ManualPoll performs one cycle immediately, independent of the schedule.
// It does not reset the recurring timer.
func (p *Poller) ManualPoll(ctx context.Context) error {
	return p.pollOnce(ctx)
}

// OnScoringEvent registers a subscriber for normalized events.
func (p *Poller) OnScoringEvent(fn Subscriber) {
	if fn == nil {
		return
	}
	p.subMu.Lock()
	p.subscribers = append(p.subscribers, fn)
	p.subMu.Unlock()
}

// SetForwarding toggles event delivery. The poller keeps fetching (so a
// backup source stays hot for failover) but suppresses emission while
// forwarding is off.
func (p *Poller) SetForwarding(enabled bool) {
	p.mu.Lock()
	p.forwarding = enabled
	p.mu.Unlock()
}

// EmergencyStop engages the operator kill switch: no further network calls
// from scheduled or manual polls until ResetEmergencyStop.
func (p *Poller) EmergencyStop() {
	p.mu.Lock()
	p.emergencyStopped = true
	p.mu.Unlock()
	p.StopPolling()
	p.log.Warn(context.Background(), "emergency stop engaged")
}

// ResetEmergencyStop clears the kill switch. The circuit breaker and quota
// tracker are deliberately untouched: they guard provider health, not
// operator intent, and keep their own reset paths.
func (p *Poller) ResetEmergencyStop() {
	p.mu.Lock()
	p.emergencyStopped = false
	p.mu.Unlock()
	p.log.Info(context.Background(), "emergency stop reset")
}

// ResetCircuit closes the circuit breaker explicitly.
func (p *Poller) ResetCircuit() {
	p.breaker.Reset()
	metrics.UpdateCircuitOpen(p.source.Name(), false)
}

// ResetQuota clears today's quota counter.
func (p *Poller) ResetQuota() {
	p.quota.Reset()
}

// State returns a diagnostic snapshot.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := State{
		Provider:         p.source.Name(),
		Platform:         p.source.Platform(),
		Polling:          p.polling,
		Forwarding:       p.forwarding,
		EmergencyStopped: p.emergencyStopped,
		Circuit:          p.breaker.Snapshot(),
		Quota:            p.quota.Snapshot(),
		LastPoll:         p.lastPoll,
		LastError:        p.lastError,
		GamesTracked:     len(p.seen),
	}
	if statser, ok := p.source.(requestStatser); ok {
		s.Requests = statser.RequestStats()
	}
	return s
}

// loop runs scheduled cycles, re-reading the interval at the top of every
// cycle so the adaptive policy takes effect without a restart.
func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(p.currentInterval())
	defer timer.Stop()

	// Prime immediately on start.
	if err := p.pollOnce(ctx); err != nil {
		p.log.Debug(ctx, "initial poll skipped", logger.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if err := p.pollOnce(ctx); err != nil {
				p.log.Debug(ctx, "poll cycle skipped", logger.Error(err))
			}
			timer.Reset(p.currentInterval())
		}
	}
}

func (p *Poller) currentInterval() time.Duration {
	if p.intervalFn != nil {
		if d := p.intervalFn(); d > 0 {
			return d
		}
	}
	return p.interval
}

// pollOnce runs one fetch-and-diff cycle. Guards run in order: emergency
// stop, quota, circuit. Failures feed the breaker and never propagate as
// panics; callers of StartPolling never see per-request errors.
func (p *Poller) pollOnce(ctx context.Context) error {
	p.pollMu.Lock()
	defer p.pollMu.Unlock()

	if p.source == nil {
		return ErrNoSource
	}
	name := p.source.Name()

	p.mu.Lock()
	if p.emergencyStopped {
		p.mu.Unlock()
		metrics.RecordPollCycle(name, "emergency_stopped")
		return ErrEmergencyStopped
	}
	p.lastPoll = p.now()
	p.mu.Unlock()

	if !p.quota.Allow() {
		metrics.RecordPollCycle(name, "quota_exceeded")
		p.setLastError(ErrQuotaExceeded.Error())
		return ErrQuotaExceeded
	}
	if !p.breaker.Allow() {
		metrics.RecordPollCycle(name, "circuit_open")
		metrics.UpdateCircuitOpen(name, true)
		return ErrCircuitOpen
	}

	p.quota.Record()
	games, err := p.source.ActiveGames(ctx)
	if err != nil {
		p.recordFailure(ctx, fmt.Errorf("active games: %w", err))
		return nil
	}

	var emitted int
	for _, gameID := range games {
		p.quota.Record()
		plays, err := p.source.PlayByPlay(ctx, gameID)
		if err != nil {
			p.recordFailure(ctx, fmt.Errorf("play-by-play %s: %w", gameID, err))
			return nil
		}
		emitted += p.diffAndEmit(gameID, plays)
	}

	p.breaker.Success()
	p.setLastError("")
	metrics.UpdateCircuitOpen(name, false)
	metrics.RecordPollCycle(name, "ok")
	quota := p.quota.Snapshot()
	metrics.UpdateQuota(name, quota.Used, quota.Limit)

	if emitted > 0 {
		p.log.Info(ctx, "poll cycle complete",
			logger.Int("games", len(games)),
			logger.Int("events", emitted),
		)
	}
	return nil
}

// diffAndEmit advances the seen-set for a game and emits one normalized
// event per newly seen scoring play, preserving play order. Non-scoring
// plays advance the set but are not emitted.
func (p *Poller) diffAndEmit(gameID string, plays []model.RawPlay) int {
	p.mu.Lock()
	seen := p.seen[gameID]
	if seen == nil {
		seen = make(map[string]struct{})
		p.seen[gameID] = seen
	}
	forwarding := p.forwarding
	var fresh []model.RawPlay
	for _, play := range plays {
		if _, ok := seen[play.PlayID]; ok {
			continue
		}
		seen[play.PlayID] = struct{}{}
		if play.Scoring {
			fresh = append(fresh, play)
		}
	}
	p.mu.Unlock()

	if !forwarding {
		return 0
	}

	now := p.now()
	for _, play := range fresh {
		event := normalize(p.source, play, now)
		metrics.RecordEventNormalized(p.source.Name())
		p.publish(event)
	}
	return len(fresh)
}

// publish fans an event out to all subscribers, isolating each one.
func (p *Poller) publish(event model.NormalizedScoringEvent) {
	p.subMu.RLock()
	subs := make([]Subscriber, len(p.subscribers))
	copy(subs, p.subscribers)
	p.subMu.RUnlock()

	for i, fn := range subs {
		func(i int, fn Subscriber) {
			defer func() {
				if r := recover(); r != nil {
					p.log.Error(context.Background(), "subscriber panicked",
						logger.Int("subscriber", i),
						logger.Any("panic", r),
					)
				}
			}()
			fn(event)
		}(i, fn)
	}
}

func (p *Poller) recordFailure(ctx context.Context, err error) {
	p.breaker.Failure()
	p.setLastError(err.Error())
	snapshot := p.breaker.Snapshot()
	metrics.RecordPollCycle(p.source.Name(), "error")
	metrics.UpdateCircuitOpen(p.source.Name(), snapshot.Open)
	p.log.Warn(ctx, "poll cycle failed",
		logger.Error(err),
		logger.Int("consecutive_failures", snapshot.ConsecutiveFailures),
		logger.Bool("circuit_open", snapshot.Open),
	)
}

func (p *Poller) setLastError(msg string) {
	p.mu.Lock()
	p.lastError = msg
	p.mu.Unlock()
}

package provider

import (
	"sync"
	"time"
)

// BreakerState is a diagnostic snapshot of a circuit breaker.
type BreakerState struct {
	Open                bool      `json:"open"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	OpenUntil           time.Time `json:"open_until,omitempty"`
}

// breaker counts consecutive failures and opens after the threshold is
// reached. While open, calls are skipped; after the cool-down elapses one
// probe is allowed and a success closes the circuit again.
type breaker struct {
	mu        sync.Mutex
	failures  int
	openUntil time.Time
	threshold int
	cooldown  time.Duration
	now       func() time.Time
}

func newBreaker(threshold int, cooldown time.Duration, now func() time.Time) *breaker {
	if now == nil {
		now = time.Now
	}
	return &breaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       now,
	}
}

// Allow reports whether a call may proceed.
func (b *breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures < b.threshold {
		return true
	}
	// Open. Once the cool-down elapses, allow a probe; its outcome decides
	// whether the circuit closes or re-opens.
	return !b.now().Before(b.openUntil)
}

// Success closes the circuit.
func (b *breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.openUntil = time.Time{}
}

// Failure records one failed call, opening the circuit at the threshold.
func (b *breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.failures >= b.threshold {
		b.openUntil = b.now().Add(b.cooldown)
	}
}

// Reset closes the circuit explicitly.
func (b *breaker) Reset() {
	b.Success()
}

// Snapshot returns the current breaker state.
func (b *breaker) Snapshot() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := BreakerState{ConsecutiveFailures: b.failures}
	if b.failures >= b.threshold {
		state.Open = true
		state.OpenUntil = b.openUntil
	}
	return state
}

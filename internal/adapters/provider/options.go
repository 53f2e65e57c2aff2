package provider

import (
	"time"

	"github.com/okian/redzone/pkg/logger"
)

const (
	defaultInterval         = 30 * time.Second
	defaultFailureThreshold = 5
	defaultCooldown         = 2 * time.Minute
)

// Option configures a Poller during construction.
type Option func(*Poller)

// WithInterval sets the default schedule interval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithIntervalFunc installs an adaptive interval, consulted at the top of
// every scheduled cycle. A non-positive return falls back to the fixed
// interval.
func WithIntervalFunc(fn func() time.Duration) Option {
	return func(p *Poller) {
		p.intervalFn = fn
	}
}

// WithFailureThreshold sets how many consecutive failures open the circuit.
func WithFailureThreshold(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.breakerThreshold = n
		}
	}
}

// WithCooldown sets how long the circuit stays open before a probe.
func WithCooldown(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.breakerCooldown = d
		}
	}
}

// WithQuotaLimit caps provider requests per UTC day. Zero means unlimited.
func WithQuotaLimit(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.quotaLimit = n
		}
	}
}

// WithForwarding sets the initial forwarding state. Backup pollers start
// with forwarding disabled so only the primary emits during normal
// operation.
func WithForwarding(enabled bool) Option {
	return func(p *Poller) {
		p.forwarding = enabled
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger overrides the poller's logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.log = l
		}
	}
}

// Package dedupe tracks already-attributed play identities.
package dedupe

import "time"

// Default deduper configuration constants.
const (
	defaultMaxSize = 50000
	// defaultTTL comfortably outlives a single NFL game; primary/backup
	// overlap during failover is seconds, so the window only needs to
	// outlive one game.
	defaultTTL = 6 * time.Hour
)

// Option applies a configuration option to the inMemoryDeduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the number of identities kept in memory.
func WithMaxSize(size int) Option {
	return func(d *inMemoryDeduper) {
		if size > 0 {
			d.maxSize = size
		}
	}
}

// WithTTL sets how long an identity suppresses re-delivery.
func WithTTL(ttl time.Duration) Option {
	return func(d *inMemoryDeduper) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *inMemoryDeduper) {
		if now != nil {
			d.now = now
		}
	}
}

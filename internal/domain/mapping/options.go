// Package mapping resolves provider player ids to canonical records.
package mapping

import (
	"time"

	"github.com/okian/redzone/pkg/logger"
)

// Default mapping service configuration constants.
const (
	defaultBatchSize  = 200
	defaultStaleAfter = 24 * time.Hour
	// defaultRetention drops players who have not appeared in roughly half
	// a season.
	defaultRetention = 8 * 7 * 24 * time.Hour
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithBatchSize sets how many mappings one upsert batch carries.
func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithStaleAfter sets how old a completed sync may be before NeedsSync
// reports true.
func WithStaleAfter(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.staleAfter = d
		}
	}
}

// WithRetention sets how long inactive players are kept before cleanup.
func WithRetention(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

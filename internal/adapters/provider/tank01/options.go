package tank01

import (
	"time"

	"github.com/okian/redzone/internal/adapters/httpclient"
)

// Option applies a configuration option to the Source.
type Option func(*Source)

// WithClient replaces the HTTP client, mainly for pointing tests at a
// local server.
func WithClient(c *httpclient.Client) Option {
	return func(s *Source) {
		if c != nil {
			s.client = c
		}
	}
}

// WithClock overrides the time source used to pick the scoreboard date.
func WithClock(now func() time.Time) Option {
	return func(s *Source) {
		if now != nil {
			s.now = now
		}
	}
}

package espnscore

import "github.com/okian/redzone/internal/adapters/httpclient"

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

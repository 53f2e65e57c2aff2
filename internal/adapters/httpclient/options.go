// Package httpclient wraps outbound provider calls with rate limiting.
package httpclient

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/redzone/pkg/logger"
)

// Default client configuration constants.
const (
	defaultTimeout     = 15 * time.Second
	defaultMaxRetries  = 3
	defaultBackoffBase = 500 * time.Millisecond
	// defaultMinInterval suits a 1-req/1.1s provider tier.
	defaultMinInterval = 1100 * time.Millisecond
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL sets the base URL prefixed to every endpoint.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = base
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithTimeout bounds each request attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxRetries bounds retry attempts after the first try.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithMinInterval enforces the minimum gap between requests.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithBackoffBase sets the first retry delay; later attempts double it.
func WithBackoffBase(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoffBase = d
		}
	}
}

// WithHeader adds a header to every request (API keys, host headers).
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithProviderName tags metrics and logs with the provider's name.
func WithProviderName(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.provider = name
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

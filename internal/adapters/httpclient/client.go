// Package httpclient wraps outbound provider calls with timeout, retry with
// backoff, and a single-slot rate limiter so per-second-limited providers
// are never called faster than their contract allows.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/redzone/pkg/logger"
	"github.com/okian/redzone/pkg/metrics"
)

// Stats is a snapshot of request accounting for diagnostics.
type Stats struct {
	Total       int64     `json:"total"`
	Succeeded   int64     `json:"succeeded"`
	LastRequest time.Time `json:"last_request"`
	ThisMinute  int       `json:"this_minute"`
}

// Client is a rate-limited HTTP client for one provider. Concurrent callers
// queue on the limiter (burst 1) and are serviced one at a time with the
// configured minimum inter-request gap.
type Client struct {
	hc          *http.Client
	baseURL     string
	headers     map[string]string
	limiter     *rate.Limiter
	timeout     time.Duration
	maxRetries  int
	backoffBase time.Duration
	provider    string
	log         logger.Logger

	mu          sync.Mutex
	total       int64
	succeeded   int64
	lastRequest time.Time
	minuteKey   int64
	minuteCount int
	rng         *rand.Rand
}

// New creates a client with configuration options.
func New(opts ...Option) *Client {
	c := &Client{
		hc:          &http.Client{},
		headers:     make(map[string]string),
		timeout:     defaultTimeout,
		maxRetries:  defaultMaxRetries,
		backoffBase: defaultBackoffBase,
		provider:    "default",
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // jitter, not crypto
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.limiter == nil {
		c.limiter = rate.NewLimiter(rate.Every(defaultMinInterval), 1)
	}
	if c.log == nil {
		c.log = logger.Get().Named("httpclient").Named(c.provider)
	}

	return c
}

// Get performs a rate-limited GET with retries and returns the body.
// 4xx responses other than 429 are returned immediately as *StatusError;
// network failures, timeouts, 5xx and 429 are retried with exponential
// backoff plus jitter up to the retry bound.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	target, err := c.buildURL(endpoint, params)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.backoffFor(attempt, lastErr)); err != nil {
				return nil, err
			}
		}

		// Single-slot queue: one caller at a time, minimum gap enforced.
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		body, err := c.do(ctx, target)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var status *StatusError
		if errors.As(err, &status) && !IsRetryable(status.Status) {
			return nil, err
		}
		c.log.Warn(ctx, "request attempt failed",
			logger.String("endpoint", endpoint),
			logger.Int("attempt", attempt+1),
			logger.Error(err),
		)
	}

	return nil, fmt.Errorf("retries exhausted for %s: %w", endpoint, lastErr)
}

// do performs one attempt with a bounded per-attempt timeout.
func (c *Client) do(ctx context.Context, target string) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	c.recordRequest(start)

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	latency := float64(time.Since(start).Milliseconds())
	metrics.RecordProviderRequestDuration(c.provider, latency)

	if err != nil {
		metrics.RecordProviderRequest(c.provider, "error")
		if errors.Is(err, context.DeadlineExceeded) || attemptCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%s: %w", target, ErrTimeout)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w: %v", target, ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RecordProviderRequest(c.provider, strconv.Itoa(resp.StatusCode))
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining for connection reuse
		statusErr := &StatusError{Status: resp.StatusCode}
		if resp.StatusCode == http.StatusTooManyRequests {
			if d := retryAfter(resp); d > 0 {
				return nil, &rateLimitedError{StatusError: statusErr, retryAfter: d}
			}
		}
		return nil, statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordProviderRequest(c.provider, "error")
		return nil, fmt.Errorf("read body: %w: %v", ErrNetwork, err)
	}

	metrics.RecordProviderRequest(c.provider, "success")
	c.recordSuccess()
	return body, nil
}

// Stats returns a snapshot of request accounting.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	thisMinute := 0
	if c.minuteKey == time.Now().Unix()/60 {
		thisMinute = c.minuteCount
	}
	return Stats{
		Total:       c.total,
		Succeeded:   c.succeeded,
		LastRequest: c.lastRequest,
		ThisMinute:  thisMinute,
	}
}

func (c *Client) buildURL(endpoint string, params url.Values) (string, error) {
	u, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String(), nil
}

// backoffFor computes the delay before a retry attempt. A Retry-After hint
// from a 429 takes precedence; otherwise exponential backoff with jitter.
func (c *Client) backoffFor(attempt int, lastErr error) time.Duration {
	var rl *rateLimitedError
	if errors.As(lastErr, &rl) {
		return rl.retryAfter
	}

	backoff := c.backoffBase << (attempt - 1)
	c.mu.Lock()
	jitter := time.Duration(c.rng.Int63n(int64(backoff)/2 + 1))
	c.mu.Unlock()
	return backoff + jitter
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// recordRequest updates total and minute-bucket counters for quota display.
func (c *Client) recordRequest(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	c.lastRequest = now

	key := now.Unix() / 60
	if key != c.minuteKey {
		c.minuteKey = key
		c.minuteCount = 0
	}
	c.minuteCount++
	metrics.UpdateRequestsThisMinute(c.provider, c.minuteCount)
}

func (c *Client) recordSuccess() {
	c.mu.Lock()
	c.succeeded++
	c.mu.Unlock()
}

// rateLimitedError carries the provider's Retry-After hint.
type rateLimitedError struct {
	*StatusError
	retryAfter time.Duration
}

func (e *rateLimitedError) Unwrap() error { return e.StatusError }

func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

package httpclient

import (
	"errors"
	"fmt"
)

// Sentinel kinds for outbound request errors.
var (
	ErrTimeout = errors.New("request timed out")
	ErrNetwork = errors.New("network failure")
)

// StatusError reports a non-2xx response after retries were exhausted or
// skipped (non-retryable 4xx).
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Status)
}

// IsRetryable reports whether a status is worth retrying: 5xx and 429.
func IsRetryable(status int) bool {
	return status >= 500 || status == 429
}

package provider

import (
	"sync"
	"time"
)

// QuotaState is a diagnostic snapshot of the daily quota tracker.
type QuotaState struct {
	Used  int    `json:"used"`
	Limit int    `json:"limit"`
	Day   string `json:"day"`
}

// quotaTracker counts requests against a provider's daily quota. The
// counter rolls over at the UTC day boundary (the billing window used by
// the RapidAPI-hosted providers).
type quotaTracker struct {
	mu    sync.Mutex
	used  int
	limit int
	day   string
	now   func() time.Time
}

func newQuotaTracker(limit int, now func() time.Time) *quotaTracker {
	if now == nil {
		now = time.Now
	}
	return &quotaTracker{limit: limit, now: now}
}

// Allow reports whether another request fits in today's quota.
// A non-positive limit means unlimited.
func (q *quotaTracker) Allow() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.roll()
	return q.limit <= 0 || q.used < q.limit
}

// Record counts one issued request.
func (q *quotaTracker) Record() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.roll()
	q.used++
}

// Reset clears today's counter (manual operator reset).
func (q *quotaTracker) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.used = 0
	q.day = q.today()
}

// Snapshot returns the current quota state.
func (q *quotaTracker) Snapshot() QuotaState {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.roll()
	return QuotaState{Used: q.used, Limit: q.limit, Day: q.day}
}

// roll resets the counter when the UTC day changed. Must hold q.mu.
func (q *quotaTracker) roll() {
	today := q.today()
	if q.day != today {
		q.day = today
		q.used = 0
	}
}

func (q *quotaTracker) today() string {
	return q.now().UTC().Format("2006-01-02")
}

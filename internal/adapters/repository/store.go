// Package repository holds the storage adapters: the bounded per-league
// event cache read by the diagnostics API, and the player-mapping stores
// (in-memory and Redis) behind the mapping service.
package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/redzone/internal/domain/model"
	"github.com/okian/redzone/pkg/metrics"
)

// CacheStats is a snapshot of the event cache for diagnostics.
type CacheStats struct {
	Leagues   int            `json:"leagues"`
	Total     int            `json:"total"`
	Capacity  int            `json:"capacity_per_league"`
	PerLeague map[string]int `json:"per_league"`
	OldestTS  time.Time      `json:"oldest_ts,omitzero"`
	NewestTS  time.Time      `json:"newest_ts,omitzero"`
}

// EventCache stores attributed events per league.
type EventCache interface {
	// Record appends an event to its league's history, evicting the
	// oldest entry when the league is at capacity. Previously stored
	// events in that league lose their Recent flag.
	Record(ctx context.Context, event model.AttributedEvent) error

	// RecentEvents returns up to limit events for a league, newest first.
	// An unknown league yields an empty slice, not an error.
	RecentEvents(ctx context.Context, leagueID string, limit int) ([]model.AttributedEvent, error)

	// EvictOlderThan drops events older than the cutoff across all
	// leagues, returning how many were removed.
	EvictOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// Stats returns cache occupancy for diagnostics.
	Stats(ctx context.Context) CacheStats
}

// leagueRing is a fixed-capacity ring of events ordered oldest to newest.
type leagueRing struct {
	buf   []model.AttributedEvent
	start int
	n     int
}

func (r *leagueRing) push(e model.AttributedEvent) (evicted bool) {
	if r.n < len(r.buf) {
		r.buf[(r.start+r.n)%len(r.buf)] = e
		r.n++
		return false
	}
	r.buf[r.start] = e
	r.start = (r.start + 1) % len(r.buf)
	return true
}

func (r *leagueRing) at(i int) model.AttributedEvent {
	return r.buf[(r.start+i)%len(r.buf)]
}

// memoryCache is the in-process EventCache. League histories are
// independent: a busy league evicts only its own events.
type memoryCache struct {
	mu       sync.RWMutex
	capacity int
	leagues  map[string]*leagueRing
}

// NewEventCache creates a bounded in-memory event cache.
func NewEventCache(opts ...CacheOption) EventCache {
	c := &memoryCache{
		capacity: defaultLeagueCapacity,
		leagues:  make(map[string]*leagueRing),
	}
	for _, opt := range opts {
		opt(c)
	}
	metrics.UpdateCacheEvents(0)
	return c
}

func (c *memoryCache) Record(ctx context.Context, event model.AttributedEvent) error {
	c.mu.Lock()
	ring := c.leagues[event.LeagueID]
	if ring == nil {
		ring = &leagueRing{buf: make([]model.AttributedEvent, c.capacity)}
		c.leagues[event.LeagueID] = ring
	}
	for i := 0; i < ring.n; i++ {
		ring.buf[(ring.start+i)%len(ring.buf)].Recent = false
	}
	if ring.push(event) {
		metrics.RecordCacheEviction()
	}
	total := c.totalLocked()
	count := ring.n
	c.mu.Unlock()

	metrics.UpdateCacheEvents(total)
	metrics.UpdateCacheEventsForLeague(event.LeagueID, count)
	return nil
}

func (c *memoryCache) RecentEvents(ctx context.Context, leagueID string, limit int) ([]model.AttributedEvent, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	ring := c.leagues[leagueID]
	if ring == nil {
		return []model.AttributedEvent{}, nil
	}

	n := ring.n
	if limit < n {
		n = limit
	}
	out := make([]model.AttributedEvent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, ring.at(ring.n-1-i))
	}
	return out, nil
}

func (c *memoryCache) EvictOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int
	for leagueID, ring := range c.leagues {
		kept := make([]model.AttributedEvent, 0, ring.n)
		for i := 0; i < ring.n; i++ {
			if e := ring.at(i); !e.TS.Before(cutoff) {
				kept = append(kept, e)
			}
		}
		removed += ring.n - len(kept)
		if len(kept) == 0 {
			delete(c.leagues, leagueID)
			continue
		}
		fresh := &leagueRing{buf: make([]model.AttributedEvent, c.capacity)}
		for _, e := range kept {
			fresh.push(e)
		}
		c.leagues[leagueID] = fresh
	}

	metrics.UpdateCacheEvents(c.totalLocked())
	return removed, nil
}

func (c *memoryCache) Stats(ctx context.Context) CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStats{
		Leagues:   len(c.leagues),
		Capacity:  c.capacity,
		PerLeague: make(map[string]int, len(c.leagues)),
	}
	ids := make([]string, 0, len(c.leagues))
	for id := range c.leagues {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		ring := c.leagues[id]
		stats.PerLeague[id] = ring.n
		stats.Total += ring.n
		for i := 0; i < ring.n; i++ {
			ts := ring.at(i).TS
			if stats.OldestTS.IsZero() || ts.Before(stats.OldestTS) {
				stats.OldestTS = ts
			}
			if ts.After(stats.NewestTS) {
				stats.NewestTS = ts
			}
		}
	}
	return stats
}

// totalLocked sums all league counts. Must hold c.mu.
func (c *memoryCache) totalLocked() int {
	var total int
	for _, ring := range c.leagues {
		total += ring.n
	}
	return total
}

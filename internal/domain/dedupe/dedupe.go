// Package dedupe tracks already-attributed play identities so the same
// underlying play is never delivered twice to a league.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Deduper records seen play identities to ensure at-most-once delivery.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen inside the window and
	// records it if not. Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an id, allowing it to be delivered again. Used when
	// an event was marked seen but failed downstream (cache backpressure).
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// node is one entry in the recency list. Newest entries sit at the head,
// so the tail is always the first candidate for eviction.
type node struct {
	id     string
	seenAt time.Time
	next   *node
}

func (n *node) reset() {
	n.id = ""
	n.seenAt = time.Time{}
	n.next = nil
}

// inMemoryDeduper keeps identities in a map plus a recency list. Entries
// expire after ttl (the "active game lifetime" window); the size bound is a
// backstop for pathological provider behavior.
type inMemoryDeduper struct {
	mu       sync.Mutex
	seen     map[string]*node
	head     *node
	maxSize  int
	ttl      time.Duration
	now      func() time.Time
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		ttl:     defaultTTL,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]*node)
	d.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}

	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	d.pruneExpired(now)

	if n, exists := d.seen[id]; exists {
		// Refresh so a play re-delivered late in a long game stays
		// suppressed for the rest of it. The node moves to the head to
		// keep the list ordered by recency; otherwise the size bound
		// could evict the freshest identity from the tail.
		n.seenAt = now
		d.moveToFront(n)
		return true
	}

	if len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	n := d.nodePool.Get().(*node)
	n.id = id
	n.seenAt = now
	n.next = d.head

	d.head = n
	d.seen[id] = n
	d.size.Add(1)
	return false
}

// Unrecord removes an id from the seen set.
func (d *inMemoryDeduper) Unrecord(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, exists := d.seen[id]
	if !exists {
		return
	}
	d.remove(n)
}

// Size returns the current number of tracked identities.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

// pruneExpired drops entries older than ttl, walking from the tail (oldest).
// Must be called with d.mu held.
func (d *inMemoryDeduper) pruneExpired(now time.Time) {
	if d.ttl <= 0 {
		return
	}
	cutoff := now.Add(-d.ttl)
	for d.head != nil {
		tail, prev := d.tail()
		if tail == nil || !tail.seenAt.Before(cutoff) {
			return
		}
		d.unlink(tail, prev)
	}
}

// evictOldest removes the tail entry. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	tail, prev := d.tail()
	if tail == nil {
		return
	}
	d.unlink(tail, prev)
}

// moveToFront relinks n at the head. Must be called with d.mu held.
func (d *inMemoryDeduper) moveToFront(n *node) {
	if d.head == n {
		return
	}
	prev := d.head
	for prev != nil && prev.next != n {
		prev = prev.next
	}
	if prev == nil {
		return
	}
	prev.next = n.next
	n.next = d.head
	d.head = n
}

// remove unlinks an arbitrary node. Must be called with d.mu held.
func (d *inMemoryDeduper) remove(n *node) {
	if d.head == n {
		d.unlink(n, nil)
		return
	}
	prev := d.head
	for prev != nil && prev.next != n {
		prev = prev.next
	}
	if prev != nil {
		d.unlink(n, prev)
	}
}

// tail returns the last node and its predecessor. Must be called with d.mu held.
func (d *inMemoryDeduper) tail() (tail, prev *node) {
	if d.head == nil {
		return nil, nil
	}
	tail = d.head
	for tail.next != nil {
		prev = tail
		tail = tail.next
	}
	return tail, prev
}

// unlink detaches n (whose predecessor is prev, nil when n is head) and
// returns it to the pool. Must be called with d.mu held.
func (d *inMemoryDeduper) unlink(n, prev *node) {
	if prev == nil {
		d.head = n.next
	} else {
		prev.next = n.next
	}
	delete(d.seen, n.id)
	n.reset()
	d.nodePool.Put(n)
	d.size.Add(-1)
}

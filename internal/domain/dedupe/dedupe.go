// Package dedupe tracks submission IDs so that retried deliveries of
// the same assessment are absorbed instead of double-counted.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen submission IDs for at-most-once consolidation.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records
	// it if not. Returns true when id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets an ID so the submission can be retried. Used
	// when a submission was recorded but consolidation failed.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

const defaultCapacity = 50000

// tracker is an in-memory Deduper. With a positive capacity it keeps
// the most recent IDs in a ring, evicting the oldest once full; with a
// non-positive capacity it grows without bound.
type tracker struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	ring     []string
	next     int
	capacity int
	size     atomic.Int64
}

// NewTracker creates an in-memory submission ID tracker.
func NewTracker(opts ...Option) Deduper {
	t := &tracker{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(t)
	}
	t.seen = make(map[string]struct{})
	if t.capacity > 0 {
		t.ring = make([]string, t.capacity)
	}
	return t
}

func (t *tracker) SeenAndRecord(_ context.Context, id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[id]; ok {
		return true
	}

	if t.capacity > 0 {
		if old := t.ring[t.next]; old != "" {
			if _, ok := t.seen[old]; ok {
				delete(t.seen, old)
				t.size.Add(-1)
			}
		}
		t.ring[t.next] = id
		t.next = (t.next + 1) % t.capacity
	}

	t.seen[id] = struct{}{}
	t.size.Add(1)
	return false
}

func (t *tracker) Unrecord(_ context.Context, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[id]; ok {
		delete(t.seen, id)
		t.size.Add(-1)
	}
}

func (t *tracker) Size() int64 {
	return t.size.Load()
}

// Package dedupe collapses duplicate marker records and tracks seen
// submission IDs for idempotent ingestion.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen IDs to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a failed submission can be retried.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps IDs in a map. When maxSize > 0 the oldest recorded
// IDs are evicted first; otherwise the set grows without bound.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]uint64
	order   []entry // insertion order, oldest first; may hold stale entries
	seq     uint64
	maxSize int
}

type entry struct {
	id  string
	seq uint64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]uint64)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 {
		for len(d.seen) >= d.maxSize && d.evictOldest() {
		}
	}
	d.seq++
	d.seen[id] = d.seq
	if d.maxSize > 0 {
		d.order = append(d.order, entry{id: id, seq: d.seq})
	}
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	// The order slice entry goes stale and is skipped on eviction.
	delete(d.seen, id)
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}

// evictOldest drops the oldest live ID and reports whether one was found.
// Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() bool {
	for len(d.order) > 0 {
		e := d.order[0]
		d.order[0] = entry{}
		d.order = d.order[1:]
		if seq, ok := d.seen[e.id]; ok && seq == e.seq {
			delete(d.seen, e.id)
			return true
		}
	}
	return false
}

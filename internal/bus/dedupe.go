package bus

import (
	"sync"
	"time"

	"github.com/nextlevelbuilder/gopair/internal/clock"
)

// DedupeCache is a TTL-based deduplication cache for inbound event frames.
// The relay may replay its last events after a reconnect; frames already
// seen within the TTL are dropped.
//
// Entries expire after TTL and are pruned lazily on each check.
type DedupeCache struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	maxSize int
	clock   clock.Clock
}

// NewDedupeCache creates a new dedup cache.
func NewDedupeCache(ttl time.Duration, maxSize int, clk clock.Clock) *DedupeCache {
	if clk == nil {
		clk = clock.Real()
	}
	return &DedupeCache{
		entries: make(map[string]time.Time, 256),
		ttl:     ttl,
		maxSize: maxSize,
		clock:   clk,
	}
}

// IsDuplicate returns true if key was already seen within the TTL window.
// If not a duplicate, records the key for future checks.
func (d *DedupeCache) IsDuplicate(key string) bool {
	now := d.clock.Now()
	cutoff := now.Add(-d.ttl)

	d.mu.Lock()
	defer d.mu.Unlock()

	if ts, ok := d.entries[key]; ok && !ts.Before(cutoff) {
		return true
	}

	d.cleanup(cutoff)

	d.entries[key] = now
	return false
}

// Reset forgets every key (new session).
func (d *DedupeCache) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = make(map[string]time.Time, 256)
}

// cleanup removes expired entries and evicts oldest if over maxSize.
// Must be called with d.mu held.
func (d *DedupeCache) cleanup(cutoff time.Time) {
	for k, ts := range d.entries {
		if ts.Before(cutoff) {
			delete(d.entries, k)
		}
	}

	if d.maxSize > 0 && len(d.entries) >= d.maxSize {
		var oldestKey string
		var oldest time.Time
		for len(d.entries) >= d.maxSize {
			first := true
			for k, ts := range d.entries {
				if first || ts.Before(oldest) {
					oldestKey, oldest, first = k, ts, false
				}
			}
			delete(d.entries, oldestKey)
		}
	}
}

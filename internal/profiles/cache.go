// Package profiles caches per-pair presentation data (profile text, avatar
// reference, flags) fetched from the relay.
//
// Entries are evicted least-recently-used and expire after a TTL. A pause
// flip on a pair invalidates its entry so the UI refetches what the pair is
// now willing to show.
package profiles

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/nextlevelbuilder/gopair/internal/clock"
)

// Profile is the presentation data shown for a pair.
type Profile struct {
	UID         string    `json:"uid"`
	Description string    `json:"description"`
	AvatarRef   string    `json:"avatarRef,omitempty"`
	Flagged     bool      `json:"flagged,omitempty"`
	Disabled    bool      `json:"disabled,omitempty"`
	FetchedAt   time.Time `json:"-"`
}

// Fetcher loads a profile from the relay.
type Fetcher func(ctx context.Context, uid string) (Profile, error)

// Cache is a bounded, TTL-limited profile cache.
type Cache struct {
	entries *lru.Cache[string, Profile]
	ttl     time.Duration
	clock   clock.Clock
	group   singleflight.Group
}

// New creates a cache holding at most size profiles. ttl <= 0 disables expiry.
func New(size int, ttl time.Duration, clk clock.Clock) (*Cache, error) {
	entries, err := lru.New[string, Profile](size)
	if err != nil {
		return nil, fmt.Errorf("profiles: %w", err)
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Cache{entries: entries, ttl: ttl, clock: clk}, nil
}

// Get returns a cached, unexpired profile.
func (c *Cache) Get(uid string) (Profile, bool) {
	p, ok := c.entries.Get(uid)
	if !ok {
		return Profile{}, false
	}
	if c.ttl > 0 && c.clock.Now().Sub(p.FetchedAt) > c.ttl {
		c.entries.Remove(uid)
		return Profile{}, false
	}
	return p, true
}

// Put stores p, stamping its fetch time.
func (c *Cache) Put(p Profile) {
	p.FetchedAt = c.clock.Now()
	c.entries.Add(p.UID, p)
}

// Invalidate drops the cached profile for uid.
func (c *Cache) Invalidate(uid string) {
	if c.entries.Remove(uid) {
		slog.Debug("profiles: invalidated", "uid", uid)
	}
}

// Purge drops every entry (session end).
func (c *Cache) Purge() { c.entries.Purge() }

// Len returns the number of cached entries, expired ones included.
func (c *Cache) Len() int { return c.entries.Len() }

// GetOrFetch returns the cached profile or loads it with fetch. Concurrent
// callers for the same uid share one fetch.
func (c *Cache) GetOrFetch(ctx context.Context, uid string, fetch Fetcher) (Profile, error) {
	if p, ok := c.Get(uid); ok {
		return p, nil
	}
	v, err, shared := c.group.Do(uid, func() (any, error) {
		p, err := fetch(ctx, uid)
		if err != nil {
			return Profile{}, err
		}
		p.UID = uid
		c.Put(p)
		return p, nil
	})
	if err != nil {
		return Profile{}, fmt.Errorf("profiles: fetch %s: %w", uid, err)
	}
	if shared {
		slog.Debug("profiles: shared fetch", "uid", uid)
	}
	return v.(Profile), nil
}

package profiles

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nextlevelbuilder/gopair/internal/clock"
)

func newTestCache(t *testing.T, size int, ttl time.Duration) (*Cache, *clock.FakeClock) {
	t.Helper()
	clk := clock.NewFake(time.Unix(1000, 0))
	c, err := New(size, ttl, clk)
	if err != nil {
		t.Fatal(err)
	}
	return c, clk
}

func TestGetPutInvalidate(t *testing.T) {
	c, _ := newTestCache(t, 4, 0)
	c.Put(Profile{UID: "U1", Description: "hi"})
	p, ok := c.Get("U1")
	if !ok || p.Description != "hi" {
		t.Fatalf("Get = %+v, %v", p, ok)
	}
	c.Invalidate("U1")
	if _, ok := c.Get("U1"); ok {
		t.Error("Get after Invalidate hit")
	}
	c.Invalidate("U1") // no-op
}

func TestEviction(t *testing.T) {
	c, _ := newTestCache(t, 2, 0)
	c.Put(Profile{UID: "U1"})
	c.Put(Profile{UID: "U2"})
	c.Get("U1")
	c.Put(Profile{UID: "U3"})
	if _, ok := c.Get("U2"); ok {
		t.Error("least recently used entry survived")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestExpiry(t *testing.T) {
	c, clk := newTestCache(t, 4, time.Minute)
	c.Put(Profile{UID: "U1"})
	clk.Advance(59 * time.Second)
	if _, ok := c.Get("U1"); !ok {
		t.Error("entry expired early")
	}
	clk.Advance(2 * time.Second)
	if _, ok := c.Get("U1"); ok {
		t.Error("entry did not expire")
	}
}

func TestGetOrFetch(t *testing.T) {
	c, _ := newTestCache(t, 4, 0)
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context, uid string) (Profile, error) {
		calls.Add(1)
		<-release
		return Profile{Description: "from relay"}, nil
	}

	var wg sync.WaitGroup
	results := make([]Profile, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := c.GetOrFetch(context.Background(), "U9", fetch)
			if err != nil {
				t.Error(err)
			}
			results[i] = p
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n < 1 || n > 4 {
		t.Errorf("fetch calls = %d", n)
	}
	for _, p := range results {
		if p.UID != "U9" || p.Description != "from relay" {
			t.Errorf("result = %+v", p)
		}
	}
	if _, err := c.GetOrFetch(context.Background(), "U9", fetch); err != nil {
		t.Fatal(err)
	}
	before := calls.Load()
	c.GetOrFetch(context.Background(), "U9", fetch)
	if calls.Load() != before {
		t.Error("cached profile refetched")
	}
}

func TestGetOrFetchError(t *testing.T) {
	c, _ := newTestCache(t, 4, 0)
	boom := errors.New("boom")
	_, err := c.GetOrFetch(context.Background(), "U1", func(context.Context, string) (Profile, error) {
		return Profile{}, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if c.Len() != 0 {
		t.Error("failed fetch was cached")
	}
}

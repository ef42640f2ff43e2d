package bus

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/nextlevelbuilder/gopair/internal/clock"
)

// Coalescer collapses bursts of per-pair change events into one
// EventRefresh after a quiet window, so UI listeners redraw once per
// logical change rather than once per field.
type Coalescer struct {
	window time.Duration
	clock  clock.Clock
	out    Publisher

	mu     sync.Mutex
	uids   map[string]struct{}
	events int
	timer  clock.Timer
}

// NewCoalescer creates a coalescer publishing to out. If window <= 0,
// every event is forwarded as its own refresh.
func NewCoalescer(window time.Duration, clk clock.Clock, out Publisher) *Coalescer {
	if clk == nil {
		clk = clock.Real()
	}
	return &Coalescer{
		window: window,
		clock:  clk,
		out:    out,
		uids:   make(map[string]struct{}),
	}
}

// Handle is an EventHandler that buffers change events. Subscribe it to
// the bus; it ignores EventRefresh so it never feeds itself.
func (c *Coalescer) Handle(e Event) {
	if e.Name == EventRefresh {
		return
	}
	uid := payloadUID(e.Payload)

	if c.window <= 0 {
		p := RefreshPayload{Events: 1}
		if uid != "" {
			p.UIDs = []string{uid}
		}
		c.out.Broadcast(Event{Name: EventRefresh, Payload: p})
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if uid != "" {
		c.uids[uid] = struct{}{}
	}
	c.events++

	// Reset the window: flush after a quiet period.
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = c.clock.AfterFunc(c.window, c.Flush)

	if c.events > 1 {
		slog.Debug("bus: refresh coalesced", "buffered", c.events)
	}
}

// Flush publishes any buffered refresh immediately.
func (c *Coalescer) Flush() {
	c.mu.Lock()
	if c.events == 0 {
		c.mu.Unlock()
		return
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	uids := make([]string, 0, len(c.uids))
	for uid := range c.uids {
		uids = append(uids, uid)
	}
	events := c.events
	c.uids = make(map[string]struct{})
	c.events = 0
	c.mu.Unlock()

	sort.Strings(uids)
	c.out.Broadcast(Event{Name: EventRefresh, Payload: RefreshPayload{UIDs: uids, Events: events}})
}

// Stop flushes pending events (graceful shutdown).
func (c *Coalescer) Stop() { c.Flush() }

func payloadUID(p any) string {
	switch v := p.(type) {
	case PairPayload:
		return v.UID
	case DataAppliedPayload:
		return v.UID
	case PermissionsChangedPayload:
		return v.UID
	case InteropChangedPayload:
		return v.UID
	}
	return ""
}

package journal

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nextlevelbuilder/gopair/internal/bus"
)

// Recorder writes bus events to the store off the broadcasting goroutine.
// Events arriving while the buffer is full are dropped with a warning.
type Recorder struct {
	store *Store
	queue chan Entry
	done  chan struct{}
}

func NewRecorder(store *Store, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	return &Recorder{
		store: store,
		queue: make(chan Entry, buffer),
		done:  make(chan struct{}),
	}
}

// Handle is a bus.EventHandler.
func (r *Recorder) Handle(e bus.Event) {
	entry, ok := entryFor(e)
	if !ok {
		return
	}
	select {
	case r.queue <- entry:
	default:
		slog.Warn("journal: buffer full, entry dropped", "kind", entry.Kind, "uid", entry.UID)
	}
}

// Run drains the queue until ctx is done, then flushes what is left.
func (r *Recorder) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case e := <-r.queue:
			r.write(ctx, e)
		case <-ctx.Done():
			for {
				select {
				case e := <-r.queue:
					r.write(context.WithoutCancel(ctx), e)
				default:
					return
				}
			}
		}
	}
}

// Done is closed once Run has returned.
func (r *Recorder) Done() <-chan struct{} { return r.done }

func (r *Recorder) write(ctx context.Context, e Entry) {
	if _, err := r.store.Record(ctx, e); err != nil {
		slog.Warn("journal: record failed", "kind", e.Kind, "error", err)
	}
}

func entryFor(e bus.Event) (Entry, bool) {
	var entry Entry
	switch p := e.Payload.(type) {
	case bus.PermissionsChangedPayload:
		entry = Entry{Kind: KindPermissions, UID: p.UID, Enactor: p.Enactor}
	case bus.HardcoreActionPayload:
		entry = Entry{Kind: KindHardcore, UID: p.Target, Enactor: p.Enactor}
	case bus.PairPayload:
		switch e.Name {
		case bus.EventPairAdded, bus.EventPairRemoved:
			entry = Entry{Kind: KindPair, UID: p.UID}
		default:
			return Entry{}, false
		}
	case bus.ConnectionPayload:
		entry = Entry{Kind: KindConnection}
	default:
		return Entry{}, false
	}
	detail, err := json.Marshal(e)
	if err != nil {
		return Entry{}, false
	}
	entry.Detail = string(detail)
	return entry, true
}

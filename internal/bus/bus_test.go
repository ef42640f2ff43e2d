package bus

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nextlevelbuilder/gopair/internal/clock"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Broadcast(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestBroadcastOrderAndUnsubscribe(t *testing.T) {
	mb := New()
	var got []string
	mb.Subscribe("b", func(e Event) { got = append(got, "b:"+e.Name) })
	mb.Subscribe("a", func(e Event) { got = append(got, "a:"+e.Name) })

	mb.Broadcast(Event{Name: EventPairOnline})
	mb.Unsubscribe("a")
	mb.Broadcast(Event{Name: EventPairOffline})

	want := []string{"a:pair.online", "b:pair.online", "b:pair.offline"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("delivery (-want +got):\n%s", diff)
	}
	if mb.Subscribers() != 1 {
		t.Errorf("Subscribers = %d, want 1", mb.Subscribers())
	}
}

func TestHandlerMaySubscribe(t *testing.T) {
	mb := New()
	mb.Subscribe("self", func(e Event) {
		mb.Subscribe("late", func(Event) {})
	})
	mb.Broadcast(Event{Name: EventRefresh})
	if mb.Subscribers() != 2 {
		t.Errorf("Subscribers = %d, want 2", mb.Subscribers())
	}
}

func TestCoalescerWindow(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	out := &recorder{}
	c := NewCoalescer(50*time.Millisecond, clk, out)

	c.Handle(Event{Name: EventPermissionsChanged, Payload: PermissionsChangedPayload{UID: "U2"}})
	clk.Advance(30 * time.Millisecond)
	c.Handle(Event{Name: EventDataApplied, Payload: DataAppliedPayload{UID: "U1"}})
	c.Handle(Event{Name: EventPairOnline, Payload: PairPayload{UID: "U2"}})
	clk.Advance(30 * time.Millisecond)
	if n := len(out.snapshot()); n != 0 {
		t.Fatalf("flushed early: %d events", n)
	}

	clk.Advance(30 * time.Millisecond)
	got := out.snapshot()
	if len(got) != 1 {
		t.Fatalf("got %d refreshes, want 1", len(got))
	}
	want := RefreshPayload{UIDs: []string{"U1", "U2"}, Events: 3}
	if diff := cmp.Diff(want, got[0].Payload); diff != "" {
		t.Errorf("payload (-want +got):\n%s", diff)
	}

	c.Handle(Event{Name: EventRefresh})
	c.Stop()
	if n := len(out.snapshot()); n != 1 {
		t.Errorf("refresh events fed back: %d", n)
	}
}

func TestCoalescerDisabled(t *testing.T) {
	out := &recorder{}
	c := NewCoalescer(0, nil, out)
	c.Handle(Event{Name: EventPairAdded, Payload: PairPayload{UID: "U1"}})
	c.Handle(Event{Name: EventConnection, Payload: ConnectionPayload{Connected: true}})
	got := out.snapshot()
	if len(got) != 2 {
		t.Fatalf("got %d refreshes, want 2", len(got))
	}
	if p := got[1].Payload.(RefreshPayload); p.UIDs != nil {
		t.Errorf("UIDs = %v, want nil for payload without uid", p.UIDs)
	}
}

func TestDedupeCache(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	d := NewDedupeCache(time.Minute, 3, clk)

	if d.IsDuplicate("a") {
		t.Error("first a reported duplicate")
	}
	if !d.IsDuplicate("a") {
		t.Error("second a not reported duplicate")
	}
	clk.Advance(2 * time.Minute)
	if d.IsDuplicate("a") {
		t.Error("expired a reported duplicate")
	}

	d.IsDuplicate("b")
	d.IsDuplicate("c")
	clk.Advance(time.Second)
	d.IsDuplicate("d") // evicts the oldest
	if len(d.entries) > 3 {
		t.Errorf("entries = %d, want <= 3", len(d.entries))
	}

	d.Reset()
	if d.IsDuplicate("d") {
		t.Error("d reported duplicate after Reset")
	}
}

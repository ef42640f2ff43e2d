package pairing

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nextlevelbuilder/gopair/internal/bus"
	"github.com/nextlevelbuilder/gopair/internal/clock"
	"github.com/nextlevelbuilder/gopair/pkg/protocol"
)

type fakeHandle struct {
	name     string
	applied  chan protocol.IPCData
	applies  atomic.Int32
	disposed atomic.Int32
}

func (h *fakeHandle) Name() string { return h.name }

func (h *fakeHandle) ApplyIPC(_ context.Context, data protocol.IPCData) error {
	h.applies.Add(1)
	h.applied <- data
	return nil
}

func (h *fakeHandle) Dispose() { h.disposed.Add(1) }

type fakeFactory struct {
	mu      sync.Mutex
	handles []*fakeHandle
	created atomic.Int32
	gate    chan struct{} // when set, creation blocks until closed
	started chan struct{} // when set, signalled as creation begins
}

func (f *fakeFactory) CreateHandle(_ context.Context, user protocol.UserData, ident string) (Handle, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	n := f.created.Add(1)
	h := &fakeHandle{
		name:    fmt.Sprintf("%s@World#%d", user.UID, n),
		applied: make(chan protocol.IPCData, 16),
	}
	f.mu.Lock()
	f.handles = append(f.handles, h)
	f.mu.Unlock()
	return h, nil
}

func (f *fakeFactory) all() []*fakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeHandle(nil), f.handles...)
}

type recorder struct {
	mu     sync.Mutex
	events []bus.Event
}

func (r *recorder) Broadcast(e bus.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) named(name string) []bus.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []bus.Event
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

type invalidations struct {
	mu   sync.Mutex
	uids []string
}

func (i *invalidations) Invalidate(uid string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.uids = append(i.uids, uid)
}

type fixture struct {
	reg      *Registry
	clock    *clock.FakeClock
	factory  *fakeFactory
	events   *recorder
	profiles *invalidations
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock:    clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		factory:  &fakeFactory{},
		events:   &recorder{},
		profiles: &invalidations{},
	}
	f.reg = NewRegistry(Options{
		Clock:        f.clock,
		Factory:      f.factory,
		Bus:          f.events,
		Profiles:     f.profiles,
		PollInterval: 100 * time.Millisecond,
		ApplyTimeout: time.Second,
	})
	f.reg.SetSelf(user("U1"), protocol.GlobalPerms{})
	return f
}

func user(uid string) protocol.UserData { return protocol.UserData{UID: uid} }

func (f *fixture) addPair(t *testing.T, uid string, status protocol.RelationStatus) {
	t.Helper()
	if err := f.reg.AddOrUpdate(protocol.UserPairDto{User: user(uid), Status: status}); err != nil {
		t.Fatalf("AddOrUpdate(%s): %v", uid, err)
	}
}

func (f *fixture) online(t *testing.T, uid, ident string) {
	t.Helper()
	if err := f.reg.MarkOnline(protocol.OnlineUserIdentDto{User: user(uid), Ident: ident}); err != nil {
		t.Fatalf("MarkOnline(%s): %v", uid, err)
	}
}

func (f *fixture) pair(t *testing.T, uid string) *Pair {
	t.Helper()
	p, err := f.reg.lookup(uid)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func ipc(manager string) *protocol.IPCData {
	return &protocol.IPCData{StatusManager: manager}
}

func waitApplied(t *testing.T, h *fakeHandle) protocol.IPCData {
	t.Helper()
	select {
	case d := <-h.applied:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ipc apply")
	}
	return protocol.IPCData{}
}

func assertNoApply(t *testing.T, h *fakeHandle) {
	t.Helper()
	select {
	case d := <-h.applied:
		t.Fatalf("unexpected apply: %+v", d)
	case <-time.After(20 * time.Millisecond):
	}
}

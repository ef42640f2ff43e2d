package push

import (
	"context"
	"sort"
	"sync"

	"github.com/nextlevelbuilder/gopair/internal/snapshot"
	"github.com/nextlevelbuilder/gopair/pkg/protocol"
)

// Visible pushes the local user's IPC data to pairs in render range.
type Visible struct {
	transport Transport
	targets   Targets
	outbox    Outbox
	ipc       snapshot.Value[protocol.IPCData]

	mu         sync.Mutex
	newVisible map[string]struct{}
}

func NewVisible(transport Transport, targets Targets, outbox Outbox) *Visible {
	return &Visible{
		transport:  transport,
		targets:    targets,
		outbox:     outbox,
		newVisible: make(map[string]struct{}),
	}
}

// OnLocalIPCChanged pushes data to all visible pairs if it changed.
func (v *Visible) OnLocalIPCChanged(ctx context.Context, data protocol.IPCData, kind protocol.DataUpdateKind) bool {
	if !v.ipc.Observe(data) {
		return false
	}
	to := v.targets.VisibleUIDs()
	if len(to) == 0 {
		return false
	}
	v.outbox.Submit(ctx, newTask(protocol.CategoryIPC, kind, to, string(protocol.CategoryIPC),
		func(ctx context.Context) error { return v.transport.PushIPC(ctx, data, to, kind) }))
	return true
}

// OnVisible queues uid to receive the current IPC data on the next Tick.
func (v *Visible) OnVisible(uid string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.newVisible[uid] = struct{}{}
}

// OnHidden drops uid from the queue.
func (v *Visible) OnHidden(uid string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.newVisible, uid)
}

// Tick sends the last IPC data, in one push, to every pair that became
// visible since the last tick and still is.
func (v *Visible) Tick(ctx context.Context) bool {
	v.mu.Lock()
	pending := v.newVisible
	v.newVisible = make(map[string]struct{})
	v.mu.Unlock()

	if len(pending) == 0 {
		return false
	}
	data, ok := v.ipc.Last()
	if !ok {
		return false
	}
	var to []string
	for _, uid := range v.targets.VisibleUIDs() {
		if _, ok := pending[uid]; ok {
			to = append(to, uid)
		}
	}
	if len(to) == 0 {
		return false
	}
	sort.Strings(to)
	v.outbox.Submit(ctx, newTask(protocol.CategoryIPC, protocol.UpdateIPCVisible, to, string(protocol.CategoryIPC),
		func(ctx context.Context) error { return v.transport.PushIPC(ctx, data, to, protocol.UpdateIPCVisible) }))
	return true
}

// Reset forgets the snapshot and the queue.
func (v *Visible) Reset() {
	v.ipc.Reset()
	v.mu.Lock()
	v.newVisible = make(map[string]struct{})
	v.mu.Unlock()
}

package push

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nextlevelbuilder/gopair/internal/snapshot"
	"github.com/nextlevelbuilder/gopair/pkg/protocol"
)

const categoryComposite protocol.Category = "composite"

// Online pushes the local user's appearance, wardrobe, alias and toybox
// data to online pairs.
type Online struct {
	transport Transport
	targets   Targets
	outbox    Outbox
	cache     snapshot.Cache

	mu        sync.Mutex
	newOnline []string
	queued    map[string]bool
}

func NewOnline(transport Transport, targets Targets, outbox Outbox) *Online {
	return &Online{
		transport: transport,
		targets:   targets,
		outbox:    outbox,
		queued:    make(map[string]bool),
	}
}

// OnLocalAppearanceChanged pushes data to all online pairs if it changed.
// Reports whether a push was scheduled.
func (o *Online) OnLocalAppearanceChanged(ctx context.Context, data protocol.AppearanceData, kind protocol.DataUpdateKind) bool {
	if !o.cache.Appearance.Observe(data) {
		return false
	}
	return o.broadcast(ctx, protocol.CategoryAppearance, kind, func(ctx context.Context, to []string) error {
		return o.transport.PushAppearance(ctx, data, to, kind)
	})
}

// OnLocalWardrobeChanged pushes data to all online pairs if it changed.
func (o *Online) OnLocalWardrobeChanged(ctx context.Context, data protocol.WardrobeData, kind protocol.DataUpdateKind) bool {
	if !o.cache.Wardrobe.Observe(data) {
		return false
	}
	return o.broadcast(ctx, protocol.CategoryWardrobe, kind, func(ctx context.Context, to []string) error {
		return o.transport.PushWardrobe(ctx, data, to, kind)
	})
}

// OnLocalToyboxChanged pushes data to all online pairs if it changed.
func (o *Online) OnLocalToyboxChanged(ctx context.Context, data protocol.ToyboxData, kind protocol.DataUpdateKind) bool {
	if !o.cache.Toybox.Observe(data) {
		return false
	}
	return o.broadcast(ctx, protocol.CategoryToybox, kind, func(ctx context.Context, to []string) error {
		return o.transport.PushToybox(ctx, data, to, kind)
	})
}

// OnLocalAliasChanged pushes the alias storage kept for one pair, if it
// changed and the pair is online.
func (o *Online) OnLocalAliasChanged(ctx context.Context, recipient string, data protocol.AliasData, kind protocol.DataUpdateKind) bool {
	if !o.cache.Aliases.Observe(recipient, data) {
		return false
	}
	if !contains(o.targets.OnlineUIDs(), recipient) {
		slog.Debug("push: alias stored for offline pair", "uid", recipient)
		return false
	}
	to := []string{recipient}
	o.outbox.Submit(ctx, newTask(protocol.CategoryAlias, kind, to,
		taskKey(string(protocol.CategoryAlias), recipient),
		func(ctx context.Context) error { return o.transport.PushAlias(ctx, data, to, kind) }))
	return true
}

func (o *Online) broadcast(ctx context.Context, cat protocol.Category, kind protocol.DataUpdateKind, send func(context.Context, []string) error) bool {
	to := o.targets.OnlineUIDs()
	if len(to) == 0 {
		slog.Debug("push: changed but nobody online", "category", cat)
		return false
	}
	o.outbox.Submit(ctx, newTask(cat, kind, to, string(cat),
		func(ctx context.Context) error { return send(ctx, to) }))
	return true
}

// OnPairOnline queues uid for a composite push on the next Tick.
func (o *Online) OnPairOnline(uid string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.queued[uid] {
		return
	}
	o.queued[uid] = true
	o.newOnline = append(o.newOnline, uid)
}

// OnPairOffline drops uid from the pending composite queue and forgets
// the alias snapshot kept for it.
func (o *Online) OnPairOffline(uid string) {
	o.mu.Lock()
	if o.queued[uid] {
		delete(o.queued, uid)
		for i, q := range o.newOnline {
			if q == uid {
				o.newOnline = append(o.newOnline[:i], o.newOnline[i+1:]...)
				break
			}
		}
	}
	o.mu.Unlock()
	o.cache.Aliases.Forget(uid)
}

// Tick sends one composite to every pair that came online since the last
// tick and is still online. Returns how many pushes were scheduled.
func (o *Online) Tick(ctx context.Context) int {
	o.mu.Lock()
	pending := o.newOnline
	o.newOnline = nil
	o.queued = make(map[string]bool)
	o.mu.Unlock()

	if len(pending) == 0 {
		return 0
	}
	online := o.targets.OnlineUIDs()
	sent := 0
	for _, uid := range pending {
		if !contains(online, uid) {
			continue
		}
		data := o.cache.Composite(uid)
		if data.Empty() {
			continue
		}
		to := []string{uid}
		o.outbox.Submit(ctx, newTask(categoryComposite, protocol.UpdateFullData, to, taskKey(string(categoryComposite), uid),
			func(ctx context.Context) error { return o.transport.PushComposite(ctx, data, to) }))
		sent++
	}
	return sent
}

// Pending returns the pairs waiting for a composite push.
func (o *Online) Pending() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.newOnline...)
}

// Reset forgets every snapshot and pending pair (new session).
func (o *Online) Reset() {
	o.cache.Reset()
	o.mu.Lock()
	o.newOnline = nil
	o.queued = make(map[string]bool)
	o.mu.Unlock()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

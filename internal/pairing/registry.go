// Package pairing holds the pair registry and the per-pair state machine.
//
// The Registry maps UIDs to Pairs and routes inbound relay events to them.
// A Pair tracks two independent axes: the relationship status delivered by
// the relay, and presence (offline, online, visible). A pair is deleted only
// when it is both unpaired and offline, so a live handle is never orphaned.
package pairing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/gopair/internal/bus"
	"github.com/nextlevelbuilder/gopair/internal/clock"
	"github.com/nextlevelbuilder/gopair/pkg/protocol"
)

const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultApplyTimeout = 2 * time.Minute

	clearAllParallelism = 8
)

// ProfileInvalidator drops cached presentation data for a pair.
type ProfileInvalidator interface {
	Invalidate(uid string)
}

// Options configures a Registry. Zero fields take defaults.
type Options struct {
	Clock        clock.Clock
	Factory      HandleFactory
	Bus          bus.Publisher
	Profiles     ProfileInvalidator
	PollInterval time.Duration
	ApplyTimeout time.Duration
}

// Generations are the registry's view-invalidation counters.
type Generations struct {
	Structure   uint64 // membership and relationship status
	Presence    uint64 // online and visible sets
	Permissions uint64 // permission-dependent views
}

type cachedView struct {
	gen   uint64
	valid bool
	uids  []string
}

// Registry is the concurrent UID → Pair map. Structural writes take the
// write lock; presence changes and queries share the read lock, and each
// Pair guards its own state.
type Registry struct {
	env      *env
	profiles ProfileInvalidator

	mu    sync.RWMutex
	pairs map[string]*Pair
	gens  Generations

	viewMu  sync.Mutex
	direct  cachedView
	online  cachedView
	visible cachedView
	paused  cachedView

	selfMu      sync.RWMutex
	self        protocol.UserData
	selfGlobals protocol.GlobalPerms
}

// NewRegistry creates an empty registry.
func NewRegistry(opts Options) *Registry {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Factory == nil {
		opts.Factory = LogHandleFactory{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ApplyTimeout <= 0 {
		opts.ApplyTimeout = DefaultApplyTimeout
	}
	return &Registry{
		env: &env{
			clock:        opts.Clock,
			factory:      opts.Factory,
			pub:          opts.Bus,
			pollInterval: opts.PollInterval,
			applyTimeout: opts.ApplyTimeout,
		},
		profiles: opts.Profiles,
		pairs:    make(map[string]*Pair),
	}
}

// SetSelf records the local user and their own global permissions, as
// delivered by the connect handshake.
func (r *Registry) SetSelf(user protocol.UserData, globals protocol.GlobalPerms) {
	r.selfMu.Lock()
	defer r.selfMu.Unlock()
	r.self = user
	r.selfGlobals = globals
}

// Self returns the local user and their global permissions.
func (r *Registry) Self() (protocol.UserData, protocol.GlobalPerms) {
	r.selfMu.RLock()
	defer r.selfMu.RUnlock()
	return r.self, r.selfGlobals
}

func (r *Registry) selfUID() string {
	r.selfMu.RLock()
	defer r.selfMu.RUnlock()
	return r.self.UID
}

// AddOrUpdate creates a pair for an unknown UID or, for a known one,
// updates its relationship status and reapplies buffered IPC data.
func (r *Registry) AddOrUpdate(dto protocol.UserPairDto) error {
	if err := protocol.ValidateUID(dto.User.UID); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUser, err)
	}

	r.mu.Lock()
	p, ok := r.pairs[dto.User.UID]
	if !ok {
		p = newPair(dto, r.env)
		r.pairs[dto.User.UID] = p
	} else {
		p.SetRelation(dto.Status)
	}
	r.gens.Structure++
	r.mu.Unlock()

	if !ok {
		slog.Info("pairing: pair added", "uid", dto.User.UID, "status", dto.Status)
		r.env.publish(bus.EventPairAdded, bus.PairPayload{UID: dto.User.UID})
		return nil
	}
	slog.Debug("pairing: pair updated", "uid", dto.User.UID, "status", dto.Status)
	p.ReapplyIPC()
	return nil
}

// Remove marks the pair unpaired. It is deleted now if offline, otherwise
// on its next offline transition. Unknown UIDs are ignored.
func (r *Registry) Remove(user protocol.UserData) {
	r.mu.Lock()
	p, ok := r.pairs[user.UID]
	if !ok {
		r.mu.Unlock()
		return
	}
	p.SetRelation(protocol.RelationNone)
	deleted := false
	if !p.Online() {
		delete(r.pairs, user.UID)
		deleted = true
	}
	r.gens.Structure++
	r.mu.Unlock()

	if deleted {
		slog.Info("pairing: pair removed", "uid", user.UID)
		r.env.publish(bus.EventPairRemoved, bus.PairPayload{UID: user.UID})
	} else {
		slog.Info("pairing: pair unpaired while online, removal deferred", "uid", user.UID)
	}
}

// lookup returns the pair for uid or an ErrUnknownPair error.
// Callers hold r.mu (read or write).
func (r *Registry) lookupLocked(uid string) (*Pair, error) {
	p, ok := r.pairs[uid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPair, uid)
	}
	return p, nil
}

func (r *Registry) lookup(uid string) (*Pair, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(uid)
}

// MarkOnline routes an online notification. On a fresh transition the
// stored IPC data is reapplied once a handle appears.
func (r *Registry) MarkOnline(dto protocol.OnlineUserIdentDto) error {
	r.mu.RLock()
	p, err := r.lookupLocked(dto.User.UID)
	if err != nil {
		r.mu.RUnlock()
		return err
	}
	changed := p.MarkOnline(dto.Ident)
	r.mu.RUnlock()

	r.bumpPresence()
	if changed {
		slog.Debug("pairing: pair online", "uid", dto.User.UID)
		r.env.publish(bus.EventPairOnline, bus.PairPayload{UID: dto.User.UID})
		p.ReapplyIPC()
	}
	return nil
}

// MarkOffline routes an offline notification and deletes the pair if it
// was already unpaired. Unknown UIDs are ignored: the pair may have been
// removed while offline.
func (r *Registry) MarkOffline(user protocol.UserData) {
	r.mu.RLock()
	p, ok := r.pairs[user.UID]
	if !ok {
		r.mu.RUnlock()
		slog.Debug("pairing: offline for unknown pair", "uid", user.UID)
		return
	}
	changed := p.MarkOffline()
	r.mu.RUnlock()

	r.bumpPresence()
	if changed {
		slog.Debug("pairing: pair offline", "uid", user.UID)
		r.env.publish(bus.EventPairOffline, bus.PairPayload{UID: user.UID})
	}
	r.deleteIfUnpaired(user.UID, p)
}

func (r *Registry) deleteIfUnpaired(uid string, p *Pair) {
	r.mu.Lock()
	deleted := false
	if r.pairs[uid] == p && p.Status() == protocol.RelationNone && !p.Online() {
		delete(r.pairs, uid)
		r.gens.Structure++
		deleted = true
	}
	r.mu.Unlock()
	if deleted {
		slog.Info("pairing: pair removed", "uid", uid)
		r.env.publish(bus.EventPairRemoved, bus.PairPayload{UID: uid})
	}
}

// CreateHandle binds the live handle of an online pair.
func (r *Registry) CreateHandle(ctx context.Context, uid string) error {
	p, err := r.lookup(uid)
	if err != nil {
		return err
	}
	err = p.CreateHandle(ctx)
	r.bumpPresence()
	return err
}

// ReleaseHandle disposes the live handle of a pair that left render range.
// The pair stays online.
func (r *Registry) ReleaseHandle(uid string) error {
	p, err := r.lookup(uid)
	if err != nil {
		return err
	}
	if p.ReleaseHandle() {
		r.bumpPresence()
	}
	return nil
}

func (r *Registry) bumpPresence() {
	r.mu.Lock()
	r.gens.Presence++
	r.mu.Unlock()
}

// RouteIPC delivers IPC data to its pair.
func (r *Registry) RouteIPC(dto protocol.IPCUpdate) error {
	p, err := r.lookup(dto.User.UID)
	if err != nil {
		return err
	}
	p.ApplyIPCData(dto)
	return nil
}

// RouteAppearance delivers gag data to its pair.
func (r *Registry) RouteAppearance(dto protocol.AppearanceUpdate) error {
	p, err := r.lookup(dto.User.UID)
	if err != nil {
		return err
	}
	p.ApplyAppearanceData(dto)
	return nil
}

// RouteWardrobe delivers restraint data to its pair.
func (r *Registry) RouteWardrobe(dto protocol.WardrobeUpdate) error {
	p, err := r.lookup(dto.User.UID)
	if err != nil {
		return err
	}
	p.ApplyWardrobeData(dto)
	return nil
}

// RouteAlias delivers alias data to its pair.
func (r *Registry) RouteAlias(dto protocol.AliasUpdate) error {
	p, err := r.lookup(dto.User.UID)
	if err != nil {
		return err
	}
	p.ApplyAliasData(dto)
	return nil
}

// RouteToybox delivers toy data to its pair.
func (r *Registry) RouteToybox(dto protocol.ToyboxUpdate) error {
	p, err := r.lookup(dto.User.UID)
	if err != nil {
		return err
	}
	p.ApplyToyboxData(dto)
	return nil
}

// RouteShock delivers a shock permission snapshot to its pair.
func (r *Registry) RouteShock(dto protocol.ShockUpdate) error {
	p, err := r.lookup(dto.User.UID)
	if err != nil {
		return err
	}
	p.ApplyShockPerms(dto)
	return nil
}

// Get returns a copy of the pair's state.
func (r *Registry) Get(uid string) (PairView, bool) {
	p, err := r.lookup(uid)
	if err != nil {
		return PairView{}, false
	}
	return p.View(), true
}

// Snapshot returns copies of every pair, sorted by UID.
func (r *Registry) Snapshot() []PairView {
	pairs := r.all()
	out := make([]PairView, len(pairs))
	for i, p := range pairs {
		out[i] = p.View()
	}
	return out
}

// Len returns the number of pairs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pairs)
}

func (r *Registry) all() []*Pair {
	r.mu.RLock()
	out := make([]*Pair, 0, len(r.pairs))
	for _, p := range r.pairs {
		out = append(out, p)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UID() < out[j].UID() })
	return out
}

// Generation returns the current invalidation counters.
func (r *Registry) Generation() Generations {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gens
}

// view returns the cached UID list for c, rebuilding it with keep when gen
// has moved on.
func (r *Registry) view(c *cachedView, gen func(Generations) uint64, keep func(*Pair) bool) []string {
	current := gen(r.Generation())

	r.viewMu.Lock()
	defer r.viewMu.Unlock()
	if !c.valid || c.gen != current {
		var uids []string
		for _, p := range r.all() {
			if keep(p) {
				uids = append(uids, p.UID())
			}
		}
		*c = cachedView{gen: current, valid: true, uids: uids}
	}
	out := make([]string, len(c.uids))
	copy(out, c.uids)
	return out
}

// DirectPairs returns the UIDs with a relationship other than none.
func (r *Registry) DirectPairs() []string {
	return r.view(&r.direct, func(g Generations) uint64 { return g.Structure },
		func(p *Pair) bool { return p.Status().Paired() })
}

// OnlineUIDs returns the UIDs of every online or visible pair.
func (r *Registry) OnlineUIDs() []string {
	return r.view(&r.online, func(g Generations) uint64 { return g.Presence + g.Structure },
		func(p *Pair) bool { return p.Online() })
}

// VisibleUIDs returns the UIDs of pairs with a live handle.
func (r *Registry) VisibleUIDs() []string {
	return r.view(&r.visible, func(g Generations) uint64 { return g.Presence + g.Structure },
		func(p *Pair) bool { return p.Presence() == PresenceVisible })
}

// PausedUIDs returns the pairs the local user has paused.
func (r *Registry) PausedUIDs() []string {
	return r.view(&r.paused, func(g Generations) uint64 { return g.Permissions + g.Structure },
		func(p *Pair) bool { return p.OwnPairPerms().IsPaused })
}

// ReapplyAll reapplies stored IPC data to every online pair, e.g. after a
// cutscene or zone change invalidated in-world state.
func (r *Registry) ReapplyAll() {
	for _, p := range r.all() {
		p.ReapplyIPC()
	}
}

// ClearAll takes every pair offline in parallel and empties the registry.
// Used on disconnect and logout.
func (r *Registry) ClearAll(ctx context.Context) error {
	pairs := r.all()

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(clearAllParallelism)
	for _, p := range pairs {
		g.Go(func() error {
			p.MarkOffline()
			return nil
		})
	}
	err := g.Wait()

	r.mu.Lock()
	r.pairs = make(map[string]*Pair)
	r.gens.Structure++
	r.gens.Presence++
	r.gens.Permissions++
	r.mu.Unlock()

	slog.Info("pairing: registry cleared", "pairs", len(pairs))
	return err
}

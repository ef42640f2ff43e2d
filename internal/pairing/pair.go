package pairing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nextlevelbuilder/gopair/internal/bus"
	"github.com/nextlevelbuilder/gopair/internal/clock"
	"github.com/nextlevelbuilder/gopair/pkg/protocol"
)

// Presence is how reachable a pair currently is.
type Presence int

const (
	PresenceOffline Presence = iota
	PresenceOnline           // connected, no live handle
	PresenceVisible          // connected with a live handle
)

func (p Presence) String() string {
	switch p {
	case PresenceOffline:
		return "offline"
	case PresenceOnline:
		return "online"
	case PresenceVisible:
		return "visible"
	}
	return fmt.Sprintf("presence(%d)", int(p))
}

// env is what every Pair of a registry shares.
type env struct {
	clock        clock.Clock
	factory      HandleFactory
	pub          bus.Publisher
	pollInterval time.Duration
	applyTimeout time.Duration
}

func (e *env) publish(name string, payload any) {
	if e.pub != nil {
		e.pub.Broadcast(bus.Event{Name: name, Payload: payload})
	}
}

// Pair is the client-side state of one relationship: identity, the five
// permission sets, presence, the live handle and the last data received
// per category.
//
// Stored data values are replaced wholesale, never mutated in place, so
// accessors hand out shallow copies.
type Pair struct {
	user protocol.UserData
	env  *env

	// createMu serializes handle creation so racing callers collapse to one.
	createMu sync.Mutex

	mu          sync.Mutex
	status      protocol.RelationStatus
	online      bool
	ident       string
	epoch       uint64 // bumped on every offline transition
	handle      Handle
	handleIdent string
	// released is set when the handle was dropped while still online; the
	// next handle gets the stored IPC data.
	released bool

	ownPerms     protocol.PairPerms
	ownAccess    protocol.EditAccessPerms
	otherPerms   protocol.PairPerms
	otherAccess  protocol.EditAccessPerms
	otherGlobals protocol.GlobalPerms

	ipc        *protocol.IPCData
	appearance *protocol.AppearanceData
	wardrobe   *protocol.WardrobeData
	alias      *protocol.AliasData
	toybox     *protocol.ToyboxData
	shock      map[protocol.ShockVariant]protocol.ShockPerms

	pendingToken  uint64
	pendingCancel context.CancelFunc
	waits         sync.WaitGroup
}

func newPair(dto protocol.UserPairDto, e *env) *Pair {
	return &Pair{
		user:         dto.User,
		env:          e,
		status:       dto.Status,
		ownPerms:     dto.OwnPairPerms,
		ownAccess:    dto.OwnEditAccess,
		otherPerms:   dto.OtherPairPerms,
		otherAccess:  dto.OtherEditAccess,
		otherGlobals: dto.OtherGlobals,
		shock:        make(map[protocol.ShockVariant]protocol.ShockPerms),
	}
}

func (p *Pair) UID() string             { return p.user.UID }
func (p *Pair) User() protocol.UserData { return p.user }

func (p *Pair) Status() protocol.RelationStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Pair) Online() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

func (p *Pair) Presence() Presence {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.presenceLocked()
}

func (p *Pair) presenceLocked() Presence {
	switch {
	case !p.online:
		return PresenceOffline
	case p.handle != nil:
		return PresenceVisible
	}
	return PresenceOnline
}

// Ident returns the identity token of the current session, "" when offline.
func (p *Pair) Ident() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ident
}

// DisplayName is the live handle's name when visible, else the alias or UID.
func (p *Pair) DisplayName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle != nil {
		return p.handle.Name()
	}
	return p.user.AliasOrUID()
}

// SetRelation records the relationship status delivered by the relay.
func (p *Pair) SetRelation(status protocol.RelationStatus) (changed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	changed = p.status != status
	p.status = status
	return changed
}

// MarkOnline moves the pair to online with the given identity token.
// A handle is not created here; callers request one through CreateHandle
// once the character is resolvable. Reports whether presence changed.
func (p *Pair) MarkOnline(ident string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	was := p.online
	p.online = true
	if p.ident != ident && p.handle != nil {
		slog.Debug("pairing: identity changed while visible", "uid", p.user.UID)
	}
	p.ident = ident
	return !was
}

// MarkOffline moves the pair to offline: the identity token is cleared, any
// pending apply is cancelled and the live handle is disposed. Received data
// is kept for reapplication on reconnect. Reports whether presence changed.
func (p *Pair) MarkOffline() bool {
	p.mu.Lock()
	if !p.online && p.handle == nil {
		p.mu.Unlock()
		return false
	}
	p.online = false
	p.ident = ""
	p.epoch++
	h := p.handle
	p.handle = nil
	p.handleIdent = ""
	p.released = false
	p.cancelPendingLocked()
	p.mu.Unlock()

	if h != nil {
		h.Dispose()
	}
	return true
}

// ReleaseHandle disposes the live handle of a pair that left render range
// but is still online, and stops any pending IPC wait. The pair drops from
// visible back to online. Reports false when there was no handle.
func (p *Pair) ReleaseHandle() bool {
	p.createMu.Lock()
	defer p.createMu.Unlock()

	p.mu.Lock()
	h := p.handle
	if h == nil {
		p.mu.Unlock()
		return false
	}
	p.handle = nil
	p.handleIdent = ""
	p.released = p.online
	p.cancelPendingLocked()
	p.mu.Unlock()

	h.Dispose()
	slog.Debug("pairing: handle released", "uid", p.user.UID, "handle", h.Name())
	p.env.publish(bus.EventPairHidden, bus.PairPayload{UID: p.user.UID})
	return true
}

// CreateHandle binds the live handle for an online pair. Concurrent calls
// collapse to a single handle; a handle bound to a previous identity token
// is disposed and replaced. The pending IPC wait, if any, picks the new
// handle up on its next poll.
func (p *Pair) CreateHandle(ctx context.Context) error {
	p.createMu.Lock()
	defer p.createMu.Unlock()

	p.mu.Lock()
	if !p.online {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotOnline, p.user.UID)
	}
	if p.handle != nil && p.handleIdent == p.ident {
		p.mu.Unlock()
		return nil
	}
	stale := p.handle
	p.handle = nil
	ident, epoch := p.ident, p.epoch
	p.mu.Unlock()

	if stale != nil {
		stale.Dispose()
	}

	h, err := p.env.factory.CreateHandle(ctx, p.user, ident)
	if err != nil {
		return fmt.Errorf("pairing: create handle for %s: %w", p.user.UID, err)
	}

	p.mu.Lock()
	if !p.online || p.epoch != epoch {
		// Went offline while the character was resolving.
		p.mu.Unlock()
		h.Dispose()
		return fmt.Errorf("%w: %s", ErrNotOnline, p.user.UID)
	}
	p.handle = h
	p.handleIdent = ident
	reapply := p.released && p.pendingCancel == nil
	p.released = false
	p.mu.Unlock()

	slog.Debug("pairing: handle created", "uid", p.user.UID, "handle", h.Name())
	p.env.publish(bus.EventPairVisible, bus.PairPayload{UID: p.user.UID})
	if reapply {
		p.ReapplyIPC()
	}
	return nil
}

// ApplyIPCData stores the IPC snapshot and applies it to the live handle.
// Without a handle it starts a bounded background wait for one, replacing
// any earlier wait. Inbound data is applied even when equal to the stored
// snapshot.
func (p *Pair) ApplyIPCData(dto protocol.IPCUpdate) {
	if dto.Data == nil {
		slog.Warn("pairing: ipc update without data", "uid", p.user.UID, "kind", dto.Kind)
		return
	}
	data := *dto.Data

	p.mu.Lock()
	p.ipc = &data
	p.mu.Unlock()

	p.env.publish(bus.EventDataApplied, bus.DataAppliedPayload{
		UID: p.user.UID, Category: string(protocol.CategoryIPC), Kind: string(dto.Kind),
	})
	p.applyIPC(data)
}

// ReapplyIPC runs the apply path again with the stored IPC snapshot.
func (p *Pair) ReapplyIPC() {
	p.mu.Lock()
	if p.ipc == nil || !p.online {
		p.mu.Unlock()
		return
	}
	data := *p.ipc
	p.mu.Unlock()
	p.applyIPC(data)
}

func (p *Pair) applyIPC(data protocol.IPCData) {
	p.mu.Lock()
	p.cancelPendingLocked()
	if !p.online {
		// Kept for MarkOnline to reapply.
		p.mu.Unlock()
		return
	}
	if h := p.handle; h != nil {
		p.mu.Unlock()
		p.applyTo(context.Background(), h, data)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.pendingToken++
	token := p.pendingToken
	p.pendingCancel = cancel
	deadline := p.env.clock.Now().Add(p.env.applyTimeout)
	p.waits.Add(1)
	p.mu.Unlock()

	go p.awaitHandle(ctx, token, deadline, data)
}

// awaitHandle polls for the live handle until deadline. Whichever of this
// wait, a newer apply or MarkOffline clears the token first decides the
// outcome, so data is applied at most once per wait.
func (p *Pair) awaitHandle(ctx context.Context, token uint64, deadline time.Time, data protocol.IPCData) {
	defer p.waits.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.env.clock.After(p.env.pollInterval):
		}

		p.mu.Lock()
		if p.pendingToken != token || p.pendingCancel == nil {
			p.mu.Unlock()
			return
		}
		if h := p.handle; h != nil {
			p.pendingCancel()
			p.pendingCancel = nil
			p.mu.Unlock()
			p.applyTo(context.Background(), h, data)
			return
		}
		if !p.env.clock.Now().Before(deadline) {
			p.pendingCancel()
			p.pendingCancel = nil
			p.mu.Unlock()
			slog.Debug("pairing: handle wait expired, ipc not applied", "uid", p.user.UID)
			return
		}
		p.mu.Unlock()
	}
}

func (p *Pair) applyTo(ctx context.Context, h Handle, data protocol.IPCData) {
	if err := h.ApplyIPC(ctx, data); err != nil {
		slog.Error("pairing: apply ipc failed", "uid", p.user.UID, "handle", h.Name(), "error", err)
		return
	}
	p.env.publish(bus.EventDataApplied, bus.DataAppliedPayload{
		UID: p.user.UID, Category: string(protocol.CategoryIPC), Applied: true,
	})
}

// cancelPendingLocked stops the pending handle wait. Must hold p.mu.
func (p *Pair) cancelPendingLocked() {
	if p.pendingCancel != nil {
		p.pendingCancel()
		p.pendingCancel = nil
	}
}

// Pending reports whether a deferred IPC apply is waiting for a handle.
func (p *Pair) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pendingCancel != nil
}

// ApplyAppearanceData stores the gag state of the pair.
func (p *Pair) ApplyAppearanceData(dto protocol.AppearanceUpdate) {
	if dto.Data == nil {
		slog.Warn("pairing: appearance update without data", "uid", p.user.UID, "kind", dto.Kind)
		return
	}
	data := *dto.Data
	p.mu.Lock()
	p.appearance = &data
	p.mu.Unlock()
	p.stored(protocol.CategoryAppearance, dto.Kind)
}

// ApplyWardrobeData stores the restraint state of the pair.
func (p *Pair) ApplyWardrobeData(dto protocol.WardrobeUpdate) {
	if dto.Data == nil {
		slog.Warn("pairing: wardrobe update without data", "uid", p.user.UID, "kind", dto.Kind)
		return
	}
	data := *dto.Data
	p.mu.Lock()
	p.wardrobe = &data
	p.mu.Unlock()
	p.stored(protocol.CategoryWardrobe, dto.Kind)
}

// ApplyAliasData merges alias storage according to the update kind: a full
// replace, the trigger list only, or the registered character name only.
func (p *Pair) ApplyAliasData(dto protocol.AliasUpdate) {
	if dto.Data == nil {
		slog.Warn("pairing: alias update without data", "uid", p.user.UID, "kind", dto.Kind)
		return
	}
	in := *dto.Data

	p.mu.Lock()
	var cur protocol.AliasData
	if p.alias != nil {
		cur = *p.alias
	}
	switch dto.Kind {
	case protocol.UpdateFullData:
		cur = in
	case protocol.UpdateAliasListChanged:
		cur.Aliases = in.Aliases
	case protocol.UpdateAliasNameRegistered:
		cur.CharacterName = in.CharacterName
		cur.CharacterWorld = in.CharacterWorld
	default:
		p.mu.Unlock()
		slog.Warn("pairing: unknown alias update kind", "uid", p.user.UID, "kind", dto.Kind)
		return
	}
	p.alias = &cur
	p.mu.Unlock()
	p.stored(protocol.CategoryAlias, dto.Kind)
}

// ApplyToyboxData stores the toy state of the pair.
func (p *Pair) ApplyToyboxData(dto protocol.ToyboxUpdate) {
	if dto.Data == nil {
		slog.Warn("pairing: toybox update without data", "uid", p.user.UID, "kind", dto.Kind)
		return
	}
	data := *dto.Data
	p.mu.Lock()
	p.toybox = &data
	p.mu.Unlock()
	p.stored(protocol.CategoryToybox, dto.Kind)
}

// ApplyShockPerms stores one of the three shock permission snapshots.
func (p *Pair) ApplyShockPerms(dto protocol.ShockUpdate) {
	if dto.Data == nil {
		slog.Warn("pairing: shock update without data", "uid", p.user.UID, "variant", dto.Variant)
		return
	}
	switch dto.Variant {
	case protocol.ShockOwnForPair, protocol.ShockPairGlobal, protocol.ShockPairForYou:
	default:
		slog.Warn("pairing: unknown shock variant", "uid", p.user.UID, "variant", dto.Variant)
		return
	}
	p.mu.Lock()
	p.shock[dto.Variant] = *dto.Data
	p.mu.Unlock()
	p.stored(protocol.CategoryShock, protocol.DataUpdateKind(dto.Variant))
}

func (p *Pair) stored(cat protocol.Category, kind protocol.DataUpdateKind) {
	p.env.publish(bus.EventDataApplied, bus.DataAppliedPayload{
		UID: p.user.UID, Category: string(cat), Kind: string(kind), Applied: true,
	})
}

// waitIdle blocks until no handle wait goroutine is running.
func (p *Pair) waitIdle() { p.waits.Wait() }

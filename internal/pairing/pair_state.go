package pairing

import (
	"github.com/nextlevelbuilder/gopair/pkg/protocol"
)

// PairView is a read-only copy of a pair's state for queries and UI.
type PairView struct {
	User       protocol.UserData
	Status     protocol.RelationStatus
	Presence   Presence
	Ident      string
	HandleName string
	Pending    bool

	OwnPairPerms    protocol.PairPerms
	OwnEditAccess   protocol.EditAccessPerms
	OtherPairPerms  protocol.PairPerms
	OtherEditAccess protocol.EditAccessPerms
	OtherGlobals    protocol.GlobalPerms

	IPC        *protocol.IPCData
	Appearance *protocol.AppearanceData
	Wardrobe   *protocol.WardrobeData
	Alias      *protocol.AliasData
	Toybox     *protocol.ToyboxData
	Shock      map[protocol.ShockVariant]protocol.ShockPerms
}

// View returns a copy of the pair's current state.
func (p *Pair) View() PairView {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := PairView{
		User:            p.user,
		Status:          p.status,
		Presence:        p.presenceLocked(),
		Ident:           p.ident,
		Pending:         p.pendingCancel != nil,
		OwnPairPerms:    p.ownPerms,
		OwnEditAccess:   p.ownAccess,
		OtherPairPerms:  p.otherPerms,
		OtherEditAccess: p.otherAccess,
		OtherGlobals:    p.otherGlobals,
		IPC:             clonePtr(p.ipc),
		Appearance:      clonePtr(p.appearance),
		Wardrobe:        clonePtr(p.wardrobe),
		Alias:           clonePtr(p.alias),
		Toybox:          clonePtr(p.toybox),
		Shock:           make(map[protocol.ShockVariant]protocol.ShockPerms, len(p.shock)),
	}
	if p.handle != nil {
		v.HandleName = p.handle.Name()
	}
	for k, s := range p.shock {
		v.Shock[k] = s
	}
	return v
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// IPC returns the last received IPC data.
func (p *Pair) IPC() (protocol.IPCData, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ipc == nil {
		return protocol.IPCData{}, false
	}
	return *p.ipc, true
}

func (p *Pair) OwnPairPerms() protocol.PairPerms {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ownPerms
}

func (p *Pair) OtherPairPerms() protocol.PairPerms {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.otherPerms
}

func (p *Pair) OtherGlobals() protocol.GlobalPerms {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.otherGlobals
}

// The update helpers run fn on a copy and store it only on success, so a
// failed patch leaves the pair untouched.

func (p *Pair) updatePairPerms(own bool, fn func(*protocol.PairPerms) error) (before, after protocol.PairPerms, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	target := &p.otherPerms
	if own {
		target = &p.ownPerms
	}
	before = *target
	after = before
	if err := fn(&after); err != nil {
		return before, before, err
	}
	*target = after
	return before, after, nil
}

func (p *Pair) updateEditAccess(own bool, fn func(*protocol.EditAccessPerms) error) (before, after protocol.EditAccessPerms, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	target := &p.otherAccess
	if own {
		target = &p.ownAccess
	}
	before = *target
	after = before
	if err := fn(&after); err != nil {
		return before, before, err
	}
	*target = after
	return before, after, nil
}

func (p *Pair) updateOtherGlobals(fn func(*protocol.GlobalPerms) error) (before, after protocol.GlobalPerms, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	before = p.otherGlobals
	after = before
	if err := fn(&after); err != nil {
		return before, before, err
	}
	p.otherGlobals = after
	return before, after, nil
}

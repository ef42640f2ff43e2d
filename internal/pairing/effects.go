package pairing

import (
	"log/slog"

	"github.com/nextlevelbuilder/gopair/internal/bus"
	"github.com/nextlevelbuilder/gopair/internal/permissions"
	"github.com/nextlevelbuilder/gopair/pkg/protocol"
)

// ownGlobalEffects raises a hardcore event for every restrictive action
// lifted from the local user. The enactor is whoever had applied it.
func (r *Registry) ownGlobalEffects(self string, before, after protocol.GlobalPerms, enactor string) {
	keys := permissions.Global.Diff(&before, &after)
	for _, key := range keys {
		action, ok := permissions.GlobalAction(key)
		if !ok {
			continue
		}
		old, _ := permissions.Global.Get(&before, key)
		cur, _ := permissions.Global.Get(&after, key)
		if oldVal, _ := old.(string); oldVal != "" && cur.(string) == "" {
			r.hardcore(action, permissions.Enactor(oldVal), self)
		}
	}
	r.permsChanged(self, SetOwnGlobal, keys, enactor)
}

// otherGlobalEffects raises a hardcore event when a restrictive action the
// local user had applied to the pair is lifted.
func (r *Registry) otherGlobalEffects(p *Pair, before, after protocol.GlobalPerms, enactor string) {
	self := r.selfUID()
	keys := permissions.Global.Diff(&before, &after)
	for _, key := range keys {
		action, ok := permissions.GlobalAction(key)
		if !ok {
			continue
		}
		old, _ := permissions.Global.Get(&before, key)
		cur, _ := permissions.Global.Get(&after, key)
		oldVal, _ := old.(string)
		if oldVal == "" || cur.(string) != "" {
			continue
		}
		if self != "" && permissions.Enactor(oldVal) == self {
			r.hardcore(action, self, p.UID())
		}
	}
	r.permsChanged(p.UID(), SetOtherGlobal, keys, enactor)
}

// pairPermEffects handles pause flips, status interop changes and revoked
// restrictive allowances for one update of own or other pair permissions.
func (r *Registry) pairPermEffects(p *Pair, own bool, before, after protocol.PairPerms, enactor string) {
	set := SetOtherPair
	if own {
		set = SetOwnPair
	}
	keys := permissions.Pair.Diff(&before, &after)

	interop := false
	for _, key := range keys {
		switch {
		case permissions.IsPauseField(key):
			r.invalidateProfile(p.UID())
		case permissions.IsStatusInteropField(key):
			interop = true
		}
		if own {
			continue
		}
		// The pair revoked something the local user was allowed to do.
		if action, ok := permissions.PairAction(key); ok {
			was, _ := permissions.Pair.Get(&before, key)
			now, _ := permissions.Pair.Get(&after, key)
			if was, now := was.(bool), now.(bool); was && !now {
				if self := r.selfUID(); self != "" {
					r.hardcore(action, p.UID(), self)
				}
			}
		}
	}

	if interop && p.Online() {
		name := p.DisplayName()
		slog.Debug("pairing: interop permissions changed", "uid", p.UID(), "name", name)
		r.env.publish(bus.EventInteropChanged, bus.InteropChangedPayload{UID: p.UID(), Name: name})
	}
	r.permsChanged(p.UID(), set, keys, enactor)
}

func (r *Registry) invalidateProfile(uid string) {
	if r.profiles != nil {
		r.profiles.Invalidate(uid)
	}
	r.env.publish(bus.EventProfileInvalidated, bus.PairPayload{UID: uid})
}

func (r *Registry) hardcore(action permissions.Action, enactor, target string) {
	slog.Info("pairing: restrictive action lifted", "action", action, "enactor", enactor, "target", target)
	r.env.publish(bus.EventHardcoreAction, bus.HardcoreActionPayload{
		Action: string(action), State: false, Enactor: enactor, Target: target,
	})
}

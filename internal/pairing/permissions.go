package pairing

import (
	"errors"
	"log/slog"

	"github.com/nextlevelbuilder/gopair/internal/bus"
	"github.com/nextlevelbuilder/gopair/internal/permissions"
	"github.com/nextlevelbuilder/gopair/pkg/protocol"
)

// Permission sets as named in logs and bus events.
const (
	SetOwnGlobal       = "own.global"
	SetOwnPair         = "own.pair"
	SetOwnEditAccess   = "own.editAccess"
	SetOtherGlobal     = "other.global"
	SetOtherPair       = "other.pair"
	SetOtherEditAccess = "other.editAccess"
)

// patchFunc applies one field change through a permission table. Unknown
// fields and conversion failures are logged and swallowed so the caller can
// continue; the set is left untouched in both cases.
func patchFunc[S any](t *permissions.Table[S], set, uid, key string, value any) func(*S) error {
	return func(s *S) error {
		err := t.Patch(s, key, value)
		switch {
		case err == nil:
		case errors.Is(err, permissions.ErrUnknownField):
			slog.Warn("pairing: unknown permission field", "set", set, "uid", uid, "key", key)
		default:
			slog.Error("pairing: permission conversion failed", "set", set, "uid", uid, "key", key, "error", err)
		}
		return err
	}
}

func replaceFunc[S any](next S) func(*S) error {
	return func(s *S) error {
		*s = next
		return nil
	}
}

// UpdateOwnGlobal applies a single-field change to the local user's global
// permissions.
func (r *Registry) UpdateOwnGlobal(dto protocol.PermChangeDto) error {
	self := r.selfUID()
	before, after, err := r.updateSelfGlobals(patchFunc(permissions.Global, SetOwnGlobal, self, dto.Key, dto.Value))
	if err != nil {
		// Already logged; a bad field never fails the update.
		return nil
	}
	r.ownGlobalEffects(self, before, after, dto.Enactor.UID)
	return nil
}

// ReplaceOwnGlobal replaces the local user's global permissions.
func (r *Registry) ReplaceOwnGlobal(dto protocol.GlobalPermsDto) error {
	self := r.selfUID()
	before, after, _ := r.updateSelfGlobals(replaceFunc(dto.Perms))
	r.ownGlobalEffects(self, before, after, dto.Enactor.UID)
	return nil
}

func (r *Registry) updateSelfGlobals(fn func(*protocol.GlobalPerms) error) (before, after protocol.GlobalPerms, err error) {
	r.selfMu.Lock()
	defer r.selfMu.Unlock()
	before = r.selfGlobals
	after = before
	if err := fn(&after); err != nil {
		return before, before, err
	}
	r.selfGlobals = after
	return before, after, nil
}

// UpdateOwnPairPerm applies a single-field change to the permissions the
// local user grants a pair.
func (r *Registry) UpdateOwnPairPerm(dto protocol.PermChangeDto) error {
	p, err := r.lookup(dto.User.UID)
	if err != nil {
		return err
	}
	before, after, err := p.updatePairPerms(true, patchFunc(permissions.Pair, SetOwnPair, p.UID(), dto.Key, dto.Value))
	if err != nil {
		return nil
	}
	r.pairPermEffects(p, true, before, after, dto.Enactor.UID)
	return nil
}

// ReplaceOwnPairPerms replaces the permissions the local user grants a pair.
func (r *Registry) ReplaceOwnPairPerms(dto protocol.PairPermsDto) error {
	p, err := r.lookup(dto.User.UID)
	if err != nil {
		return err
	}
	before, after, _ := p.updatePairPerms(true, replaceFunc(dto.Perms))
	r.pairPermEffects(p, true, before, after, dto.Enactor.UID)
	return nil
}

// UpdateOwnEditAccess applies a single-field change to which own pair
// permissions the pair may edit.
func (r *Registry) UpdateOwnEditAccess(dto protocol.PermChangeDto) error {
	p, err := r.lookup(dto.User.UID)
	if err != nil {
		return err
	}
	before, after, err := p.updateEditAccess(true, patchFunc(permissions.EditAccess, SetOwnEditAccess, p.UID(), dto.Key, dto.Value))
	if err != nil {
		return nil
	}
	r.permsChanged(p.UID(), SetOwnEditAccess, permissions.EditAccess.Diff(&before, &after), dto.Enactor.UID)
	return nil
}

// ReplaceOwnEditAccess replaces the own edit-access set of a pair.
func (r *Registry) ReplaceOwnEditAccess(dto protocol.EditAccessDto) error {
	p, err := r.lookup(dto.User.UID)
	if err != nil {
		return err
	}
	before, after, _ := p.updateEditAccess(true, replaceFunc(dto.Access))
	r.permsChanged(p.UID(), SetOwnEditAccess, permissions.EditAccess.Diff(&before, &after), dto.Enactor.UID)
	return nil
}

// UpdateOtherGlobal applies a single-field change to a pair's global
// permissions.
func (r *Registry) UpdateOtherGlobal(dto protocol.PermChangeDto) error {
	p, err := r.lookup(dto.User.UID)
	if err != nil {
		return err
	}
	before, after, err := p.updateOtherGlobals(patchFunc(permissions.Global, SetOtherGlobal, p.UID(), dto.Key, dto.Value))
	if err != nil {
		return nil
	}
	r.otherGlobalEffects(p, before, after, dto.Enactor.UID)
	return nil
}

// ReplaceOtherGlobal replaces a pair's global permissions.
func (r *Registry) ReplaceOtherGlobal(dto protocol.GlobalPermsDto) error {
	p, err := r.lookup(dto.User.UID)
	if err != nil {
		return err
	}
	before, after, _ := p.updateOtherGlobals(replaceFunc(dto.Perms))
	r.otherGlobalEffects(p, before, after, dto.Enactor.UID)
	return nil
}

// UpdateOtherPairPerm applies a single-field change to the permissions a
// pair grants the local user.
func (r *Registry) UpdateOtherPairPerm(dto protocol.PermChangeDto) error {
	p, err := r.lookup(dto.User.UID)
	if err != nil {
		return err
	}
	before, after, err := p.updatePairPerms(false, patchFunc(permissions.Pair, SetOtherPair, p.UID(), dto.Key, dto.Value))
	if err != nil {
		return nil
	}
	r.pairPermEffects(p, false, before, after, dto.Enactor.UID)
	return nil
}

// ReplaceOtherPairPerms replaces the permissions a pair grants the local user.
func (r *Registry) ReplaceOtherPairPerms(dto protocol.PairPermsDto) error {
	p, err := r.lookup(dto.User.UID)
	if err != nil {
		return err
	}
	before, after, _ := p.updatePairPerms(false, replaceFunc(dto.Perms))
	r.pairPermEffects(p, false, before, after, dto.Enactor.UID)
	return nil
}

// UpdateOtherEditAccess applies a single-field change to which of the
// pair's permissions the local user may edit.
func (r *Registry) UpdateOtherEditAccess(dto protocol.PermChangeDto) error {
	p, err := r.lookup(dto.User.UID)
	if err != nil {
		return err
	}
	before, after, err := p.updateEditAccess(false, patchFunc(permissions.EditAccess, SetOtherEditAccess, p.UID(), dto.Key, dto.Value))
	if err != nil {
		return nil
	}
	r.permsChanged(p.UID(), SetOtherEditAccess, permissions.EditAccess.Diff(&before, &after), dto.Enactor.UID)
	return nil
}

// ReplaceOtherEditAccess replaces the other edit-access set of a pair.
func (r *Registry) ReplaceOtherEditAccess(dto protocol.EditAccessDto) error {
	p, err := r.lookup(dto.User.UID)
	if err != nil {
		return err
	}
	before, after, _ := p.updateEditAccess(false, replaceFunc(dto.Access))
	r.permsChanged(p.UID(), SetOtherEditAccess, permissions.EditAccess.Diff(&before, &after), dto.Enactor.UID)
	return nil
}

// permsChanged bumps the permission generation and raises one coalesced
// change event per update call. No-op when nothing changed.
func (r *Registry) permsChanged(uid, set string, keys []string, enactor string) {
	if len(keys) == 0 {
		return
	}
	r.mu.Lock()
	r.gens.Permissions++
	r.mu.Unlock()
	slog.Debug("pairing: permissions changed", "set", set, "uid", uid, "keys", keys)
	r.env.publish(bus.EventPermissionsChanged, bus.PermissionsChangedPayload{
		UID: uid, Set: set, Keys: keys, Enactor: enactor,
	})
}

package engine

import (
	"context"

	"github.com/nextlevelbuilder/gopair/internal/profiles"
	"github.com/nextlevelbuilder/gopair/pkg/protocol"
)

// Local data sources report the local user's state through these. Each
// reports whether a push was scheduled.

func (e *Engine) SetIPC(ctx context.Context, data protocol.IPCData, kind protocol.DataUpdateKind) bool {
	return e.visible.OnLocalIPCChanged(ctx, data, kind)
}

func (e *Engine) SetAppearance(ctx context.Context, data protocol.AppearanceData, kind protocol.DataUpdateKind) bool {
	return e.online.OnLocalAppearanceChanged(ctx, data, kind)
}

func (e *Engine) SetWardrobe(ctx context.Context, data protocol.WardrobeData, kind protocol.DataUpdateKind) bool {
	return e.online.OnLocalWardrobeChanged(ctx, data, kind)
}

func (e *Engine) SetToybox(ctx context.Context, data protocol.ToyboxData, kind protocol.DataUpdateKind) bool {
	return e.online.OnLocalToyboxChanged(ctx, data, kind)
}

// SetAlias reports the alias storage kept for one pair.
func (e *Engine) SetAlias(ctx context.Context, uid string, data protocol.AliasData, kind protocol.DataUpdateKind) bool {
	return e.online.OnLocalAliasChanged(ctx, uid, data, kind)
}

// PairInRange is called by the render layer when a pair's character is
// in range; it creates the pair's handle.
func (e *Engine) PairInRange(ctx context.Context, uid string) error {
	return e.registry.CreateHandle(ctx, uid)
}

// PairOutOfRange is called by the render layer when a pair's character
// left range; the handle is disposed and IPC pushes to the pair stop.
func (e *Engine) PairOutOfRange(uid string) error {
	return e.registry.ReleaseHandle(uid)
}

// Profile returns a pair's profile, fetching it from the relay on a miss.
func (e *Engine) Profile(ctx context.Context, uid string) (profiles.Profile, error) {
	return e.profiles.GetOrFetch(ctx, uid, e.session.FetchProfile)
}

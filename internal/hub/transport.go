package hub

import (
	"context"

	"github.com/nextlevelbuilder/gopair/internal/profiles"
	"github.com/nextlevelbuilder/gopair/pkg/protocol"
)

func pushData[T any](ctx context.Context, c *Client, method string, data T, recipients []string, kind protocol.DataUpdateKind) error {
	return c.Call(ctx, method, protocol.PushParams[T]{Data: data, Recipients: recipients, Kind: kind}, nil)
}

func (c *Client) PushIPC(ctx context.Context, data protocol.IPCData, recipients []string, kind protocol.DataUpdateKind) error {
	return pushData(ctx, c, protocol.MethodPushIPC, data, recipients, kind)
}

func (c *Client) PushAppearance(ctx context.Context, data protocol.AppearanceData, recipients []string, kind protocol.DataUpdateKind) error {
	return pushData(ctx, c, protocol.MethodPushAppearance, data, recipients, kind)
}

func (c *Client) PushWardrobe(ctx context.Context, data protocol.WardrobeData, recipients []string, kind protocol.DataUpdateKind) error {
	return pushData(ctx, c, protocol.MethodPushWardrobe, data, recipients, kind)
}

func (c *Client) PushAlias(ctx context.Context, data protocol.AliasData, recipients []string, kind protocol.DataUpdateKind) error {
	return pushData(ctx, c, protocol.MethodPushAlias, data, recipients, kind)
}

func (c *Client) PushToybox(ctx context.Context, data protocol.ToyboxData, recipients []string, kind protocol.DataUpdateKind) error {
	return pushData(ctx, c, protocol.MethodPushToybox, data, recipients, kind)
}

func (c *Client) PushComposite(ctx context.Context, data protocol.CompositeData, recipients []string) error {
	return pushData(ctx, c, protocol.MethodPushComposite, data, recipients, protocol.UpdateFullData)
}

// FetchProfile loads a pair's profile. It satisfies profiles.Fetcher.
func (c *Client) FetchProfile(ctx context.Context, uid string) (profiles.Profile, error) {
	var res protocol.ProfileResult
	if err := c.Call(ctx, protocol.MethodProfileGet, protocol.ProfileParams{UID: uid}, &res); err != nil {
		return profiles.Profile{}, err
	}
	return profiles.Profile{
		UID:         res.UID,
		Description: res.Description,
		AvatarRef:   res.AvatarRef,
		Flagged:     res.Flagged,
		Disabled:    res.Disabled,
	}, nil
}

package engine

import (
	"context"
	"sync"

	"github.com/nextlevelbuilder/gopair/internal/hub"
	"github.com/nextlevelbuilder/gopair/internal/profiles"
	"github.com/nextlevelbuilder/gopair/internal/push"
	"github.com/nextlevelbuilder/gopair/pkg/protocol"
)

// Session is one relay connection. *hub.Client implements it.
type Session interface {
	push.Transport
	Connect(ctx context.Context) (*protocol.ConnectResult, error)
	FetchProfile(ctx context.Context, uid string) (profiles.Profile, error)
	Session() string
	Done() <-chan struct{}
	Err() error
	Close()
}

// Dialer creates an unconnected session delivering events to onEvent.
type Dialer func(onEvent hub.EventHandler) Session

// currentSession forwards pushes to whichever session is live, so the
// push schedulers outlive reconnects.
type currentSession struct {
	mu  sync.RWMutex
	cur Session
}

func (c *currentSession) set(s Session) {
	c.mu.Lock()
	c.cur = s
	c.mu.Unlock()
}

func (c *currentSession) get() (Session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cur == nil {
		return nil, hub.ErrNotConnected
	}
	return c.cur, nil
}

func (c *currentSession) PushIPC(ctx context.Context, data protocol.IPCData, to []string, kind protocol.DataUpdateKind) error {
	s, err := c.get()
	if err != nil {
		return err
	}
	return s.PushIPC(ctx, data, to, kind)
}

func (c *currentSession) PushAppearance(ctx context.Context, data protocol.AppearanceData, to []string, kind protocol.DataUpdateKind) error {
	s, err := c.get()
	if err != nil {
		return err
	}
	return s.PushAppearance(ctx, data, to, kind)
}

func (c *currentSession) PushWardrobe(ctx context.Context, data protocol.WardrobeData, to []string, kind protocol.DataUpdateKind) error {
	s, err := c.get()
	if err != nil {
		return err
	}
	return s.PushWardrobe(ctx, data, to, kind)
}

func (c *currentSession) PushAlias(ctx context.Context, data protocol.AliasData, to []string, kind protocol.DataUpdateKind) error {
	s, err := c.get()
	if err != nil {
		return err
	}
	return s.PushAlias(ctx, data, to, kind)
}

func (c *currentSession) PushToybox(ctx context.Context, data protocol.ToyboxData, to []string, kind protocol.DataUpdateKind) error {
	s, err := c.get()
	if err != nil {
		return err
	}
	return s.PushToybox(ctx, data, to, kind)
}

func (c *currentSession) PushComposite(ctx context.Context, data protocol.CompositeData, to []string) error {
	s, err := c.get()
	if err != nil {
		return err
	}
	return s.PushComposite(ctx, data, to)
}

func (c *currentSession) FetchProfile(ctx context.Context, uid string) (profiles.Profile, error) {
	s, err := c.get()
	if err != nil {
		return profiles.Profile{}, err
	}
	return s.FetchProfile(ctx, uid)
}

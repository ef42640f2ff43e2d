// Package engine wires the pair registry, push schedulers and relay
// session together and runs the session lifecycle: connect, hydrate,
// tick, and tear down on disconnect.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nextlevelbuilder/gopair/internal/bus"
	"github.com/nextlevelbuilder/gopair/internal/clock"
	"github.com/nextlevelbuilder/gopair/internal/config"
	"github.com/nextlevelbuilder/gopair/internal/hub"
	"github.com/nextlevelbuilder/gopair/internal/pairing"
	"github.com/nextlevelbuilder/gopair/internal/profiles"
	"github.com/nextlevelbuilder/gopair/internal/push"
	"github.com/nextlevelbuilder/gopair/internal/scheduler"
	"github.com/nextlevelbuilder/gopair/pkg/protocol"
)

// Options configures an Engine. Config is required.
type Options struct {
	Config  *config.Config
	Clock   clock.Clock
	Factory pairing.HandleFactory
	// Dialer overrides how sessions are created (tests, alternate transports).
	Dialer Dialer
}

// Engine is the running client.
type Engine struct {
	cfg   *config.Config
	clock clock.Clock

	bus       *bus.MessageBus
	coalescer *bus.Coalescer
	registry  *pairing.Registry
	profiles  *profiles.Cache
	sched     *scheduler.Scheduler
	online    *push.Online
	visible   *push.Visible
	router    *hub.EventRouter
	session   currentSession
	dial      Dialer

	tickMu sync.Mutex
	tick   time.Duration

	runCtx context.Context
}

// New builds an engine. Nothing connects until Run.
func New(opts Options) (*Engine, error) {
	if opts.Config == nil {
		return nil, errors.New("engine: config is required")
	}
	cfg := opts.Config
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Factory == nil {
		opts.Factory = pairing.LogHandleFactory{}
	}

	prof, err := profiles.New(cfg.Profiles.Size, cfg.Profiles.TTL(), opts.Clock)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	e := &Engine{
		cfg:      cfg,
		clock:    opts.Clock,
		bus:      bus.New(),
		profiles: prof,
		tick:     cfg.Sync.Tick(),
		runCtx:   context.Background(),
	}
	e.coalescer = bus.NewCoalescer(cfg.Sync.RefreshWindow(), opts.Clock, e.bus)
	e.registry = pairing.NewRegistry(pairing.Options{
		Clock:        opts.Clock,
		Factory:      opts.Factory,
		Bus:          e.bus,
		Profiles:     prof,
		PollInterval: cfg.Sync.PollInterval(),
		ApplyTimeout: cfg.Sync.ApplyTimeout(),
	})
	e.sched = scheduler.NewScheduler(cfg.Scheduler.Lanes, cfg.Scheduler.Queue, opts.Clock)
	outbox := push.NewLaneOutbox(e.sched, scheduler.LanePush)
	e.online = push.NewOnline(&e.session, e.registry, outbox)
	e.visible = push.NewVisible(&e.session, e.registry, outbox)

	var dedupe *bus.DedupeCache
	if ttl := cfg.Sync.DedupeTTL(); ttl > 0 {
		dedupe = bus.NewDedupeCache(ttl, 10_000, opts.Clock)
	}
	e.router = hub.NewEventRouter(e.registry, dedupe)
	e.router.Register(protocol.EventShutdown, func(ctx context.Context, _ json.RawMessage) error {
		slog.Warn("engine: relay announced shutdown")
		return nil
	})

	e.dial = opts.Dialer
	if e.dial == nil {
		e.dial = e.hubDialer
	}
	e.wire()
	return e, nil
}

func (e *Engine) hubDialer(onEvent hub.EventHandler) Session {
	token, err := e.cfg.Relay.ResolveToken()
	if err != nil {
		slog.Warn("engine: connecting without token", "error", err)
	}
	return hub.NewClient(hub.Config{
		URL:            e.cfg.Relay.URL,
		Token:          token,
		CallsPerSecond: e.cfg.Relay.CallsPerSecond,
		Burst:          e.cfg.Relay.Burst,
		CallTimeout:    e.cfg.Relay.CallTimeout(),
	}, onEvent)
}

// wire subscribes the engine's reactions to registry events.
func (e *Engine) wire() {
	e.bus.Subscribe("engine.refresh", e.coalescer.Handle)
	e.bus.Subscribe("engine.push", func(ev bus.Event) {
		p, ok := ev.Payload.(bus.PairPayload)
		if !ok {
			return
		}
		switch ev.Name {
		case bus.EventPairOnline:
			e.online.OnPairOnline(p.UID)
			if e.cfg.Sync.AutoVisible {
				go e.createHandle(p.UID)
			}
		case bus.EventPairVisible:
			e.visible.OnVisible(p.UID)
		case bus.EventPairHidden:
			e.visible.OnHidden(p.UID)
		case bus.EventPairOffline, bus.EventPairRemoved:
			e.online.OnPairOffline(p.UID)
			e.visible.OnHidden(p.UID)
		}
	})
}

func (e *Engine) createHandle(uid string) {
	if err := e.registry.CreateHandle(e.runCtx, uid); err != nil {
		slog.Debug("engine: handle not created", "uid", uid, "error", err)
	}
}

func (e *Engine) Bus() *bus.MessageBus            { return e.bus }
func (e *Engine) Registry() *pairing.Registry     { return e.registry }
func (e *Engine) Profiles() *profiles.Cache       { return e.profiles }
func (e *Engine) Scheduler() *scheduler.Scheduler { return e.sched }

// Run connects and keeps reconnecting with backoff until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	e.runCtx = ctx
	tickDone := make(chan struct{})
	go func() {
		defer close(tickDone)
		e.tickLoop(ctx)
	}()
	defer func() {
		<-tickDone
		e.coalescer.Stop()
		e.sched.Stop()
	}()

	attempt := 0
	for {
		sess := e.dial(e.router.Handle)
		res, err := sess.Connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			delay := backoffWithJitter(e.cfg.Relay.ReconnectMin(), e.cfg.Relay.ReconnectMax(), attempt)
			attempt++
			slog.Warn("engine: connect failed", "error", err, "retry_in", delay, "attempt", attempt)
			e.publishConnection(false, "", err)
			select {
			case <-e.clock.After(delay):
				continue
			case <-ctx.Done():
				return nil
			}
		}
		attempt = 0

		e.onConnected(sess, res)
		select {
		case <-sess.Done():
			e.onDisconnected(ctx, sess.Err())
		case <-ctx.Done():
			sess.Close()
			e.onDisconnected(context.WithoutCancel(ctx), nil)
			return nil
		}
	}
}

func (e *Engine) onConnected(sess Session, res *protocol.ConnectResult) {
	e.router.Reset()
	e.registry.SetSelf(res.User, res.Globals)
	for _, dto := range res.Pairs {
		if err := e.registry.AddOrUpdate(dto); err != nil {
			slog.Warn("engine: pair rejected", "uid", dto.User.UID, "error", err)
		}
	}
	for _, dto := range res.Online {
		if err := e.registry.MarkOnline(dto); err != nil {
			slog.Error("engine: online pair unknown", "uid", dto.User.UID, "error", err)
		}
	}
	e.session.set(sess)
	slog.Info("engine: session ready", "session", sess.Session(), "pairs", e.registry.Len(),
		"online", len(e.registry.OnlineUIDs()))
	e.publishConnection(true, sess.Session(), nil)
}

// onDisconnected takes every pair offline and forgets what was sent, so
// the next session starts from a clean slate.
func (e *Engine) onDisconnected(ctx context.Context, cause error) {
	e.session.set(nil)
	if err := e.registry.ClearAll(ctx); err != nil {
		slog.Warn("engine: clear after disconnect", "error", err)
	}
	e.online.Reset()
	e.visible.Reset()
	slog.Info("engine: session closed", "cause", cause)
	e.publishConnection(false, "", cause)
}

func (e *Engine) publishConnection(connected bool, session string, err error) {
	p := bus.ConnectionPayload{Connected: connected, Session: session}
	if err != nil {
		p.Error = err.Error()
	}
	e.bus.Broadcast(bus.Event{Name: bus.EventConnection, Payload: p})
}

func (e *Engine) tickLoop(ctx context.Context) {
	interval := e.tickInterval()
	ticker := e.clock.NewTicker(interval)
	defer func() { ticker.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			e.Tick(ctx)
			if next := e.tickInterval(); next != interval {
				ticker.Stop()
				interval = next
				ticker = e.clock.NewTicker(interval)
				slog.Info("engine: tick interval changed", "interval", interval)
			}
		}
	}
}

// Tick runs one scheduler pass: composites for pairs that came online,
// IPC for pairs that became visible.
func (e *Engine) Tick(ctx context.Context) {
	if n := e.online.Tick(ctx); n > 0 {
		slog.Debug("engine: composites scheduled", "count", n)
	}
	e.visible.Tick(ctx)
}

func (e *Engine) tickInterval() time.Duration {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	return e.tick
}

// ApplyConfig takes the hot-reloadable settings from a new config.
func (e *Engine) ApplyConfig(cfg *config.Config) {
	e.tickMu.Lock()
	e.tick = cfg.Sync.Tick()
	e.tickMu.Unlock()
}

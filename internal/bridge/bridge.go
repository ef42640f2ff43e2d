// Package bridge mirrors engine bus events onto a Redis pub/sub channel so
// out-of-process collaborators (overlays, notifiers) can follow along.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nextlevelbuilder/gopair/internal/bus"
	"github.com/nextlevelbuilder/gopair/internal/clock"
)

// Publisher sends one message to a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, message []byte) error
}

type redisPublisher struct{ client *redis.Client }

func (p redisPublisher) Publish(ctx context.Context, channel string, message []byte) error {
	return p.client.Publish(ctx, channel, message).Err()
}

// Options configures a Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// Envelope is what subscribers receive.
type Envelope struct {
	Session string    `json:"session,omitempty"`
	At      time.Time `json:"at"`
	Event   bus.Event `json:"event"`
}

// Bridge forwards events in order from a buffered queue.
type Bridge struct {
	pub     Publisher
	channel string
	clock   clock.Clock

	mu      sync.Mutex
	session string

	queue chan Envelope
	done  chan struct{}
	close func() error
}

// Dial connects to Redis and verifies the connection.
func Dial(ctx context.Context, opts Options, clk clock.Clock) (*Bridge, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("bridge: redis ping %s: %w", opts.Addr, err)
	}
	b := New(redisPublisher{client: client}, opts.Channel, clk)
	b.close = client.Close
	slog.Info("bridge: connected", "addr", opts.Addr, "channel", opts.Channel)
	return b, nil
}

// New creates a bridge over any publisher.
func New(pub Publisher, channel string, clk clock.Clock) *Bridge {
	if clk == nil {
		clk = clock.Real()
	}
	return &Bridge{
		pub:     pub,
		channel: channel,
		clock:   clk,
		queue:   make(chan Envelope, 512),
		done:    make(chan struct{}),
	}
}

// SetSession tags subsequent envelopes with the relay session ID.
func (b *Bridge) SetSession(id string) {
	b.mu.Lock()
	b.session = id
	b.mu.Unlock()
}

// Handle is a bus.EventHandler. Refresh events are internal and skipped.
// Connection events update the session tag.
func (b *Bridge) Handle(e bus.Event) {
	if e.Name == bus.EventRefresh {
		return
	}
	b.mu.Lock()
	if p, ok := e.Payload.(bus.ConnectionPayload); ok {
		b.session = p.Session
	}
	env := Envelope{Session: b.session, At: b.clock.Now(), Event: e}
	b.mu.Unlock()

	select {
	case b.queue <- env:
	default:
		slog.Warn("bridge: queue full, event dropped", "event", e.Name)
	}
}

// Run publishes queued events until ctx is done.
func (b *Bridge) Run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case env := <-b.queue:
			b.publish(ctx, env)
		case <-ctx.Done():
			return
		}
	}
}

func (b *Bridge) publish(ctx context.Context, env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		slog.Warn("bridge: encode failed", "event", env.Event.Name, "error", err)
		return
	}
	if err := b.pub.Publish(ctx, b.channel, data); err != nil {
		slog.Warn("bridge: publish failed", "event", env.Event.Name, "error", err)
	}
}

// Close waits for Run to return and releases the connection.
func (b *Bridge) Close() error {
	<-b.done
	if b.close != nil {
		return b.close()
	}
	return nil
}

// Package hub is the relay connection: a WebSocket client that performs the
// connect handshake, issues request/response calls and routes relay events
// into the pair registry.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/nextlevelbuilder/gopair/pkg/protocol"
)

var (
	ErrNotConnected = errors.New("hub: not connected")
	ErrClosed       = errors.New("hub: connection closed")
)

// maxMessageSize bounds a single relay frame (1MB).
const maxMessageSize = 1 << 20

const (
	pingInterval = 30 * time.Second
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
)

// Config configures a Client.
type Config struct {
	URL   string
	Token string
	// CallsPerSecond limits outbound calls; <= 0 disables the limit.
	CallsPerSecond float64
	Burst          int
	CallTimeout    time.Duration
	Dialer         *websocket.Dialer
}

// EventHandler receives relay events in arrival order, on the read goroutine.
type EventHandler func(ctx context.Context, ev *protocol.EventFrame)

// Client is one session with the relay. A Client is single-use: once its
// connection drops, create a new one.
type Client struct {
	cfg     Config
	onEvent EventHandler
	limiter *rate.Limiter
	session string

	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	connected atomic.Bool

	mu      sync.Mutex
	pending map[string]chan *protocol.ResponseFrame
	err     error
}

func NewClient(cfg Config, onEvent EventHandler) *Client {
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.CallsPerSecond > 0 {
		limit = rate.Limit(cfg.CallsPerSecond)
	}
	return &Client{
		cfg:     cfg,
		onEvent: onEvent,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		session: uuid.NewString(),
		send:    make(chan []byte, 256),
		done:    make(chan struct{}),
		pending: make(map[string]chan *protocol.ResponseFrame),
	}
}

// Session is the client-generated session ID sent in the handshake.
func (c *Client) Session() string { return c.session }

// Connected reports whether the handshake succeeded and the connection is up.
func (c *Client) Connected() bool { return c.connected.Load() }

// Done is closed when the connection is gone.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns why the connection ended, once Done is closed.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Connect dials the relay and performs the handshake. ctx bounds the dial
// and the handshake; the connection itself lives until Close or a read error.
func (c *Client) Connect(ctx context.Context) (*protocol.ConnectResult, error) {
	conn, _, err := c.cfg.Dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("hub: dial %s: %w", c.cfg.URL, err)
	}
	c.conn = conn

	go c.writePump()
	go c.readPump(context.WithoutCancel(ctx))

	var result protocol.ConnectResult
	err = c.call(ctx, protocol.MethodConnect, protocol.ConnectParams{
		Token:    c.cfg.Token,
		Protocol: protocol.ProtocolVersion,
		Session:  c.session,
	}, &result)
	if err != nil {
		c.shutdown(err)
		return nil, fmt.Errorf("hub: connect: %w", err)
	}
	if result.Protocol != protocol.ProtocolVersion {
		err := fmt.Errorf("hub: relay speaks protocol %d, want %d", result.Protocol, protocol.ProtocolVersion)
		c.shutdown(err)
		return nil, err
	}
	c.connected.Store(true)
	slog.Info("hub: connected", "session", c.session, "uid", result.User.UID,
		"pairs", len(result.Pairs), "online", len(result.Online))
	return &result, nil
}

// Call invokes a relay method and decodes the response payload into out
// (which may be nil).
func (c *Client) Call(ctx context.Context, method string, params, out any) error {
	if !c.connected.Load() {
		return ErrNotConnected
	}
	return c.call(ctx, method, params, out)
}

func (c *Client) call(ctx context.Context, method string, params, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("hub: %s: rate limit: %w", method, err)
	}

	req, err := protocol.NewRequest(uuid.NewString(), method, params)
	if err != nil {
		return fmt.Errorf("hub: %s: encode params: %w", method, err)
	}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("hub: %s: %w", method, err)
	}

	ch := make(chan *protocol.ResponseFrame, 1)
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return ErrClosed
	}
	c.pending[req.ID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
	}()

	select {
	case c.send <- data:
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case resp := <-ch:
		if !resp.OK {
			if resp.Error == nil {
				return fmt.Errorf("hub: %s: request failed", method)
			}
			return fmt.Errorf("hub: %s: %w", method, resp.Error)
		}
		if out != nil && len(resp.Payload) > 0 {
			if err := json.Unmarshal(resp.Payload, out); err != nil {
				return fmt.Errorf("hub: %s: decode result: %w", method, err)
			}
		}
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the session.
func (c *Client) Close() {
	c.shutdown(ErrClosed)
}

func (c *Client) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.connected.Store(false)
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("hub: read error", "session", c.session, "error", err)
			}
			c.shutdown(fmt.Errorf("hub: connection lost: %w", err))
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		c.handleFrame(ctx, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.shutdown(fmt.Errorf("hub: write: %w", err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown(fmt.Errorf("hub: ping: %w", err))
				return
			}
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}

func (c *Client) handleFrame(ctx context.Context, data []byte) {
	frameType, err := protocol.ParseFrameType(data)
	if err != nil {
		slog.Warn("hub: invalid frame", "error", err)
		return
	}

	switch frameType {
	case protocol.FrameTypeResponse:
		var resp protocol.ResponseFrame
		if err := json.Unmarshal(data, &resp); err != nil {
			slog.Warn("hub: malformed response", "error", err)
			return
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		c.mu.Unlock()
		if !ok {
			slog.Debug("hub: response for unknown request", "id", resp.ID)
			return
		}
		ch <- &resp

	case protocol.FrameTypeEvent:
		var ev protocol.EventFrame
		if err := json.Unmarshal(data, &ev); err != nil {
			slog.Warn("hub: malformed event", "error", err)
			return
		}
		if c.onEvent != nil {
			c.onEvent(ctx, &ev)
		}

	default:
		slog.Warn("hub: unexpected frame type", "type", frameType)
	}
}

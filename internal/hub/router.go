package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/gopair/internal/bus"
	"github.com/nextlevelbuilder/gopair/internal/pairing"
	"github.com/nextlevelbuilder/gopair/pkg/protocol"
)

// Registry is the subset of the pair registry that relay events drive.
type Registry interface {
	AddOrUpdate(dto protocol.UserPairDto) error
	Remove(user protocol.UserData)
	MarkOnline(dto protocol.OnlineUserIdentDto) error
	MarkOffline(user protocol.UserData)

	RouteIPC(dto protocol.IPCUpdate) error
	RouteAppearance(dto protocol.AppearanceUpdate) error
	RouteWardrobe(dto protocol.WardrobeUpdate) error
	RouteAlias(dto protocol.AliasUpdate) error
	RouteToybox(dto protocol.ToyboxUpdate) error
	RouteShock(dto protocol.ShockUpdate) error

	UpdateOwnGlobal(dto protocol.PermChangeDto) error
	UpdateOwnPairPerm(dto protocol.PermChangeDto) error
	UpdateOwnEditAccess(dto protocol.PermChangeDto) error
	UpdateOtherGlobal(dto protocol.PermChangeDto) error
	UpdateOtherPairPerm(dto protocol.PermChangeDto) error
	UpdateOtherEditAccess(dto protocol.PermChangeDto) error
	ReplaceOwnGlobal(dto protocol.GlobalPermsDto) error
	ReplaceOwnPairPerms(dto protocol.PairPermsDto) error
	ReplaceOwnEditAccess(dto protocol.EditAccessDto) error
	ReplaceOtherGlobal(dto protocol.GlobalPermsDto) error
	ReplaceOtherPairPerms(dto protocol.PairPermsDto) error
	ReplaceOtherEditAccess(dto protocol.EditAccessDto) error
}

var tracer = otel.Tracer("github.com/nextlevelbuilder/gopair/internal/hub")

// EventFunc handles the raw payload of one relay event.
type EventFunc func(ctx context.Context, payload json.RawMessage) error

// EventRouter maps relay event names to handlers.
type EventRouter struct {
	handlers map[string]EventFunc
	dedupe   *bus.DedupeCache
}

// NewEventRouter creates a router wired to reg. dedupe, when non-nil,
// drops events whose relay sequence number was already seen.
func NewEventRouter(reg Registry, dedupe *bus.DedupeCache) *EventRouter {
	r := &EventRouter{
		handlers: make(map[string]EventFunc),
		dedupe:   dedupe,
	}
	r.registerDefaults(reg)
	return r
}

// Register adds or replaces the handler for an event.
func (r *EventRouter) Register(event string, fn EventFunc) {
	r.handlers[event] = fn
}

// Reset forgets seen sequence numbers (new session).
func (r *EventRouter) Reset() {
	if r.dedupe != nil {
		r.dedupe.Reset()
	}
}

// Handle dispatches one event. Unknown events and handler failures are
// logged; they never tear down the connection.
func (r *EventRouter) Handle(ctx context.Context, ev *protocol.EventFrame) {
	ctx, span := tracer.Start(ctx, "hub.event "+ev.Event,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("gopair.event", ev.Event),
			attribute.Int64("gopair.seq", ev.Seq),
		),
	)
	defer span.End()

	if err := r.dispatch(ctx, ev); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, pairing.ErrUnknownPair) {
			// The relay and the registry disagree about who is paired.
			slog.ErrorContext(ctx, "hub: event for unknown pair", "event", ev.Event, "seq", ev.Seq, "error", err)
			return
		}
		slog.WarnContext(ctx, "hub: event not applied", "event", ev.Event, "seq", ev.Seq, "error", err)
	}
}

func (r *EventRouter) dispatch(ctx context.Context, ev *protocol.EventFrame) error {
	if ev.Seq > 0 && r.dedupe != nil && r.dedupe.IsDuplicate(strconv.FormatInt(ev.Seq, 10)) {
		slog.Debug("hub: duplicate event dropped", "event", ev.Event, "seq", ev.Seq)
		return nil
	}
	fn, ok := r.handlers[ev.Event]
	if !ok {
		return fmt.Errorf("unknown event %q", ev.Event)
	}
	return fn(ctx, ev.Payload)
}

// on adapts a typed handler to EventFunc.
func on[T any](fn func(T) error) EventFunc {
	return func(_ context.Context, payload json.RawMessage) error {
		var dto T
		if err := json.Unmarshal(payload, &dto); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		return fn(dto)
	}
}

func (r *EventRouter) registerDefaults(reg Registry) {
	// Pair lifecycle
	r.Register(protocol.EventPairAdded, on(reg.AddOrUpdate))
	r.Register(protocol.EventPairRemoved, on(func(dto protocol.UserDto) error {
		reg.Remove(dto.User)
		return nil
	}))
	r.Register(protocol.EventPairOnline, on(reg.MarkOnline))
	r.Register(protocol.EventPairOffline, on(func(dto protocol.UserDto) error {
		reg.MarkOffline(dto.User)
		return nil
	}))

	// Data
	r.Register(protocol.EventDataIPC, on(reg.RouteIPC))
	r.Register(protocol.EventDataAppearance, on(reg.RouteAppearance))
	r.Register(protocol.EventDataWardrobe, on(reg.RouteWardrobe))
	r.Register(protocol.EventDataAlias, on(reg.RouteAlias))
	r.Register(protocol.EventDataToybox, on(reg.RouteToybox))
	r.Register(protocol.EventDataShock, on(reg.RouteShock))

	// Permissions
	r.Register(protocol.EventPermOwnGlobal, on(reg.UpdateOwnGlobal))
	r.Register(protocol.EventPermOwnPair, on(reg.UpdateOwnPairPerm))
	r.Register(protocol.EventPermOwnEditAccess, on(reg.UpdateOwnEditAccess))
	r.Register(protocol.EventPermOtherGlobal, on(reg.UpdateOtherGlobal))
	r.Register(protocol.EventPermOtherPair, on(reg.UpdateOtherPairPerm))
	r.Register(protocol.EventPermOtherEditAccess, on(reg.UpdateOtherEditAccess))
	r.Register(protocol.EventPermOwnGlobalAll, on(reg.ReplaceOwnGlobal))
	r.Register(protocol.EventPermOwnPairAll, on(reg.ReplaceOwnPairPerms))
	r.Register(protocol.EventPermOwnEditAccessAll, on(reg.ReplaceOwnEditAccess))
	r.Register(protocol.EventPermOtherGlobalAll, on(reg.ReplaceOtherGlobal))
	r.Register(protocol.EventPermOtherPairAll, on(reg.ReplaceOtherPairPerms))
	r.Register(protocol.EventPermOtherEditAccessAll, on(reg.ReplaceOtherEditAccess))
}

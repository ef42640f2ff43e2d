// Package push decides when and to whom the local user's own data is sent.
//
// Two schedulers run side by side. Online covers appearance, wardrobe,
// alias and toybox data for every online pair and sends a composite to
// pairs that just came online. Visible covers IPC data for pairs in render
// range. Each owns its snapshot cache: a value equal to the last one sent
// is never sent again.
package push

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/gopair/internal/scheduler"
	"github.com/nextlevelbuilder/gopair/pkg/protocol"
)

// Transport delivers pushes to the relay. Calls are fire-and-forget from
// the scheduler's point of view: failures are logged, never retried here.
type Transport interface {
	PushIPC(ctx context.Context, data protocol.IPCData, recipients []string, kind protocol.DataUpdateKind) error
	PushAppearance(ctx context.Context, data protocol.AppearanceData, recipients []string, kind protocol.DataUpdateKind) error
	PushWardrobe(ctx context.Context, data protocol.WardrobeData, recipients []string, kind protocol.DataUpdateKind) error
	PushAlias(ctx context.Context, data protocol.AliasData, recipients []string, kind protocol.DataUpdateKind) error
	PushToybox(ctx context.Context, data protocol.ToyboxData, recipients []string, kind protocol.DataUpdateKind) error
	PushComposite(ctx context.Context, data protocol.CompositeData, recipients []string) error
}

// Targets answers who is currently reachable.
type Targets interface {
	OnlineUIDs() []string
	VisibleUIDs() []string
}

// Task is one scheduled push.
type Task struct {
	Category   protocol.Category
	Kind       protocol.DataUpdateKind
	Recipients []string
	// Key serializes tasks: a task never overtakes an earlier one with the
	// same key.
	Key string
	Run func(ctx context.Context) error
}

// Outbox accepts push tasks for asynchronous execution.
type Outbox interface {
	Submit(ctx context.Context, task Task)
}

// LaneOutbox runs tasks on a scheduler lane, one queue per task key.
type LaneOutbox struct {
	sched *scheduler.Scheduler
	lane  string
}

// NewLaneOutbox creates an outbox on the given lane (scheduler.LanePush if empty).
func NewLaneOutbox(sched *scheduler.Scheduler, lane string) *LaneOutbox {
	if lane == "" {
		lane = scheduler.LanePush
	}
	return &LaneOutbox{sched: sched, lane: lane}
}

func (o *LaneOutbox) Submit(ctx context.Context, task Task) {
	done := o.sched.Schedule(ctx, o.lane, task.Key, task.Run)
	go func() {
		out := <-done
		if out.Err != nil {
			slog.Warn("push: task failed", "category", task.Category, "kind", task.Kind,
				"recipients", len(task.Recipients), "error", out.Err)
		}
	}()
}

var tracer = otel.Tracer("github.com/nextlevelbuilder/gopair/internal/push")

// traced wraps a push in a client span.
func traced(task Task, run func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ctx, span := tracer.Start(ctx, "push."+string(task.Category),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("gopair.category", string(task.Category)),
				attribute.String("gopair.kind", string(task.Kind)),
				attribute.Int("gopair.recipients", len(task.Recipients)),
			),
		)
		defer span.End()
		err := run(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	}
}

func newTask(cat protocol.Category, kind protocol.DataUpdateKind, recipients []string, key string, run func(ctx context.Context) error) Task {
	t := Task{Category: cat, Kind: kind, Recipients: recipients, Key: key}
	t.Run = traced(t, run)
	return t
}

func taskKey(parts ...string) string { return strings.Join(parts, ":") }

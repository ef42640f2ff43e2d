package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLane_ConcurrencyLimit(t *testing.T) {
	lane := NewLane("test", 2)
	defer lane.Stop()

	var active atomic.Int32
	var maxActive atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 6; i++ {
		wg.Add(1)
		err := lane.Submit(context.Background(), func() {
			defer wg.Done()
			cur := active.Add(1)

			// Track the max concurrency observed
			for {
				old := maxActive.Load()
				if cur <= old || maxActive.CompareAndSwap(old, cur) {
					break
				}
			}

			time.Sleep(50 * time.Millisecond)
			active.Add(-1)
		})
		if err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	wg.Wait()

	if m := maxActive.Load(); m > 2 {
		t.Errorf("max active = %d, want <= 2", m)
	}
	if m := maxActive.Load(); m < 2 {
		t.Errorf("max active = %d, want >= 2 (should use full concurrency)", m)
	}
}

func TestLane_Stats(t *testing.T) {
	lane := NewLane("test", 3)
	defer lane.Stop()

	stats := lane.Stats()
	if stats.Name != "test" {
		t.Errorf("name = %q, want %q", stats.Name, "test")
	}
	if stats.Concurrency != 3 {
		t.Errorf("concurrency = %d, want 3", stats.Concurrency)
	}
	if stats.Active != 0 {
		t.Errorf("active = %d, want 0", stats.Active)
	}

	done := make(chan struct{})
	lane.Submit(context.Background(), func() { close(done) })
	<-done
	deadline := time.Now().Add(2 * time.Second)
	for lane.Stats().Completed != 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if c := lane.Stats().Completed; c != 1 {
		t.Errorf("completed = %d, want 1", c)
	}
}

func TestLane_PanicRecovered(t *testing.T) {
	lane := NewLane("test", 1)
	defer lane.Stop()

	lane.Submit(context.Background(), func() { panic("boom") })
	done := make(chan struct{})
	if err := lane.Submit(context.Background(), func() { close(done) }); err != nil {
		t.Fatal(err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker died after panic")
	}
}

func TestLane_SubmitAfterStop(t *testing.T) {
	lane := NewLane("test", 1)
	lane.Stop()
	if err := lane.Submit(context.Background(), func() {}); !errors.Is(err, ErrLaneStopped) {
		t.Errorf("err = %v, want ErrLaneStopped", err)
	}
}

func TestLaneManager_GetFallback(t *testing.T) {
	lm := NewLaneManager([]LaneConfig{
		{Name: LanePush, Concurrency: 2},
		{Name: LaneControl, Concurrency: 4},
	})
	defer lm.StopAll()

	if l := lm.Get(LaneControl); l == nil {
		t.Error("Get(control) returned nil")
	}

	// Unknown lane → fallback to push
	if l := lm.Get("nonexistent"); l == nil {
		t.Error("Get('nonexistent') should fallback to push")
	} else if l.name != LanePush {
		t.Errorf("fallback lane name = %q, want %q", l.name, LanePush)
	}

	stats := lm.AllStats()
	if len(stats) != 2 || stats[0].Name != LaneControl {
		t.Errorf("AllStats = %+v, want sorted control, push", stats)
	}
}

func TestLaneManager_GetOrCreate(t *testing.T) {
	lm := NewLaneManager([]LaneConfig{
		{Name: LanePush, Concurrency: 2},
	})
	defer lm.StopAll()

	l := lm.GetOrCreate("custom", 8)
	if l == nil {
		t.Fatal("GetOrCreate returned nil")
	}
	if l.concurrency != 8 {
		t.Errorf("concurrency = %d, want 8", l.concurrency)
	}

	// Second call returns existing
	l2 := lm.GetOrCreate("custom", 16)
	if l2.concurrency != 8 {
		t.Errorf("second call should return existing lane with concurrency 8, got %d", l2.concurrency)
	}
}

func trackMax(active, maxActive *atomic.Int32) {
	cur := active.Add(1)
	for {
		old := maxActive.Load()
		if cur <= old || maxActive.CompareAndSwap(old, cur) {
			return
		}
	}
}

func TestScheduler_KeySerialization(t *testing.T) {
	var active atomic.Int32
	var maxActive atomic.Int32

	job := func(context.Context) error {
		trackMax(&active, &maxActive)
		time.Sleep(30 * time.Millisecond)
		active.Add(-1)
		return nil
	}

	sched := NewScheduler(DefaultLanes(), QueueConfig{Mode: QueueModeQueue, Cap: 10, Drop: DropOld}, nil)
	defer sched.Stop()

	ctx := context.Background()
	var outcomes []<-chan Outcome
	for i := 0; i < 3; i++ {
		outcomes = append(outcomes, sched.Schedule(ctx, LanePush, "appearance", job))
	}

	for i, ch := range outcomes {
		select {
		case out := <-ch:
			if out.Err != nil {
				t.Errorf("job %d error: %v", i, out.Err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("job %d timed out", i)
		}
	}

	if m := maxActive.Load(); m > 1 {
		t.Errorf("same key max active = %d, want 1 (should serialize)", m)
	}
}

func TestScheduler_DifferentKeysParallel(t *testing.T) {
	var active atomic.Int32
	var maxActive atomic.Int32

	job := func(context.Context) error {
		trackMax(&active, &maxActive)
		time.Sleep(80 * time.Millisecond)
		active.Add(-1)
		return nil
	}

	sched := NewScheduler(DefaultLanes(), QueueConfig{Mode: QueueModeQueue, Cap: 10, Drop: DropOld}, nil)
	defer sched.Stop()

	ctx := context.Background()
	ch1 := sched.Schedule(ctx, LanePush, "appearance", job)
	ch2 := sched.Schedule(ctx, LanePush, "wardrobe", job)

	for _, ch := range []<-chan Outcome{ch1, ch2} {
		select {
		case out := <-ch:
			if out.Err != nil {
				t.Errorf("error: %v", out.Err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out")
		}
	}

	if m := maxActive.Load(); m < 2 {
		t.Errorf("different keys max active = %d, want >= 2 (should parallelize)", m)
	}
}

func TestScheduler_DropOldPolicy(t *testing.T) {
	started := make(chan struct{})
	blockCh := make(chan struct{})

	job := func(context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-blockCh
		return nil
	}

	sched := NewScheduler(DefaultLanes(), QueueConfig{Mode: QueueModeQueue, Cap: 2, Drop: DropOld}, nil)
	defer sched.Stop()

	ctx := context.Background()
	_ = sched.Schedule(ctx, LanePush, "toybox", job)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first job didn't start")
	}

	ch2 := sched.Schedule(ctx, LanePush, "toybox", job)
	ch3 := sched.Schedule(ctx, LanePush, "toybox", job)
	_ = sched.Schedule(ctx, LanePush, "toybox", job)

	select {
	case out := <-ch2:
		if !errors.Is(out.Err, ErrQueueDropped) {
			t.Errorf("expected ErrQueueDropped, got %v", out.Err)
		}
	case <-time.After(2 * time.Second):
		t.Error("dropped job notification timed out")
	}

	select {
	case <-ch3:
		t.Error("job 3 should still be queued, not completed")
	default:
	}

	close(blockCh)
}

func TestScheduler_DropNewPolicy(t *testing.T) {
	blockCh := make(chan struct{})
	started := make(chan struct{}, 1)
	job := func(context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-blockCh
		return nil
	}

	sched := NewScheduler(DefaultLanes(), QueueConfig{Mode: QueueModeQueue, Cap: 1, Drop: DropNew}, nil)
	defer sched.Stop()
	defer close(blockCh)

	ctx := context.Background()
	sched.Schedule(ctx, LanePush, "k", job)
	<-started
	sched.Schedule(ctx, LanePush, "k", job)
	out := <-sched.Schedule(ctx, LanePush, "k", job)
	if !errors.Is(out.Err, ErrQueueFull) {
		t.Errorf("err = %v, want ErrQueueFull", out.Err)
	}
}

func TestScheduler_InterruptMode(t *testing.T) {
	blockCh := make(chan struct{})
	started := make(chan struct{}, 2)

	job := func(ctx context.Context) error {
		started <- struct{}{}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-blockCh:
			return nil
		}
	}

	sched := NewScheduler(DefaultLanes(), QueueConfig{Mode: QueueModeInterrupt, Cap: 10, Drop: DropOld}, nil)
	defer sched.Stop()

	ctx := context.Background()
	ch1 := sched.Schedule(ctx, LanePush, "ipc", job)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first job didn't start")
	}

	ch2 := sched.Schedule(ctx, LanePush, "ipc", job)

	select {
	case out := <-ch1:
		if out.Err == nil {
			t.Error("first job should have been cancelled")
		}
	case <-time.After(3 * time.Second):
		t.Error("first job cancellation timed out")
	}

	close(blockCh)

	select {
	case out := <-ch2:
		if out.Err != nil {
			t.Errorf("second job error: %v", out.Err)
		}
	case <-time.After(3 * time.Second):
		t.Error("second job timed out")
	}
}

func TestScheduler_FullLaneDoesNotStallWorkers(t *testing.T) {
	// One worker, buffer of 16: the follow-up job for "k0" is handed off
	// while the buffer is full of other keys' first jobs.
	sched := NewScheduler([]LaneConfig{{Name: LanePush, Concurrency: 1}}, QueueConfig{Mode: QueueModeQueue, Cap: 10, Drop: DropOld}, nil)
	defer sched.Stop()

	started := make(chan struct{})
	gate := make(chan struct{})
	blocking := func(context.Context) error {
		close(started)
		<-gate
		return nil
	}
	quick := func(context.Context) error { return nil }

	ctx := context.Background()
	outcomes := []<-chan Outcome{sched.Schedule(ctx, LanePush, "k0", blocking)}
	<-started
	outcomes = append(outcomes, sched.Schedule(ctx, LanePush, "k0", quick))

	enqueued := make(chan struct{})
	go func() {
		defer close(enqueued)
		for i := 1; i <= 20; i++ {
			outcomes = append(outcomes, sched.Schedule(ctx, LanePush, fmt.Sprintf("k%d", i), quick))
		}
	}()
	select {
	case <-enqueued:
	case <-time.After(5 * time.Second):
		t.Fatal("Schedule blocked on a full lane")
	}
	close(gate)

	for i, ch := range outcomes {
		select {
		case out := <-ch:
			if out.Err != nil {
				t.Errorf("job %d error: %v", i, out.Err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("job %d never ran", i)
		}
	}
}

func TestScheduler_StoppedLaneFailsQueuedJobs(t *testing.T) {
	sched := NewScheduler(DefaultLanes(), QueueConfig{Mode: QueueModeQueue, Cap: 10, Drop: DropOld}, nil)
	sched.Stop()

	ctx := context.Background()
	ch1 := sched.Schedule(ctx, LanePush, "appearance", func(context.Context) error { return nil })
	ch2 := sched.Schedule(ctx, LanePush, "appearance", func(context.Context) error { return nil })
	for i, ch := range []<-chan Outcome{ch1, ch2} {
		select {
		case out := <-ch:
			if !errors.Is(out.Err, ErrLaneStopped) {
				t.Errorf("job %d err = %v, want ErrLaneStopped", i, out.Err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("job %d outcome never delivered", i)
		}
	}
}

package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nextlevelbuilder/gopair/internal/clock"
)

// QueueMode determines how a new job is handled while a job with the same
// key is running.
type QueueMode string

const (
	// QueueModeQueue is simple FIFO: new jobs wait until the current one finishes.
	QueueModeQueue QueueMode = "queue"

	// QueueModeInterrupt cancels the running job and replaces anything queued.
	// Suited to state pushes where only the newest value matters.
	QueueModeInterrupt QueueMode = "interrupt"
)

// DropPolicy determines which jobs to drop when a key's queue is full.
type DropPolicy string

const (
	DropOld DropPolicy = "old" // drop oldest job
	DropNew DropPolicy = "new" // reject incoming job
)

// QueueConfig configures per-key job queuing.
type QueueConfig struct {
	Mode       QueueMode  `json:"mode" yaml:"mode"`
	Cap        int        `json:"cap" yaml:"cap"`
	Drop       DropPolicy `json:"drop" yaml:"drop"`
	DebounceMs int        `json:"debounce_ms" yaml:"debounce_ms"`
}

// DefaultQueueConfig returns sensible defaults.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		Mode:       QueueModeQueue,
		Cap:        8,
		Drop:       DropOld,
		DebounceMs: 0,
	}
}

// Job is one unit of outbound work.
type Job func(ctx context.Context) error

// Outcome is the result of a scheduled job.
type Outcome struct {
	Err error
}

type pendingJob struct {
	job    Job
	result chan Outcome
}

// KeyQueue serializes jobs for one key (e.g. one data category). Only one
// job runs at a time, so a slow older push never lands after a newer one.
type KeyQueue struct {
	key     string
	config  QueueConfig
	laneMgr *LaneManager
	lane    string
	clock   clock.Clock

	mu        sync.Mutex
	queue     []*pendingJob
	active    bool
	cancel    context.CancelFunc
	timer     clock.Timer
	parentCtx context.Context
}

func newKeyQueue(key, lane string, cfg QueueConfig, laneMgr *LaneManager, clk clock.Clock) *KeyQueue {
	return &KeyQueue{
		key:     key,
		config:  cfg,
		laneMgr: laneMgr,
		lane:    lane,
		clock:   clk,
	}
}

// Enqueue adds a job. If none is running it starts after the debounce.
// The returned channel receives exactly one Outcome.
func (kq *KeyQueue) Enqueue(ctx context.Context, job Job) <-chan Outcome {
	result := make(chan Outcome, 1)
	pending := &pendingJob{job: job, result: result}

	kq.mu.Lock()
	defer kq.mu.Unlock()

	if kq.parentCtx == nil {
		kq.parentCtx = ctx
	}

	switch kq.config.Mode {
	case QueueModeInterrupt:
		if kq.active && kq.cancel != nil {
			kq.cancel()
		}
		kq.drainQueue(Outcome{Err: ErrSuperseded})
		kq.queue = append(kq.queue, pending)
	default:
		if kq.config.Cap > 0 && len(kq.queue) >= kq.config.Cap {
			kq.applyDropPolicy(pending)
		} else {
			kq.queue = append(kq.queue, pending)
		}
	}

	if !kq.active {
		kq.scheduleNext(ctx)
	}
	return result
}

// scheduleNext starts the next queued job, applying debounce.
// Must be called with kq.mu held.
func (kq *KeyQueue) scheduleNext(ctx context.Context) {
	if len(kq.queue) == 0 {
		return
	}

	debounce := time.Duration(kq.config.DebounceMs) * time.Millisecond
	if debounce <= 0 {
		kq.startNext(ctx)
		return
	}

	if kq.timer != nil {
		kq.timer.Stop()
	}
	kq.timer = kq.clock.AfterFunc(debounce, func() {
		kq.mu.Lock()
		defer kq.mu.Unlock()
		if !kq.active && len(kq.queue) > 0 {
			kq.startNext(ctx)
		}
	})
}

// startNext takes the first queued job and hands it to the lane.
// Must be called with kq.mu held. The handoff happens on its own goroutine:
// Submit may block on a full lane, and neither the key's lock nor a lane
// worker finishing the previous job may wait on it.
func (kq *KeyQueue) startNext(ctx context.Context) {
	pending := kq.queue[0]
	kq.queue = kq.queue[1:]
	kq.active = true

	runCtx, cancel := context.WithCancel(ctx)
	kq.cancel = cancel

	lane := kq.laneMgr.Get(kq.lane)
	if lane == nil {
		go kq.execute(runCtx, pending)
		return
	}
	go kq.submit(ctx, lane, runCtx, pending)
}

func (kq *KeyQueue) submit(ctx context.Context, lane *Lane, runCtx context.Context, pending *pendingJob) {
	err := lane.Submit(ctx, func() {
		kq.execute(runCtx, pending)
	})
	if err == nil {
		return
	}
	pending.result <- Outcome{Err: err}
	close(pending.result)

	kq.mu.Lock()
	defer kq.mu.Unlock()
	if kq.cancel != nil {
		kq.cancel()
	}
	kq.active = false
	kq.cancel = nil
	// The lane is gone or ctx is done; later jobs would fail the same way.
	kq.drainQueue(Outcome{Err: err})
}

// execute runs a job and then moves on to the next queued one.
func (kq *KeyQueue) execute(ctx context.Context, pending *pendingJob) {
	err := pending.job(ctx)
	if err != nil {
		slog.Debug("scheduler: job failed", "key", kq.key, "error", err)
	}
	pending.result <- Outcome{Err: err}
	close(pending.result)

	kq.mu.Lock()
	defer kq.mu.Unlock()
	if kq.cancel != nil {
		kq.cancel()
	}
	kq.active = false
	kq.cancel = nil
	if len(kq.queue) > 0 {
		// parentCtx, not the per-job ctx which interrupt mode may have cancelled.
		kq.scheduleNext(kq.parentCtx)
	}
}

// applyDropPolicy handles a full queue.
// Must be called with kq.mu held.
func (kq *KeyQueue) applyDropPolicy(incoming *pendingJob) {
	if kq.config.Drop == DropNew {
		incoming.result <- Outcome{Err: ErrQueueFull}
		close(incoming.result)
		return
	}
	if len(kq.queue) > 0 {
		old := kq.queue[0]
		old.result <- Outcome{Err: ErrQueueDropped}
		close(old.result)
		kq.queue = kq.queue[1:]
	}
	kq.queue = append(kq.queue, incoming)
}

// drainQueue resolves all queued jobs with outcome.
// Must be called with kq.mu held.
func (kq *KeyQueue) drainQueue(outcome Outcome) {
	for _, p := range kq.queue {
		p.result <- outcome
		close(p.result)
	}
	kq.queue = nil
}

// IsActive returns whether a job is currently running.
func (kq *KeyQueue) IsActive() bool {
	kq.mu.Lock()
	defer kq.mu.Unlock()
	return kq.active
}

// QueueLen returns the number of waiting jobs.
func (kq *KeyQueue) QueueLen() int {
	kq.mu.Lock()
	defer kq.mu.Unlock()
	return len(kq.queue)
}

// Scheduler routes keyed jobs to per-key queues running on shared lanes.
type Scheduler struct {
	lanes  *LaneManager
	queues map[string]*KeyQueue
	config QueueConfig
	clock  clock.Clock
	mu     sync.RWMutex
}

// NewScheduler creates a scheduler with the given lanes and queue config.
func NewScheduler(laneConfigs []LaneConfig, queueCfg QueueConfig, clk clock.Clock) *Scheduler {
	if laneConfigs == nil {
		laneConfigs = DefaultLanes()
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Scheduler{
		lanes:  NewLaneManager(laneConfigs),
		queues: make(map[string]*KeyQueue),
		config: queueCfg,
		clock:  clk,
	}
}

// Schedule submits job to the queue for key on the named lane.
func (s *Scheduler) Schedule(ctx context.Context, lane, key string, job Job) <-chan Outcome {
	return s.getOrCreateQueue(key, lane).Enqueue(ctx, job)
}

func (s *Scheduler) getOrCreateQueue(key, lane string) *KeyQueue {
	s.mu.RLock()
	kq, ok := s.queues[key]
	s.mu.RUnlock()
	if ok {
		return kq
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if kq, ok := s.queues[key]; ok {
		return kq
	}
	kq = newKeyQueue(key, lane, s.config, s.lanes, s.clock)
	s.queues[key] = kq
	slog.Debug("scheduler: queue created", "key", key, "lane", lane)
	return kq
}

// Stop shuts down all lanes.
func (s *Scheduler) Stop() {
	s.lanes.StopAll()
}

// LaneStats returns utilization metrics for all lanes.
func (s *Scheduler) LaneStats() []LaneStats {
	return s.lanes.AllStats()
}

// Lanes returns the underlying lane manager.
func (s *Scheduler) Lanes() *LaneManager {
	return s.lanes
}

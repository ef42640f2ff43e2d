package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
)

// Lane names.
const (
	LanePush    = "push"    // outbound data pushes
	LaneControl = "control" // handshakes, profile fetches
)

// LaneConfig configures one lane.
type LaneConfig struct {
	Name        string `json:"name" yaml:"name"`
	Concurrency int    `json:"concurrency" yaml:"concurrency"`
}

// DefaultLanes returns the lanes used when none are configured.
func DefaultLanes() []LaneConfig {
	return []LaneConfig{
		{Name: LanePush, Concurrency: 4},
		{Name: LaneControl, Concurrency: 2},
	}
}

// LaneStats is a point-in-time view of a lane's utilization.
type LaneStats struct {
	Name        string `json:"name" yaml:"name"`
	Concurrency int    `json:"concurrency" yaml:"concurrency"`
	Active      int    `json:"active"`
	Queued      int    `json:"queued"`
	Completed   uint64 `json:"completed"`
}

// Lane runs submitted functions on a bounded pool of workers.
type Lane struct {
	name        string
	concurrency int

	work chan func()
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup

	active    atomic.Int32
	queued    atomic.Int32
	completed atomic.Uint64
}

// NewLane starts a lane with the given number of workers (minimum 1).
func NewLane(name string, concurrency int) *Lane {
	if concurrency < 1 {
		concurrency = 1
	}
	l := &Lane{
		name:        name,
		concurrency: concurrency,
		work:        make(chan func(), concurrency*16),
		stop:        make(chan struct{}),
	}
	for i := 0; i < concurrency; i++ {
		l.wg.Add(1)
		go l.worker()
	}
	return l
}

func (l *Lane) worker() {
	defer l.wg.Done()
	for {
		select {
		case <-l.stop:
			return
		case fn := <-l.work:
			l.queued.Add(-1)
			l.active.Add(1)
			l.run(fn)
			l.active.Add(-1)
			l.completed.Add(1)
		}
	}
}

func (l *Lane) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduler: lane job panicked", "lane", l.name, "panic", r)
		}
	}()
	fn()
}

// Submit queues fn. It blocks while the lane's buffer is full, until ctx is
// done or the lane stops.
func (l *Lane) Submit(ctx context.Context, fn func()) error {
	select {
	case <-l.stop:
		return ErrLaneStopped
	default:
	}
	l.queued.Add(1)
	select {
	case l.work <- fn:
		return nil
	case <-ctx.Done():
		l.queued.Add(-1)
		return ctx.Err()
	case <-l.stop:
		l.queued.Add(-1)
		return ErrLaneStopped
	}
}

// Stats returns the lane's current utilization.
func (l *Lane) Stats() LaneStats {
	return LaneStats{
		Name:        l.name,
		Concurrency: l.concurrency,
		Active:      int(l.active.Load()),
		Queued:      int(l.queued.Load()),
		Completed:   l.completed.Load(),
	}
}

// Stop stops the workers after their current job. Queued jobs are dropped.
func (l *Lane) Stop() {
	l.once.Do(func() {
		close(l.stop)
	})
	l.wg.Wait()
}

// LaneManager owns a set of named lanes.
type LaneManager struct {
	mu    sync.RWMutex
	lanes map[string]*Lane
}

// NewLaneManager starts one lane per config.
func NewLaneManager(configs []LaneConfig) *LaneManager {
	lm := &LaneManager{lanes: make(map[string]*Lane, len(configs))}
	for _, c := range configs {
		lm.lanes[c.Name] = NewLane(c.Name, c.Concurrency)
	}
	return lm
}

// Get returns the named lane, falling back to the push lane.
func (lm *LaneManager) Get(name string) *Lane {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	if l, ok := lm.lanes[name]; ok {
		return l
	}
	return lm.lanes[LanePush]
}

// GetOrCreate returns the named lane, creating it if needed.
func (lm *LaneManager) GetOrCreate(name string, concurrency int) *Lane {
	lm.mu.RLock()
	l, ok := lm.lanes[name]
	lm.mu.RUnlock()
	if ok {
		return l
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if l, ok := lm.lanes[name]; ok {
		return l
	}
	l = NewLane(name, concurrency)
	lm.lanes[name] = l
	slog.Debug("scheduler: lane created", "lane", name, "concurrency", concurrency)
	return l
}

// AllStats returns stats for every lane.
func (lm *LaneManager) AllStats() []LaneStats {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	out := make([]LaneStats, 0, len(lm.lanes))
	for _, l := range lm.lanes {
		out = append(out, l.Stats())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// StopAll stops every lane.
func (lm *LaneManager) StopAll() {
	lm.mu.RLock()
	lanes := make([]*Lane, 0, len(lm.lanes))
	for _, l := range lm.lanes {
		lanes = append(lanes, l)
	}
	lm.mu.RUnlock()
	for _, l := range lanes {
		l.Stop()
	}
}

package scheduler

import "errors"

var (
	// ErrQueueFull is returned when a job is rejected because the key's queue is full (drop=new policy).
	ErrQueueFull = errors.New("scheduler: queue is full")

	// ErrQueueDropped is returned when a queued job is evicted to make room (drop=old policy).
	ErrQueueDropped = errors.New("scheduler: job dropped from queue")

	// ErrSuperseded is returned to a queued job replaced by a newer one for the same key (interrupt mode).
	ErrSuperseded = errors.New("scheduler: job superseded")

	// ErrLaneStopped is returned when submitting to a stopped lane.
	ErrLaneStopped = errors.New("scheduler: lane stopped")
)

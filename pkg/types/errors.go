package types

import "errors"

// Pool-level errors. Capacity and no-idle-worker conditions are
// synchronous rejections; per-task embedding failures surface only via
// hooks and counters, never through these sentinels.
var (
	// ErrQueueFull is returned when the embedding queue is at capacity.
	// The rejected task is not enqueued and no state is mutated.
	ErrQueueFull = errors.New("embedding queue full")
	// ErrNoIdleWorker is returned by the query path when no worker is
	// immediately available. The query path never waits.
	ErrNoIdleWorker = errors.New("no idle worker available")
	// ErrQueryTimeout is returned when a query embedding does not
	// complete within the query path's own timeout.
	ErrQueryTimeout = errors.New("query embedding timed out")
	// ErrPoolNotReady is returned when the pool has not been
	// initialized or has been terminated.
	ErrPoolNotReady = errors.New("worker pool not ready")
	// ErrInitTimeout is returned when a worker fails to acknowledge
	// initialization in time. Pool startup aborts.
	ErrInitTimeout = errors.New("worker initialization timed out")
)

package types

import "time"

// EmbeddingResult is the output of embedding one piece of code text.
// A zero-length vector or zero confidence means "low signal", never an
// error: the engine degrades on malformed input instead of failing.
type EmbeddingResult struct {
	Vector     []float32 `json:"vector"`
	Dimensions int       `json:"dimensions"`
	Model      string    `json:"model"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence"` // in [0, 1]
}

// PoolStats is a read-only snapshot of the worker pool's bookkeeping.
type PoolStats struct {
	ActiveWorkers   int     `json:"active_workers"`
	QueueSize       int     `json:"queue_size"`
	Completed       int64   `json:"completed"`
	Failed          int64   `json:"failed"`
	AverageTaskTime float64 `json:"average_task_time_ms"`
	Throughput      float64 `json:"throughput"` // tasks per second
}

package types

import (
	"time"

	"github.com/google/uuid"
)

// Priority controls where a task is placed in the embedding queue.
// High-priority tasks are inserted at the queue front; normal and low
// share a single FIFO tier.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// ParsePriority converts a string to a Priority, defaulting to normal
// for empty or unrecognized values.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return Priority(s)
	default:
		return PriorityNormal
	}
}

// EmbeddingTask is one unit of embedding work. It is owned by the pool
// coordinator while queued; ownership transfers to a worker on dispatch
// and the task is discarded on completion or failure.
type EmbeddingTask struct {
	ID         string    `json:"id"`
	SymbolID   string    `json:"symbol_id"`
	Code       string    `json:"code"`
	Context    string    `json:"context,omitempty"`
	Priority   Priority  `json:"priority"`
	BatchID    string    `json:"batch_id,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewEmbeddingTask builds a task with a fresh unique ID and the current
// enqueue timestamp.
func NewEmbeddingTask(symbolID, code, context string, priority Priority) *EmbeddingTask {
	return &EmbeddingTask{
		ID:         uuid.NewString(),
		SymbolID:   symbolID,
		Code:       code,
		Context:    context,
		Priority:   priority,
		EnqueuedAt: time.Now(),
	}
}

// BatchItem is one entry in a batch enqueue request.
type BatchItem struct {
	SymbolID string `json:"symbol_id"`
	Code     string `json:"code"`
	Context  string `json:"context,omitempty"`
}

// BatchResult pairs a completed batch member with its embedding.
type BatchResult struct {
	SymbolID string           `json:"symbol_id"`
	Result   *EmbeddingResult `json:"result"`
}

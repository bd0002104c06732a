package pool

import "github.com/anortham/miller-embeddings/pkg/types"

// Hooks receives pool events. Implementations are supplied at
// construction and invoked from the coordinator's run loop, so they
// should return quickly; slow hooks delay scheduling.
//
// A non-nil error (or panic) from EmbeddingComplete is caught and routed
// to Error, never rethrown into the scheduler.
type Hooks interface {
	// EmbeddingComplete is invoked once per successfully embedded task.
	// It is expected to persist the vector externally.
	EmbeddingComplete(symbolID string, result *types.EmbeddingResult) error

	// BatchComplete is invoked when every member of a batch has been
	// retired. Failed members are absent from results.
	BatchComplete(results []types.BatchResult)

	// Error is invoked for per-task failures and for completion-hook
	// errors. task is nil when the failure has no task attribution.
	Error(err error, task *types.EmbeddingTask)

	// Progress is invoked after each scheduling pass with the completed
	// count, the total known tasks (completed + active + queued), and
	// the current queue size.
	Progress(completed, total, queueSize int)
}

// NopHooks is a Hooks implementation that ignores every event.
type NopHooks struct{}

func (NopHooks) EmbeddingComplete(string, *types.EmbeddingResult) error { return nil }
func (NopHooks) BatchComplete([]types.BatchResult)                      {}
func (NopHooks) Error(error, *types.EmbeddingTask)                      {}
func (NopHooks) Progress(int, int, int)                                 {}

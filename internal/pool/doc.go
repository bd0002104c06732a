// Package pool implements the worker-pool coordinator that schedules,
// bounds, and fault-isolates parallel embedding work.
//
// The coordinator supervises N memory-isolated workers. Each worker is a
// goroutine actor hosting exactly one TF-IDF engine; coordinator and
// workers exchange JSON-taggable request/response messages over channels,
// so no engine state is ever shared across goroutines.
//
// # Scheduling Discipline
//
// All queue, worker, and active-task bookkeeping is owned by a single
// run-loop goroutine fed by a command channel. Public methods post
// commands and wait for replies, so scheduling logic is structurally
// never re-entered.
//
// # Basic Usage
//
//	p := pool.New(pool.Config{
//	    Workers:    4,
//	    Vocabulary: vocab,
//	}, hooks)
//	if err := p.Initialize(ctx); err != nil {
//	    return err
//	}
//	defer p.Terminate()
//
//	id, err := p.QueueEmbedding("auth.Login", code, "", types.PriorityNormal)
//
// Results arrive through the Hooks interface supplied at construction;
// QueueEmbedding itself only fails synchronously for capacity or
// lifecycle errors.
//
// # Backpressure and Priorities
//
// The queue is bounded by MaxQueueSize; enqueuing past capacity rejects
// with types.ErrQueueFull and mutates nothing. High-priority tasks are
// inserted at the queue front; normal and low share one FIFO tier.
// Dispatched tasks are never preempted.
//
// # Query Path
//
// EmbedQuery bypasses the queue for interactive callers: it requires an
// idle worker immediately and rejects with types.ErrNoIdleWorker rather
// than waiting, trading completion guarantees for bounded latency under
// its own, shorter timeout.
//
// # Failure Model
//
// Per-task failures surface only via hooks and counters; processing
// continues. A worker-level error (panic) frees the worker and triggers
// a heuristic staleness sweep that fails that worker's tasks older than
// WorkerTimeout — the sweep can misattribute an unrelated slow task, and
// callers must tolerate that. Only initialization failure is fatal to
// the pool. There is no automatic retry; callers resubmit explicitly.
package pool

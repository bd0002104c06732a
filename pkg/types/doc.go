// Package types provides shared type definitions for the Miller embedding
// subsystem.
//
// This package defines the domain types exchanged between the worker pool,
// the storage layer, and the service surfaces: embedding tasks, embedding
// results, pool statistics, and the sentinel errors callers classify with
// errors.Is.
//
// # Core Types
//
// EmbeddingTask is one unit of embedding work, created on enqueue:
//
//	task := types.NewEmbeddingTask("auth.Login", code, ctx, types.PriorityHigh)
//
// EmbeddingResult carries the produced vector plus its metadata:
//
//	result.Vector     // []float32 sized to the vocabulary
//	result.Confidence // in [0, 1]; 0 means "low signal", not failure
//
// # Task Lifecycle
//
// Every task is in exactly one of four states: queued, active on one
// worker, completed, or failed. The pool coordinator is the only mutator
// of that bookkeeping.
//
// # Error Classification
//
// Capacity and availability rejections are sentinel errors:
//
//	if errors.Is(err, types.ErrQueueFull) {
//	    // back off and resubmit later
//	}
//
// Per-task embedding failures never surface through these sentinels; they
// are reported via the pool's hooks and failure counter.
package types

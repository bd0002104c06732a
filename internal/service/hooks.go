package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anortham/miller-embeddings/internal/storage"
	"github.com/anortham/miller-embeddings/pkg/types"
)

// persistTimeout bounds a single store write made from a pool hook.
const persistTimeout = 5 * time.Second

// persistHooks routes finished embeddings into the vector store and
// failures into the log. It runs on the pool's run loop, so every
// store call carries its own short deadline.
type persistHooks struct {
	store  storage.VectorStore
	logger *slog.Logger
}

func (h *persistHooks) EmbeddingComplete(symbolID string, result *types.EmbeddingResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	now := time.Now()
	rec := &storage.Record{
		SymbolID:   symbolID,
		Vector:     result.Vector,
		Dimensions: result.Dimensions,
		Model:      result.Model,
		Confidence: result.Confidence,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.store.SaveEmbedding(ctx, rec); err != nil {
		return fmt.Errorf("persist embedding for %s: %w", symbolID, err)
	}
	return nil
}

func (h *persistHooks) BatchComplete(results []types.BatchResult) {
	h.logger.Debug("embedding batch complete", "count", len(results))
}

func (h *persistHooks) Error(err error, task *types.EmbeddingTask) {
	if task != nil {
		h.logger.Error("embedding task failed", "symbol", task.SymbolID, "task", task.ID, "error", err)
		return
	}
	h.logger.Error("embedding failure", "error", err)
}

func (h *persistHooks) Progress(completed, total, queueSize int) {
	h.logger.Debug("embedding progress", "completed", completed, "total", total, "queued", queueSize)
}

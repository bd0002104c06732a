package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/anortham/miller-embeddings/internal/config"
	"github.com/anortham/miller-embeddings/internal/service"
	"github.com/anortham/miller-embeddings/pkg/types"
)

// End-to-end smoke test: train a vocabulary, queue a batch, wait for
// the vectors to land in the store, then run a search against them.
func main() {
	fmt.Println("Testing embedding pipeline...")

	cfg := config.Load()
	cfg.Store = config.StoreMemory
	cfg.Workers = 2

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	svc, err := service.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer svc.Close()

	corpus := map[string]string{
		"math.go:Add":      "func Add(a, b int) int { return a + b }",
		"math.go:Multiply": "func Multiply(a, b int) int { return a * b }",
		"auth.go:Validate": "func ValidateToken(token string) error { return checkSignature(token) }",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := svc.Train(ctx, corpus); err != nil {
		log.Fatalf("Failed to train vocabulary: %v", err)
	}

	items := make([]types.BatchItem, 0, len(corpus))
	for id, code := range corpus {
		items = append(items, types.BatchItem{SymbolID: id, Code: code})
	}
	taskIDs, err := svc.IndexSymbols(items, types.PriorityNormal)
	if err != nil {
		log.Fatalf("Failed to queue batch: %v", err)
	}
	fmt.Printf("  Queued: %d tasks\n", len(taskIDs))

	if err := svc.WaitForCompletion(ctx); err != nil {
		log.Fatalf("Failed waiting for completion: %v", err)
	}

	stats, err := svc.GetStats(ctx)
	if err != nil {
		log.Fatalf("Failed to get stats: %v", err)
	}

	fmt.Printf("\nPool Statistics:\n")
	fmt.Printf("  Completed: %d\n", stats.Pool.Completed)
	fmt.Printf("  Failed: %d\n", stats.Pool.Failed)
	fmt.Printf("  Average Task Time: %.2fms\n", stats.Pool.AverageTaskTime)
	fmt.Printf("  Stored Embeddings: %d\n", stats.StoredEmbeddings)
	fmt.Printf("  Vocabulary Size: %d\n", stats.VocabularySize)

	resp, err := svc.Query(ctx, "validate token signature", "", 3, false)
	if err != nil {
		log.Fatalf("Failed to search: %v", err)
	}

	fmt.Printf("\nSearch Results:\n")
	for _, m := range resp.Matches {
		fmt.Printf("  %-20s %.4f\n", m.SymbolID, m.Score)
	}

	if stats.StoredEmbeddings == len(corpus) && len(resp.Matches) > 0 {
		fmt.Println("\n✓ SUCCESS: Embeddings were generated, stored, and searched!")
	} else {
		fmt.Println("\n✗ FAILURE: Pipeline did not produce expected results!")
		os.Exit(1)
	}
}

package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anortham/miller-embeddings/internal/config"
	"github.com/anortham/miller-embeddings/pkg/types"
)

func testService(t *testing.T) *Service {
	t.Helper()
	cfg := &config.Config{
		Store:        config.StoreMemory,
		Workers:      2,
		MaxQueueSize: 100,
		InitTimeout:  5 * time.Second,
		QueryTimeout: 5 * time.Second,
		MinDocFreq:   1,
		MaxDocFreq:   1.0,
		MaxFeatures:  384,
		DrainTimeout: 5 * time.Second,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

var testCorpus = map[string]string{
	"math.go:Add":      "func Add(a, b int) int { return a + b }",
	"math.go:Multiply": "func Multiply(a, b int) int { return a * b }",
	"auth.go:Validate": "func ValidateToken(token string) error { return checkSignature(token) }",
}

func TestServiceEndToEnd(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	require.NoError(t, svc.Train(ctx, testCorpus))

	items := make([]types.BatchItem, 0, len(testCorpus))
	for id, code := range testCorpus {
		items = append(items, types.BatchItem{SymbolID: id, Code: code})
	}
	ids, err := svc.IndexSymbols(items, types.PriorityNormal)
	require.NoError(t, err)
	assert.Len(t, ids, len(testCorpus))

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, svc.WaitForCompletion(waitCtx))

	stats, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(testCorpus), stats.StoredEmbeddings)
	assert.Equal(t, int64(len(testCorpus)), stats.Pool.Completed)
	assert.Greater(t, stats.VocabularySize, 0)

	resp, err := svc.Query(ctx, "validate token signature", "", 3, false)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Matches)
	assert.Equal(t, "auth.go:Validate", resp.Matches[0].SymbolID)
}

func TestServiceIndexSingleSymbol(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	require.NoError(t, svc.Train(ctx, testCorpus))

	id, err := svc.IndexSymbol("new.go:Thing", "func Thing() {}", "", types.PriorityHigh)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, svc.WaitForCompletion(waitCtx))

	stats, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.StoredEmbeddings)
}

func TestServiceTrainRejectsEmptyCorpus(t *testing.T) {
	svc := testService(t)
	assert.Error(t, svc.Train(context.Background(), nil))
}

func TestServiceRetrainRecyclesPool(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	require.NoError(t, svc.Train(ctx, testCorpus))
	firstSize := 0
	if stats, err := svc.GetStats(ctx); err == nil {
		firstSize = stats.VocabularySize
	}
	require.Greater(t, firstSize, 0)

	// A second Train must terminate and restart the workers with the
	// new vocabulary.
	bigger := map[string]string{}
	for k, v := range testCorpus {
		bigger[k] = v
	}
	bigger["extra.go:Widget"] = "func RenderWidget(canvas *Canvas) error { return canvas.Draw() }"
	require.NoError(t, svc.Train(ctx, bigger))

	stats, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ready", stats.State)
	assert.Greater(t, stats.VocabularySize, firstSize)

	// And the recycled pool still serves queries.
	_, err = svc.EmbedQuery(ctx, "render widget", "")
	require.NoError(t, err)
}

func TestServiceHealthCheck(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	health := svc.HealthCheck(ctx)
	assert.False(t, health.Pool, "pool healthy before start")
	assert.True(t, health.Store)

	require.NoError(t, svc.Start(ctx))
	health = svc.HealthCheck(ctx)
	assert.True(t, health.Healthy)
	assert.True(t, health.Pool)
	assert.Equal(t, "ready", health.State)
}

func TestServiceQueryUsesCache(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	require.NoError(t, svc.Train(ctx, testCorpus))

	first, err := svc.Query(ctx, "add numbers", "", 2, true)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := svc.Query(ctx, "add numbers", "", 2, true)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	cfg := &config.Config{Store: "bogus"}
	_, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

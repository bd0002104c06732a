package searcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anortham/miller-embeddings/internal/storage"
	"github.com/anortham/miller-embeddings/pkg/types"
)

// stubEmbedder answers every query with a fixed vector and counts calls.
type stubEmbedder struct {
	vector     []float32
	confidence float64
	err        error
	calls      atomic.Int64
}

func (s *stubEmbedder) EmbedQuery(_ context.Context, query, queryContext string) (*types.EmbeddingResult, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &types.EmbeddingResult{
		Vector:     s.vector,
		Dimensions: len(s.vector),
		Model:      "stub",
		Timestamp:  time.Now(),
		Confidence: s.confidence,
	}, nil
}

func seedStore(t *testing.T) *storage.MemoryStore {
	t.Helper()
	store, err := storage.NewMemoryStore()
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	vectors := map[string][]float32{
		"match":   {1, 0, 0},
		"partial": {0.7, 0.7, 0},
		"far":     {0, 0, 1},
	}
	for id, vec := range vectors {
		rec := &storage.Record{SymbolID: id, Vector: vec, Dimensions: 3, Model: "m"}
		if err := store.SaveEmbedding(ctx, rec); err != nil {
			t.Fatalf("SaveEmbedding(%s) error = %v", id, err)
		}
	}
	return store
}

func TestSearchRanksMatches(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{1, 0, 0}, confidence: 0.8}
	s := New(embedder, seedStore(t))

	resp, err := s.Search(context.Background(), SearchRequest{Query: "find match", TopK: 2})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Matches) != 2 {
		t.Fatalf("len(Matches) = %d, want 2", len(resp.Matches))
	}
	if resp.Matches[0].SymbolID != "match" {
		t.Errorf("top match = %s, want match", resp.Matches[0].SymbolID)
	}
	if resp.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", resp.Confidence)
	}
	if resp.CacheHit {
		t.Error("CacheHit = true on a cold search")
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	s := New(&stubEmbedder{vector: []float32{1}}, seedStore(t))
	if _, err := s.Search(context.Background(), SearchRequest{Query: ""}); err == nil {
		t.Fatal("Search(empty) succeeded, want error")
	}
}

func TestSearchCacheHit(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{1, 0, 0}, confidence: 0.8}
	s := New(embedder, seedStore(t))
	req := SearchRequest{Query: "cached", TopK: 3, UseCache: true}

	first, err := s.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("first Search() error = %v", err)
	}
	second, err := s.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("second Search() error = %v", err)
	}

	if !second.CacheHit {
		t.Error("second search missed the cache")
	}
	if embedder.calls.Load() != 1 {
		t.Errorf("embedder called %d times, want 1", embedder.calls.Load())
	}
	if len(second.Matches) != len(first.Matches) {
		t.Errorf("cached matches = %d, want %d", len(second.Matches), len(first.Matches))
	}
	if s.CacheSize() != 1 {
		t.Errorf("CacheSize() = %d, want 1", s.CacheSize())
	}
}

func TestSearchCacheBypass(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{1, 0, 0}}
	s := New(embedder, seedStore(t))
	req := SearchRequest{Query: "uncached", TopK: 3}

	for i := 0; i < 2; i++ {
		if _, err := s.Search(context.Background(), req); err != nil {
			t.Fatalf("Search() error = %v", err)
		}
	}
	if embedder.calls.Load() != 2 {
		t.Errorf("embedder called %d times, want 2", embedder.calls.Load())
	}
	if s.CacheSize() != 0 {
		t.Errorf("CacheSize() = %d, want 0", s.CacheSize())
	}
}

func TestSearchCacheTTLExpiry(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{1, 0, 0}}
	s := New(embedder, seedStore(t))
	req := SearchRequest{Query: "expiring", TopK: 3, UseCache: true, CacheTTL: 10 * time.Millisecond}

	if _, err := s.Search(context.Background(), req); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	resp, err := s.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search() after expiry error = %v", err)
	}
	if resp.CacheHit {
		t.Error("expired entry served as a cache hit")
	}
	if embedder.calls.Load() != 2 {
		t.Errorf("embedder called %d times, want 2", embedder.calls.Load())
	}
}

func TestSearchDistinctRequestsDistinctKeys(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{1, 0, 0}}
	s := New(embedder, seedStore(t))

	reqs := []SearchRequest{
		{Query: "alpha", TopK: 3, UseCache: true},
		{Query: "alpha", TopK: 5, UseCache: true},
		{Query: "alpha", Context: "different", TopK: 3, UseCache: true},
	}
	for _, req := range reqs {
		if _, err := s.Search(context.Background(), req); err != nil {
			t.Fatalf("Search(%+v) error = %v", req, err)
		}
	}
	if s.CacheSize() != 3 {
		t.Errorf("CacheSize() = %d, want 3 distinct entries", s.CacheSize())
	}
}

func TestSearchZeroVectorQuery(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{0, 0, 0}}
	s := New(embedder, seedStore(t))

	resp, err := s.Search(context.Background(), SearchRequest{Query: "nothing tokenizable"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Matches) != 0 {
		t.Errorf("len(Matches) = %d, want 0 for a zero-vector query", len(resp.Matches))
	}
}

func TestSearchEmbedderErrorPassesThrough(t *testing.T) {
	embedder := &stubEmbedder{err: types.ErrNoIdleWorker}
	s := New(embedder, seedStore(t))

	_, err := s.Search(context.Background(), SearchRequest{Query: "busy"})
	if !errors.Is(err, types.ErrNoIdleWorker) {
		t.Fatalf("Search() error = %v, want ErrNoIdleWorker", err)
	}
}

func TestClearCache(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{1, 0, 0}}
	s := New(embedder, seedStore(t))

	if _, err := s.Search(context.Background(), SearchRequest{Query: "q", UseCache: true}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	s.ClearCache()
	if s.CacheSize() != 0 {
		t.Errorf("CacheSize() after clear = %d, want 0", s.CacheSize())
	}
}

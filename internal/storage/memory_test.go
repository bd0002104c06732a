package storage

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func newMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMemorySaveAndGetExactBits(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	// chromem normalizes indexed vectors; the store must still hand the
	// original bits back.
	rec := &Record{
		SymbolID:   "sym",
		Vector:     []float32{3, 4, 0},
		Dimensions: 3,
		Model:      "code-tfidf-v1",
		Confidence: 0.6,
	}
	if err := store.SaveEmbedding(ctx, rec); err != nil {
		t.Fatalf("SaveEmbedding() error = %v", err)
	}

	got, err := store.GetEmbedding(ctx, "sym")
	if err != nil {
		t.Fatalf("GetEmbedding() error = %v", err)
	}
	for i := range rec.Vector {
		if math.Float32bits(got.Vector[i]) != math.Float32bits(rec.Vector[i]) {
			t.Errorf("vector element %d = %v, want %v bit-for-bit", i, got.Vector[i], rec.Vector[i])
		}
	}

	// Mutating the returned copy must not affect the store.
	got.Vector[0] = 99
	again, _ := store.GetEmbedding(ctx, "sym")
	if again.Vector[0] != 3 {
		t.Error("GetEmbedding returned a shared slice")
	}
}

func TestMemoryZeroVector(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	rec := &Record{SymbolID: "empty", Vector: []float32{0, 0, 0}, Dimensions: 3, Model: "m"}
	if err := store.SaveEmbedding(ctx, rec); err != nil {
		t.Fatalf("SaveEmbedding(zero) error = %v", err)
	}

	got, err := store.GetEmbedding(ctx, "empty")
	if err != nil {
		t.Fatalf("GetEmbedding(zero) error = %v", err)
	}
	if VectorNorm(got.Vector) != 0 {
		t.Errorf("stored vector = %v, want zero", got.Vector)
	}

	// A zero-norm query yields no matches, not an error.
	matches, err := store.SearchSimilar(ctx, []float32{0, 0, 0}, 5)
	if err != nil {
		t.Fatalf("SearchSimilar(zero) error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("len(matches) = %d, want 0", len(matches))
	}
}

// Replacing a non-zero vector with a zero one must also evict the old
// document, or search would keep ranking the stale vector.
func TestMemoryZeroVectorReplacementEvictsOld(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	vectors := map[string][]float32{
		"retired": {1, 0, 0},
		"keeper":  {0.8, 0.2, 0},
	}
	for id, vec := range vectors {
		rec := &Record{SymbolID: id, Vector: vec, Dimensions: 3, Model: "m"}
		if err := store.SaveEmbedding(ctx, rec); err != nil {
			t.Fatalf("SaveEmbedding(%s) error = %v", id, err)
		}
	}

	zero := &Record{SymbolID: "retired", Vector: []float32{0, 0, 0}, Dimensions: 3, Model: "m"}
	if err := store.SaveEmbedding(ctx, zero); err != nil {
		t.Fatalf("SaveEmbedding(zero replacement) error = %v", err)
	}

	got, err := store.GetEmbedding(ctx, "retired")
	if err != nil {
		t.Fatalf("GetEmbedding() error = %v", err)
	}
	if VectorNorm(got.Vector) != 0 {
		t.Errorf("stored vector = %v, want zero", got.Vector)
	}

	matches, err := store.SearchSimilar(ctx, []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("SearchSimilar() error = %v", err)
	}
	for _, m := range matches {
		if m.SymbolID == "retired" {
			t.Errorf("stale vector for %q still ranked (score %v)", m.SymbolID, m.Score)
		}
	}
	if len(matches) == 0 || matches[0].SymbolID != "keeper" {
		t.Errorf("matches = %v, want keeper ranked first", matches)
	}
}

func TestMemoryDeleteAndCount(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		rec := &Record{SymbolID: id, Vector: []float32{1, 0}, Dimensions: 2, Model: "m"}
		if err := store.SaveEmbedding(ctx, rec); err != nil {
			t.Fatalf("SaveEmbedding(%s) error = %v", id, err)
		}
	}
	count, _ := store.CountEmbeddings(ctx)
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	if err := store.DeleteEmbedding(ctx, "a"); err != nil {
		t.Fatalf("DeleteEmbedding() error = %v", err)
	}
	if _, err := store.GetEmbedding(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetEmbedding(deleted) error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteEmbedding(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteEmbedding(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMemorySearchSimilar(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	vectors := map[string][]float32{
		"exact":      {1, 0, 0},
		"close":      {0.9, 0.1, 0},
		"orthogonal": {0, 1, 0},
	}
	for id, vec := range vectors {
		rec := &Record{SymbolID: id, Vector: vec, Dimensions: 3, Model: "m"}
		if err := store.SaveEmbedding(ctx, rec); err != nil {
			t.Fatalf("SaveEmbedding(%s) error = %v", id, err)
		}
	}

	matches, err := store.SearchSimilar(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("SearchSimilar() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}
	if matches[0].SymbolID != "exact" || matches[1].SymbolID != "close" {
		t.Errorf("match order = %s, %s, want exact, close", matches[0].SymbolID, matches[1].SymbolID)
	}
}

func TestMemorySearchDimensionMismatch(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	rec := &Record{SymbolID: "sym", Vector: []float32{1, 0, 0}, Dimensions: 3, Model: "m"}
	if err := store.SaveEmbedding(ctx, rec); err != nil {
		t.Fatalf("SaveEmbedding() error = %v", err)
	}

	matches, err := store.SearchSimilar(ctx, []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("SearchSimilar(mismatched) error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("len(matches) = %d, want 0 for mismatched dimensions", len(matches))
	}
}

// Both backends must rank the same corpus identically for the same
// query, scores aside.
func TestStoresAgreeOnOrdering(t *testing.T) {
	ctx := context.Background()
	sqlStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "parity.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer sqlStore.Close()
	memStore := newMemoryStore(t)

	vectors := map[string][]float32{
		"alpha": {0.9, 0.1, 0.0, 0.2},
		"beta":  {0.1, 0.9, 0.2, 0.0},
		"gamma": {0.5, 0.5, 0.5, 0.5},
		"delta": {0.0, 0.1, 0.9, 0.3},
	}
	for id, vec := range vectors {
		rec := &Record{SymbolID: id, Vector: vec, Dimensions: 4, Model: "m"}
		if err := sqlStore.SaveEmbedding(ctx, rec); err != nil {
			t.Fatalf("sqlite SaveEmbedding(%s) error = %v", id, err)
		}
		if err := memStore.SaveEmbedding(ctx, rec); err != nil {
			t.Fatalf("memory SaveEmbedding(%s) error = %v", id, err)
		}
	}

	query := []float32{0.8, 0.2, 0.1, 0.1}
	fromSQL, err := sqlStore.SearchSimilar(ctx, query, 4)
	if err != nil {
		t.Fatalf("sqlite SearchSimilar() error = %v", err)
	}
	fromMem, err := memStore.SearchSimilar(ctx, query, 4)
	if err != nil {
		t.Fatalf("memory SearchSimilar() error = %v", err)
	}

	if len(fromSQL) != len(fromMem) {
		t.Fatalf("result sizes differ: %d vs %d", len(fromSQL), len(fromMem))
	}
	for i := range fromSQL {
		if fromSQL[i].SymbolID != fromMem[i].SymbolID {
			t.Errorf("rank %d: sqlite=%s memory=%s", i, fromSQL[i].SymbolID, fromMem[i].SymbolID)
		}
	}
}

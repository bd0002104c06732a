package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/philippgille/chromem-go"
)

// MemoryStore implements VectorStore in memory, backed by chromem-go
// for similarity search. Nothing is persisted; intended for tests and
// ephemeral mode.
//
// chromem normalizes vectors internally, so MemoryStore keeps its own
// record map to round-trip the exact vector bits through GetEmbedding.
type MemoryStore struct {
	db         *chromem.DB
	collection *chromem.Collection

	mu      sync.RWMutex
	records map[string]*Record
	dims    int // dimensionality of the first indexed vector
}

// NewMemoryStore creates an empty in-memory vector store.
func NewMemoryStore() (*MemoryStore, error) {
	db := chromem.NewDB()
	collection, err := db.GetOrCreateCollection("embeddings", nil, rejectExternalEmbedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	return &MemoryStore{
		db:         db,
		collection: collection,
		records:    make(map[string]*Record),
	}, nil
}

// rejectExternalEmbedding is the collection's embedding function. The
// store only accepts precomputed vectors, so it must never be called.
func rejectExternalEmbedding(context.Context, string) ([]float32, error) {
	return nil, errors.New("memory store only accepts precomputed vectors")
}

// SaveEmbedding upserts one record per symbol. Re-saving an identical
// vector is a no-op.
func (m *MemoryStore) SaveEmbedding(ctx context.Context, rec *Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	hash := VectorHash(rec.Vector)
	if existing, ok := m.records[rec.SymbolID]; ok {
		if existing.Dimensions == rec.Dimensions && VectorHash(existing.Vector) == hash {
			return nil
		}
	}

	// chromem rejects zero vectors (they cannot be normalized); keep
	// them only in the record map. A zero vector replacing a non-zero
	// one must also evict the old collection document, or search would
	// keep ranking the stale vector.
	if VectorNorm(rec.Vector) > 0 {
		doc := chromem.Document{
			ID:        rec.SymbolID,
			Content:   rec.SymbolID,
			Embedding: append([]float32(nil), rec.Vector...),
			Metadata:  map[string]string{"model": rec.Model},
		}
		if err := m.collection.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("failed to add document: %w", err)
		}
		if m.dims == 0 {
			m.dims = rec.Dimensions
		}
	} else if existing, ok := m.records[rec.SymbolID]; ok && VectorNorm(existing.Vector) > 0 {
		if err := m.collection.Delete(ctx, nil, nil, rec.SymbolID); err != nil {
			return fmt.Errorf("failed to delete stale document: %w", err)
		}
	}

	stored := &Record{
		SymbolID:   rec.SymbolID,
		Vector:     append([]float32(nil), rec.Vector...),
		Dimensions: rec.Dimensions,
		Model:      rec.Model,
		Confidence: rec.Confidence,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if existing, ok := m.records[rec.SymbolID]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	m.records[rec.SymbolID] = stored
	return nil
}

// GetEmbedding returns a copy of the stored record or ErrNotFound.
func (m *MemoryStore) GetEmbedding(_ context.Context, symbolID string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[symbolID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRecord(rec), nil
}

// ListEmbeddings returns copies of all records ordered by symbol id.
func (m *MemoryStore) ListEmbeddings(context.Context) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*Record, 0, len(m.records))
	for _, rec := range m.records {
		records = append(records, copyRecord(rec))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].SymbolID < records[j].SymbolID
	})
	return records, nil
}

// DeleteEmbedding removes a symbol's embedding, ErrNotFound if absent.
func (m *MemoryStore) DeleteEmbedding(ctx context.Context, symbolID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[symbolID]; !ok {
		return ErrNotFound
	}
	delete(m.records, symbolID)
	if err := m.collection.Delete(ctx, nil, nil, symbolID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// CountEmbeddings returns the number of stored embeddings.
func (m *MemoryStore) CountEmbeddings(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// SearchSimilar ranks stored vectors by cosine similarity via chromem.
// A zero-norm query yields an empty result set, not an error.
func (m *MemoryStore) SearchSimilar(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if VectorNorm(vector) == 0 {
		return []Match{}, nil
	}

	m.mu.RLock()
	count := m.collection.Count()
	dims := m.dims
	m.mu.RUnlock()

	if count == 0 || (dims != 0 && len(vector) != dims) {
		return []Match{}, nil
	}
	if topK <= 0 || topK > count {
		topK = count
	}

	results, err := m.collection.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("similarity query failed: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, res := range results {
		matches = append(matches, Match{SymbolID: res.ID, Score: float64(res.Similarity)})
	}
	return matches, nil
}

// Close releases the in-memory state.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]*Record)
	return nil
}

func copyRecord(rec *Record) *Record {
	out := *rec
	out.Vector = append([]float32(nil), rec.Vector...)
	return &out
}

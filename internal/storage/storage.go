package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested embedding doesn't exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRecord is returned when a record is missing required fields.
	ErrInvalidRecord = errors.New("invalid embedding record")
)

// Record is one persisted embedding: the vector produced for a symbol
// plus the metadata needed to interpret it.
type Record struct {
	SymbolID   string
	Vector     []float32
	Dimensions int
	Model      string
	Confidence float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks that a record can be persisted.
func (r *Record) Validate() error {
	if r == nil || r.SymbolID == "" {
		return ErrInvalidRecord
	}
	if r.Dimensions != len(r.Vector) {
		return ErrInvalidRecord
	}
	return nil
}

// Match is one ranked result from a similarity search.
type Match struct {
	SymbolID string  `json:"symbol_id"`
	Score    float64 `json:"score"`
}

// VectorStore persists embeddings and ranks them by cosine similarity.
// Implementations: SQLiteStore (durable, dual-driver) and MemoryStore
// (chromem-backed, ephemeral).
type VectorStore interface {
	// SaveEmbedding upserts one record per symbol. Re-saving an
	// identical vector is a cheap no-op.
	SaveEmbedding(ctx context.Context, rec *Record) error
	GetEmbedding(ctx context.Context, symbolID string) (*Record, error)
	ListEmbeddings(ctx context.Context) ([]*Record, error)
	DeleteEmbedding(ctx context.Context, symbolID string) error
	CountEmbeddings(ctx context.Context) (int, error)

	// SearchSimilar ranks stored vectors against the query vector by
	// cosine similarity, best first, returning at most topK matches.
	// Vectors of mismatched dimensionality are skipped, not errors.
	SearchSimilar(ctx context.Context, vector []float32, topK int) ([]Match, error)

	Close() error
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteStore implements VectorStore backed by SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings.
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// NewSQLiteStore opens (or creates) a SQLite-backed vector store and
// applies pending migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveEmbedding upserts one record per symbol. When the stored vector
// already has the same dimension and content hash the write is skipped.
func (s *SQLiteStore) SaveEmbedding(ctx context.Context, rec *Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	hash := VectorHash(rec.Vector)

	var existingDims int
	var existingHash string
	err := s.db.QueryRowContext(ctx,
		"SELECT dimensions, vector_hash FROM embeddings WHERE symbol_id = ?",
		rec.SymbolID).Scan(&existingDims, &existingHash)
	if err == nil && existingDims == rec.Dimensions && existingHash == hash {
		return nil
	}
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to check existing embedding: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO embeddings (symbol_id, vector, dimensions, model, confidence, vector_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol_id) DO UPDATE SET
			vector = excluded.vector,
			dimensions = excluded.dimensions,
			model = excluded.model,
			confidence = excluded.confidence,
			vector_hash = excluded.vector_hash,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.SymbolID, SerializeVector(rec.Vector), rec.Dimensions,
		rec.Model, rec.Confidence, hash, now, now)
	if err != nil {
		return fmt.Errorf("failed to save embedding: %w", err)
	}
	return nil
}

// GetEmbedding returns the stored record for a symbol or ErrNotFound.
func (s *SQLiteStore) GetEmbedding(ctx context.Context, symbolID string) (*Record, error) {
	query := `
		SELECT symbol_id, vector, dimensions, model, confidence, created_at, updated_at
		FROM embeddings WHERE symbol_id = ?
	`
	rec := &Record{}
	var blob []byte
	err := s.db.QueryRowContext(ctx, query, symbolID).Scan(
		&rec.SymbolID, &blob, &rec.Dimensions, &rec.Model,
		&rec.Confidence, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}
	rec.Vector = DeserializeVector(blob)
	return rec, nil
}

// ListEmbeddings returns all stored records ordered by symbol id.
func (s *SQLiteStore) ListEmbeddings(ctx context.Context) ([]*Record, error) {
	query := `
		SELECT symbol_id, vector, dimensions, model, confidence, created_at, updated_at
		FROM embeddings ORDER BY symbol_id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*Record
	for rows.Next() {
		rec := &Record{}
		var blob []byte
		if err := rows.Scan(&rec.SymbolID, &blob, &rec.Dimensions, &rec.Model,
			&rec.Confidence, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		rec.Vector = DeserializeVector(blob)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteEmbedding removes a symbol's embedding, ErrNotFound if absent.
func (s *SQLiteStore) DeleteEmbedding(ctx context.Context, symbolID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM embeddings WHERE symbol_id = ?", symbolID)
	if err != nil {
		return fmt.Errorf("failed to delete embedding: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountEmbeddings returns the number of stored embeddings.
func (s *SQLiteStore) CountEmbeddings(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return count, nil
}

// SearchSimilar loads all candidate vectors and ranks them by cosine
// similarity in Go. Vectors of mismatched dimensionality are skipped.
func (s *SQLiteStore) SearchSimilar(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT symbol_id, vector FROM embeddings")
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]candidate, 0, 256)
	for rows.Next() {
		var symbolID string
		var blob []byte
		if err := rows.Scan(&symbolID, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		stored := DeserializeVector(blob)
		if len(stored) != len(vector) {
			continue
		}
		candidates = append(candidates, candidate{
			symbolID: symbolID,
			score:    CosineSimilarity(vector, stored),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rankCandidates(candidates, topK), nil
}

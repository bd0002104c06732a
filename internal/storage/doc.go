// Package storage persists embedding vectors and ranks them by cosine
// similarity.
//
// Two VectorStore implementations are provided:
//
//   - SQLiteStore: durable storage with versioned migrations and a
//     dual-driver build (mattn/go-sqlite3 under the sqlite_cgo tag,
//     modernc.org/sqlite otherwise).
//   - MemoryStore: chromem-go backed, ephemeral; used by tests and the
//     memory store mode.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStore("embeddings.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.SaveEmbedding(ctx, &storage.Record{
//	    SymbolID:   "auth.Login",
//	    Vector:     result.Vector,
//	    Dimensions: result.Dimensions,
//	    Model:      result.Model,
//	    Confidence: result.Confidence,
//	})
//
//	matches, err := store.SearchSimilar(ctx, queryVector, 10)
//
// # Vector Serialization
//
// Vectors are stored as little-endian float32 blobs; SerializeVector
// and DeserializeVector round-trip the bits exactly. Saves are
// idempotent per symbol: a re-save with an identical vector (same
// dimension and content hash) is detected and skipped.
//
// # Schema Migrations
//
// The SQLite schema is versioned with semantic versions; pending
// migrations are applied on open and can be rolled back one at a time
// with RollbackMigration.
package storage

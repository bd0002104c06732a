package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/anortham/miller-embeddings/internal/config"
	"github.com/anortham/miller-embeddings/internal/engine"
	"github.com/anortham/miller-embeddings/internal/pool"
	"github.com/anortham/miller-embeddings/internal/searcher"
	"github.com/anortham/miller-embeddings/internal/storage"
	"github.com/anortham/miller-embeddings/pkg/types"
)

// Service wires the worker pool, the vector store, and the searcher
// into one embedding backend. It owns their lifecycles: Start brings
// the pool up, Close drains and tears everything down.
type Service struct {
	cfg      *config.Config
	store    storage.VectorStore
	pool     *pool.Pool
	searcher *searcher.Searcher
	logger   *slog.Logger

	vocabSize int
}

// Stats is a point-in-time snapshot across the pool and the store.
type Stats struct {
	Pool             types.PoolStats `json:"pool"`
	State            string          `json:"state"`
	StoredEmbeddings int             `json:"stored_embeddings"`
	VocabularySize   int             `json:"vocabulary_size"`
	CachedSearches   int             `json:"cached_searches"`
	StorageBackend   string          `json:"storage_backend"`
}

// Health reports whether each half of the backend is responsive.
type Health struct {
	Healthy bool   `json:"healthy"`
	Pool    bool   `json:"pool"`
	Store   bool   `json:"store"`
	State   string `json:"state"`
}

// New builds a service from configuration. The pool is constructed but
// not initialized; call Start (or Train) before queueing work.
func New(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
	s.pool = pool.New(s.poolConfig(nil), &persistHooks{store: store, logger: logger})
	s.searcher = searcher.New(s.pool, store)
	return s, nil
}

func openStore(cfg *config.Config) (storage.VectorStore, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return storage.NewMemoryStore()
	case config.StoreSQLite:
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		return storage.NewSQLiteStore(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Store)
	}
}

func (s *Service) poolConfig(vocab *engine.Vocabulary) pool.Config {
	return pool.Config{
		Workers:       s.cfg.Workers,
		MaxQueueSize:  s.cfg.MaxQueueSize,
		InitTimeout:   s.cfg.InitTimeout,
		WorkerTimeout: s.cfg.WorkerTimeout,
		QueryTimeout:  s.cfg.QueryTimeout,
		Engine:        s.engineConfig(),
		Vocabulary:    vocab,
	}
}

func (s *Service) engineConfig() engine.Config {
	return engine.Config{
		MinDocFreq:  s.cfg.MinDocFreq,
		MaxDocFreq:  s.cfg.MaxDocFreq,
		MaxFeatures: s.cfg.MaxFeatures,
	}
}

// Start initializes the worker pool. Workers come up with empty
// vocabularies until Train has run.
func (s *Service) Start(ctx context.Context) error {
	if err := s.pool.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize pool: %w", err)
	}
	s.logger.Info("embedding service started", "storage", storage.BuildMode, "store", s.cfg.Store)
	return nil
}

// Train builds a shared vocabulary from the document corpus and
// recycles the pool so every worker picks it up. Queued tasks from the
// previous incarnation are dropped; callers should train before
// indexing or re-submit afterwards.
func (s *Service) Train(ctx context.Context, docs map[string]string) error {
	if len(docs) == 0 {
		return fmt.Errorf("training corpus is empty")
	}

	vocab := engine.BuildVocabulary(docs, s.engineConfig())
	s.logger.Info("vocabulary built", "documents", len(docs), "terms", vocab.Size())

	if st := s.pool.State(); st == pool.StateReady || st == pool.StateInitializing {
		s.pool.Terminate()
	}
	if err := s.pool.SetVocabulary(vocab); err != nil {
		return err
	}
	if err := s.pool.Initialize(ctx); err != nil {
		return fmt.Errorf("reinitialize pool: %w", err)
	}
	s.vocabSize = vocab.Size()
	s.searcher.ClearCache()
	return nil
}

// IndexSymbol queues one symbol for background embedding and returns
// the task ID. The vector lands in the store via the completion hook.
func (s *Service) IndexSymbol(symbolID, code, symbolContext string, priority types.Priority) (string, error) {
	return s.pool.QueueEmbedding(symbolID, code, symbolContext, priority)
}

// IndexSymbols queues a batch of symbols and returns the task IDs that
// were accepted, in input order. Not all-or-nothing: members enqueued
// before the queue filled stay queued, and the error reports how many
// were rejected.
func (s *Service) IndexSymbols(items []types.BatchItem, priority types.Priority) ([]string, error) {
	return s.pool.QueueBatch(items, priority)
}

// Query embeds the query text on the bypass path and ranks stored
// vectors against it.
func (s *Service) Query(ctx context.Context, query, queryContext string, topK int, useCache bool) (*searcher.SearchResponse, error) {
	return s.searcher.Search(ctx, searcher.SearchRequest{
		Query:    query,
		Context:  queryContext,
		TopK:     topK,
		UseCache: useCache,
	})
}

// EmbedQuery exposes the raw bypass path for callers that rank
// externally.
func (s *Service) EmbedQuery(ctx context.Context, query, queryContext string) (*types.EmbeddingResult, error) {
	return s.pool.EmbedQuery(ctx, query, queryContext)
}

// WaitForCompletion blocks until all queued and in-flight tasks settle
// or ctx expires.
func (s *Service) WaitForCompletion(ctx context.Context) error {
	return s.pool.WaitForCompletion(ctx)
}

// GetStats snapshots the pool counters and the store size.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	count, err := s.store.CountEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("count embeddings: %w", err)
	}
	return &Stats{
		Pool:             s.pool.GetStats(),
		State:            s.pool.State().String(),
		StoredEmbeddings: count,
		VocabularySize:   s.vocabSize,
		CachedSearches:   s.searcher.CacheSize(),
		StorageBackend:   storage.DriverName,
	}, nil
}

// HealthCheck probes every worker and touches the store.
func (s *Service) HealthCheck(ctx context.Context) *Health {
	poolOK := s.pool.HealthCheck(ctx)
	_, storeErr := s.store.CountEmbeddings(ctx)
	storeOK := storeErr == nil
	return &Health{
		Healthy: poolOK && storeOK,
		Pool:    poolOK,
		Store:   storeOK,
		State:   s.pool.State().String(),
	}
}

// Close drains in-flight work for up to DrainTimeout, terminates the
// pool, and closes the store.
func (s *Service) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.DrainTimeout)
	defer cancel()
	if err := s.pool.WaitForCompletion(ctx); err != nil {
		s.logger.Warn("shutdown drain incomplete", "error", err)
	}
	s.pool.Terminate()
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	s.logger.Info("embedding service stopped")
	return nil
}

package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/anortham/miller-embeddings/internal/storage"
	"github.com/anortham/miller-embeddings/pkg/types"
)

// DefaultTopK is the result limit applied when a request leaves TopK unset.
const DefaultTopK = 10

// DefaultCacheTTL is the cache entry lifetime applied when a request
// enables caching without a TTL.
const DefaultCacheTTL = 5 * time.Minute

// QueryEmbedder is the pool surface the searcher needs: the low-latency
// query path. It may reject when no worker is idle.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query, queryContext string) (*types.EmbeddingResult, error)
}

// SearchRequest contains parameters for a search operation.
type SearchRequest struct {
	Query    string
	Context  string
	TopK     int
	UseCache bool
	CacheTTL time.Duration
}

// SearchResponse contains ranked matches and query metadata.
type SearchResponse struct {
	Matches    []storage.Match
	Confidence float64 // confidence of the query embedding
	Duration   time.Duration
	CacheHit   bool
}

// cacheEntry is a cached response with its expiration time.
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher embeds queries through the pool's query path and ranks
// stored vectors by cosine similarity.
type Searcher struct {
	embedder QueryEmbedder
	store    storage.VectorStore
	cache    *lru.Cache[[32]byte, *cacheEntry]
}

// New creates a Searcher with a bounded response cache.
func New(embedder QueryEmbedder, store storage.VectorStore) *Searcher {
	// 1000 entries; LRU evicts the least recently used beyond that.
	cache, err := lru.New[[32]byte, *cacheEntry](1000)
	if err != nil {
		// Unreachable with a positive size.
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}
	return &Searcher{
		embedder: embedder,
		store:    store,
		cache:    cache,
	}
}

// Search embeds the query and ranks stored vectors against it. A query
// that embeds to a zero vector still searches and yields an empty
// result set, not an error. Capacity rejections from the query path
// (types.ErrNoIdleWorker, types.ErrQueryTimeout) pass through to the
// caller.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	start := time.Now()

	if req.Query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if req.TopK <= 0 {
		req.TopK = DefaultTopK
	}

	key := cacheKey(req)
	if req.UseCache {
		if cached := s.checkCache(key); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(start)
			return cached, nil
		}
	}

	embedding, err := s.embedder.EmbedQuery(ctx, req.Query, req.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var matches []storage.Match
	if storage.VectorNorm(embedding.Vector) == 0 {
		matches = []storage.Match{}
	} else {
		matches, err = s.store.SearchSimilar(ctx, embedding.Vector, req.TopK)
		if err != nil {
			return nil, fmt.Errorf("similarity search failed: %w", err)
		}
	}

	response := &SearchResponse{
		Matches:    matches,
		Confidence: embedding.Confidence,
		Duration:   time.Since(start),
	}

	if req.UseCache {
		ttl := req.CacheTTL
		if ttl <= 0 {
			ttl = DefaultCacheTTL
		}
		s.cache.Add(key, &cacheEntry{
			response:  response,
			expiresAt: time.Now().Add(ttl),
		})
	}

	return response, nil
}

// checkCache returns a copy of a live cached response, dropping expired
// entries on the way.
func (s *Searcher) checkCache(key [32]byte) *SearchResponse {
	entry, ok := s.cache.Get(key)
	if !ok {
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		s.cache.Remove(key)
		return nil
	}
	copied := *entry.response
	copied.Matches = append([]storage.Match(nil), entry.response.Matches...)
	return &copied
}

// ClearCache empties the response cache.
func (s *Searcher) ClearCache() {
	s.cache.Purge()
}

// CacheSize returns the number of cached responses.
func (s *Searcher) CacheSize() int {
	return s.cache.Len()
}

// cacheKey hashes the request parameters that affect results.
func cacheKey(req SearchRequest) [32]byte {
	return sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%d", req.Query, req.Context, req.TopK)))
}

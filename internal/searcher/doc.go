// Package searcher implements the interactive query path: embed a query
// through the worker pool's low-latency bypass, then rank the persisted
// vectors by cosine similarity.
//
// # Basic Usage
//
//	s := searcher.New(pool, store)
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    Query: "parse configuration file",
//	    TopK:  10,
//	})
//
// # Caching
//
// Responses can be cached in a bounded LRU keyed by a SHA-256 of the
// request parameters. Entries carry a TTL and expire lazily; set
// UseCache per request to opt in, and leave it off to bypass the cache
// entirely.
//
// # Failure Semantics
//
// The query path may reject synchronously when no worker is idle
// (types.ErrNoIdleWorker) or when the query-path timeout fires
// (types.ErrQueryTimeout); both pass through unchanged. A query that
// embeds to a zero vector is not an error: it returns an empty result
// set with zero confidence.
package searcher

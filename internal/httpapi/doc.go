// Package httpapi serves the embedding backend over HTTP: background
// indexing, rate-limited semantic search, vocabulary training, stats,
// and a health probe.
package httpapi

// Package service composes the embedding backend: configuration in,
// a trained worker pool, a persistent vector store, and a cached
// search path out. Both the HTTP daemon and the MCP server sit on top
// of this package.
package service

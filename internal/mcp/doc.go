// Package mcp implements the Model Context Protocol (MCP) server for
// the embedding backend.
//
// The server exposes five tools to AI coding assistants:
//   - index_symbols: Queue code symbols for background embedding
//   - search_code: Search indexed symbols with natural language queries
//   - train_vocabulary: Rebuild the shared TF-IDF vocabulary from a corpus
//   - embedding_stats: Query pool counters and store size
//   - health_check: Probe worker and store responsiveness
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// stdout carries the protocol, so all logging goes to stderr.
//
// # Tool: index_symbols
//
// Queue symbols for embedding. The response acknowledges the queue
// insert; vectors land in the store asynchronously unless wait is set:
//
//	Request:
//	{
//	  "name": "index_symbols",
//	  "arguments": {
//	    "symbols": [
//	      {"symbol_id": "auth.go:ValidateToken", "code": "func ValidateToken(...) ..."}
//	    ],
//	    "priority": "high",
//	    "wait": false
//	  }
//	}
//
//	Response:
//	{
//	  "queued": 1,
//	  "task_ids": ["550e8400-..."],
//	  "priority": "high"
//	}
//
// # Tool: search_code
//
// Embed the query on the pool's bypass path and rank stored vectors:
//
//	Request:
//	{
//	  "name": "search_code",
//	  "arguments": {
//	    "query": "token validation",
//	    "limit": 10
//	  }
//	}
//
//	Response:
//	{
//	  "matches": [{"symbol_id": "auth.go:ValidateToken", "score": 0.83}],
//	  "total": 1,
//	  "confidence": 0.8,
//	  "cache_hit": false
//	}
//
// A saturated queue surfaces as error code -32001 so clients can back
// off and retry; an uninitialized pool is -32002.
package mcp

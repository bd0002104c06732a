package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/anortham/miller-embeddings/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeQueueFull     = -32001 // Embedding queue is saturated
	ErrorCodePoolNotReady  = -32002 // Worker pool not initialized
	ErrorCodeEmptyQuery    = -32004 // Query parameter is empty
)

// handleIndexSymbols handles the index_symbols tool invocation
func (s *Server) handleIndexSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	rawSymbols, ok := args["symbols"].([]interface{})
	if !ok || len(rawSymbols) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "symbols parameter is required", map[string]interface{}{
			"param":  "symbols",
			"reason": "missing or empty",
		})
	}

	items := make([]types.BatchItem, 0, len(rawSymbols))
	for i, raw := range rawSymbols {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid symbol entry", map[string]interface{}{
				"index": i,
			})
		}
		symbolID, _ := entry["symbol_id"].(string)
		code, _ := entry["code"].(string)
		if symbolID == "" || code == "" {
			return nil, newMCPError(ErrorCodeInvalidParams, "symbol_id and code are required", map[string]interface{}{
				"index": i,
			})
		}
		symbolContext, _ := entry["context"].(string)
		items = append(items, types.BatchItem{SymbolID: symbolID, Code: code, Context: symbolContext})
	}

	priority := types.ParsePriority(getStringDefault(args, "priority", "normal"))
	wait := getBoolDefault(args, "wait", false)

	taskIDs, err := s.svc.IndexSymbols(items, priority)
	if err != nil {
		return nil, poolError(err)
	}

	if wait {
		if err := s.svc.WaitForCompletion(ctx); err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "wait for completion failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	response := map[string]interface{}{
		"queued":   len(taskIDs),
		"task_ids": taskIDs,
		"priority": string(priority),
		"waited":   wait,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchCode handles the search_code tool invocation
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	queryContext := getStringDefault(args, "context", "")
	noCache := getBoolDefault(args, "no_cache", false)

	resp, err := s.svc.Query(ctx, query, queryContext, limit, !noCache)
	if err != nil {
		return nil, poolError(err)
	}

	matches := make([]map[string]interface{}, len(resp.Matches))
	for i, m := range resp.Matches {
		matches[i] = map[string]interface{}{
			"symbol_id": m.SymbolID,
			"score":     m.Score,
		}
	}

	response := map[string]interface{}{
		"matches":     matches,
		"total":       len(matches),
		"confidence":  resp.Confidence,
		"cache_hit":   resp.CacheHit,
		"duration_ms": resp.Duration.Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleTrainVocabulary handles the train_vocabulary tool invocation
func (s *Server) handleTrainVocabulary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	rawDocs, ok := args["documents"].(map[string]interface{})
	if !ok || len(rawDocs) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "documents parameter is required", map[string]interface{}{
			"param":  "documents",
			"reason": "missing or empty",
		})
	}

	docs := make(map[string]string, len(rawDocs))
	for id, raw := range rawDocs {
		text, ok := raw.(string)
		if !ok {
			return nil, newMCPError(ErrorCodeInvalidParams, "document values must be strings", map[string]interface{}{
				"document": id,
			})
		}
		docs[id] = text
	}

	if err := s.svc.Train(ctx, docs); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "training failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"trained":   true,
		"documents": len(docs),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleEmbeddingStats handles the embedding_stats tool invocation
func (s *Server) handleEmbeddingStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.svc.GetStats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get stats", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"state": stats.State,
		"pool": map[string]interface{}{
			"active_workers":       stats.Pool.ActiveWorkers,
			"queue_size":           stats.Pool.QueueSize,
			"completed":            stats.Pool.Completed,
			"failed":               stats.Pool.Failed,
			"average_task_time_ms": fmt.Sprintf("%.2f", stats.Pool.AverageTaskTime),
			"throughput":           fmt.Sprintf("%.2f", stats.Pool.Throughput),
		},
		"stored_embeddings": stats.StoredEmbeddings,
		"vocabulary_size":   stats.VocabularySize,
		"cached_searches":   stats.CachedSearches,
		"storage_backend":   stats.StorageBackend,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleHealthCheck handles the health_check tool invocation
func (s *Server) handleHealthCheck(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	health := s.svc.HealthCheck(ctx)

	response := map[string]interface{}{
		"healthy": health.Healthy,
		"pool":    health.Pool,
		"store":   health.Store,
		"state":   health.State,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// poolError maps pool sentinels onto MCP error codes.
func poolError(err error) error {
	switch {
	case errors.Is(err, types.ErrQueueFull):
		return newMCPError(ErrorCodeQueueFull, "embedding queue is full", map[string]interface{}{
			"error": err.Error(),
		})
	case errors.Is(err, types.ErrPoolNotReady):
		return newMCPError(ErrorCodePoolNotReady, "worker pool not initialized", map[string]interface{}{
			"error": err.Error(),
		})
	default:
		return newMCPError(ErrorCodeInternalError, "embedding operation failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexSymbolsTool returns the tool definition for index_symbols
func indexSymbolsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_symbols",
		Description: "Queue code symbols for background embedding so they become searchable",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"symbols": map[string]interface{}{
					"type":        "array",
					"description": "Symbols to embed",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"symbol_id": map[string]interface{}{
								"type":        "string",
								"description": "Stable identifier for the symbol (e.g. file:name)",
							},
							"code": map[string]interface{}{
								"type":        "string",
								"description": "Source text of the symbol",
							},
							"context": map[string]interface{}{
								"type":        "string",
								"description": "Optional surrounding context (signature, docs)",
							},
						},
						"required": []string{"symbol_id", "code"},
					},
				},
				"priority": map[string]interface{}{
					"type":        "string",
					"description": "Queue priority for the batch",
					"enum":        []string{"low", "normal", "high"},
					"default":     "normal",
				},
				"wait": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, block until the batch finishes embedding",
					"default":     false,
				},
			},
			Required: []string{"symbols"},
		},
	}
}

// searchCodeTool returns the tool definition for search_code
func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Search indexed symbols with a natural language or keyword query",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"context": map[string]interface{}{
					"type":        "string",
					"description": "Optional context appended to the query before embedding",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"no_cache": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, bypass the search result cache",
					"default":     false,
				},
			},
			Required: []string{"query"},
		},
	}
}

// trainVocabularyTool returns the tool definition for train_vocabulary
func trainVocabularyTool() mcp.Tool {
	return mcp.Tool{
		Name:        "train_vocabulary",
		Description: "Rebuild the shared TF-IDF vocabulary from a document corpus and restart the workers with it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"documents": map[string]interface{}{
					"type":        "object",
					"description": "Corpus keyed by document ID, values are source text",
					"additionalProperties": map[string]interface{}{
						"type": "string",
					},
				},
			},
			Required: []string{"documents"},
		},
	}
}

// embeddingStatsTool returns the tool definition for embedding_stats
func embeddingStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "embedding_stats",
		Description: "Query worker pool counters, store size, and vocabulary size",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// healthCheckTool returns the tool definition for health_check
func healthCheckTool() mcp.Tool {
	return mcp.Tool{
		Name:        "health_check",
		Description: "Probe every worker and the vector store for responsiveness",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

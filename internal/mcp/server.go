package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/anortham/miller-embeddings/internal/config"
	"github.com/anortham/miller-embeddings/internal/service"
)

const (
	// ServerName is the MCP server name
	ServerName = "miller-embeddings"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server around the embedding service.
type Server struct {
	mcp *server.MCPServer
	svc *service.Service
}

// NewServer creates a new MCP server instance backed by a freshly
// started embedding service.
func NewServer(cfg *config.Config) (*Server, error) {
	// stdout carries the protocol, so logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	svc, err := service.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding service: %w", err)
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp: mcpServer,
		svc: svc,
	}
	s.registerTools()
	return s, nil
}

// Serve starts the worker pool, serves MCP on stdio, and tears the
// service down when the transport closes.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.svc.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = s.svc.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexSymbolsTool(), s.handleIndexSymbols)
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	s.mcp.AddTool(trainVocabularyTool(), s.handleTrainVocabulary)
	s.mcp.AddTool(embeddingStatsTool(), s.handleEmbeddingStats)
	s.mcp.AddTool(healthCheckTool(), s.handleHealthCheck)
}

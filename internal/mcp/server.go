// Package mcp exposes the query service over the Model Context Protocol so
// AI agents can ask questions in natural language and inspect the schema.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/askql/askql/internal/executor"
	"github.com/askql/askql/internal/service"
)

// MCPServer wraps the mcp-go server with the query tools. Every tool is
// read-only; the underlying SQL templates never mutate data.
type MCPServer struct {
	svc    *service.QueryService
	exec   *executor.Executor
	logger *slog.Logger
	server *server.MCPServer
}

// NewMCPServer creates an MCPServer pre-loaded with all tools. The returned
// server is ready to serve over stdio or HTTP.
func NewMCPServer(svc *service.QueryService, exec *executor.Executor, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		svc:    svc,
		exec:   exec,
		logger: logger,
	}

	mcpServer := server.NewMCPServer(
		"AskQL Database Query",
		"0.1.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance. Useful for
// advanced configuration or testing.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio starts the MCP server in stdio mode. This is the primary
// integration path for MCP clients that launch the server as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP starts the MCP server in Streamable HTTP mode, listening on
// the given address (e.g. ":3001"). This is suitable for remote MCP clients.
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", "addr", addr)
	return httpServer.Start(addr)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func boolPtr(b bool) *bool {
	return &b
}

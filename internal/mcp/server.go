// ABOUTME: MCP server construction and stdio serving with graceful shutdown
// ABOUTME: Shared by the docqa mcp subcommand and the standalone server binary
package mcp

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/harper/docqa/internal/core"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ServerName is the name reported to MCP clients
const ServerName = "docqa"

// NewServer creates an MCP server with every docqa tool registered
func NewServer(version string, engine *core.Engine, library Library) (*mcpserver.MCPServer, *Handlers) {
	server := mcpserver.NewMCPServer(ServerName, version)
	handlers := RegisterTools(server, engine, library)
	return server, handlers
}

// ServeStdio serves on stdin/stdout until ctx is done or the transport
// fails. Background rebuilds are drained before it returns.
func ServeStdio(ctx context.Context, server *mcpserver.MCPServer, handlers *Handlers) error {
	logger := log.WithPrefix("mcp")
	logger.Info("MCP server starting on stdio")

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		handlers.Shutdown()
		logger.Info("shutdown complete")
		return nil
	case err := <-serverErr:
		handlers.Shutdown()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}

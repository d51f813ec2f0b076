// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Lets LLM agents add documents and ask grounded questions via stdio
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/app"
	"github.com/harper/docqa/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs docqa as an MCP (Model Context Protocol) server over stdio,
letting LLM agents like Claude manage the document library and ask
questions answered only from those documents.

Logs go to stderr; stdout carries the protocol.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  docqa mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "docqa": {
  #       "command": "docqa",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("error closing storage", "err", err)
		}
	}()

	server, handlers := newMCPServer(a)
	return mcp.ServeStdio(ctx, server, handlers)
}

// newMCPServer builds the tool server over the CLI's library and index
func newMCPServer(a *app.App) (*mcpserver.MCPServer, *mcp.Handlers) {
	if !a.Config.HasGenerator() {
		log.Warn("OPENAI_API_KEY not set, answers will quote passages instead of generating")
	}
	return mcp.NewServer(versionInfo.Version, a.Engine, a.Documents())
}

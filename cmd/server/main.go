// ABOUTME: Main entry point for the docqa MCP server with stdio transport
// ABOUTME: Loads configuration, restores the last index and serves all tools
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/harper/docqa/internal/app"
	"github.com/harper/docqa/internal/config"
	"github.com/harper/docqa/internal/mcp"
)

var version = "dev"

func main() {
	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found", "err", err)
	}

	cfg, err := config.LoadFile(os.Getenv("DOCQA_CONFIG"))
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}
	if !cfg.HasGenerator() {
		log.Warn("OPENAI_API_KEY not set, answers will quote passages instead of generating")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal("failed to initialize docqa", "err", err)
	}

	server, handlers := mcp.NewServer(version, a.Engine, a.Documents())
	serveErr := mcp.ServeStdio(ctx, server, handlers)

	if err := a.Close(); err != nil {
		log.Warn("error closing storage", "err", err)
	}
	if serveErr != nil {
		log.Error("server stopped", "err", serveErr)
		stop()
		os.Exit(1)
	}
}

// ABOUTME: Application wiring from configuration to storage, gateways and the engine
// ABOUTME: Shared by the CLI and the MCP server binaries
package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/harper/docqa/internal/config"
	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/llm"
	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/storage"
	"github.com/harper/docqa/internal/storage/sqlite"
)

// App is one wired docqa instance
type App struct {
	Config  *config.Config
	Backend *storage.Backend
	Engine  *core.Engine
	logger  *log.Logger
}

// New opens storage for cfg, builds the engine and restores the persisted snapshot
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend, err := storage.Open(cfg)
	if err != nil {
		return nil, err
	}
	a, err := NewWithBackend(ctx, cfg, backend)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return a, nil
}

// NewWithBackend builds the engine over an already opened backend
func NewWithBackend(ctx context.Context, cfg *config.Config, backend *storage.Backend) (*App, error) {
	embedder, generator, err := Gateways(cfg)
	if err != nil {
		return nil, err
	}

	engine, err := core.NewEngine(EngineConfig(cfg), embedder, generator, backend.Persister, backend.Documents())
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Backend: backend,
		Engine:  engine,
		logger:  log.WithPrefix("app"),
	}

	// A damaged snapshot must not keep the library from opening; the next rebuild replaces it
	if found, err := engine.Restore(ctx); err != nil {
		a.logger.Warn("could not restore persisted snapshot", "err", err)
	} else if found {
		status := engine.Status()
		a.logger.Debug("restored snapshot", "version", status.Version, "chunks", status.ChunkCount)
	}

	return a, nil
}

// Gateways builds the embedding and generation gateways cfg asks for.
// The generator is nil when no OpenAI key is configured.
func Gateways(cfg *config.Config) (core.EmbeddingGateway, core.GenerationGateway, error) {
	var (
		embedder  core.EmbeddingGateway
		generator core.GenerationGateway
	)

	if cfg.OpenAIKey != "" {
		client, err := llm.NewOpenAIClientWithConfig(&llm.ClientConfig{
			APIKey:         cfg.OpenAIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingModel,
			MaxRetries:     cfg.MaxRetries,
			RetryDelay:     cfg.RetryDelay,
			Temperature:    float32(cfg.Temperature),
			MaxTokens:      cfg.MaxTokens,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		generator = client
		if cfg.Embedder == config.EmbedderOpenAI {
			embedder = client
		}
	}

	switch cfg.Embedder {
	case config.EmbedderHash:
		embedder = llm.NewHashEmbedder(cfg.HashDimension)
	case config.EmbedderOpenAI:
		if embedder == nil {
			return nil, nil, models.NewInvalidArgument("embedder %q requires OPENAI_API_KEY", cfg.Embedder)
		}
	default:
		return nil, nil, models.NewInvalidArgument("unknown embedder %q", cfg.Embedder)
	}

	return embedder, generator, nil
}

// EngineConfig maps configuration onto engine tuning
func EngineConfig(cfg *config.Config) core.EngineConfig {
	return core.EngineConfig{
		MaxChunkChars:    cfg.MaxChunkChars,
		OverlapChars:     cfg.OverlapChars,
		TopK:             cfg.TopK,
		MaxContextChars:  cfg.MaxContextChars,
		SnippetChars:     cfg.SnippetChars,
		BuildConcurrency: cfg.BuildConcurrency,
		EmbedBatchSize:   cfg.EmbedBatchSize,
		EmbedRateLimit:   cfg.EmbedRateLimit,
		EmbedBurst:       cfg.EmbedBurst,
		EmbedTimeout:     cfg.EmbedTimeout,
		GenerateTimeout:  cfg.GenerateTimeout,
	}
}

// Documents returns the document library
func (a *App) Documents() *sqlite.DocumentStore {
	return a.Backend.Documents()
}

// Close releases storage
func (a *App) Close() error {
	return a.Backend.Close()
}

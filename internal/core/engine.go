// ABOUTME: Engine wires chunking, building, coordination and retrieval behind one facade
// ABOUTME: Callers rebuild from an explicit document set or from a DocumentSource
package core

import (
	"context"
	"time"

	"github.com/harper/docqa/internal/index"
	"github.com/harper/docqa/internal/models"
)

// EngineConfig collects every tunable the engine needs
type EngineConfig struct {
	MaxChunkChars    int
	OverlapChars     int
	TopK             int
	MaxContextChars  int
	SnippetChars     int
	BuildConcurrency int
	EmbedBatchSize   int
	EmbedRateLimit   float64
	EmbedBurst       int
	EmbedTimeout     time.Duration
	GenerateTimeout  time.Duration
}

// DefaultEngineConfig returns the engine defaults
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxChunkChars:    DefaultMaxChunkChars,
		OverlapChars:     DefaultOverlapChars,
		TopK:             DefaultTopK,
		MaxContextChars:  DefaultMaxContextChars,
		SnippetChars:     index.DefaultSnippetChars,
		BuildConcurrency: DefaultBuildConcurrency,
		EmbedBatchSize:   DefaultEmbedBatchSize,
		EmbedBurst:       1,
		EmbedTimeout:     DefaultEmbedTimeout,
		GenerateTimeout:  DefaultGenerateTimeout,
	}
}

// Engine is the document question answering engine
type Engine struct {
	coord     *SnapshotCoordinator
	retriever *Retriever
	source    DocumentSource
}

// NewEngine creates an Engine. generator, persister and source may be nil.
func NewEngine(cfg EngineConfig, embedder EmbeddingGateway, generator GenerationGateway, persister SnapshotPersister, source DocumentSource) (*Engine, error) {
	if embedder == nil {
		return nil, models.NewInvalidArgument("an embedding gateway is required")
	}

	chunker, err := NewChunkEngine(cfg.MaxChunkChars, cfg.OverlapChars)
	if err != nil {
		return nil, err
	}

	builder := NewIndexBuilder(chunker, embedder, BuilderConfig{
		Concurrency:  cfg.BuildConcurrency,
		BatchSize:    cfg.EmbedBatchSize,
		EmbedTimeout: cfg.EmbedTimeout,
		RateLimit:    cfg.EmbedRateLimit,
		Burst:        cfg.EmbedBurst,
	})
	coord := NewSnapshotCoordinator(builder, persister)
	retriever := NewRetriever(coord, embedder, generator, NewContextHydrator(cfg.MaxContextChars), RetrieverConfig{
		TopK:            cfg.TopK,
		SnippetChars:    cfg.SnippetChars,
		EmbedTimeout:    cfg.EmbedTimeout,
		GenerateTimeout: cfg.GenerateTimeout,
	})

	return &Engine{coord: coord, retriever: retriever, source: source}, nil
}

// Rebuild replaces the active snapshot with one built from docs
func (e *Engine) Rebuild(ctx context.Context, docs []models.Document) (models.RebuildResult, error) {
	return e.coord.Rebuild(ctx, docs)
}

// RebuildFromStore rebuilds from the engine's DocumentSource
func (e *Engine) RebuildFromStore(ctx context.Context) (models.RebuildResult, error) {
	if e.source == nil {
		return models.RebuildResult{}, models.NewInvalidArgument("engine has no document source")
	}
	return e.coord.RebuildFrom(ctx, e.source.ListDocuments)
}

// StartRebuildFromStore begins a background rebuild from the DocumentSource.
// ErrBuildInProgress is returned synchronously if a build is already running.
func (e *Engine) StartRebuildFromStore(ctx context.Context, done func(models.RebuildResult, error)) error {
	if e.source == nil {
		return models.NewInvalidArgument("engine has no document source")
	}
	return e.coord.StartRebuild(ctx, e.source.ListDocuments, done)
}

// Ask answers a question from the active snapshot
func (e *Engine) Ask(ctx context.Context, question string, opts AskOptions) (models.AnswerResult, error) {
	return e.retriever.Answer(ctx, question, opts)
}

// Search ranks chunks for a question without generating
func (e *Engine) Search(ctx context.Context, question string, opts AskOptions) ([]models.SearchResult, error) {
	return e.retriever.Search(ctx, question, opts)
}

// Status describes the active snapshot
func (e *Engine) Status() models.IndexStatus {
	return e.coord.Status()
}

// Restore loads the persisted snapshot, if any
func (e *Engine) Restore(ctx context.Context) (bool, error) {
	return e.coord.RestoreFromPersister(ctx)
}

// Snapshot returns the active snapshot, or nil
func (e *Engine) Snapshot() *index.Snapshot {
	return e.coord.Active()
}

// Import makes the chunks of snap the next active version and persists them
func (e *Engine) Import(ctx context.Context, snap *index.Snapshot) (models.RebuildResult, error) {
	return e.coord.Adopt(ctx, snap)
}

// Install makes snap active unless a newer snapshot already is
func (e *Engine) Install(snap *index.Snapshot) error {
	return e.coord.Restore(snap)
}

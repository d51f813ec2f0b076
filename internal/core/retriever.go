// ABOUTME: Retriever answers questions from the active snapshot
// ABOUTME: Embeds the question, ranks chunks, then generates or falls back to an extractive answer
package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/docqa/internal/index"
	"github.com/harper/docqa/internal/models"
)

// NoEvidenceAnswer is returned when nothing in the active snapshot can be ranked
const NoEvidenceAnswer = "No evidence found in the indexed documents."

// Default retrieval settings
const (
	DefaultTopK            = 5
	DefaultGenerateTimeout = 60 * time.Second
)

// RetrieverConfig tunes retrieval
type RetrieverConfig struct {
	TopK            int
	SnippetChars    int
	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration
}

func (c RetrieverConfig) withDefaults() RetrieverConfig {
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.SnippetChars <= 0 {
		c.SnippetChars = index.DefaultSnippetChars
	}
	if c.EmbedTimeout <= 0 {
		c.EmbedTimeout = DefaultEmbedTimeout
	}
	if c.GenerateTimeout <= 0 {
		c.GenerateTimeout = DefaultGenerateTimeout
	}
	return c
}

// AskOptions narrows a single question
type AskOptions struct {
	// DocumentScope limits retrieval to one document
	DocumentScope string
	// Limit overrides the configured TopK when positive
	Limit int
}

// Retriever runs the question answering pipeline
type Retriever struct {
	coord     *SnapshotCoordinator
	embedder  EmbeddingGateway
	generator GenerationGateway
	hydrator  *ContextHydrator
	cfg       RetrieverConfig
	logger    *log.Logger
}

// NewRetriever creates a Retriever. generator may be nil, in which case every
// answer is extractive.
func NewRetriever(coord *SnapshotCoordinator, embedder EmbeddingGateway, generator GenerationGateway, hydrator *ContextHydrator, cfg RetrieverConfig) *Retriever {
	if hydrator == nil {
		hydrator = NewContextHydrator(DefaultMaxContextChars)
	}
	return &Retriever{
		coord:     coord,
		embedder:  embedder,
		generator: generator,
		hydrator:  hydrator,
		cfg:       cfg.withDefaults(),
		logger:    log.WithPrefix("retriever"),
	}
}

// Answer answers question using only the snapshot active when the call starts
func (r *Retriever) Answer(ctx context.Context, question string, opts AskOptions) (models.AnswerResult, error) {
	if strings.TrimSpace(question) == "" {
		return models.AnswerResult{}, models.ErrInvalidQuery
	}

	lease := r.coord.Acquire()
	defer lease.Release()

	snap := lease.Snapshot()
	if snap == nil || snap.Len() == 0 {
		return noEvidence(snap), nil
	}

	results, err := r.search(ctx, snap, question, opts)
	if err != nil {
		return models.AnswerResult{}, err
	}
	if len(results) == 0 {
		return noEvidence(snap), nil
	}

	answer := models.AnswerResult{
		Sources:         results,
		SnapshotVersion: snap.Version(),
	}

	if text, ok := r.generate(ctx, snap, question, results); ok {
		answer.AnswerText = text
		answer.Generated = true
		return answer, nil
	}

	answer.AnswerText = r.hydrator.Extractive(results)
	return answer, nil
}

// Search ranks chunks for question without generating an answer
func (r *Retriever) Search(ctx context.Context, question string, opts AskOptions) ([]models.SearchResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, models.ErrInvalidQuery
	}

	lease := r.coord.Acquire()
	defer lease.Release()

	snap := lease.Snapshot()
	if snap == nil || snap.Len() == 0 {
		return []models.SearchResult{}, nil
	}
	return r.search(ctx, snap, question, opts)
}

func (r *Retriever) search(ctx context.Context, snap *index.Snapshot, question string, opts AskOptions) ([]models.SearchResult, error) {
	ectx, cancel := context.WithTimeout(ctx, r.cfg.EmbedTimeout)
	defer cancel()

	query, err := r.embedder.Embed(ectx, question)
	if err != nil {
		r.logger.Warn("question embedding failed", "err", err)
		return nil, fmt.Errorf("%w: embedding question: %w", models.ErrRetrievalUnavailable, err)
	}

	k := r.cfg.TopK
	if opts.Limit > 0 {
		k = opts.Limit
	}

	results, err := snap.Search(query, k, index.SearchOptions{
		DocumentScope: opts.DocumentScope,
		SnippetChars:  r.cfg.SnippetChars,
	})
	if err != nil {
		// The embedder no longer matches the snapshot it built
		return nil, fmt.Errorf("%w: %w", models.ErrRetrievalUnavailable, err)
	}
	return results, nil
}

func (r *Retriever) generate(ctx context.Context, snap *index.Snapshot, question string, results []models.SearchResult) (string, bool) {
	if r.generator == nil {
		return "", false
	}

	gctx, cancel := context.WithTimeout(ctx, r.cfg.GenerateTimeout)
	defer cancel()

	text, err := r.generator.Generate(gctx, question, r.hydrator.Hydrate(snap, results))
	if err != nil {
		r.logger.Warn("generation failed, using extractive answer", "err", err)
		return "", false
	}
	if strings.TrimSpace(text) == "" {
		r.logger.Warn("generation returned an empty answer, using extractive answer")
		return "", false
	}
	return text, true
}

func noEvidence(snap *index.Snapshot) models.AnswerResult {
	result := models.AnswerResult{
		AnswerText: NoEvidenceAnswer,
		Sources:    []models.SearchResult{},
		NoEvidence: true,
	}
	if snap != nil {
		result.SnapshotVersion = snap.Version()
	}
	return result
}

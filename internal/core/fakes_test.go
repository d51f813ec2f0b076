// ABOUTME: Test doubles for the embedding and generation gateways
// ABOUTME: Deterministic, in-memory and safe for concurrent use

package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/harper/docqa/internal/index"
	"github.com/harper/docqa/internal/models"
)

// letterEmbedder embeds text as letter frequencies plus a constant bias
// so that no text maps to the zero vector.
type letterEmbedder struct {
	calls atomic.Int64
}

func (e *letterEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	e.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return letterVector(text), nil
}

func letterVector(text string) []float64 {
	vec := make([]float64, 27)
	vec[26] = 0.5
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	return vec
}

// funcEmbedder delegates to fn
type funcEmbedder struct {
	fn func(ctx context.Context, text string) ([]float64, error)
}

func (e funcEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return e.fn(ctx, text)
}

// batchEmbedder supports batches; batchErr makes every batch call fail
type batchEmbedder struct {
	letterEmbedder
	batchErr   error
	batchCalls atomic.Int64
	mu         sync.Mutex
	sizes      []int
}

func (e *batchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	e.batchCalls.Add(1)
	e.mu.Lock()
	e.sizes = append(e.sizes, len(texts))
	e.mu.Unlock()
	if e.batchErr != nil {
		return nil, e.batchErr
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = letterVector(t)
	}
	return out, nil
}

// stubGenerator returns answer or err and records the context it was given
type stubGenerator struct {
	answer  string
	err     error
	mu      sync.Mutex
	context string
}

func (g *stubGenerator) Generate(ctx context.Context, question, context string) (string, error) {
	g.mu.Lock()
	g.context = context
	g.mu.Unlock()
	return g.answer, g.err
}

// memoryPersister keeps the last saved snapshot
type memoryPersister struct {
	mu      sync.Mutex
	saved   *index.Snapshot
	saveErr error
	saves   int
}

func (p *memoryPersister) SaveSnapshot(ctx context.Context, snap *index.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	if p.saveErr != nil {
		return p.saveErr
	}
	p.saved = snap
	return nil
}

func (p *memoryPersister) LoadSnapshot(ctx context.Context) (*index.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saved, nil
}

// staticSource serves a fixed document list
type staticSource struct {
	docs []models.Document
	err  error
}

func (s staticSource) ListDocuments(ctx context.Context) ([]models.Document, error) {
	return s.docs, s.err
}

var errGatewayDown = errors.New("gateway down")

func doc(id, text string) models.Document {
	return models.Document{DocumentID: id, SourceName: id + ".txt", FullText: text}
}

func newTestBuilder(t interface{ Fatalf(string, ...any) }, embedder EmbeddingGateway, maxChars, overlap int, cfg BuilderConfig) *IndexBuilder {
	chunker, err := NewChunkEngine(maxChars, overlap)
	if err != nil {
		t.Fatalf("NewChunkEngine() error = %v", err)
	}
	return NewIndexBuilder(chunker, embedder, cfg)
}

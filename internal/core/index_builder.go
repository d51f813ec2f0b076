// ABOUTME: IndexBuilder turns a document set into a new immutable snapshot
// ABOUTME: Embeds chunks with bounded concurrency, throttling and per-chunk failure recovery
package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/docqa/internal/index"
	"github.com/harper/docqa/internal/models"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Default builder settings
const (
	DefaultBuildConcurrency = 4
	DefaultEmbedBatchSize   = 16
	DefaultEmbedTimeout     = 30 * time.Second
)

// BuilderConfig tunes how chunks are embedded
type BuilderConfig struct {
	// Concurrency bounds in-flight embedding calls
	Concurrency int
	// BatchSize is used only when the embedder implements BatchEmbeddingGateway
	BatchSize int
	// EmbedTimeout bounds each embedding call
	EmbedTimeout time.Duration
	// RateLimit is embedding calls per second; 0 disables throttling
	RateLimit float64
	Burst     int
}

func (c BuilderConfig) withDefaults() BuilderConfig {
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultBuildConcurrency
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultEmbedBatchSize
	}
	if c.EmbedTimeout <= 0 {
		c.EmbedTimeout = DefaultEmbedTimeout
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	return c
}

// BuildReport describes what a build produced besides the snapshot
type BuildReport struct {
	ChunkCount    int
	DocumentCount int
	Warnings      []models.BuildWarning
}

// IndexBuilder chunks and embeds documents into snapshots
type IndexBuilder struct {
	chunker  *ChunkEngine
	embedder EmbeddingGateway
	cfg      BuilderConfig
	limiter  *rate.Limiter
	logger   *log.Logger
	now      func() time.Time
}

// NewIndexBuilder creates an IndexBuilder
func NewIndexBuilder(chunker *ChunkEngine, embedder EmbeddingGateway, cfg BuilderConfig) *IndexBuilder {
	cfg = cfg.withDefaults()

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)
	}

	return &IndexBuilder{
		chunker:  chunker,
		embedder: embedder,
		cfg:      cfg,
		limiter:  limiter,
		logger:   log.WithPrefix("builder"),
		now:      time.Now,
	}
}

// Build chunks and embeds docs into a snapshot with the given version.
// Chunks whose embedding fails are dropped and reported as warnings. The build
// fails only when chunks were produced and none of them could be embedded.
func (b *IndexBuilder) Build(ctx context.Context, docs []models.Document, version uint64) (*index.Snapshot, BuildReport, error) {
	var report BuildReport

	sorted := make([]models.Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].DocumentID < sorted[j].DocumentID })

	var chunks []models.Chunk
	for i := range sorted {
		doc := &sorted[i]
		if err := doc.Validate(); err != nil {
			return nil, report, fmt.Errorf("document %q: %w", doc.DocumentID, err)
		}
		if i > 0 && sorted[i-1].DocumentID == doc.DocumentID {
			return nil, report, models.NewInvalidArgument("duplicate document id %s", doc.DocumentID)
		}
		chunks = append(chunks, b.chunker.Chunk(*doc)...)
	}
	report.ChunkCount = len(chunks)

	b.logger.Debug("embedding chunks", "documents", len(sorted), "chunks", len(chunks), "version", version)

	vectors, failures, err := b.embedAll(ctx, chunks)
	if err != nil {
		return nil, report, err
	}

	embedded := make([]models.EmbeddedChunk, 0, len(chunks))
	dimension := 0
	for i, ch := range chunks {
		reason := failures[i]
		if reason == "" {
			switch vec := vectors[i]; {
			case !usableVector(vec):
				reason = "embedding is empty, zero or not finite"
			case dimension != 0 && len(vec) != dimension:
				reason = fmt.Sprintf("embedding dimension %d does not match %d", len(vec), dimension)
			}
		}
		if reason != "" {
			report.Warnings = append(report.Warnings, models.BuildWarning{
				ChunkID:    ch.ChunkID,
				DocumentID: ch.DocumentID,
				Reason:     reason,
			})
			continue
		}

		if dimension == 0 {
			dimension = len(vectors[i])
		}
		embedded = append(embedded, models.EmbeddedChunk{Chunk: ch, Vector: vectors[i]})
	}

	if len(chunks) > 0 && len(embedded) == 0 {
		return nil, report, fmt.Errorf("%w: all %d chunks failed to embed (first: %s)",
			models.ErrBuildFailed, len(chunks), report.Warnings[0].Reason)
	}

	snap, err := index.NewSnapshot(version, embedded, b.now())
	if err != nil {
		return nil, report, fmt.Errorf("%w: %w", models.ErrBuildFailed, err)
	}
	report.DocumentCount = snap.DocumentCount()

	return snap, report, nil
}

// embedAll returns vectors index-aligned with chunks, plus a failure reason
// for each chunk that could not be embedded. Only cancellation of ctx is an error.
func (b *IndexBuilder) embedAll(ctx context.Context, chunks []models.Chunk) ([][]float64, []string, error) {
	vectors := make([][]float64, len(chunks))
	failures := make([]string, len(chunks))
	if len(chunks) == 0 {
		return vectors, failures, nil
	}

	batcher, canBatch := b.embedder.(BatchEmbeddingGateway)
	step := 1
	if canBatch && b.cfg.BatchSize > 1 {
		step = b.cfg.BatchSize
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)

	for lo := 0; lo < len(chunks); lo += step {
		if gctx.Err() != nil {
			break
		}
		hi := min(lo+step, len(chunks))

		g.Go(func() error {
			if step > 1 {
				if b.embedBatch(gctx, batcher, chunks[lo:hi], vectors[lo:hi]) {
					return nil
				}
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			for i := lo; i < hi; i++ {
				vec, err := b.embedOne(gctx, chunks[i].Text)
				if err != nil {
					if cerr := ctx.Err(); cerr != nil {
						return cerr
					}
					b.logger.Warn("embedding failed", "chunk", chunks[i].ChunkID, "err", err)
					failures[i] = err.Error()
					continue
				}
				vectors[i] = vec
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("build cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("build cancelled: %w", err)
	}
	return vectors, failures, nil
}

// embedBatch fills out from one batch call and reports whether it succeeded
func (b *IndexBuilder) embedBatch(ctx context.Context, batcher BatchEmbeddingGateway, chunks []models.Chunk, out [][]float64) bool {
	if err := b.wait(ctx); err != nil {
		return false
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	cctx, cancel := context.WithTimeout(ctx, b.cfg.EmbedTimeout)
	defer cancel()

	vecs, err := batcher.EmbedBatch(cctx, texts)
	if err == nil && len(vecs) != len(texts) {
		err = fmt.Errorf("batch returned %d vectors for %d texts", len(vecs), len(texts))
	}
	if err != nil {
		b.logger.Warn("batch embedding failed, retrying per chunk",
			"first_chunk", chunks[0].ChunkID, "size", len(chunks), "err", err)
		return false
	}

	copy(out, vecs)
	return true
}

func (b *IndexBuilder) embedOne(ctx context.Context, text string) ([]float64, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, b.cfg.EmbedTimeout)
	defer cancel()

	vec, err := b.embedder.Embed(cctx, text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("embedding timed out after %s", b.cfg.EmbedTimeout)
		}
		return nil, err
	}
	return vec, nil
}

func (b *IndexBuilder) wait(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	return b.limiter.Wait(ctx)
}

// usableVector reports whether vec can be normalized
func usableVector(vec []float64) bool {
	var sum float64
	for _, x := range vec {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
		sum += x * x
	}
	return sum > 0
}

// ABOUTME: Narrow capability interfaces the core depends on
// ABOUTME: Embedding, generation, snapshot persistence and the document source
package core

import (
	"context"

	"github.com/harper/docqa/internal/index"
	"github.com/harper/docqa/internal/models"
)

// EmbeddingGateway turns text into a fixed-length vector
type EmbeddingGateway interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// BatchEmbeddingGateway is implemented by embedders that accept many texts per call.
// The returned slice must be index-aligned with texts.
type BatchEmbeddingGateway interface {
	EmbeddingGateway
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// GenerationGateway writes an answer to question grounded in context
type GenerationGateway interface {
	Generate(ctx context.Context, question, context string) (string, error)
}

// SnapshotPersister saves and restores the active snapshot.
// LoadSnapshot returns (nil, nil) when nothing has been saved yet.
type SnapshotPersister interface {
	SaveSnapshot(ctx context.Context, snap *index.Snapshot) error
	LoadSnapshot(ctx context.Context) (*index.Snapshot, error)
}

// DocumentSource supplies the current document set for a rebuild
type DocumentSource interface {
	ListDocuments(ctx context.Context) ([]models.Document, error)
}

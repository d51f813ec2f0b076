// ABOUTME: Tests for snapshot construction, normalization and leases
// ABOUTME: Verifies dimension checks and that snapshots never share caller memory
package index

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/harper/docqa/internal/models"
)

func embedded(id, docID string, vec ...float64) models.EmbeddedChunk {
	return models.EmbeddedChunk{
		Chunk: models.Chunk{
			ChunkID:    id,
			DocumentID: docID,
			SourceName: docID + ".pdf",
			Text:       "text of " + id,
		},
		Vector: vec,
	}
}

func TestNewSnapshot_Empty(t *testing.T) {
	snap, err := NewSnapshot(1, nil, time.Now())
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}
	if snap.Len() != 0 {
		t.Errorf("Len() = %d, want 0", snap.Len())
	}
	if snap.Dimension() != 0 {
		t.Errorf("Dimension() = %d, want 0", snap.Dimension())
	}
	if snap.Version() != 1 {
		t.Errorf("Version() = %d, want 1", snap.Version())
	}
}

func TestNewSnapshot_NormalizesVectors(t *testing.T) {
	input := []models.EmbeddedChunk{embedded("a", "d1", 3, 4)}
	snap, err := NewSnapshot(1, input, time.Now())
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}

	got := snap.EmbeddedChunks()[0].Vector
	if math.Abs(got[0]-0.6) > 1e-12 || math.Abs(got[1]-0.8) > 1e-12 {
		t.Errorf("Vector = %v, want [0.6 0.8]", got)
	}

	// Caller's slice must be untouched
	if input[0].Vector[0] != 3 {
		t.Errorf("input vector mutated: %v", input[0].Vector)
	}
}

func TestNewSnapshot_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		chunks []models.EmbeddedChunk
	}{
		{"dimension mismatch", []models.EmbeddedChunk{embedded("a", "d", 1, 0), embedded("b", "d", 1, 0, 0)}},
		{"empty vector", []models.EmbeddedChunk{embedded("a", "d")}},
		{"zero vector", []models.EmbeddedChunk{embedded("a", "d", 0, 0)}},
		{"duplicate id", []models.EmbeddedChunk{embedded("a", "d", 1, 0), embedded("a", "d", 0, 1)}},
		{"nan", []models.EmbeddedChunk{embedded("a", "d", math.NaN(), 1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSnapshot(1, tt.chunks, time.Now())
			if !errors.Is(err, models.ErrInvalidArgument) {
				t.Errorf("NewSnapshot() error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestSnapshot_ChunkLookup(t *testing.T) {
	snap, err := NewSnapshot(1, []models.EmbeddedChunk{
		embedded("a", "d1", 1, 0),
		embedded("b", "d2", 0, 1),
	}, time.Now())
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}

	ch, ok := snap.Chunk("b")
	if !ok {
		t.Fatal("Chunk(b) not found")
	}
	if ch.DocumentID != "d2" {
		t.Errorf("DocumentID = %q, want d2", ch.DocumentID)
	}
	if _, ok := snap.Chunk("missing"); ok {
		t.Error("Chunk(missing) should not be found")
	}
	if snap.DocumentCount() != 2 {
		t.Errorf("DocumentCount() = %d, want 2", snap.DocumentCount())
	}
}

func TestSnapshot_EmbeddedChunksIsACopy(t *testing.T) {
	snap, _ := NewSnapshot(1, []models.EmbeddedChunk{embedded("a", "d", 1, 0)}, time.Now())

	out := snap.EmbeddedChunks()
	out[0].Vector[0] = 42
	out[0].Text = "changed"

	again := snap.EmbeddedChunks()
	if again[0].Vector[0] != 1 {
		t.Errorf("snapshot vector mutated through copy: %v", again[0].Vector)
	}
	if again[0].Text != "text of a" {
		t.Errorf("snapshot text mutated through copy: %q", again[0].Text)
	}
}

func TestLease_CountsReaders(t *testing.T) {
	snap, _ := NewSnapshot(1, nil, time.Now())

	var wg sync.WaitGroup
	leases := make([]*Lease, 50)
	for i := range leases {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			leases[i] = snap.Acquire()
		}(i)
	}
	wg.Wait()

	if got := snap.ActiveLeases(); got != 50 {
		t.Errorf("ActiveLeases() = %d, want 50", got)
	}

	for _, l := range leases {
		l.Release()
		l.Release() // second release is a no-op
	}
	if got := snap.ActiveLeases(); got != 0 {
		t.Errorf("ActiveLeases() after release = %d, want 0", got)
	}
}

func TestLease_NilSnapshot(t *testing.T) {
	var snap *Snapshot
	lease := snap.Acquire()
	if lease.Snapshot() != nil {
		t.Error("lease of nil snapshot should hold nil")
	}
	lease.Release()
}

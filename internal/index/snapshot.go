// ABOUTME: Snapshot is an immutable, versioned set of embedded chunks
// ABOUTME: Vectors are unit-normalized once at construction and searched by cosine similarity
package index

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/harper/docqa/internal/models"
)

// DefaultSnippetChars is the snippet length used when SearchOptions leaves it unset
const DefaultSnippetChars = 200

// Snapshot holds one consistent generation of the index. It is never mutated
// after NewSnapshot returns, so any number of goroutines may search it.
type Snapshot struct {
	version   uint64
	dimension int
	builtAt   time.Time
	chunks    []models.EmbeddedChunk
	byID      map[string]int
	documents int

	// leases counts requests currently reading this snapshot
	leases atomic.Int64
}

// NewSnapshot validates the chunks and caches their unit vectors.
// Every vector must share one dimensionality and have a non-zero norm;
// chunk IDs must be unique.
func NewSnapshot(version uint64, chunks []models.EmbeddedChunk, builtAt time.Time) (*Snapshot, error) {
	s := &Snapshot{
		version: version,
		builtAt: builtAt,
		chunks:  make([]models.EmbeddedChunk, len(chunks)),
		byID:    make(map[string]int, len(chunks)),
	}

	docs := make(map[string]struct{})
	for i, ec := range chunks {
		if len(ec.Vector) == 0 {
			return nil, models.NewInvalidArgument("chunk %s has an empty vector", ec.ChunkID)
		}
		if i == 0 {
			s.dimension = len(ec.Vector)
		} else if len(ec.Vector) != s.dimension {
			return nil, models.NewInvalidArgument("chunk %s has dimension %d, snapshot dimension is %d",
				ec.ChunkID, len(ec.Vector), s.dimension)
		}
		if _, dup := s.byID[ec.ChunkID]; dup {
			return nil, models.NewInvalidArgument("duplicate chunk id %s", ec.ChunkID)
		}

		unit, ok := normalize(ec.Vector)
		if !ok {
			return nil, models.NewInvalidArgument("chunk %s has a zero-norm vector", ec.ChunkID)
		}

		s.chunks[i] = models.EmbeddedChunk{Chunk: ec.Chunk, Vector: unit}
		s.byID[ec.ChunkID] = i
		docs[ec.DocumentID] = struct{}{}
	}
	s.documents = len(docs)

	return s, nil
}

// Version returns the snapshot's generation number
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Dimension returns the shared vector length, 0 for an empty snapshot
func (s *Snapshot) Dimension() int {
	return s.dimension
}

// Len returns the number of chunks
func (s *Snapshot) Len() int {
	return len(s.chunks)
}

// DocumentCount returns the number of distinct documents with at least one chunk
func (s *Snapshot) DocumentCount() int {
	return s.documents
}

// BuiltAt returns when the snapshot was constructed
func (s *Snapshot) BuiltAt() time.Time {
	return s.builtAt
}

// Chunk looks up a chunk by ID
func (s *Snapshot) Chunk(chunkID string) (models.Chunk, bool) {
	i, ok := s.byID[chunkID]
	if !ok {
		return models.Chunk{}, false
	}
	return s.chunks[i].Chunk, true
}

// EmbeddedChunks returns a copy of the chunks and their unit vectors, in build order
func (s *Snapshot) EmbeddedChunks() []models.EmbeddedChunk {
	out := make([]models.EmbeddedChunk, len(s.chunks))
	for i, ec := range s.chunks {
		vec := make([]float64, len(ec.Vector))
		copy(vec, ec.Vector)
		out[i] = models.EmbeddedChunk{Chunk: ec.Chunk, Vector: vec}
	}
	return out
}

// ActiveLeases returns how many requests currently hold this snapshot
func (s *Snapshot) ActiveLeases() int64 {
	return s.leases.Load()
}

// Lease is a counted borrow of a snapshot for the duration of one request
type Lease struct {
	snap     *Snapshot
	released atomic.Bool
}

// Acquire borrows the snapshot. A nil snapshot yields a lease whose Snapshot is nil.
func (s *Snapshot) Acquire() *Lease {
	if s != nil {
		s.leases.Add(1)
	}
	return &Lease{snap: s}
}

// Snapshot returns the borrowed snapshot
func (l *Lease) Snapshot() *Snapshot {
	return l.snap
}

// Release ends the borrow. Calling it more than once is harmless.
func (l *Lease) Release() {
	if l.snap != nil && l.released.CompareAndSwap(false, true) {
		l.snap.leases.Add(-1)
	}
}

// normalize returns v scaled to unit length, or false if v has no direction
func normalize(v []float64) ([]float64, bool) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, false
	}

	norm := math.Sqrt(sum)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out, true
}

// ABOUTME: SnapshotStore persists the active index snapshot in a key-value store
// ABOUTME: Chunks are paged across keys so no single value grows without bound
package charm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/harper/docqa/internal/index"
	"github.com/harper/docqa/internal/models"
)

// Key layout
const (
	MetaKey         = "snapshot:meta"
	ChunkPagePrefix = "snapshot:chunks:"
)

// DefaultPageSize is the number of chunks stored per key
const DefaultPageSize = 200

// KV is the subset of the charm client the snapshot store needs
type KV interface {
	Get(key string) ([]byte, error)
	SetMany(entries map[string][]byte) error
	DeleteMany(keys []string) error
	ListKeys(prefix string) ([]string, error)
}

// SnapshotInfo is the metadata record stored under MetaKey. Pages are keyed
// by version and generation, so a record only ever names pages written by
// the same save.
type SnapshotInfo struct {
	Version    uint64    `json:"version"`
	Generation string    `json:"generation"`
	Dimension  int       `json:"dimension"`
	ChunkCount int       `json:"chunk_count"`
	Pages      int       `json:"pages"`
	BuiltAt    time.Time `json:"built_at"`
}

// PageKey returns the key for chunk page n of this save
func (m SnapshotInfo) PageKey(n int) string {
	return fmt.Sprintf("%s%d:%s:%06d", ChunkPagePrefix, m.Version, m.Generation, n)
}

// SnapshotStore saves and loads snapshots through a KV
type SnapshotStore struct {
	kv       KV
	pageSize int
}

// NewSnapshotStore creates a SnapshotStore; pageSize <= 0 uses DefaultPageSize
func NewSnapshotStore(store KV, pageSize int) *SnapshotStore {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &SnapshotStore{kv: store, pageSize: pageSize}
}

// SaveSnapshot writes every page, then the metadata that points at them, then
// removes pages no longer referenced. A save that fails before the metadata
// write leaves the previous snapshot loadable.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snap *index.Snapshot) error {
	chunks := snap.EmbeddedChunks()
	info := SnapshotInfo{
		Version:    snap.Version(),
		Generation: uuid.NewString(),
		Dimension:  snap.Dimension(),
		ChunkCount: len(chunks),
		Pages:      (len(chunks) + s.pageSize - 1) / s.pageSize,
		BuiltAt:    snap.BuiltAt(),
	}

	pages := make(map[string][]byte, info.Pages)
	for p := 0; p < info.Pages; p++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lo := p * s.pageSize
		hi := min(lo+s.pageSize, len(chunks))
		data, err := json.Marshal(chunks[lo:hi])
		if err != nil {
			return fmt.Errorf("failed to marshal chunk page %d: %w", p, err)
		}
		pages[info.PageKey(p)] = data
	}

	meta, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot meta: %w", err)
	}

	if len(pages) > 0 {
		if err := s.kv.SetMany(pages); err != nil {
			return fmt.Errorf("failed to save pages of snapshot %d: %w", info.Version, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.kv.SetMany(map[string][]byte{MetaKey: meta}); err != nil {
		return fmt.Errorf("failed to save snapshot %d: %w", info.Version, err)
	}

	existing, err := s.kv.ListKeys(ChunkPagePrefix)
	if err != nil {
		return fmt.Errorf("failed to list chunk pages: %w", err)
	}
	var stale []string
	for _, key := range existing {
		if _, ok := pages[key]; !ok {
			stale = append(stale, key)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	if err := s.kv.DeleteMany(stale); err != nil {
		return fmt.Errorf("failed to remove stale chunk pages: %w", err)
	}
	return nil
}

// Info returns the stored snapshot metadata without loading chunks, or nil
func (s *SnapshotStore) Info() (*SnapshotInfo, error) {
	keys, err := s.kv.ListKeys(MetaKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot keys: %w", err)
	}
	if !containsKey(keys, MetaKey) {
		return nil, nil
	}

	raw, err := s.kv.Get(MetaKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot meta: %w", err)
	}
	var meta SnapshotInfo
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot meta: %w", err)
	}
	return &meta, nil
}

// LoadSnapshot returns the stored snapshot, or nil if none was saved
func (s *SnapshotStore) LoadSnapshot(ctx context.Context) (*index.Snapshot, error) {
	meta, err := s.Info()
	if err != nil || meta == nil {
		return nil, err
	}

	chunks := make([]models.EmbeddedChunk, 0, meta.ChunkCount)
	for p := 0; p < meta.Pages; p++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := s.kv.Get(meta.PageKey(p))
		if err != nil {
			return nil, fmt.Errorf("failed to read chunk page %d: %w", p, err)
		}
		var page []models.EmbeddedChunk
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("failed to parse chunk page %d: %w", p, err)
		}
		chunks = append(chunks, page...)
	}

	if len(chunks) != meta.ChunkCount {
		return nil, fmt.Errorf("snapshot %d is incomplete: %d of %d chunks", meta.Version, len(chunks), meta.ChunkCount)
	}

	snap, err := index.NewSnapshot(meta.Version, chunks, meta.BuiltAt)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild snapshot %d: %w", meta.Version, err)
	}
	return snap, nil
}

// PageKeys returns the stored chunk page keys in order
func (s *SnapshotStore) PageKeys() ([]string, error) {
	keys, err := s.kv.ListKeys(ChunkPagePrefix)
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func containsKey(keys []string, want string) bool {
	for _, k := range keys {
		if k == want {
			return true
		}
	}
	return false
}

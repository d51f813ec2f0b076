// ABOUTME: Snapshot export and import as flat YAML or JSON records
// ABOUTME: The file extension picks the format so backups stay human-readable
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harper/docqa/internal/index"
	"github.com/harper/docqa/internal/models"
	"gopkg.in/yaml.v3"
)

// SnapshotFile is the on-disk form of an exported snapshot
type SnapshotFile struct {
	Version    uint64                 `json:"version" yaml:"version"`
	Dimension  int                    `json:"dimension" yaml:"dimension"`
	ChunkCount int                    `json:"chunk_count" yaml:"chunk_count"`
	BuiltAt    time.Time              `json:"built_at" yaml:"built_at"`
	ExportedAt time.Time              `json:"exported_at" yaml:"exported_at"`
	Chunks     []models.EmbeddedChunk `json:"chunks" yaml:"chunks"`
}

// Export formats
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// FormatForPath picks the export format from the file extension
func FormatForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", models.NewInvalidArgument("unsupported export format %q (use .yaml, .yml or .json)", filepath.Ext(path))
	}
}

// ExportSnapshot captures snap as a SnapshotFile
func ExportSnapshot(snap *index.Snapshot) *SnapshotFile {
	return &SnapshotFile{
		Version:    snap.Version(),
		Dimension:  snap.Dimension(),
		ChunkCount: snap.Len(),
		BuiltAt:    snap.BuiltAt(),
		ExportedAt: time.Now().UTC(),
		Chunks:     snap.EmbeddedChunks(),
	}
}

// Snapshot validates the records and rebuilds an index snapshot
func (f *SnapshotFile) Snapshot() (*index.Snapshot, error) {
	if f.ChunkCount != len(f.Chunks) {
		return nil, models.NewInvalidArgument("export declares %d chunks but holds %d", f.ChunkCount, len(f.Chunks))
	}
	snap, err := index.NewSnapshot(f.Version, f.Chunks, f.BuiltAt)
	if err != nil {
		return nil, err
	}
	if len(f.Chunks) > 0 && snap.Dimension() != f.Dimension {
		return nil, models.NewInvalidArgument("export declares dimension %d but vectors have %d", f.Dimension, snap.Dimension())
	}
	return snap, nil
}

// WriteSnapshotFile exports snap to path
func WriteSnapshotFile(path string, snap *index.Snapshot) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	// #nosec G304 -- path is provided by the user via CLI
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data := ExportSnapshot(snap)
	switch format {
	case FormatYAML:
		encoder := yaml.NewEncoder(file)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("failed to flush YAML: %w", err)
		}
	default:
		encoder := json.NewEncoder(file)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
	}

	return file.Close()
}

// ReadSnapshotFile imports a snapshot written by WriteSnapshotFile
func ReadSnapshotFile(path string) (*index.Snapshot, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- path is provided by the user via CLI
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}

	var data SnapshotFile
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(raw, &data)
	default:
		err = json.Unmarshal(raw, &data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s export: %w", format, err)
	}

	snap, err := data.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("invalid export %s: %w", path, err)
	}
	return snap, nil
}

// ABOUTME: Tests for snapshot export and import
// ABOUTME: Round-trips YAML and JSON files and rejects malformed exports

package storage

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harper/docqa/internal/index"
	"github.com/harper/docqa/internal/models"
)

func exportFixture(t *testing.T) *index.Snapshot {
	t.Helper()
	snap, err := index.NewSnapshot(9, []models.EmbeddedChunk{
		{
			Chunk:  models.Chunk{ChunkID: "a#00000000", DocumentID: "a", SourceName: "a.pdf", Text: "alpha text", Start: 0, End: 10, PageNumber: 1},
			Vector: []float64{0.1, 0.7, -0.2},
		},
		{
			Chunk:  models.Chunk{ChunkID: "b#00000000", DocumentID: "b", SourceName: "b.txt", Text: "beta: text, with \"quotes\"", Start: 0, End: 25},
			Vector: []float64{1, 0, 0.3333333333333333},
		},
	}, time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}
	return snap
}

func TestSnapshotFileRoundTrip(t *testing.T) {
	for _, name := range []string{"snap.yaml", "snap.yml", "snap.json"} {
		t.Run(name, func(t *testing.T) {
			original := exportFixture(t)
			path := filepath.Join(t.TempDir(), "exports", name)

			if err := WriteSnapshotFile(path, original); err != nil {
				t.Fatalf("WriteSnapshotFile() error = %v", err)
			}
			loaded, err := ReadSnapshotFile(path)
			if err != nil {
				t.Fatalf("ReadSnapshotFile() error = %v", err)
			}

			if loaded.Version() != original.Version() || !loaded.BuiltAt().Equal(original.BuiltAt()) {
				t.Errorf("loaded v%d at %v, want v%d at %v",
					loaded.Version(), loaded.BuiltAt(), original.Version(), original.BuiltAt())
			}
			got, want := loaded.EmbeddedChunks(), original.EmbeddedChunks()
			if len(got) != len(want) {
				t.Fatalf("chunks = %d, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i].Chunk != want[i].Chunk {
					t.Errorf("chunk %d = %+v, want %+v", i, got[i].Chunk, want[i].Chunk)
				}
				for j := range want[i].Vector {
					if math.Abs(got[i].Vector[j]-want[i].Vector[j]) > 1e-12 {
						t.Errorf("chunk %d vector[%d] = %v, want %v", i, j, got[i].Vector[j], want[i].Vector[j])
					}
				}
			}
		})
	}
}

func TestWriteSnapshotFile_YAMLIsReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.yaml")
	if err := WriteSnapshotFile(path, exportFixture(t)); err != nil {
		t.Fatalf("WriteSnapshotFile() error = %v", err)
	}
	raw, _ := os.ReadFile(path)
	for _, want := range []string{"version: 9", "text: alpha text", "source_name: a.pdf"} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("YAML export missing %q", want)
		}
	}
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"out.yaml", FormatYAML, false},
		{"OUT.YML", FormatYAML, false},
		{"dir/out.json", FormatJSON, false},
		{"out.toml", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		got, err := FormatForPath(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("FormatForPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("FormatForPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestReadSnapshotFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	mismatch := filepath.Join(dir, "count.json")
	_ = os.WriteFile(mismatch, []byte(`{"version":1,"dimension":2,"chunk_count":3,"chunks":[]}`), 0600)
	if _, err := ReadSnapshotFile(mismatch); !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("count mismatch error = %v, want ErrInvalidArgument", err)
	}

	badDim := filepath.Join(dir, "dim.json")
	_ = os.WriteFile(badDim, []byte(`{"version":1,"dimension":5,"chunk_count":1,
		"chunks":[{"chunk_id":"a#00000000","document_id":"a","text":"x","vector":[1,0]}]}`), 0600)
	if _, err := ReadSnapshotFile(badDim); !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("dimension mismatch error = %v, want ErrInvalidArgument", err)
	}

	garbage := filepath.Join(dir, "garbage.yaml")
	_ = os.WriteFile(garbage, []byte("chunks: [unterminated"), 0600)
	if _, err := ReadSnapshotFile(garbage); err == nil {
		t.Error("ReadSnapshotFile() should fail on malformed YAML")
	}

	if _, err := ReadSnapshotFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("ReadSnapshotFile() should fail on a missing file")
	}
}

// ABOUTME: Tests for snapshot backend selection
// ABOUTME: Uses in-memory SQLite; the charm backend is only checked for its client requirement

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/harper/docqa/internal/config"
	"github.com/harper/docqa/internal/storage/sqlite"
)

func newMemoryStore(t *testing.T) *sqlite.Storage {
	t.Helper()
	store, err := sqlite.NewStorageInMemory()
	if err != nil {
		t.Fatalf("NewStorageInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewBackend(t *testing.T) {
	tests := []struct {
		name          string
		backend       string
		wantName      string
		wantPersister bool
		wantErr       bool
	}{
		{"sqlite", config.BackendSQLite, config.BackendSQLite, true, false},
		{"empty defaults to sqlite", "", config.BackendSQLite, true, false},
		{"none", config.BackendNone, config.BackendNone, false, false},
		{"charm without client", config.BackendCharm, "", false, true},
		{"unknown", "redis", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBackend(tt.backend, newMemoryStore(t), nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewBackend() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if b.Name != tt.wantName {
				t.Errorf("Name = %v, want %v", b.Name, tt.wantName)
			}
			if (b.Persister != nil) != tt.wantPersister {
				t.Errorf("Persister = %v, want present %v", b.Persister, tt.wantPersister)
			}
			if b.Documents() == nil {
				t.Error("Documents() should not be nil")
			}
		})
	}
}

func TestOpen_SQLite(t *testing.T) {
	cfg := config.Defaults()
	cfg.SnapshotBackend = config.BackendSQLite
	cfg.DBPath = filepath.Join(t.TempDir(), "data", "docqa.db")

	b, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = b.Close() }()

	if b.Store.Path() != cfg.DBPath {
		t.Errorf("Path() = %v, want %v", b.Store.Path(), cfg.DBPath)
	}
	snap, err := b.Persister.LoadSnapshot(context.Background())
	if err != nil || snap != nil {
		t.Errorf("LoadSnapshot() = %v, %v, want nil, nil", snap, err)
	}
}

func TestOpen_UnknownBackendClosesStore(t *testing.T) {
	cfg := config.Defaults()
	cfg.SnapshotBackend = "s3"
	cfg.DBPath = filepath.Join(t.TempDir(), "docqa.db")

	if _, err := Open(cfg); err == nil {
		t.Error("Open() should reject an unknown backend")
	}
}

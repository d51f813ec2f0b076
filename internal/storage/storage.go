// ABOUTME: Storage backend selection for the document library and snapshot persistence
// ABOUTME: Documents always live in SQLite; snapshots go to SQLite, Charm KV or nowhere
package storage

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/harper/docqa/internal/charm"
	"github.com/harper/docqa/internal/config"
	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/storage/sqlite"
)

// Backend bundles the stores one process needs
type Backend struct {
	Name      string
	Store     *sqlite.Storage
	Persister core.SnapshotPersister

	// Charm is set only for the charm backend
	Charm *charm.Client
}

// Open opens the document database and the configured snapshot backend
func Open(cfg *config.Config) (*Backend, error) {
	path := cfg.DBPath
	if path == "" {
		path = sqlite.DefaultDBPath()
	}
	store, err := sqlite.NewStorageWithPath(path)
	if err != nil {
		return nil, err
	}

	var client *charm.Client
	if cfg.SnapshotBackend == config.BackendCharm {
		client, err = charm.NewClient(&charm.Config{
			Host:     cfg.CharmHost,
			DBName:   cfg.CharmDBName,
			AutoSync: cfg.AutoSync,
		})
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to open charm backend: %w", err)
		}
	}

	backend, err := NewBackend(cfg.SnapshotBackend, store, client)
	if err != nil {
		_ = store.Close()
		if client != nil {
			_ = client.Close()
		}
		return nil, err
	}
	return backend, nil
}

// NewBackend wires an opened store to the named snapshot backend.
// client is only consulted for the charm backend.
func NewBackend(name string, store *sqlite.Storage, client *charm.Client) (*Backend, error) {
	b := &Backend{Name: name, Store: store, Charm: client}

	switch name {
	case config.BackendSQLite, "":
		b.Name = config.BackendSQLite
		b.Persister = store.Snapshots
	case config.BackendCharm:
		if client == nil {
			return nil, errors.New("charm backend requires a charm client")
		}
		b.Persister = charm.NewSnapshotStore(client, charm.DefaultPageSize)
	case config.BackendNone:
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", name)
	}

	log.WithPrefix("storage").Debug("storage opened", "db", store.Path(), "snapshots", b.Name)
	return b, nil
}

// Documents returns the document store
func (b *Backend) Documents() *sqlite.DocumentStore {
	return b.Store.Documents
}

// Close releases the database and any charm client
func (b *Backend) Close() error {
	var errs []error
	if b.Charm != nil {
		errs = append(errs, b.Charm.Close())
	}
	if b.Store != nil {
		errs = append(errs, b.Store.Close())
	}
	return errors.Join(errs...)
}

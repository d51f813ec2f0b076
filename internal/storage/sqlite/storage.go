// ABOUTME: Storage facade bundling the SQLite document and snapshot stores
// ABOUTME: One database file backs both the document library and the persisted index
package sqlite

import "fmt"

// Storage owns the database and its stores
type Storage struct {
	db        *DB
	Documents *DocumentStore
	Snapshots *SnapshotStore
}

// NewStorage opens storage at the default XDG path
func NewStorage() (*Storage, error) {
	return NewStorageWithPath(DefaultDBPath())
}

// NewStorageWithPath opens storage at a custom database path
func NewStorageWithPath(dbPath string) (*Storage, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newStorage(db), nil
}

// NewStorageInMemory creates an in-memory storage (for testing)
func NewStorageInMemory() (*Storage, error) {
	db, err := OpenInMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return newStorage(db), nil
}

func newStorage(db *DB) *Storage {
	return &Storage{
		db:        db,
		Documents: NewDocumentStore(db),
		Snapshots: NewSnapshotStore(db),
	}
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.db.Path()
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

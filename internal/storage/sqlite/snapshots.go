// ABOUTME: Snapshot persistence for SQLite with vectors stored as BLOBs
// ABOUTME: Keeps only the latest generation so restarts restore the last good index
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/harper/docqa/internal/index"
	"github.com/harper/docqa/internal/models"
)

// SnapshotStore handles snapshot persistence
type SnapshotStore struct {
	db *DB
}

// NewSnapshotStore creates a new SnapshotStore
func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// SaveSnapshot replaces the stored snapshot with snap in one transaction
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snap *index.Snapshot) error {
	chunks := snap.EmbeddedChunks()

	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		// chunks cascade with their snapshot row
		if _, err := tx.ExecContext(ctx, "DELETE FROM snapshots"); err != nil {
			return fmt.Errorf("failed to clear snapshots: %w", err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO snapshots (version, dimension, chunk_count, built_at)
			VALUES (?, ?, ?, ?)
		`, int64(snap.Version()), snap.Dimension(), len(chunks), snap.BuiltAt().UTC())
		if err != nil {
			return fmt.Errorf("failed to save snapshot %d: %w", snap.Version(), err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO snapshot_chunks
				(version, seq, chunk_id, document_id, source_name, text, start_offset, end_offset, page_number, vector)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		for seq, ec := range chunks {
			_, err := stmt.ExecContext(ctx, int64(snap.Version()), seq, ec.ChunkID, ec.DocumentID,
				ec.SourceName, ec.Text, ec.Start, ec.End, ec.PageNumber, vectorToBlob(ec.Vector))
			if err != nil {
				return fmt.Errorf("failed to save chunk %s: %w", ec.ChunkID, err)
			}
		}
		return nil
	})
}

// LoadSnapshot returns the stored snapshot, or nil if none was saved
func (s *SnapshotStore) LoadSnapshot(ctx context.Context) (*index.Snapshot, error) {
	var (
		version    int64
		chunkCount int
		builtAt    time.Time
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT version, chunk_count, built_at
		FROM snapshots
		ORDER BY version DESC
		LIMIT 1
	`).Scan(&version, &chunkCount, &builtAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, document_id, source_name, text, start_offset, end_offset, page_number, vector
		FROM snapshot_chunks
		WHERE version = ?
		ORDER BY seq ASC
	`, version)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	chunks := make([]models.EmbeddedChunk, 0, chunkCount)
	for rows.Next() {
		var (
			ec         models.EmbeddedChunk
			sourceName sql.NullString
			blob       []byte
		)
		if err := rows.Scan(&ec.ChunkID, &ec.DocumentID, &sourceName, &ec.Text,
			&ec.Start, &ec.End, &ec.PageNumber, &blob); err != nil {
			return nil, err
		}
		if sourceName.Valid {
			ec.SourceName = sourceName.String
		}
		ec.Vector = blobToVector(blob)
		chunks = append(chunks, ec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(chunks) != chunkCount {
		return nil, fmt.Errorf("snapshot %d is incomplete: %d of %d chunks", version, len(chunks), chunkCount)
	}

	snap, err := index.NewSnapshot(uint64(version), chunks, builtAt)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild snapshot %d: %w", version, err)
	}
	return snap, nil
}

// vectorToBlob converts a float64 slice to binary blob
func vectorToBlob(vector []float64) []byte {
	blob := make([]byte, len(vector)*8)
	for i, v := range vector {
		binary.LittleEndian.PutUint64(blob[i*8:], math.Float64bits(v))
	}
	return blob
}

// blobToVector converts a binary blob to float64 slice
func blobToVector(blob []byte) []float64 {
	count := len(blob) / 8
	vector := make([]float64, count)
	for i := 0; i < count; i++ {
		bits := binary.LittleEndian.Uint64(blob[i*8:])
		vector[i] = math.Float64frombits(bits)
	}
	return vector
}

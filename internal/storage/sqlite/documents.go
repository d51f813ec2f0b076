// ABOUTME: Document storage operations for SQLite
// ABOUTME: Persists extracted text and page maps that feed index rebuilds
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/harper/docqa/internal/models"
)

// DocumentStore handles document persistence
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Save inserts or replaces a document and its page map
func (s *DocumentStore) Save(ctx context.Context, doc *models.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO documents (id, source_name, full_text, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				source_name = excluded.source_name,
				full_text = excluded.full_text
		`, doc.DocumentID, doc.SourceName, doc.FullText, doc.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to save document %s: %w", doc.DocumentID, err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM document_pages WHERE document_id = ?", doc.DocumentID); err != nil {
			return fmt.Errorf("failed to clear pages for %s: %w", doc.DocumentID, err)
		}
		for _, span := range doc.PageMap {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO document_pages (document_id, page_number, start_offset, end_offset)
				VALUES (?, ?, ?, ?)
			`, doc.DocumentID, span.PageNumber, span.Start, span.End)
			if err != nil {
				return fmt.Errorf("failed to save page %d of %s: %w", span.PageNumber, doc.DocumentID, err)
			}
		}
		return nil
	})
}

// Get retrieves a document by ID
func (s *DocumentStore) Get(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source_name, full_text, created_at
		FROM documents
		WHERE id = ?
	`, id).Scan(&doc.DocumentID, &doc.SourceName, &doc.FullText, &doc.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	pages, err := s.pagesFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	doc.PageMap = pages[id]
	return &doc, nil
}

// List returns every document ordered by ID
func (s *DocumentStore) List(ctx context.Context) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_name, full_text, created_at
		FROM documents
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var docs []models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.DocumentID, &doc.SourceName, &doc.FullText, &doc.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// the page query needs the connection the row cursor was holding
	_ = rows.Close()

	pages, err := s.pagesFor(ctx, nil)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].PageMap = pages[docs[i].DocumentID]
	}
	return docs, nil
}

// ListDocuments returns the corpus a rebuild should index
func (s *DocumentStore) ListDocuments(ctx context.Context) ([]models.Document, error) {
	return s.List(ctx)
}

// Delete removes a document and its pages
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// Count returns the number of stored documents
func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n)
	return n, err
}

// pagesFor loads page maps keyed by document; nil ids loads every document's pages
func (s *DocumentStore) pagesFor(ctx context.Context, ids []string) (map[string][]models.PageSpan, error) {
	query := `SELECT document_id, page_number, start_offset, end_offset FROM document_pages`
	var args []any
	if len(ids) == 1 {
		query += " WHERE document_id = ?"
		args = append(args, ids[0])
	}
	query += " ORDER BY document_id ASC, start_offset ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	pages := make(map[string][]models.PageSpan)
	for rows.Next() {
		var (
			docID string
			span  models.PageSpan
		)
		if err := rows.Scan(&docID, &span.PageNumber, &span.Start, &span.End); err != nil {
			return nil, err
		}
		pages[docID] = append(pages[docID], span)
	}
	return pages, rows.Err()
}

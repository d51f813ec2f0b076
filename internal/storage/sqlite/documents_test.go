// ABOUTME: Tests for document persistence
// ABOUTME: Covers save, page maps, ordering, deletion and not-found errors

package sqlite

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/harper/docqa/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorageInMemory()
	if err != nil {
		t.Fatalf("NewStorageInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	doc := &models.Document{
		DocumentID: "doc_1",
		SourceName: "handbook.pdf",
		FullText:   "page one text\n\npage two text",
		PageMap: []models.PageSpan{
			{PageNumber: 1, Start: 0, End: 13},
			{PageNumber: 2, Start: 15, End: 28},
		},
	}
	if err := store.Documents.Save(ctx, doc); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if doc.CreatedAt.IsZero() {
		t.Error("Save() should stamp CreatedAt")
	}

	got, err := store.Documents.Get(ctx, "doc_1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.SourceName != doc.SourceName || got.FullText != doc.FullText {
		t.Errorf("Get() = %+v, want %+v", got, doc)
	}
	if !reflect.DeepEqual(got.PageMap, doc.PageMap) {
		t.Errorf("PageMap = %v, want %v", got.PageMap, doc.PageMap)
	}
}

func TestDocumentStore_SaveReplacesPages(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	doc := &models.Document{
		DocumentID: "doc_1",
		SourceName: "a.pdf",
		FullText:   "abcdef",
		PageMap:    []models.PageSpan{{PageNumber: 1, Start: 0, End: 3}, {PageNumber: 2, Start: 3, End: 6}},
	}
	if err := store.Documents.Save(ctx, doc); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	doc.FullText = "xyz"
	doc.PageMap = []models.PageSpan{{PageNumber: 1, Start: 0, End: 3}}
	if err := store.Documents.Save(ctx, doc); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, _ := store.Documents.Get(ctx, "doc_1")
	if got.FullText != "xyz" || len(got.PageMap) != 1 {
		t.Errorf("Get() = %q with %d pages, want xyz with 1", got.FullText, len(got.PageMap))
	}
}

func TestDocumentStore_SaveRejectsInvalid(t *testing.T) {
	store := newTestStorage(t)
	err := store.Documents.Save(context.Background(), &models.Document{FullText: "x"})
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("Save() error = %v, want ErrInvalidArgument", err)
	}
}

func TestDocumentStore_ListOrderedByID(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		doc := &models.Document{DocumentID: id, SourceName: id + ".txt", FullText: "text " + id}
		if err := store.Documents.Save(ctx, doc); err != nil {
			t.Fatalf("Save(%s) error = %v", id, err)
		}
	}

	docs, err := store.Documents.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	var ids []string
	for _, d := range docs {
		ids = append(ids, d.DocumentID)
	}
	if !reflect.DeepEqual(ids, []string{"a", "b", "c"}) {
		t.Errorf("ids = %v, want [a b c]", ids)
	}

	n, err := store.Documents.Count(ctx)
	if err != nil || n != 3 {
		t.Errorf("Count() = %d, %v, want 3", n, err)
	}
}

func TestDocumentStore_Delete(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	doc := &models.Document{
		DocumentID: "doc_1",
		FullText:   "abc",
		PageMap:    []models.PageSpan{{PageNumber: 1, Start: 0, End: 3}},
	}
	if err := store.Documents.Save(ctx, doc); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := store.Documents.Delete(ctx, "doc_1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Documents.Get(ctx, "doc_1"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := store.Documents.Delete(ctx, "doc_1"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}

	var pages int
	_ = store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM document_pages").Scan(&pages)
	if pages != 0 {
		t.Errorf("document_pages rows = %d, want cascade to 0", pages)
	}
}

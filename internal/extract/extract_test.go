// ABOUTME: Tests for text extraction helpers
// ABOUTME: PDF page joining is tested directly since fixtures would need a real PDF

package extract

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/harper/docqa/internal/models"
)

func TestFromFile_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	if err := os.WriteFile(path, []byte("# Notes\n\nrefund policy is 30 days"), 0600); err != nil {
		t.Fatal(err)
	}

	doc, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile() error = %v", err)
	}
	if doc.SourceName != "notes.md" {
		t.Errorf("SourceName = %v, want notes.md", doc.SourceName)
	}
	if doc.FullText != "# Notes\n\nrefund policy is 30 days" {
		t.Errorf("FullText = %q", doc.FullText)
	}
	if doc.DocumentID == "" || doc.PageMap != nil {
		t.Errorf("DocumentID = %q, PageMap = %v", doc.DocumentID, doc.PageMap)
	}
}

func TestFromFile_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := FromFile(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("FromFile() should fail for a missing file")
	}

	binary := filepath.Join(dir, "blob.txt")
	_ = os.WriteFile(binary, []byte{0xff, 0xfe, 0x00}, 0600)
	if _, err := FromFile(binary); !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("FromFile(invalid utf8) error = %v, want ErrInvalidArgument", err)
	}

	notPDF := filepath.Join(dir, "fake.pdf")
	_ = os.WriteFile(notPDF, []byte("plain text"), 0600)
	if _, err := FromFile(notPDF); err == nil {
		t.Error("FromFile() should fail for a malformed pdf")
	}
}

func TestFromText_UniqueIDs(t *testing.T) {
	a := FromText("a.txt", "x")
	b := FromText("a.txt", "x")
	if a.DocumentID == b.DocumentID {
		t.Error("FromText() should assign a fresh id each time")
	}
	if a.CreatedAt.IsZero() {
		t.Error("FromText() should stamp CreatedAt")
	}
}

func TestJoinPages(t *testing.T) {
	full, spans := joinPages([]string{"first", "", "third page"}, []int{1, 2, 4})

	if full != "first\n\n\n\nthird page" {
		t.Errorf("full = %q", full)
	}
	want := []models.PageSpan{
		{PageNumber: 1, Start: 0, End: 5},
		{PageNumber: 2, Start: 7, End: 7},
		{PageNumber: 4, Start: 9, End: 19},
	}
	if !reflect.DeepEqual(spans, want) {
		t.Errorf("spans = %v, want %v", spans, want)
	}

	doc := models.Document{DocumentID: "d", FullText: full, PageMap: spans}
	if err := doc.Validate(); err != nil {
		t.Errorf("joined pages should validate: %v", err)
	}
	if got := doc.PageAt(12); got != 4 {
		t.Errorf("PageAt(12) = %d, want 4", got)
	}
}

func TestIsSupported(t *testing.T) {
	tests := map[string]bool{
		"a.pdf":  true,
		"A.PDF":  true,
		"b.txt":  true,
		"c.md":   true,
		"d.docx": false,
		"e":      false,
	}
	for path, want := range tests {
		if got := IsSupported(path); got != want {
			t.Errorf("IsSupported(%q) = %v, want %v", path, got, want)
		}
	}
}

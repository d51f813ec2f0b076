// ABOUTME: Text extraction from files into Documents ready for indexing
// ABOUTME: PDFs are read page by page so chunks can cite their page number
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/harper/docqa/internal/models"
	"github.com/ledongthuc/pdf"
)

// pageSeparator joins consecutive PDF pages
const pageSeparator = "\n\n"

// FromFile reads path into a new Document with a fresh ID
func FromFile(path string) (models.Document, error) {
	var (
		text  string
		pages []models.PageSpan
		err   error
	)

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, pages, err = readPDF(path)
	} else {
		text, err = readText(path)
	}
	if err != nil {
		return models.Document{}, err
	}

	doc := FromText(filepath.Base(path), text)
	doc.PageMap = pages
	return doc, nil
}

// FromText wraps raw text in a new Document
func FromText(sourceName, text string) models.Document {
	return models.Document{
		DocumentID: uuid.New().String(),
		SourceName: sourceName,
		FullText:   text,
		CreatedAt:  time.Now().UTC(),
	}
}

// IsSupported reports whether FromFile can read path
func IsSupported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md", ".markdown", ".text", ".rst", ".csv", ".log":
		return true
	}
	return false
}

func readText(path string) (string, error) {
	// #nosec G304 -- path is provided by the user
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !utf8.Valid(raw) {
		return "", models.NewInvalidArgument("%s is not valid UTF-8 text", filepath.Base(path))
	}
	return string(raw), nil
}

// readPDF extracts each page's plain text and records its byte span
func readPDF(path string) (string, []models.PageSpan, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var (
		texts   []string
		numbers []int
	)
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read page %d of %s: %w", i, path, err)
		}
		texts = append(texts, text)
		numbers = append(numbers, i)
	}

	full, spans := joinPages(texts, numbers)
	return full, spans, nil
}

// joinPages concatenates page texts with a blank line between them and
// returns the byte span each page occupies in the result
func joinPages(texts []string, numbers []int) (string, []models.PageSpan) {
	var b strings.Builder
	spans := make([]models.PageSpan, 0, len(texts))
	for i, text := range texts {
		if i > 0 {
			b.WriteString(pageSeparator)
		}
		start := b.Len()
		b.WriteString(text)
		spans = append(spans, models.PageSpan{PageNumber: numbers[i], Start: start, End: b.Len()})
	}
	return b.String(), spans
}

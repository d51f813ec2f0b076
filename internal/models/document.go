// ABOUTME: Document model for uploaded source files and their page layout
// ABOUTME: Documents are immutable once chunked and are the unit of rebuild input
package models

import "time"

// PageSpan maps a page number to a half-open byte range of the document text
type PageSpan struct {
	PageNumber int `json:"page_number" yaml:"page_number"`
	Start      int `json:"start" yaml:"start"`
	End        int `json:"end" yaml:"end"`
}

// Document is a piece of extracted text together with where it came from
type Document struct {
	DocumentID string     `json:"document_id"`
	SourceName string     `json:"source_name"`
	FullText   string     `json:"full_text"`
	PageMap    []PageSpan `json:"page_map,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// PageAt returns the page containing the byte offset, or 0 when the document
// has no page map or the offset falls outside every span.
func (d *Document) PageAt(offset int) int {
	for _, span := range d.PageMap {
		if offset >= span.Start && offset < span.End {
			return span.PageNumber
		}
	}
	return 0
}

// Validate checks that the document can be indexed
func (d *Document) Validate() error {
	if d.DocumentID == "" {
		return NewInvalidArgument("document_id cannot be empty")
	}
	prevEnd := 0
	for i, span := range d.PageMap {
		if span.Start < prevEnd || span.End < span.Start || span.End > len(d.FullText) {
			return NewInvalidArgument("page span %d (page %d) is out of order or out of range", i, span.PageNumber)
		}
		prevEnd = span.End
	}
	return nil
}

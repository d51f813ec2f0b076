// ABOUTME: Chunk represents a bounded, overlapping excerpt of a document
// ABOUTME: EmbeddedChunk pairs a chunk with its vector for indexing
package models

import "fmt"

// Chunk is a contiguous excerpt of a document's text, addressed by byte offsets
type Chunk struct {
	ChunkID    string `json:"chunk_id" yaml:"chunk_id"`
	DocumentID string `json:"document_id" yaml:"document_id"`
	SourceName string `json:"source_name,omitempty" yaml:"source_name,omitempty"`
	Text       string `json:"text" yaml:"text"`
	Start      int    `json:"char_offset_start" yaml:"start"`
	End        int    `json:"char_offset_end" yaml:"end"`
	PageNumber int    `json:"page_number,omitempty" yaml:"page_number,omitempty"`
}

// EmbeddedChunk is a chunk plus its embedding vector
type EmbeddedChunk struct {
	Chunk  `yaml:",inline"`
	Vector []float64 `json:"vector" yaml:"vector,flow"`
}

// ChunkID builds the deterministic identifier for the seq-th chunk of a document.
// Zero padding keeps lexical order equal to chunk order within one document.
func ChunkID(documentID string, seq int) string {
	return fmt.Sprintf("%s#%08d", documentID, seq)
}

// ABOUTME: Result records returned by search, ask, rebuild and status
// ABOUTME: Replaces loosely typed result maps with explicit fields
package models

import "time"

// SearchResult is one ranked hit from a snapshot search
type SearchResult struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"score"`
	Snippet    string  `json:"snippet"`
	SourceName string  `json:"source_name"`
	PageNumber int     `json:"page_number,omitempty"`
}

// AnswerResult is the outcome of asking a question
type AnswerResult struct {
	AnswerText string         `json:"answer"`
	Sources    []SearchResult `json:"sources"`
	// NoEvidence is set when the active snapshot had nothing to rank
	NoEvidence bool `json:"no_evidence,omitempty"`
	// Generated is false when the answer is the extractive fallback
	Generated       bool   `json:"generated"`
	SnapshotVersion uint64 `json:"snapshot_version"`
}

// BuildWarning records a chunk dropped during a build
type BuildWarning struct {
	ChunkID    string `json:"chunk_id"`
	DocumentID string `json:"document_id"`
	Reason     string `json:"reason"`
}

// RebuildResult summarizes a successful rebuild
type RebuildResult struct {
	Version       uint64         `json:"version"`
	ChunkCount    int            `json:"chunk_count"`
	DocumentCount int            `json:"document_count"`
	WarningCount  int            `json:"warning_count"`
	Warnings      []BuildWarning `json:"warnings,omitempty"`
	Duration      time.Duration  `json:"duration"`
}

// IndexStatus describes the active snapshot
type IndexStatus struct {
	HasActiveSnapshot bool      `json:"has_active_snapshot"`
	Version           uint64    `json:"version"`
	ChunkCount        int       `json:"chunk_count"`
	DocumentCount     int       `json:"document_count"`
	Dimension         int       `json:"dimension"`
	Building          bool      `json:"building"`
	BuiltAt           time.Time `json:"built_at,omitempty"`
}

// ABOUTME: ContextHydrator assembles the bounded source context handed to generation
// ABOUTME: Also produces the extractive fallback answer from ranked snippets
package core

import (
	"fmt"
	"strings"

	"github.com/harper/docqa/internal/index"
	"github.com/harper/docqa/internal/models"
)

// DefaultMaxContextChars bounds the assembled context
const DefaultMaxContextChars = 4000

// ContextHydrator formats retrieved chunks for a generation prompt
type ContextHydrator struct {
	maxContextChars int
}

// NewContextHydrator creates a ContextHydrator; maxContextChars <= 0 uses the default
func NewContextHydrator(maxContextChars int) *ContextHydrator {
	if maxContextChars <= 0 {
		maxContextChars = DefaultMaxContextChars
	}
	return &ContextHydrator{maxContextChars: maxContextChars}
}

// Hydrate renders results in rank order as labelled source blocks separated by
// blank lines. Full chunk text comes from snap; the snippet is used if the chunk
// is missing. The result is cut to maxContextChars on a rune boundary.
func (ch *ContextHydrator) Hydrate(snap *index.Snapshot, results []models.SearchResult) string {
	blocks := make([]string, 0, len(results))
	for i, r := range results {
		text := r.Snippet
		if snap != nil {
			if chunk, ok := snap.Chunk(r.ChunkID); ok {
				text = chunk.Text
			}
		}
		blocks = append(blocks, sourceHeader(i+1, r)+"\n"+text)
	}

	context := strings.Join(blocks, "\n\n")
	if len(context) > ch.maxContextChars {
		context = context[:runeStart(context, ch.maxContextChars)]
	}
	return context
}

// Extractive answers with the ranked snippets themselves
func (ch *ContextHydrator) Extractive(results []models.SearchResult) string {
	snippets := make([]string, len(results))
	for i, r := range results {
		snippets[i] = r.Snippet
	}
	return strings.Join(snippets, "\n\n")
}

func sourceHeader(n int, r models.SearchResult) string {
	name := r.SourceName
	if name == "" {
		name = r.DocumentID
	}
	if r.PageNumber > 0 {
		return fmt.Sprintf("[Source %d: %s, Page %d]", n, name, r.PageNumber)
	}
	return fmt.Sprintf("[Source %d: %s]", n, name)
}

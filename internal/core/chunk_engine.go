// ABOUTME: ChunkEngine splits document text into overlapping bounded passages
// ABOUTME: Offsets are byte offsets into the document text, always on rune boundaries
package core

import (
	"unicode/utf8"

	"github.com/harper/docqa/internal/models"
)

// Default chunking parameters
const (
	DefaultMaxChunkChars = 1000
	DefaultOverlapChars  = 200
)

// ChunkEngine handles sliding-window chunking
type ChunkEngine struct {
	maxChunkChars int
	overlapChars  int
}

// NewChunkEngine creates a ChunkEngine. maxChunkChars must be positive and
// overlapChars must be in [0, maxChunkChars).
func NewChunkEngine(maxChunkChars, overlapChars int) (*ChunkEngine, error) {
	if maxChunkChars <= 0 {
		return nil, models.NewInvalidArgument("max_chunk_chars must be positive, got %d", maxChunkChars)
	}
	if overlapChars < 0 || overlapChars >= maxChunkChars {
		return nil, models.NewInvalidArgument("overlap_chars must be in [0, %d), got %d", maxChunkChars, overlapChars)
	}
	return &ChunkEngine{maxChunkChars: maxChunkChars, overlapChars: overlapChars}, nil
}

// MaxChunkChars returns the window size
func (ce *ChunkEngine) MaxChunkChars() int {
	return ce.maxChunkChars
}

// OverlapChars returns how much consecutive windows share
func (ce *ChunkEngine) OverlapChars() int {
	return ce.overlapChars
}

// Chunk splits doc into chunks in document order. Empty text yields no chunks.
// Consecutive chunks overlap by at most overlapChars, and chunk k+1 always
// starts at or before the end of chunk k, so the text can be rebuilt exactly.
func (ce *ChunkEngine) Chunk(doc models.Document) []models.Chunk {
	text := doc.FullText
	if text == "" {
		return nil
	}

	var chunks []models.Chunk
	start := 0
	for seq := 0; ; seq++ {
		end := start + ce.maxChunkChars
		if end >= len(text) {
			end = len(text)
		} else {
			end = runeStart(text, end)
			if end <= start {
				// A single rune wider than the window still has to go somewhere
				_, size := utf8.DecodeRuneInString(text[start:])
				end = start + size
			}
		}

		chunks = append(chunks, models.Chunk{
			ChunkID:    models.ChunkID(doc.DocumentID, seq),
			DocumentID: doc.DocumentID,
			SourceName: doc.SourceName,
			Text:       text[start:end],
			Start:      start,
			End:        end,
			PageNumber: doc.PageAt(start),
		})

		if end == len(text) {
			return chunks
		}

		next := nextRuneStart(text, end-ce.overlapChars)
		if next <= start {
			next = end
		}
		start = next
	}
}

// runeStart moves i back to the nearest rune start at or before it
func runeStart(s string, i int) int {
	if i <= 0 {
		return 0
	}
	if i >= len(s) {
		return len(s)
	}
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// nextRuneStart moves i forward to the nearest rune start at or after it
func nextRuneStart(s string, i int) int {
	if i <= 0 {
		return 0
	}
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}

// Reassemble rebuilds the original text from chunks produced by Chunk
func Reassemble(chunks []models.Chunk) string {
	if len(chunks) == 0 {
		return ""
	}
	out := []byte(chunks[0].Text)
	prevEnd := chunks[0].End
	for _, c := range chunks[1:] {
		out = append(out, c.Text[prevEnd-c.Start:]...)
		prevEnd = c.End
	}
	return string(out)
}

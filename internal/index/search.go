// ABOUTME: Exact cosine top-k search over a snapshot
// ABOUTME: Results are ordered by descending score with ascending chunk ID tie-break
package index

import (
	"container/heap"
	"sort"

	"github.com/harper/docqa/internal/models"
)

// SearchOptions narrows and shapes a search
type SearchOptions struct {
	// DocumentScope restricts candidates to one document before ranking
	DocumentScope string
	// SnippetChars bounds the snippet length in runes (DefaultSnippetChars if <= 0)
	SnippetChars int
}

// Search returns up to k chunks most similar to query.
// An empty snapshot always returns an empty result.
func (s *Snapshot) Search(query []float64, k int, opts SearchOptions) ([]models.SearchResult, error) {
	if k <= 0 {
		return nil, models.NewInvalidArgument("k must be positive, got %d", k)
	}
	if len(s.chunks) == 0 {
		return []models.SearchResult{}, nil
	}
	if len(query) != s.dimension {
		return nil, models.NewInvalidArgument("query dimension %d does not match snapshot dimension %d",
			len(query), s.dimension)
	}
	if k > len(s.chunks) {
		k = len(s.chunks)
	}

	// A zero query has no direction; every chunk scores 0 and the tie-break decides.
	unit, ok := normalize(query)
	if !ok {
		unit = make([]float64, len(query))
	}

	top := make(minHeap, 0, k)
	for i := range s.chunks {
		ec := &s.chunks[i]
		if opts.DocumentScope != "" && ec.DocumentID != opts.DocumentScope {
			continue
		}

		cand := scored{idx: i, id: ec.ChunkID, score: dot(unit, ec.Vector)}
		if len(top) < k {
			heap.Push(&top, cand)
		} else if better(cand, top[0]) {
			top[0] = cand
			heap.Fix(&top, 0)
		}
	}

	sort.Slice(top, func(i, j int) bool { return better(top[i], top[j]) })

	snippetChars := opts.SnippetChars
	if snippetChars <= 0 {
		snippetChars = DefaultSnippetChars
	}

	results := make([]models.SearchResult, len(top))
	for i, c := range top {
		ch := s.chunks[c.idx].Chunk
		results[i] = models.SearchResult{
			ChunkID:    ch.ChunkID,
			DocumentID: ch.DocumentID,
			Score:      c.score,
			Snippet:    Snippet(ch.Text, snippetChars),
			SourceName: ch.SourceName,
			PageNumber: ch.PageNumber,
		}
	}
	return results, nil
}

// Snippet returns the first maxRunes runes of text, marking truncation with "..."
func Snippet(text string, maxRunes int) string {
	count := 0
	for i := range text {
		if count == maxRunes {
			return text[:i] + "..."
		}
		count++
	}
	return text
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

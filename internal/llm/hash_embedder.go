// ABOUTME: HashEmbedder is a deterministic local embedder based on feature hashing
// ABOUTME: Used offline, in benchmarks and when no API key is configured
package llm

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// DefaultHashDimension is the vector length used when none is configured
const DefaultHashDimension = 256

// HashEmbedder maps lowercased word tokens and their bigrams into a fixed
// number of signed buckets. Equal texts always embed identically.
type HashEmbedder struct {
	dimension int
}

// NewHashEmbedder creates a HashEmbedder; dimension <= 0 uses DefaultHashDimension
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = DefaultHashDimension
	}
	return &HashEmbedder{dimension: dimension}
}

// Dimension returns the vector length
func (h *HashEmbedder) Dimension() int {
	return h.dimension
}

// Embed returns the hashed feature vector for text. Text without any word
// characters yields a vector with a single bias bucket set.
func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, h.dimension)
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		vec[0] = 1
		return vec, nil
	}

	for i, tok := range tokens {
		h.add(vec, tok, 1)
		if i > 0 {
			h.add(vec, tokens[i-1]+" "+tok, 0.5)
		}
	}
	return vec, nil
}

// EmbedBatch embeds each text in order
func (h *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		vec, err := h.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (h *HashEmbedder) add(vec []float64, feature string, weight float64) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()

	bucket := int(sum % uint64(h.dimension))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[bucket] += weight
}

// Tokenize splits text into lowercased runs of letters and digits
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

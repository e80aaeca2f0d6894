package hashing

import (
	"context"
	"hash/fnv"

	"learnrag/internal/domain"
	"learnrag/internal/embedding"
)

// DefaultDimension is used when the configured dimension is not positive.
const DefaultDimension = 512

var _ domain.Embedder = (*Embedder)(nil)

// Embedder is a local, corpus-free embedder based on the hashing trick.
// Unigrams and bigrams are hashed into signed buckets and the result is
// L2-normalized, so the same text always maps to the same unit vector.
type Embedder struct {
	dimension int
}

// NewEmbedder creates a hashing embedder producing vectors of the given size.
func NewEmbedder(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{dimension: dimension}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "hashing" }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed computes the hashed bag-of-words embedding for text. Text without
// any non-stopword tokens yields the zero vector.
func (e *Embedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.dimension)
	tokens := embedding.Tokenize(text)
	for i, tok := range tokens {
		e.add(vec, tok, 1.0)
		if i > 0 {
			// bigrams carry half weight
			e.add(vec, tokens[i-1]+" "+tok, 0.5)
		}
	}
	return embedding.Normalize(vec), nil
}

func (e *Embedder) add(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(e.dimension))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

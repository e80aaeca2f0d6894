package memory

import (
	"context"
	"sort"
	"sync/atomic"

	"learnrag/internal/domain"
	"learnrag/internal/vectorstore"
)

var _ vectorstore.Storage = (*Storage)(nil)

// snapshot is immutable once published.
type snapshot struct {
	dimension int
	vectors   [][]float64
	docs      []domain.IndexedDocument
}

// Storage is a simple in-memory vector store using brute-force cosine similarity.
// Replace builds a complete snapshot before publishing it, so concurrent
// searches never see a half-built index.
type Storage struct {
	current atomic.Pointer[snapshot]
}

func NewStorage() *Storage {
	s := &Storage{}
	s.current.Store(&snapshot{})
	return s
}

func (s *Storage) Replace(_ context.Context, entries []vectorstore.Entry) error {
	next := &snapshot{
		vectors: make([][]float64, 0, len(entries)),
		docs:    make([]domain.IndexedDocument, 0, len(entries)),
	}
	for _, e := range entries {
		if next.dimension == 0 {
			next.dimension = len(e.Vector)
		}
		if len(e.Vector) != next.dimension {
			return domain.ErrDimensionMismatch
		}
		next.vectors = append(next.vectors, e.Vector)
		next.docs = append(next.docs, e.Document)
	}
	s.current.Store(next)
	return nil
}

func (s *Storage) Search(_ context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		return nil, domain.ErrInvalidK
	}
	snap := s.current.Load()
	if len(snap.vectors) == 0 {
		return []domain.SearchResult{}, nil
	}
	if len(vector) != snap.dimension {
		return nil, domain.ErrDimensionMismatch
	}
	// vectors are L2-normalized, so the inner product is the cosine similarity
	scores := make([]float64, len(snap.vectors))
	for i := range snap.vectors {
		scores[i] = dot(snap.vectors[i], vector)
	}
	idxs := argsortDesc(scores)
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.SearchResult, 0, topK)
	for _, j := range idxs[:topK] {
		results = append(results, domain.SearchResult{Resource: snap.docs[j].Resource, Score: scores[j]})
	}
	return results, nil
}

func (s *Storage) Count(_ context.Context) (int, error) {
	return len(s.current.Load().docs), nil
}

// Entries returns the stored entries in insertion order.
func (s *Storage) Entries() []vectorstore.Entry {
	snap := s.current.Load()
	out := make([]vectorstore.Entry, len(snap.docs))
	for i := range snap.docs {
		out[i] = vectorstore.Entry{Vector: snap.vectors[i], Document: snap.docs[i]}
	}
	return out
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// argsortDesc orders indexes by descending value; equal values keep their
// original order.
func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return vals[idxs[a]] > vals[idxs[b]] })
	return idxs
}

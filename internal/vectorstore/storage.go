// Package vectorstore stores embedded resource documents and answers
// k-nearest-neighbour queries over them.
//
// Storage implementations live in subpackages (memory, sqlite, qdrant). Index
// composes a Storage with a domain.Embedder and is what the rest of the
// application talks to.
package vectorstore

import (
	"context"

	"learnrag/internal/domain"
)

// Entry is one stored (vector, document) pair.
type Entry struct {
	Vector   []float64
	Document domain.IndexedDocument
}

// Storage persists vectors and supports similarity search.
//
// Replace swaps the whole content for entries; readers observe either the
// previous or the new content, never a mix. Search returns at most topK hits
// by descending inner product, ties in insertion order, and an empty slice
// for an empty store.
type Storage interface {
	Replace(ctx context.Context, entries []Entry) error
	Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error)
	Count(ctx context.Context) (int, error)
}

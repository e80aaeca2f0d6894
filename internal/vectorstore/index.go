package vectorstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"learnrag/internal/domain"
)

// Index is the semantic index over resource documents. It embeds documents
// on Build and query text on Query.
type Index struct {
	embedder domain.Embedder
	storage  Storage
	logger   *zap.Logger
}

// NewIndex creates an index backed by storage.
func NewIndex(embedder domain.Embedder, storage Storage, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{embedder: embedder, storage: storage, logger: logger}
}

// Build embeds every document and replaces the index content with them.
// Building from zero documents leaves an empty index.
func (i *Index) Build(ctx context.Context, docs []domain.IndexedDocument) error {
	entries := make([]Entry, 0, len(docs))
	dim := 0
	for n, doc := range docs {
		vec, err := i.embedder.Embed(ctx, doc.Text)
		if err != nil {
			return fmt.Errorf("embed document %d (%s): %w", n, doc.Resource.URL, err)
		}
		if dim == 0 {
			dim = len(vec)
		} else if len(vec) != dim {
			return fmt.Errorf("document %d: %w", n, domain.ErrDimensionMismatch)
		}
		entries = append(entries, Entry{Vector: vec, Document: doc})
	}
	if err := i.storage.Replace(ctx, entries); err != nil {
		return fmt.Errorf("replace index: %w", err)
	}
	i.logger.Info("index built",
		zap.Int("documents", len(entries)),
		zap.String("embedder", i.embedder.Name()),
		zap.Int("dimension", dim))
	return nil
}

// Query embeds text and returns the k most similar documents.
func (i *Index) Query(ctx context.Context, text string, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, domain.ErrInvalidK
	}
	vec, err := i.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return i.QueryVector(ctx, vec, k)
}

// QueryVector returns the k documents most similar to vec.
func (i *Index) QueryVector(ctx context.Context, vec []float64, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, domain.ErrInvalidK
	}
	res, err := i.storage.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	if res == nil {
		res = []domain.SearchResult{}
	}
	return res, nil
}

// Count returns the number of indexed documents.
func (i *Index) Count(ctx context.Context) (int, error) {
	return i.storage.Count(ctx)
}

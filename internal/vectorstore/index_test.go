package vectorstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnrag/internal/domain"
	"learnrag/internal/embedding/hashing"
	"learnrag/internal/vectorstore"
	"learnrag/internal/vectorstore/memory"
)

func doc(name, topic, url string, platform domain.Platform) domain.IndexedDocument {
	return domain.NewIndexedDocument(domain.Resource{
		Name:     name,
		Topic:    topic,
		Subtopic: topic,
		URL:      url,
		Platform: platform,
	})
}

func corpus() []domain.IndexedDocument {
	return []domain.IndexedDocument{
		doc("Kubernetes Deep Dive", "Kubernetes", "https://k8s.example", domain.PlatformWebsite),
		doc("Python Crash Course", "Python", "https://youtube.com/py", domain.PlatformYouTube),
		doc("Rust Book", "Rust", "https://github.com/rust", domain.PlatformGitHub),
	}
}

func newIndex() *vectorstore.Index {
	return vectorstore.NewIndex(hashing.NewEmbedder(256), memory.NewStorage(), nil)
}

func TestIndex_BuildAndQuery(t *testing.T) {
	ctx := context.Background()
	idx := newIndex()
	require.NoError(t, idx.Build(ctx, corpus()))

	res, err := idx.Query(ctx, "python crash course", 2)

	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "Python Crash Course", res[0].Resource.Name)
	assert.GreaterOrEqual(t, res[0].Score, res[1].Score)
}

func TestIndex_RebuildIsIdempotent(t *testing.T) {
	ctx := context.Background()
	idx := newIndex()
	require.NoError(t, idx.Build(ctx, corpus()))
	first, err := idx.Query(ctx, "rust", 3)
	require.NoError(t, err)

	require.NoError(t, idx.Build(ctx, corpus()))
	second, err := idx.Query(ctx, "rust", 3)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	n, _ := idx.Count(ctx)
	assert.Equal(t, 3, n)
}

func TestIndex_EmptyAndInvalidK(t *testing.T) {
	ctx := context.Background()
	idx := newIndex()

	res, err := idx.Query(ctx, "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.NotNil(t, res)

	require.NoError(t, idx.Build(ctx, nil))
	res, err = idx.Query(ctx, "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, res)

	_, err = idx.Query(ctx, "anything", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidK)
	_, err = idx.QueryVector(ctx, []float64{1}, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidK)
}

func TestIndex_KLargerThanCorpus(t *testing.T) {
	ctx := context.Background()
	idx := newIndex()
	require.NoError(t, idx.Build(ctx, corpus()))

	res, err := idx.Query(ctx, "book", 50)

	require.NoError(t, err)
	assert.Len(t, res, 3)
}

type failingEmbedder struct{ calls int }

func (f *failingEmbedder) Name() string   { return "failing" }
func (f *failingEmbedder) Dimension() int { return 1 }
func (f *failingEmbedder) Embed(context.Context, string) ([]float64, error) {
	f.calls++
	if f.calls > 1 {
		return nil, errors.New("boom")
	}
	return []float64{1}, nil
}

func TestIndex_BuildFailureKeepsPreviousContent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStorage()
	require.NoError(t, vectorstore.NewIndex(hashing.NewEmbedder(8), store, nil).Build(ctx, corpus()[:1]))

	err := vectorstore.NewIndex(&failingEmbedder{}, store, nil).Build(ctx, corpus())

	require.Error(t, err)
	n, _ := store.Count(ctx)
	assert.Equal(t, 1, n)
}

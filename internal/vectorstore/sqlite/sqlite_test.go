package sqlite

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnrag/internal/domain"
	"learnrag/internal/vectorstore"
)

func entry(url string, vec ...float64) vectorstore.Entry {
	r := domain.Resource{
		Name:        "Name " + url,
		Topic:       "Go",
		Subtopic:    "Concurrency",
		URL:         url,
		Platform:    domain.PlatformYouTube,
		Description: "desc",
		SourceRepo:  "owner/repo",
	}
	return vectorstore.Entry{Vector: vec, Document: domain.NewIndexedDocument(r)}
}

func TestReplacePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, dir, "hashing")
	require.NoError(t, err)
	want := []vectorstore.Entry{entry("u1", 1, 0), entry("u2", 0, 1), entry("u3", 0.6, 0.8)}
	require.NoError(t, s.Replace(ctx, want))
	first, err := s.Info(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, dir, "hashing")
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	res, err := reopened.Search(ctx, []float64{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, want[0].Document.Resource, res[0].Resource)
	assert.Equal(t, "u3", res[1].Resource.URL)

	info, err := reopened.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, info)
	assert.Equal(t, "hashing", info.Embedder)
	assert.Equal(t, 2, info.Dimension)
	assert.Equal(t, 3, info.Count)
	_, err = uuid.Parse(info.BuildID)
	assert.NoError(t, err)
}

func TestReplaceOverwritesAndChangesBuildID(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, t.TempDir(), "hashing")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Replace(ctx, []vectorstore.Entry{entry("a", 1), entry("b", 1)}))
	before, _ := s.Info(ctx)
	require.NoError(t, s.Replace(ctx, []vectorstore.Entry{entry("c", 1)}))
	after, _ := s.Info(ctx)

	n, _ := s.Count(ctx)
	assert.Equal(t, 1, n)
	assert.NotEqual(t, before.BuildID, after.BuildID)
}

func TestEmptyDatabase(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, t.TempDir(), "hashing")
	require.NoError(t, err)
	defer s.Close()

	res, err := s.Search(ctx, []float64{1}, 5)
	require.NoError(t, err)
	assert.Empty(t, res)

	info, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Empty(t, info.BuildID)
}

func TestReplaceRejectsMixedDimensions(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, t.TempDir(), "hashing")
	require.NoError(t, err)
	defer s.Close()

	err = s.Replace(ctx, []vectorstore.Entry{entry("a", 1, 0), entry("b", 1)})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestVectorRoundTrip(t *testing.T) {
	in := []float64{0, -1.5, 3.25, 1e-12}
	out, err := decodeVector(encodeVector(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

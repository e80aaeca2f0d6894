package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "raw", cfg.Fetcher.Type)
	assert.Equal(t, []string{"main", "master"}, cfg.Fetcher.Branches)
	assert.Equal(t, "hashing", cfg.Embedder.Type)
	assert.Equal(t, 512, cfg.Embedder.Dimension)
	assert.Equal(t, "sqlite", cfg.VectorStore.Type)
	assert.Equal(t, "./data/vectorstore", cfg.VectorStore.Path)
	assert.Equal(t, "./data/raw/resources.csv", cfg.Ingest.ExportCSV)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout())
	require.Len(t, cfg.Sources, 5)
	assert.Equal(t, "EbookFoundation/free-programming-books", cfg.Sources[0].Repo)
	assert.Len(t, cfg.Sources[0].Files, 2)
}

func TestLoad_AppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
embedder:
  type: openai
vector_store:
  type: qdrant
  qdrant:
    url: http://localhost:6333
sources:
  - repo: owner/list
    files: [README.md]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Embedder.OpenAI.BaseURL)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, "learning_resources", cfg.VectorStore.Qdrant.Collection)
	assert.Equal(t, []Source{{Repo: "owner/list", Files: []string{"README.md"}}}, cfg.Sources)
	assert.Empty(t, cfg.Ingest.ExportCSV)
}

func TestLoad_RejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"fetcher":  "fetcher:\n  type: ftp\n",
		"embedder": "embedder:\n  type: word2vec\n",
		"store":    "vector_store:\n  type: redis\n",
		"qdrant":   "vector_store:\n  type: qdrant\n",
		"source":   "sources:\n  - files: [a.md]\n",
		"yaml":     "sources: [",
	}
	for name, yml := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Server.Addr = ":9090"

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

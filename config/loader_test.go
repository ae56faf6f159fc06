package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithoutDotenv().Load()
	require.NoError(t, err)

	assert.Equal(t, "bge-m3", cfg.Embeddings.DefaultModel)
	assert.Equal(t, 1000, cfg.Chunking.ChunkSize)
	assert.Equal(t, 0.3, cfg.Search.ScoreThreshold)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ragstore.yaml")
	yaml := `
chunking:
  chunk_size: 500
  chunk_overlap: 25
  min_chunk_size: 100
search:
  top_k: 5
  score_threshold: 0.5
vector_store:
  base_directory: /tmp/kb
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := NewLoader().WithConfigPath(path).WithoutDotenv().Load()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Chunking.ChunkSize)
	assert.Equal(t, 25, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, 5, cfg.Search.TopK)
	assert.Equal(t, "/tmp/kb", cfg.VectorStore.BaseDirectory)
	// 未覆盖的部分保持默认
	assert.Equal(t, "bge-m3", cfg.Embeddings.DefaultModel)
}

func TestEnvOverridesYAML(t *testing.T) {
	t.Setenv("RAGSTORE_CHUNK_SIZE", "800")
	t.Setenv("RAGSTORE_SCORE_THRESHOLD", "0.7")
	t.Setenv("RAGSTORE_RERANK_ENABLED", "true")
	t.Setenv("RAGSTORE_EMBEDDING_API_KEY", "sk-test")

	cfg, err := NewLoader().WithoutDotenv().Load()
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Chunking.ChunkSize)
	assert.Equal(t, 0.7, cfg.Search.ScoreThreshold)
	assert.True(t, cfg.Rerank.Enabled)
	assert.Equal(t, "sk-test", cfg.Embeddings.Models["bge-m3"].APIKey)
}

func TestEnvOverridesRateLimitAndTokenEncoding(t *testing.T) {
	t.Setenv("RAGSTORE_EMBEDDING_RPS", "2.5")
	t.Setenv("RAGSTORE_TOKEN_ENCODING", "cl100k_base")

	cfg, err := NewLoader().WithoutDotenv().Load()
	require.NoError(t, err)

	assert.Equal(t, 2.5, cfg.Embeddings.Models["bge-m3"].RequestsPerSecond)
	assert.Equal(t, "cl100k_base", cfg.Chunking.TokenEncoding)
}

func TestValidateRejectsUnknownDefaultModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Embeddings.DefaultModel = "no-such-model"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadOverlap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chunking.ChunkOverlap = cfg.Chunking.ChunkSize
	assert.Error(t, cfg.Validate())
}

func TestEmbeddingModelLookup(t *testing.T) {
	cfg := DefaultConfig()

	name, m, err := cfg.EmbeddingModel("")
	require.NoError(t, err)
	assert.Equal(t, "bge-m3", name)
	assert.Equal(t, 1024, m.Dimension)

	_, _, err = cfg.EmbeddingModel("missing")
	assert.Error(t, err)
}

func TestRerankModelLookup(t *testing.T) {
	cfg := DefaultConfig()

	name, _, err := cfg.RerankModel("")
	require.NoError(t, err)
	assert.Equal(t, "bge-reranker-v2-m3", name)

	_, _, err = cfg.RerankModel("missing")
	assert.Error(t, err)
}

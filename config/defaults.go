package config

import "time"

// DefaultConfig 返回默认配置。
// 优先级链的最底层：默认值 → YAML 文件 → 环境变量。
func DefaultConfig() *Config {
	return &Config{
		Embeddings: EmbeddingsConfig{
			DefaultModel: "bge-m3",
			Models: map[string]EmbeddingModelConfig{
				"bge-m3": {
					BaseURL:   "http://localhost:8000/v1",
					Model:     "bge-m3",
					Dimension: 1024,
					ChunkSize: 1000,
					MaxBatch:  64,
					Timeout:   30 * time.Second,
				},
			},
		},
		Rerank: RerankConfig{
			Enabled:      false,
			DefaultModel: "bge-reranker-v2-m3",
			Models: map[string]RerankModelConfig{
				"bge-reranker-v2-m3": {
					BaseURL: "http://localhost:8000/v1",
					Model:   "bge-reranker-v2-m3",
					Timeout: 30 * time.Second,
				},
			},
		},
		VectorStore: VectorStoreConfig{
			Type:           "flat",
			BaseDirectory:  "./knowledge_base",
			IndexPrefix:    "index_",
			MetadataPrefix: "metadata_",
		},
		Chunking: ChunkingConfig{
			ChunkSize:    1000,
			ChunkOverlap: 50,
			MinChunkSize: 200,
		},
		Search: SearchConfig{
			TopK:           10,
			ScoreThreshold: 0.3,
			VectorWeight:   0.7,
			KeywordWeight:  0.3,
		},
		Cache: CacheConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			TTL:     24 * time.Hour,
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

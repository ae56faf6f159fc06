package config

import (
	"fmt"
	"time"
)

// Config 知识库服务的全量配置
type Config struct {
	Embeddings  EmbeddingsConfig  `json:"embeddings" yaml:"embeddings"`
	Rerank      RerankConfig      `json:"rerank" yaml:"rerank"`
	VectorStore VectorStoreConfig `json:"vector_store" yaml:"vector_store"`
	Chunking    ChunkingConfig    `json:"chunking" yaml:"chunking"`
	Search      SearchConfig      `json:"search" yaml:"search"`
	Cache       CacheConfig       `json:"cache" yaml:"cache"`
	Log         LogConfig         `json:"log" yaml:"log"`
}

// EmbeddingsConfig 嵌入模型注册表
type EmbeddingsConfig struct {
	DefaultModel string                          `json:"default_model" yaml:"default_model"`
	Models       map[string]EmbeddingModelConfig `json:"models" yaml:"models"`
}

// EmbeddingModelConfig 单个嵌入模型的连接参数
type EmbeddingModelConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url"`
	APIKey  string `json:"api_key" yaml:"api_key"`
	Model   string `json:"model" yaml:"model"`

	// RequestsPerSecond 每秒请求上限；为 0 时不限流
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	Dimension int           `json:"dimension" yaml:"dimension"`
	ChunkSize int           `json:"chunk_size" yaml:"chunk_size"`
	MaxBatch  int           `json:"max_batch" yaml:"max_batch"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout"`
}

// RerankConfig 重排序模型注册表
type RerankConfig struct {
	Enabled      bool                         `json:"enabled" yaml:"enabled"`
	DefaultModel string                       `json:"default_model" yaml:"default_model"`
	Models       map[string]RerankModelConfig `json:"models" yaml:"models"`
}

// RerankModelConfig 单个重排序模型的连接参数
type RerankModelConfig struct {
	BaseURL string        `json:"base_url" yaml:"base_url"`
	APIKey  string        `json:"api_key" yaml:"api_key"`
	Model   string        `json:"model" yaml:"model"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// VectorStoreConfig 向量索引的落盘配置
type VectorStoreConfig struct {
	Type           string `json:"type" yaml:"type"`
	BaseDirectory  string `json:"base_directory" yaml:"base_directory"`
	IndexPrefix    string `json:"index_prefix" yaml:"index_prefix"`
	MetadataPrefix string `json:"metadata_prefix" yaml:"metadata_prefix"`
}

// ChunkingConfig 文本分块参数
type ChunkingConfig struct {
	ChunkSize    int `json:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap"`
	MinChunkSize int `json:"min_chunk_size" yaml:"min_chunk_size"`

	// TokenEncoding 非空时块大小按该 tiktoken 编码的
	// token 数度量（如 "cl100k_base"），否则按字符数
	TokenEncoding string `json:"token_encoding" yaml:"token_encoding"`
}

// SearchConfig 检索参数
type SearchConfig struct {
	TopK           int     `json:"top_k" yaml:"top_k"`
	ScoreThreshold float64 `json:"score_threshold" yaml:"score_threshold"`
	VectorWeight   float64 `json:"vector_weight" yaml:"vector_weight"`
	KeywordWeight  float64 `json:"keyword_weight" yaml:"keyword_weight"`
}

// CacheConfig 查询嵌入的 Redis 缓存配置
type CacheConfig struct {
	Enabled  bool          `json:"enabled" yaml:"enabled"`
	Addr     string        `json:"addr" yaml:"addr"`
	Password string        `json:"password" yaml:"password"`
	DB       int           `json:"db" yaml:"db"`
	TTL      time.Duration `json:"ttl" yaml:"ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `json:"level" yaml:"level"`
	Encoding string `json:"encoding" yaml:"encoding"`
}

// EmbeddingModel 解析嵌入模型配置。name 为空时使用默认模型，
// 未注册的模型名直接报错而不是回退。
func (c *Config) EmbeddingModel(name string) (string, EmbeddingModelConfig, error) {
	if name == "" {
		name = c.Embeddings.DefaultModel
	}
	m, ok := c.Embeddings.Models[name]
	if !ok {
		return "", EmbeddingModelConfig{}, fmt.Errorf("config: embedding model %q not registered", name)
	}
	return name, m, nil
}

// RerankModel 解析重排序模型配置，语义同 EmbeddingModel
func (c *Config) RerankModel(name string) (string, RerankModelConfig, error) {
	if name == "" {
		name = c.Rerank.DefaultModel
	}
	m, ok := c.Rerank.Models[name]
	if !ok {
		return "", RerankModelConfig{}, fmt.Errorf("config: rerank model %q not registered", name)
	}
	return name, m, nil
}

// Validate 校验配置的内部一致性
func (c *Config) Validate() error {
	if _, ok := c.Embeddings.Models[c.Embeddings.DefaultModel]; !ok {
		return fmt.Errorf("config: default embedding model %q not registered", c.Embeddings.DefaultModel)
	}
	if c.Rerank.Enabled {
		if _, ok := c.Rerank.Models[c.Rerank.DefaultModel]; !ok {
			return fmt.Errorf("config: default rerank model %q not registered", c.Rerank.DefaultModel)
		}
	}
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("config: chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("config: chunk_overlap must be in [0, chunk_size), got %d", c.Chunking.ChunkOverlap)
	}
	if c.Chunking.MinChunkSize < 0 {
		return fmt.Errorf("config: min_chunk_size must be non-negative, got %d", c.Chunking.MinChunkSize)
	}
	if c.Search.TopK <= 0 {
		return fmt.Errorf("config: top_k must be positive, got %d", c.Search.TopK)
	}
	if c.Search.ScoreThreshold < 0 || c.Search.ScoreThreshold > 1 {
		return fmt.Errorf("config: score_threshold must be in [0, 1], got %g", c.Search.ScoreThreshold)
	}
	if c.VectorStore.BaseDirectory == "" {
		return fmt.Errorf("config: vector_store.base_directory must not be empty")
	}
	return nil
}

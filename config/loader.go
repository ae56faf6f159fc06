// 统一配置加载，支持 YAML 文件 + .env 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("ragstore.yaml").
//	    WithEnvPrefix("RAGSTORE").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Loader 配置加载器
type Loader struct {
	configPath string
	envPrefix  string
	dotenv     bool
}

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix: "RAGSTORE",
		dotenv:    true,
	}
}

// WithConfigPath 设置 YAML 配置文件路径；为空时跳过文件加载
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithoutDotenv 禁用 .env 文件加载
func (l *Loader) WithoutDotenv() *Loader {
	l.dotenv = false
	return l
}

// Load 按优先级加载并校验配置
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.dotenv {
		// .env 不存在不是错误
		_ = godotenv.Load()
	}

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", l.configPath, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", l.configPath, err)
		}
	}

	l.applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv 应用环境变量覆盖。覆盖面向部署时最常变化的字段；
// 模型注册表等结构化配置通过 YAML 管理。
func (l *Loader) applyEnv(cfg *Config) {
	l.envString("VECTOR_STORE_DIR", &cfg.VectorStore.BaseDirectory)
	l.envString("VECTOR_STORE_TYPE", &cfg.VectorStore.Type)
	l.envString("EMBEDDING_MODEL", &cfg.Embeddings.DefaultModel)
	l.envString("RERANK_MODEL", &cfg.Rerank.DefaultModel)
	l.envBool("RERANK_ENABLED", &cfg.Rerank.Enabled)
	l.envInt("CHUNK_SIZE", &cfg.Chunking.ChunkSize)
	l.envInt("CHUNK_OVERLAP", &cfg.Chunking.ChunkOverlap)
	l.envInt("MIN_CHUNK_SIZE", &cfg.Chunking.MinChunkSize)
	l.envString("TOKEN_ENCODING", &cfg.Chunking.TokenEncoding)
	l.envInt("SEARCH_TOP_K", &cfg.Search.TopK)
	l.envFloat("SCORE_THRESHOLD", &cfg.Search.ScoreThreshold)
	l.envBool("CACHE_ENABLED", &cfg.Cache.Enabled)
	l.envString("CACHE_ADDR", &cfg.Cache.Addr)
	l.envString("CACHE_PASSWORD", &cfg.Cache.Password)
	l.envDuration("CACHE_TTL", &cfg.Cache.TTL)
	l.envString("LOG_LEVEL", &cfg.Log.Level)
	l.envString("LOG_ENCODING", &cfg.Log.Encoding)

	// API 密钥与限流覆盖应用到默认模型条目
	if key, ok := l.lookup("EMBEDDING_API_KEY"); ok {
		if m, found := cfg.Embeddings.Models[cfg.Embeddings.DefaultModel]; found {
			m.APIKey = key
			cfg.Embeddings.Models[cfg.Embeddings.DefaultModel] = m
		}
	}
	if m, found := cfg.Embeddings.Models[cfg.Embeddings.DefaultModel]; found {
		l.envFloat("EMBEDDING_RPS", &m.RequestsPerSecond)
		cfg.Embeddings.Models[cfg.Embeddings.DefaultModel] = m
	}
	if key, ok := l.lookup("RERANK_API_KEY"); ok {
		if m, found := cfg.Rerank.Models[cfg.Rerank.DefaultModel]; found {
			m.APIKey = key
			cfg.Rerank.Models[cfg.Rerank.DefaultModel] = m
		}
	}
}

func (l *Loader) lookup(name string) (string, bool) {
	return os.LookupEnv(l.envPrefix + "_" + name)
}

func (l *Loader) envString(name string, dst *string) {
	if v, ok := l.lookup(name); ok {
		*dst = v
	}
}

func (l *Loader) envInt(name string, dst *int) {
	if v, ok := l.lookup(name); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func (l *Loader) envFloat(name string, dst *float64) {
	if v, ok := l.lookup(name); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func (l *Loader) envBool(name string, dst *bool) {
	if v, ok := l.lookup(name); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func (l *Loader) envDuration(name string, dst *time.Duration) {
	if v, ok := l.lookup(name); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

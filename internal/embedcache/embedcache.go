// Package embedcache provides a Redis-backed cache for query embeddings.
// This package is internal and should not be imported by external projects.
package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/ragstore/internal/metrics"
)

// Config 嵌入缓存配置
type Config struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

// Cache 查询嵌入缓存。键为 (模型名, 文本 SHA-256)，同一查询在
// TTL 内复用上次的向量，避免重复调用远端嵌入服务。
// 缓存故障只记录日志，从不阻断嵌入路径。
type Cache struct {
	redis     *redis.Client
	ttl       time.Duration
	logger    *zap.Logger
	collector *metrics.Collector
}

// New 创建嵌入缓存并验证 Redis 连通性
func New(cfg Config, logger *zap.Logger) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("embedcache: connect to redis: %w", err)
	}

	logger.Info("embedding cache initialized",
		zap.String("addr", cfg.Addr),
		zap.Duration("ttl", ttl))

	return &Cache{
		redis:  client,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "embedcache")),
	}, nil
}

// WithCollector 挂接指标收集器
func (c *Cache) WithCollector(collector *metrics.Collector) *Cache {
	c.collector = collector
	return c
}

// Key 计算缓存键
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "ragstore:embed:" + model + ":" + hex.EncodeToString(sum[:])
}

// Get 查询缓存的嵌入向量。未命中或缓存故障返回 (nil, false)。
func (c *Cache) Get(ctx context.Context, model, text string) ([]float32, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.redis.Get(ctx, Key(model, text)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("embedding cache read failed", zap.Error(err))
		}
		c.collector.RecordCacheMiss("embedding")
		return nil, false
	}

	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		c.logger.Warn("embedding cache entry corrupt, discarding", zap.Error(err))
		_ = c.redis.Del(ctx, Key(model, text)).Err()
		c.collector.RecordCacheMiss("embedding")
		return nil, false
	}

	c.collector.RecordCacheHit("embedding")
	return vec, true
}

// Set 写入嵌入向量，失败只记录日志
func (c *Cache) Set(ctx context.Context, model, text string, vec []float32) {
	if c == nil {
		return
	}

	data, err := json.Marshal(vec)
	if err != nil {
		c.logger.Warn("embedding cache marshal failed", zap.Error(err))
		return
	}
	if err := c.redis.Set(ctx, Key(model, text), data, c.ttl).Err(); err != nil {
		c.logger.Warn("embedding cache write failed", zap.Error(err))
	}
}

// Close 关闭底层 Redis 连接
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.redis.Close()
}

// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector 指标收集器。nil 接收者安全：未启用指标时所有记录方法为空操作。
type Collector struct {
	// 摄取指标
	documentsExtracted *prometheus.CounterVec
	chunksIngested     *prometheus.CounterVec
	ingestDuration     *prometheus.HistogramVec

	// 嵌入指标
	embedRequestsTotal *prometheus.CounterVec
	embedDuration      *prometheus.HistogramVec
	embedTokensUsed    *prometheus.CounterVec

	// 检索指标
	searchesTotal  *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec

	// 重排指标
	rerankRequestsTotal *prometheus.CounterVec
	rerankFallbacks     prometheus.Counter

	// 缓存指标
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 摄取指标
	c.documentsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_extracted_total",
			Help:      "Total number of documents extracted",
		},
		[]string{"format"},
	)

	c.chunksIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_ingested_total",
			Help:      "Total number of chunks added to the vector index",
		},
		[]string{"collection"},
	)

	c.ingestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Folder/text ingestion duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"collection"},
	)

	// 嵌入指标
	c.embedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding API requests",
		},
		[]string{"model", "status"},
	)

	c.embedDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding API request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"model"},
	)

	c.embedTokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_tokens_used_total",
			Help:      "Total number of tokens consumed by embedding requests",
		},
		[]string{"model"},
	)

	// 检索指标
	c.searchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of search requests",
		},
		[]string{"collection", "mode", "status"},
	)

	c.searchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"collection", "mode"},
	)

	// 重排指标
	c.rerankRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rerank_requests_total",
			Help:      "Total number of rerank API requests",
		},
		[]string{"model", "status"},
	)

	c.rerankFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rerank_fallbacks_total",
			Help:      "Total number of rerank calls that fell back to original ordering",
		},
	)

	// 缓存指标
	c.cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	c.cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// RecordExtraction 记录文档提取
func (c *Collector) RecordExtraction(format string) {
	if c == nil {
		return
	}
	c.documentsExtracted.WithLabelValues(format).Inc()
}

// RecordIngest 记录一次摄取
func (c *Collector) RecordIngest(collection string, chunks int, duration time.Duration) {
	if c == nil {
		return
	}
	c.chunksIngested.WithLabelValues(collection).Add(float64(chunks))
	c.ingestDuration.WithLabelValues(collection).Observe(duration.Seconds())
}

// RecordEmbedding 记录嵌入请求
func (c *Collector) RecordEmbedding(model, status string, duration time.Duration, tokens int) {
	if c == nil {
		return
	}
	c.embedRequestsTotal.WithLabelValues(model, status).Inc()
	c.embedDuration.WithLabelValues(model).Observe(duration.Seconds())
	c.embedTokensUsed.WithLabelValues(model).Add(float64(tokens))
}

// RecordSearch 记录检索请求
func (c *Collector) RecordSearch(collection, mode, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.searchesTotal.WithLabelValues(collection, mode, status).Inc()
	c.searchDuration.WithLabelValues(collection, mode).Observe(duration.Seconds())
}

// RecordRerank 记录重排请求
func (c *Collector) RecordRerank(model, status string) {
	if c == nil {
		return
	}
	c.rerankRequestsTotal.WithLabelValues(model, status).Inc()
}

// RecordRerankFallback 记录重排回退
func (c *Collector) RecordRerankFallback() {
	if c == nil {
		return
	}
	c.rerankFallbacks.Inc()
}

// RecordCacheHit 记录缓存命中
func (c *Collector) RecordCacheHit(cacheType string) {
	if c == nil {
		return
	}
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (c *Collector) RecordCacheMiss(cacheType string) {
	if c == nil {
		return
	}
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}

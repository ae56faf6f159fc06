package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

// promauto 注册到全局 registry，每个测试用独立命名空间避免冲突
func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("ragstore_test_%d", seq)
}

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.chunksIngested)
	assert.NotNil(t, collector.searchesTotal)
	assert.NotNil(t, collector.embedRequestsTotal)
	assert.NotNil(t, collector.rerankFallbacks)
}

func TestCollector_RecordIngest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordIngest("docs", 12, 300*time.Millisecond)
	collector.RecordIngest("docs", 3, 50*time.Millisecond)

	count := testutil.CollectAndCount(collector.chunksIngested)
	assert.Greater(t, count, 0)
	assert.Equal(t, float64(15), testutil.ToFloat64(collector.chunksIngested.WithLabelValues("docs")))
}

func TestCollector_RecordSearch(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordSearch("docs", "vector", "success", 20*time.Millisecond)
	collector.RecordSearch("docs", "hybrid", "success", 40*time.Millisecond)

	count := testutil.CollectAndCount(collector.searchesTotal)
	assert.Greater(t, count, 0)
}

func TestCollector_RecordRerankFallback(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordRerankFallback()
	collector.RecordRerankFallback()

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.rerankFallbacks))
}

func TestCollector_NilReceiverIsNoop(t *testing.T) {
	var collector *Collector

	// 不应 panic
	collector.RecordExtraction(".txt")
	collector.RecordIngest("docs", 1, time.Millisecond)
	collector.RecordEmbedding("bge-m3", "success", time.Millisecond, 10)
	collector.RecordSearch("docs", "vector", "success", time.Millisecond)
	collector.RecordRerank("bge-reranker", "success")
	collector.RecordRerankFallback()
	collector.RecordCacheHit("embedding")
	collector.RecordCacheMiss("embedding")
}

package knowledge

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/BaSui01/ragstore/config"
	"github.com/BaSui01/ragstore/embedding"
	"github.com/BaSui01/ragstore/internal/embedcache"
	"github.com/BaSui01/ragstore/internal/metrics"
	"github.com/BaSui01/ragstore/rerank"
)

// BackendFlat 平坦内积索引后端，当前唯一的实现
const BackendFlat = "flat"

// providerCacheSize 嵌入提供者句柄缓存上限
const providerCacheSize = 16

// Factory 按集合名构造并缓存知识库管理器。
// 后端类型字符串留作扩展点：未知类型回退到平坦索引后端并告警。
type Factory struct {
	cfg       *config.Config
	logger    *zap.Logger
	collector *metrics.Collector
	cache     *embedcache.Cache

	group    singleflight.Group
	mu       sync.Mutex
	managers map[string]Manager

	providers *providerLRU
}

// NewFactory 创建工厂
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{
		cfg:       cfg,
		logger:    logger,
		managers:  make(map[string]Manager),
		providers: newProviderLRU(providerCacheSize),
	}
}

// WithCollector 挂接指标收集器
func (f *Factory) WithCollector(c *metrics.Collector) *Factory {
	f.collector = c
	return f
}

// WithCache 挂接查询嵌入缓存
func (f *Factory) WithCache(c *embedcache.Cache) *Factory {
	f.cache = c
	return f
}

// Manager 返回指定集合的管理器，已构造过的直接复用。
// 并发请求同一集合只构造一次。
func (f *Factory) Manager(ctx context.Context, collection, backendType string) (Manager, error) {
	if backendType == "" {
		backendType = f.cfg.VectorStore.Type
	}
	if backendType == "" {
		backendType = BackendFlat
	}
	if backendType != BackendFlat {
		f.logger.Warn("unknown vector store backend, falling back to flat",
			zap.String("requested", backendType),
			zap.String("collection", collection))
		backendType = BackendFlat
	}

	key := backendType + "/" + collection
	v, err, _ := f.group.Do(key, func() (any, error) {
		f.mu.Lock()
		if m, ok := f.managers[key]; ok {
			f.mu.Unlock()
			return m, nil
		}
		f.mu.Unlock()

		m, err := f.build(ctx, collection)
		if err != nil {
			return nil, err
		}

		f.mu.Lock()
		f.managers[key] = m
		f.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Manager), nil
}

func (f *Factory) build(ctx context.Context, collection string) (Manager, error) {
	provider, err := f.embeddingProvider("")
	if err != nil {
		return nil, err
	}

	m, err := NewLocalManager(LocalOptions{
		Collection: collection,
		Store:      f.cfg.VectorStore,
		Chunking:   f.cfg.Chunking,
		Search:     f.cfg.Search,
		Embedder:   provider,
		Reranker:   f.Reranker(),
		Cache:      f.cache,
		Collector:  f.collector,
		Logger:     f.logger,
	})
	if err != nil {
		return nil, err
	}
	if err := m.Initialize(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// embeddingProvider 解析模型名并复用缓存的提供者句柄
func (f *Factory) embeddingProvider(modelName string) (embedding.Provider, error) {
	name, mc, err := f.cfg.EmbeddingModel(modelName)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s|%s|%s|%d", name, mc.BaseURL, mc.Model, mc.Dimension)
	if p, ok := f.providers.get(key); ok {
		return p, nil
	}

	p := embedding.NewOpenAIProvider(embedding.Config{
		Name:              name,
		BaseURL:           mc.BaseURL,
		APIKey:            mc.APIKey,
		Model:             mc.Model,
		Dimensions:        mc.Dimension,
		MaxBatch:          mc.MaxBatch,
		Timeout:           mc.Timeout,
		RequestsPerSecond: mc.RequestsPerSecond,
	}, f.logger)
	f.providers.put(key, p)
	return p, nil
}

// Reranker 按配置构造重排客户端，未启用时仍返回可用实例
// （其 Enabled 为 false，调用方透传原始结果）。
func (f *Factory) Reranker() *rerank.Reranker {
	_, mc, err := f.cfg.RerankModel("")
	if err != nil {
		// 注册表里没有默认重排模型，视为未启用
		return rerank.New(rerank.Config{Enabled: false}, f.logger)
	}
	r := rerank.New(rerank.Config{
		BaseURL: mc.BaseURL,
		APIKey:  mc.APIKey,
		Model:   mc.Model,
		Enabled: f.cfg.Rerank.Enabled,
		Timeout: mc.Timeout,
	}, f.logger)
	return r.WithCollector(f.collector)
}

// ApplyRerank 对一次检索输出应用重排，阈值预过滤后为空则返回空结果
func (f *Factory) ApplyRerank(ctx context.Context, query string, out SearchOutput, topK int, scoreThreshold float64) SearchOutput {
	r := f.Reranker()
	if !r.Enabled() || !out.Success {
		return out
	}

	items := make([]rerank.Item, len(out.ContextList))
	for i, sr := range out.ContextList {
		items[i] = rerank.Item{
			Content:  sr.Content,
			Source:   sr.Source,
			Metadata: sr.Metadata,
			Score:    sr.Score,
		}
	}

	reranked := r.ApplyToSearchResults(ctx, query, rerank.Output{
		Success:     out.Success,
		Context:     out.Context,
		ContextList: items,
		DocsCount:   out.DocsCount,
	}, topK, scoreThreshold)

	results := make([]SearchResult, len(reranked.ContextList))
	for i, item := range reranked.ContextList {
		results[i] = SearchResult{
			Content:     item.Content,
			Source:      item.Source,
			Metadata:    item.Metadata,
			Score:       item.Score,
			RerankScore: item.RerankScore,
			Reranked:    item.Reranked,
		}
	}
	return SearchOutput{
		Success:     reranked.Success,
		Context:     reranked.Context,
		ContextList: results,
		DocsCount:   reranked.DocsCount,
	}
}

// providerLRU 有界的嵌入提供者句柄缓存
type providerLRU struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

type lruEntry struct {
	key      string
	provider embedding.Provider
}

func newProviderLRU(capacity int) *providerLRU {
	return &providerLRU{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

func (c *providerLRU) get(key string) (embedding.Provider, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry).provider, true
}

func (c *providerLRU) put(key string, p embedding.Provider) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*lruEntry).provider = p
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&lruEntry{key: key, provider: p})

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*lruEntry).key)
	}
}

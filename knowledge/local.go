package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/ragstore/config"
	"github.com/BaSui01/ragstore/embedding"
	"github.com/BaSui01/ragstore/extract"
	"github.com/BaSui01/ragstore/internal/embedcache"
	"github.com/BaSui01/ragstore/internal/metrics"
	"github.com/BaSui01/ragstore/rerank"
	"github.com/BaSui01/ragstore/splitter"
)

// minChunkChars 短于该字符数的块不入索引
const minChunkChars = 3

// LocalOptions LocalManager 的构造参数
type LocalOptions struct {
	Collection string
	Store      config.VectorStoreConfig
	Chunking   config.ChunkingConfig
	Search     config.SearchConfig
	Embedder   embedding.Provider
	Reranker   *rerank.Reranker
	Cache      *embedcache.Cache
	Collector  *metrics.Collector
	Logger     *zap.Logger
}

// LocalManager 基于平坦内积索引的本地知识库实现。
// texts/metadata 与索引中的向量按位置对齐：向量 i 对应 texts[i]
// 和 metadata[i]。所有读写经由每集合一把的读写锁。
type LocalManager struct {
	collection string
	store      config.VectorStoreConfig
	search     config.SearchConfig

	embedder  embedding.Provider
	reranker  *rerank.Reranker
	cache     *embedcache.Cache
	collector *metrics.Collector
	extractor *extract.Extractor
	splitter  *splitter.HybridSplitter
	logger    *zap.Logger

	mu          sync.RWMutex
	index       *FlatIndex
	texts       []string
	metadata    []map[string]any
	initialized bool
	degraded    bool
}

var _ Manager = (*LocalManager)(nil)

// NewLocalManager 创建本地知识库管理器
func NewLocalManager(opts LocalOptions) (*LocalManager, error) {
	if opts.Collection == "" {
		return nil, fmt.Errorf("knowledge: collection name must not be empty")
	}
	if opts.Embedder == nil {
		return nil, fmt.Errorf("knowledge: embedding provider is required")
	}
	if opts.Store.BaseDirectory == "" {
		return nil, fmt.Errorf("knowledge: base directory must not be empty")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("collection", opts.Collection))

	chunking := opts.Chunking
	if chunking.ChunkSize <= 0 {
		chunking.ChunkSize = 1000
	}

	var lengthFn splitter.LengthFunc
	if chunking.TokenEncoding != "" {
		fn, err := splitter.TokenLength(chunking.TokenEncoding)
		if err != nil {
			return nil, err
		}
		lengthFn = fn
	}

	return &LocalManager{
		collection: opts.Collection,
		store:      opts.Store,
		search:     opts.Search,
		embedder:   opts.Embedder,
		reranker:   opts.Reranker,
		cache:      opts.Cache,
		collector:  opts.Collector,
		extractor:  extract.NewExtractor(logger),
		splitter: splitter.NewHybridSplitter(splitter.HybridConfig{
			ChunkSize:    chunking.ChunkSize,
			ChunkOverlap: chunking.ChunkOverlap,
			MinChunkSize: chunking.MinChunkSize,
			LengthFn:     lengthFn,
		}, logger),
		logger: logger,
	}, nil
}

func (m *LocalManager) dir() string {
	return filepath.Join(m.store.BaseDirectory, m.collection)
}

func (m *LocalManager) indexPath() string {
	return filepath.Join(m.dir(), m.store.IndexPrefix+m.collection+".faiss")
}

func (m *LocalManager) metadataPath() string {
	return filepath.Join(m.dir(), m.store.MetadataPrefix+m.collection+".json")
}

type metadataFile struct {
	Texts    []string         `json:"texts"`
	Metadata []map[string]any `json:"metadata"`
}

// Initialize 加载或创建集合。幂等：已初始化时直接返回。
// 磁盘状态损坏时以空集合启动并标记降级，不会静默丢弃后继续装正常。
func (m *LocalManager) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	if err := os.MkdirAll(m.dir(), 0o755); err != nil {
		return fmt.Errorf("knowledge: create collection dir: %w", err)
	}

	m.index = NewFlatIndex(m.embedder.Dimensions())
	m.texts = nil
	m.metadata = nil
	m.degraded = false

	if _, err := os.Stat(m.indexPath()); err == nil {
		m.loadFromDiskLocked()
	}

	m.initialized = true
	m.logger.Info("knowledge base initialized",
		zap.Int("docs", len(m.texts)),
		zap.Int("dimension", m.index.Dimension()),
		zap.Bool("degraded", m.degraded))
	return nil
}

// loadFromDiskLocked 尝试恢复磁盘状态，任何一步失败都回退到空集合
// 并标记降级。调用方持写锁。
func (m *LocalManager) loadFromDiskLocked() {
	idx, err := ReadIndexFile(m.indexPath())
	if err != nil {
		m.logger.Warn("index file unreadable, starting with empty collection",
			zap.String("path", m.indexPath()), zap.Error(err))
		m.degraded = true
		return
	}

	data, err := os.ReadFile(m.metadataPath())
	if err != nil {
		m.logger.Warn("metadata file unreadable, starting with empty collection",
			zap.String("path", m.metadataPath()), zap.Error(err))
		m.degraded = true
		return
	}
	var meta metadataFile
	if err := json.Unmarshal(data, &meta); err != nil {
		m.logger.Warn("metadata file corrupt, starting with empty collection",
			zap.String("path", m.metadataPath()), zap.Error(err))
		m.degraded = true
		return
	}

	if idx.NTotal() != len(meta.Texts) || len(meta.Texts) != len(meta.Metadata) {
		m.logger.Warn("index and metadata misaligned, starting with empty collection",
			zap.Int("vectors", idx.NTotal()),
			zap.Int("texts", len(meta.Texts)),
			zap.Int("metadata", len(meta.Metadata)))
		m.degraded = true
		return
	}

	m.index = idx
	m.texts = meta.Texts
	m.metadata = meta.Metadata
}

// persistLocked 原子持久化：先写临时文件再 rename。调用方持写锁。
func (m *LocalManager) persistLocked() error {
	if err := os.MkdirAll(m.dir(), 0o755); err != nil {
		return fmt.Errorf("knowledge: create collection dir: %w", err)
	}

	tmpIndex := m.indexPath() + ".tmp"
	if err := m.index.WriteFile(tmpIndex); err != nil {
		return err
	}

	meta, err := json.Marshal(metadataFile{Texts: m.texts, Metadata: m.metadata})
	if err != nil {
		return fmt.Errorf("knowledge: marshal metadata: %w", err)
	}
	tmpMeta := m.metadataPath() + ".tmp"
	if err := os.WriteFile(tmpMeta, meta, 0o644); err != nil {
		os.Remove(tmpIndex)
		return fmt.Errorf("knowledge: write metadata: %w", err)
	}

	if err := os.Rename(tmpIndex, m.indexPath()); err != nil {
		os.Remove(tmpIndex)
		os.Remove(tmpMeta)
		return fmt.Errorf("knowledge: replace index file: %w", err)
	}
	if err := os.Rename(tmpMeta, m.metadataPath()); err != nil {
		os.Remove(tmpMeta)
		return fmt.Errorf("knowledge: replace metadata file: %w", err)
	}
	return nil
}

// chunkFilter 丢弃过短的块
func chunkFilter(chunks []string) []string {
	kept := chunks[:0]
	for _, c := range chunks {
		if len([]rune(strings.TrimSpace(c))) >= minChunkChars {
			kept = append(kept, c)
		}
	}
	return kept
}

// ingest 将已切分的块嵌入并写入索引，调用方负责持久化语义。
// 每批摄取共享一个 batch_id 便于追溯。
func (m *LocalManager) ingest(ctx context.Context, chunks []string, baseMeta []map[string]any) (int, error) {
	embedStart := time.Now()
	resp, err := m.embedder.Embed(ctx, &embedding.Request{
		Input:     chunks,
		InputType: embedding.InputTypeDocument,
	})
	if err != nil {
		m.collector.RecordEmbedding(m.embedder.Name(), "error", time.Since(embedStart), 0)
		return 0, fmt.Errorf("knowledge: embed chunks: %w", err)
	}
	m.collector.RecordEmbedding(m.embedder.Name(), "success", time.Since(embedStart), resp.Usage.TotalTokens)

	vectors := resp.Embeddings
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("knowledge: embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	for _, vec := range vectors {
		normalizeL2(vec)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(vectors) > 0 && len(vectors[0]) != m.index.Dimension() {
		if m.index.NTotal() == 0 {
			// 空索引跟随嵌入模型的实际维度
			m.index = NewFlatIndex(len(vectors[0]))
		} else {
			return 0, fmt.Errorf("%w: collection has dimension %d, embedder produced %d",
				ErrDimensionMismatch, m.index.Dimension(), len(vectors[0]))
		}
	}

	if err := m.index.Add(vectors); err != nil {
		return 0, err
	}
	m.texts = append(m.texts, chunks...)
	m.metadata = append(m.metadata, baseMeta...)

	if err := m.persistLocked(); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// AddText 摄取单段文本
func (m *LocalManager) AddText(ctx context.Context, text, source string, metadata map[string]any) IngestResult {
	start := time.Now()
	if err := m.Initialize(ctx); err != nil {
		return IngestResult{Message: err.Error()}
	}

	chunks := chunkFilter(m.splitter.SplitText(text))
	if len(chunks) == 0 {
		return IngestResult{Success: true, Message: "no chunks to add", ChunksCount: 0}
	}

	batchID := uuid.New().String()
	metas := make([]map[string]any, len(chunks))
	for i := range chunks {
		meta := map[string]any{
			"source":          source,
			"knowledge_base":  m.collection,
			"embedding_model": m.embedder.Name(),
			"chunk_index":     i,
			"batch_id":        batchID,
		}
		for k, v := range metadata {
			meta[k] = v
		}
		metas[i] = meta
	}

	added, err := m.ingest(ctx, chunks, metas)
	if err != nil {
		m.logger.Error("add text failed", zap.String("source", source), zap.Error(err))
		return IngestResult{Message: err.Error()}
	}

	m.collector.RecordIngest(m.collection, added, time.Since(start))
	m.logger.Info("text added",
		zap.String("source", source),
		zap.Int("chunks", added),
		zap.String("batch_id", batchID))
	return IngestResult{
		Success:     true,
		Message:     fmt.Sprintf("added %d chunks from %s", added, source),
		ChunksCount: added,
	}
}

// LoadFromFolder 递归摄取目录下所有支持的文档。
// 单个文件的提取失败只跳过该文件，整批摄取继续。
func (m *LocalManager) LoadFromFolder(ctx context.Context, folder string) IngestResult {
	start := time.Now()
	if err := m.Initialize(ctx); err != nil {
		return IngestResult{Message: err.Error()}
	}

	docs := m.extractor.ExtractFolder(ctx, folder)
	if len(docs) == 0 {
		return IngestResult{Message: fmt.Sprintf("no supported documents in %s", folder)}
	}

	batchID := uuid.New().String()
	var chunks []string
	var metas []map[string]any
	for _, doc := range docs {
		m.collector.RecordExtraction(string(doc.Format))
		docChunks := chunkFilter(m.splitter.SplitText(doc.Content))
		for i, chunk := range docChunks {
			chunks = append(chunks, chunk)
			metas = append(metas, map[string]any{
				"source":          doc.Source,
				"filename":        doc.Filename,
				"format":          string(doc.Format),
				"knowledge_base":  m.collection,
				"embedding_model": m.embedder.Name(),
				"chunk_index":     i,
				"batch_id":        batchID,
			})
		}
	}
	if len(chunks) == 0 {
		return IngestResult{Message: "documents yielded no usable chunks"}
	}

	added, err := m.ingest(ctx, chunks, metas)
	if err != nil {
		m.logger.Error("folder ingest failed", zap.String("folder", folder), zap.Error(err))
		return IngestResult{Message: err.Error()}
	}

	m.collector.RecordIngest(m.collection, added, time.Since(start))
	m.logger.Info("folder ingested",
		zap.String("folder", folder),
		zap.Int("documents", len(docs)),
		zap.Int("chunks", added),
		zap.String("batch_id", batchID))
	return IngestResult{
		Success:     true,
		Message:     fmt.Sprintf("ingested %d documents (%d chunks) from %s", len(docs), added, folder),
		ChunksCount: added,
	}
}

// embedQuery 嵌入查询，优先命中缓存
func (m *LocalManager) embedQuery(ctx context.Context, query string) ([]float32, error) {
	model := m.embedder.Name()
	if vec, ok := m.cache.Get(ctx, model, query); ok {
		normalizeL2(vec)
		return vec, nil
	}

	embedStart := time.Now()
	resp, err := m.embedder.Embed(ctx, &embedding.Request{
		Input:     []string{query},
		InputType: embedding.InputTypeQuery,
	})
	if err != nil {
		m.collector.RecordEmbedding(model, "error", time.Since(embedStart), 0)
		return nil, err
	}
	if len(resp.Embeddings) != 1 {
		return nil, fmt.Errorf("knowledge: embedder returned %d vectors for one query", len(resp.Embeddings))
	}
	m.collector.RecordEmbedding(model, "success", time.Since(embedStart), resp.Usage.TotalTokens)

	vec := resp.Embeddings[0]
	m.cache.Set(ctx, model, query, vec)
	normalizeL2(vec)
	return vec, nil
}

// buildOutput 组装检索输出，格式与历史行为保持一致
func buildOutput(results []SearchResult) SearchOutput {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("[来源: %s, 相似度: %.3f]\n%s", r.Source, r.Score, r.Content)
	}
	return SearchOutput{
		Success:     true,
		Context:     strings.Join(parts, "\n\n"),
		ContextList: results,
		DocsCount:   len(results),
	}
}

func emptyOutput() SearchOutput {
	return SearchOutput{Success: true, Context: "", ContextList: []SearchResult{}, DocsCount: 0}
}

// resultAt 组装单条检索结果。展示来源优先取文件名，
// 纯文本摄取的条目没有文件名时退回 source。
func (m *LocalManager) resultAt(i int, score float64) SearchResult {
	source := ""
	if s, ok := m.metadata[i]["filename"].(string); ok && s != "" {
		source = s
	} else if s, ok := m.metadata[i]["source"].(string); ok {
		source = s
	}
	return SearchResult{
		Content:  m.texts[i],
		Source:   source,
		Metadata: m.metadata[i],
		Score:    score,
	}
}

// Search 向量检索。空集合返回成功的空结果；嵌入失败返回
// Success=false 和失败原因，不中断进程。
func (m *LocalManager) Search(ctx context.Context, query string, topK int, scoreThreshold float64) SearchOutput {
	start := time.Now()
	if err := m.Initialize(ctx); err != nil {
		return SearchOutput{Message: err.Error()}
	}
	if topK <= 0 {
		topK = m.search.TopK
	}

	m.mu.RLock()
	empty := m.index.NTotal() == 0
	m.mu.RUnlock()
	if empty {
		m.collector.RecordSearch(m.collection, "vector", "success", time.Since(start))
		return emptyOutput()
	}

	queryVec, err := m.embedQuery(ctx, query)
	if err != nil {
		m.logger.Error("query embedding failed", zap.Error(err))
		m.collector.RecordSearch(m.collection, "vector", "error", time.Since(start))
		return SearchOutput{Message: fmt.Sprintf("query embedding failed: %v", err)}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	scores, indices, err := m.index.Search(queryVec, topK)
	if err != nil {
		m.collector.RecordSearch(m.collection, "vector", "error", time.Since(start))
		return SearchOutput{Message: err.Error()}
	}

	results := make([]SearchResult, 0, len(indices))
	for i, idx := range indices {
		score := float64(scores[i])
		if score < scoreThreshold {
			continue
		}
		results = append(results, m.resultAt(idx, score))
	}

	m.collector.RecordSearch(m.collection, "vector", "success", time.Since(start))
	return buildOutput(results)
}

// SearchBM25 词法检索，分数做 min-max 归一化后按阈值过滤
func (m *LocalManager) SearchBM25(ctx context.Context, query string, topK int, scoreThreshold float64) SearchOutput {
	start := time.Now()
	if err := m.Initialize(ctx); err != nil {
		return SearchOutput{Message: err.Error()}
	}
	if topK <= 0 {
		topK = m.search.TopK
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.texts) == 0 {
		m.collector.RecordSearch(m.collection, "bm25", "success", time.Since(start))
		return emptyOutput()
	}

	raw := bm25Scores(query, m.texts)
	normalized := minMaxNormalize(raw)

	order := make([]int, len(normalized))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return normalized[order[a]] > normalized[order[b]]
	})

	results := make([]SearchResult, 0, topK)
	for _, idx := range order {
		if len(results) >= topK {
			break
		}
		// 未命中判定用原始分：min-max 会把最低命中分压到 0
		if raw[idx] == 0 || normalized[idx] < scoreThreshold {
			continue
		}
		results = append(results, m.resultAt(idx, normalized[idx]))
	}

	m.collector.RecordSearch(m.collection, "bm25", "success", time.Since(start))
	return buildOutput(results)
}

// SearchKeywords 关键词检索，等价于 SearchBM25
func (m *LocalManager) SearchKeywords(ctx context.Context, query string, topK int, scoreThreshold float64) SearchOutput {
	return m.SearchBM25(ctx, query, topK, scoreThreshold)
}

// SearchHybrid 向量与词法分数加权融合。两路分数各自 min-max
// 归一化后按权重合成，权重非法时回退到配置默认值。
func (m *LocalManager) SearchHybrid(ctx context.Context, query string, topK int, scoreThreshold, vectorWeight, keywordWeight float64) SearchOutput {
	start := time.Now()
	if err := m.Initialize(ctx); err != nil {
		return SearchOutput{Message: err.Error()}
	}
	if topK <= 0 {
		topK = m.search.TopK
	}
	if vectorWeight <= 0 && keywordWeight <= 0 {
		vectorWeight = m.search.VectorWeight
		keywordWeight = m.search.KeywordWeight
		if vectorWeight <= 0 && keywordWeight <= 0 {
			vectorWeight, keywordWeight = 0.7, 0.3
		}
	}

	m.mu.RLock()
	empty := m.index.NTotal() == 0
	m.mu.RUnlock()
	if empty {
		m.collector.RecordSearch(m.collection, "hybrid", "success", time.Since(start))
		return emptyOutput()
	}

	queryVec, err := m.embedQuery(ctx, query)
	if err != nil {
		m.logger.Error("query embedding failed", zap.Error(err))
		m.collector.RecordSearch(m.collection, "hybrid", "error", time.Since(start))
		return SearchOutput{Message: fmt.Sprintf("query embedding failed: %v", err)}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	// 全量向量分数，与词法分数同域后融合
	vecScoresRaw, vecIndices, err := m.index.Search(queryVec, m.index.NTotal())
	if err != nil {
		m.collector.RecordSearch(m.collection, "hybrid", "error", time.Since(start))
		return SearchOutput{Message: err.Error()}
	}
	vectorScores := make([]float64, len(m.texts))
	for i, idx := range vecIndices {
		vectorScores[idx] = float64(vecScoresRaw[i])
	}
	keywordRaw := bm25Scores(query, m.texts)
	vectorNorm := minMaxNormalize(vectorScores)
	keywordNorm := minMaxNormalize(keywordRaw)

	fused := make([]float64, len(m.texts))
	for i := range fused {
		fused[i] = vectorNorm[i]*vectorWeight + keywordNorm[i]*keywordWeight
	}

	order := make([]int, len(fused))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fused[order[a]] > fused[order[b]]
	})

	results := make([]SearchResult, 0, topK)
	for _, idx := range order {
		if len(results) >= topK {
			break
		}
		// 纯词法权重下未命中任何查询词的文档不参与结果；
		// 带向量权重时每个文档都有向量相似度，仅按阈值过滤
		if vectorWeight == 0 && keywordRaw[idx] == 0 {
			continue
		}
		if fused[idx] < scoreThreshold {
			continue
		}
		results = append(results, m.resultAt(idx, fused[idx]))
	}

	m.collector.RecordSearch(m.collection, "hybrid", "success", time.Since(start))
	return buildOutput(results)
}

// SearchWithRerank 向量检索后经远端打分服务重排。
// 未配置或未启用重排时退化为普通向量检索。
func (m *LocalManager) SearchWithRerank(ctx context.Context, query string, topK int, scoreThreshold float64) SearchOutput {
	out := m.Search(ctx, query, topK, scoreThreshold)
	if !out.Success || len(out.ContextList) == 0 {
		return out
	}
	if m.reranker == nil || !m.reranker.Enabled() {
		return out
	}

	items := make([]rerank.Item, len(out.ContextList))
	for i, r := range out.ContextList {
		items[i] = rerank.Item{
			Content:  r.Content,
			Source:   r.Source,
			Metadata: r.Metadata,
			Score:    r.Score,
		}
	}

	reranked := m.reranker.RerankWithContext(ctx, query, items, topK)

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
		Success:     true,
		Context:     reranked.Context,
		ContextList: results,
		DocsCount:   reranked.DocsCount,
	}
}

// SearchWithDetails 向量检索的带默认值变体，topK 未指定时取 5
func (m *LocalManager) SearchWithDetails(ctx context.Context, query string, topK int, scoreThreshold float64) SearchOutput {
	if topK <= 0 {
		topK = 5
	}
	return m.Search(ctx, query, topK, scoreThreshold)
}

// RemoveBySource 删除来源包含 pattern 的所有条目并重建索引
func (m *LocalManager) RemoveBySource(ctx context.Context, pattern string) OpResult {
	if err := m.Initialize(ctx); err != nil {
		return OpResult{Message: err.Error()}
	}
	if pattern == "" {
		return OpResult{Message: "source pattern must not be empty"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rebuilt := NewFlatIndex(m.index.Dimension())
	var keptTexts []string
	var keptMeta []map[string]any
	var keptVectors [][]float32
	removed := 0

	for i := range m.texts {
		source, _ := m.metadata[i]["source"].(string)
		if strings.Contains(source, pattern) {
			removed++
			continue
		}
		keptTexts = append(keptTexts, m.texts[i])
		keptMeta = append(keptMeta, m.metadata[i])
		keptVectors = append(keptVectors, m.index.vectors[i])
	}

	if removed == 0 {
		return OpResult{Success: true, Message: fmt.Sprintf("no entries matching source %q", pattern)}
	}

	if err := rebuilt.Add(keptVectors); err != nil {
		return OpResult{Message: err.Error()}
	}

	prevIndex, prevTexts, prevMeta := m.index, m.texts, m.metadata
	m.index = rebuilt
	m.texts = keptTexts
	m.metadata = keptMeta

	if err := m.persistLocked(); err != nil {
		m.index, m.texts, m.metadata = prevIndex, prevTexts, prevMeta
		m.logger.Error("remove by source failed to persist", zap.Error(err))
		return OpResult{Message: err.Error()}
	}

	m.logger.Info("entries removed by source",
		zap.String("pattern", pattern),
		zap.Int("removed", removed),
		zap.Int("remaining", len(keptTexts)))
	return OpResult{Success: true, Message: fmt.Sprintf("removed %d entries matching source %q", removed, pattern)}
}

// GetStats 返回集合统计
func (m *LocalManager) GetStats(ctx context.Context) Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{
		Collection:  m.collection,
		Initialized: m.initialized,
		Degraded:    m.degraded,
		IndexPath:   m.indexPath(),
	}
	if m.index != nil {
		stats.DocsCount = m.index.NTotal()
		stats.Dimension = m.index.Dimension()
	}
	return stats
}

// ClearKnowledgeBase 清空集合内容并删除落盘文件，集合本身保留
func (m *LocalManager) ClearKnowledgeBase(ctx context.Context) error {
	if err := m.Initialize(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, path := range []string{m.indexPath(), m.metadataPath()} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("knowledge: clear collection: %w", err)
		}
	}
	m.index = NewFlatIndex(m.index.Dimension())
	m.texts = nil
	m.metadata = nil
	m.degraded = false

	m.logger.Info("knowledge base cleared")
	return nil
}

// DeleteKnowledgeBase 删除集合目录及内存状态
func (m *LocalManager) DeleteKnowledgeBase(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.RemoveAll(m.dir()); err != nil {
		return fmt.Errorf("knowledge: delete collection dir: %w", err)
	}
	m.index = nil
	m.texts = nil
	m.metadata = nil
	m.initialized = false
	m.degraded = false

	m.logger.Info("knowledge base deleted")
	return nil
}

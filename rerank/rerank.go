package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/ragstore/internal/metrics"
	"github.com/BaSui01/ragstore/internal/tlsutil"
)

// Config 重排序客户端配置
type Config struct {
	BaseURL string        `json:"base_url" yaml:"base_url"`
	APIKey  string        `json:"api_key" yaml:"api_key"`
	Model   string        `json:"model" yaml:"model"`
	Enabled bool          `json:"enabled" yaml:"enabled"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Item 一条参与重排的检索结果
type Item struct {
	Content     string         `json:"content"`
	Source      string         `json:"source"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Score       float64        `json:"score"`
	RerankScore float64        `json:"rerank_score,omitempty"`
	Reranked    bool           `json:"-"`
}

// Output 重排后的格式化结果
type Output struct {
	Success     bool   `json:"success"`
	Context     string `json:"context"`
	ContextList []Item `json:"context_list"`
	DocsCount   int    `json:"docs_count"`
}

// Reranker 调用远端打分服务对检索结果重排。
// 重排失败从不阻断检索路径：任何远端错误都回退到原始顺序。
type Reranker struct {
	cfg       Config
	apiURL    string
	client    *http.Client
	logger    *zap.Logger
	collector *metrics.Collector
}

// New 创建重排序客户端
func New(cfg Config, logger *zap.Logger) *Reranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	apiURL := strings.TrimRight(cfg.BaseURL, "/")
	if !strings.HasSuffix(apiURL, "/rerank") {
		apiURL += "/rerank"
	}

	return &Reranker{
		cfg:    cfg,
		apiURL: apiURL,
		client: tlsutil.SecureHTTPClient(timeout),
		logger: logger.With(zap.String("component", "reranker")),
	}
}

// WithCollector 挂接指标收集器
func (r *Reranker) WithCollector(c *metrics.Collector) *Reranker {
	r.collector = c
	return r
}

// Enabled 重排功能是否启用
func (r *Reranker) Enabled() bool { return r.cfg.Enabled }

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank 对检索结果重排并截断到 topK（topK <= 0 表示不截断）。
// 未启用时原样截断返回；远端失败时记录日志并回退到原始顺序；
// 远端返回的结果少于预期时按原始顺序以 0 分补齐。
func (r *Reranker) Rerank(ctx context.Context, query string, items []Item, topK int) []Item {
	if !r.cfg.Enabled {
		return truncate(items, topK)
	}
	if len(items) == 0 {
		return nil
	}

	want := topK
	if want <= 0 || want > len(items) {
		want = len(items)
	}

	scored, err := r.score(ctx, query, items, want)
	if err != nil {
		r.logger.Error("rerank request failed, falling back to original order", zap.Error(err))
		r.collector.RecordRerank(r.cfg.Model, "error")
		r.collector.RecordRerankFallback()
		return truncate(items, topK)
	}
	r.collector.RecordRerank(r.cfg.Model, "success")

	reranked := make([]Item, 0, want)
	seen := make(map[int]bool, len(scored.Results))
	for _, res := range scored.Results {
		if res.Index < 0 || res.Index >= len(items) {
			continue
		}
		item := items[res.Index]
		item.RerankScore = res.RelevanceScore
		item.Reranked = true
		reranked = append(reranked, item)
		seen[res.Index] = true
	}

	// 补齐：远端结果不足时按原始顺序填充，分数记 0
	for i := 0; i < len(items) && len(reranked) < want; i++ {
		if seen[i] {
			continue
		}
		item := items[i]
		item.RerankScore = 0
		item.Reranked = true
		reranked = append(reranked, item)
	}

	r.logger.Info("rerank completed",
		zap.Int("input", len(items)),
		zap.Int("output", len(reranked)))
	return reranked
}

func (r *Reranker) score(ctx context.Context, query string, items []Item, topN int) (*rerankResponse, error) {
	documents := make([]string, len(items))
	for i, item := range items {
		documents[i] = item.Content
	}

	payload, err := json.Marshal(rerankRequest{
		Model:     r.cfg.Model,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rerank response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank API status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var scored rerankResponse
	if err := json.Unmarshal(body, &scored); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}
	return &scored, nil
}

// RerankWithContext 重排并构建格式化上下文
func (r *Reranker) RerankWithContext(ctx context.Context, query string, items []Item, topK int) Output {
	reranked := r.Rerank(ctx, query, items, topK)

	parts := make([]string, len(reranked))
	for i, item := range reranked {
		source := item.Source
		if source == "" {
			source = "未知来源"
		}
		score := item.Score
		if item.Reranked {
			score = item.RerankScore
		}
		parts[i] = fmt.Sprintf("[来源: %s, 相关性: %.4f]\n%s", source, score, item.Content)
	}

	return Output{
		Success:     true,
		Context:     strings.Join(parts, "\n\n"),
		ContextList: reranked,
		DocsCount:   len(reranked),
	}
}

// ApplyToSearchResults 对一次检索的输出应用重排：先按 scoreThreshold
// 过滤，过滤后为空则返回空结果；未启用时原样透传。
func (r *Reranker) ApplyToSearchResults(ctx context.Context, query string, out Output, topK int, scoreThreshold float64) Output {
	if !r.cfg.Enabled {
		return out
	}

	filtered := make([]Item, 0, len(out.ContextList))
	for _, item := range out.ContextList {
		if item.Score >= scoreThreshold {
			filtered = append(filtered, item)
		}
	}
	if len(filtered) == 0 {
		return Output{Success: true, ContextList: []Item{}}
	}

	return r.RerankWithContext(ctx, query, filtered, topK)
}

func truncate(items []Item, topK int) []Item {
	if topK > 0 && topK < len(items) {
		return items[:topK]
	}
	return items
}

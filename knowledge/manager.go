package knowledge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrDimensionMismatch 向量维度与已有索引不符。
// 已有数据的集合出现维度不符说明嵌入模型换了，需要整体重建，
// 绝不静默继续。
var ErrDimensionMismatch = errors.New("knowledge: embedding dimension mismatch")

// OpResult 单次写操作的结果
type OpResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// IngestResult 摄取操作的结果
type IngestResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	ChunksCount int    `json:"chunks_count"`
}

// SearchResult 一条检索命中
type SearchResult struct {
	Content     string         `json:"content"`
	Source      string         `json:"source"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Score       float64        `json:"score"`
	RerankScore float64        `json:"rerank_score,omitempty"`
	Reranked    bool           `json:"-"`
}

// SearchOutput 一次检索的完整输出。空集合上的检索是正常状态，
// 返回 Success=true 和空结果而不是错误。
type SearchOutput struct {
	Success     bool           `json:"success"`
	Message     string         `json:"message,omitempty"`
	Context     string         `json:"context"`
	ContextList []SearchResult `json:"context_list"`
	DocsCount   int            `json:"docs_count"`
}

// Stats 集合统计信息
type Stats struct {
	Collection  string `json:"collection"`
	DocsCount   int    `json:"docs_count"`
	Dimension   int    `json:"dimension"`
	Initialized bool   `json:"initialized"`
	Degraded    bool   `json:"degraded"`
	IndexPath   string `json:"index_path"`
}

// Manager 知识库管理接口。一个 Manager 实例对应一个集合。
type Manager interface {
	// Initialize 加载或创建集合，幂等
	Initialize(ctx context.Context) error

	// LoadFromFolder 递归摄取目录下所有支持的文档
	LoadFromFolder(ctx context.Context, folder string) IngestResult

	// AddText 摄取单段文本
	AddText(ctx context.Context, text, source string, metadata map[string]any) IngestResult

	// Search 向量检索
	Search(ctx context.Context, query string, topK int, scoreThreshold float64) SearchOutput

	// SearchBM25 词法检索
	SearchBM25(ctx context.Context, query string, topK int, scoreThreshold float64) SearchOutput

	// SearchKeywords 关键词检索，等价于 SearchBM25
	SearchKeywords(ctx context.Context, query string, topK int, scoreThreshold float64) SearchOutput

	// SearchHybrid 向量与词法分数加权融合检索
	SearchHybrid(ctx context.Context, query string, topK int, scoreThreshold, vectorWeight, keywordWeight float64) SearchOutput

	// SearchWithRerank 向量检索后经远端打分服务重排
	SearchWithRerank(ctx context.Context, query string, topK int, scoreThreshold float64) SearchOutput

	// SearchWithDetails 向量检索，默认取前 5 条
	SearchWithDetails(ctx context.Context, query string, topK int, scoreThreshold float64) SearchOutput

	// RemoveBySource 删除来源匹配 pattern 的所有条目并重建索引
	RemoveBySource(ctx context.Context, pattern string) OpResult

	// GetStats 返回集合统计
	GetStats(ctx context.Context) Stats

	// ClearKnowledgeBase 清空集合内容，保留集合本身
	ClearKnowledgeBase(ctx context.Context) error

	// DeleteKnowledgeBase 删除集合及其磁盘目录
	DeleteKnowledgeBase(ctx context.Context) error
}

// ListKnowledgeBases 列出 baseDir 下的全部集合名
func ListKnowledgeBases(baseDir string) ([]string, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("knowledge: list collections: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// DeleteKnowledgeBaseByName 按名字删除集合目录
func DeleteKnowledgeBaseByName(baseDir, name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("knowledge: invalid collection name %q", name)
	}
	dir := filepath.Join(baseDir, name)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("knowledge: collection %q does not exist", name)
		}
		return err
	}
	return os.RemoveAll(dir)
}

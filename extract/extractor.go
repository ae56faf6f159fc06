package extract

import (
	"context"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Format 文档格式
type Format string

const (
	FormatTxt  Format = ".txt"
	FormatMd   Format = ".md"
	FormatPDF  Format = ".pdf"
	FormatDocx Format = ".docx"
	FormatHTML Format = ".html"
)

// Document 归一化后的文档记录
type Document struct {
	// 提取后的正文
	Content string `json:"content"`
	// 源文件完整路径
	Source string `json:"source"`
	// 源文件名
	Filename string `json:"filename"`
	// 源格式（扩展名，小写）
	Format Format `json:"format"`
}

// handler 将单个文件读取为纯文本
type handler func(path string) (string, error)

// Extractor 文档知识提取器。
// 按扩展名路由到格式处理器；不支持的扩展名静默跳过。
type Extractor struct {
	handlers map[string]handler
	logger   *zap.Logger
}

// NewExtractor 创建提取器并注册内置格式处理器
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Extractor{logger: logger}
	e.handlers = map[string]handler{
		".txt":  extractText,
		".md":   extractText,
		".pdf":  extractPDF,
		".docx": extractDocx,
		".doc":  extractDocx,
		".html": extractHTML,
		".htm":  extractHTML,
	}
	return e
}

// SupportedTypes 返回支持的扩展名集合
func (e *Extractor) SupportedTypes() []string {
	exts := make([]string, 0, len(e.handlers))
	for ext := range e.handlers {
		exts = append(exts, ext)
	}
	return exts
}

// blankLines 匹配 2 个以上连续换行
var blankLines = regexp.MustCompile(`\n{2,}`)

// ExtractFile 提取单个文件。不支持的扩展名返回 (nil, nil)，不是错误。
// 处理器异常按文件记录日志并跳过，不中断批次。
func (e *Extractor) ExtractFile(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	h, ok := e.handlers[ext]
	if !ok {
		return nil, nil
	}

	content, err := h(path)
	if err != nil {
		e.logger.Error("提取文件失败",
			zap.String("path", path),
			zap.Error(err))
		return nil, nil
	}

	// 折叠连续空行为一个空行
	content = blankLines.ReplaceAllString(content, "\n\n")
	if content == "" {
		return nil, nil
	}

	format := ext
	if ext == ".doc" {
		format = ".docx"
	}
	if ext == ".htm" {
		format = ".html"
	}

	return &Document{
		Content:  content,
		Source:   path,
		Filename: filepath.Base(path),
		Format:   Format(format),
	}, nil
}

// ExtractFolder 递归提取文件夹下所有支持的文件，只收集成功的提取结果。
// 单个文件失败不会中止整个批次。
func (e *Extractor) ExtractFolder(ctx context.Context, folder string) []Document {
	var documents []Document

	paths := e.walk(folder)
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		doc, err := e.ExtractFile(ctx, path)
		if err != nil {
			break
		}
		if doc != nil {
			documents = append(documents, *doc)
		}
	}

	e.logger.Info("文件夹提取完成",
		zap.String("folder", folder),
		zap.Int("files", len(paths)),
		zap.Int("documents", len(documents)))

	return documents
}

// walk 收集文件夹下的所有常规文件；WalkDir 自身保证字典序遍历
func (e *Extractor) walk(folder string) []string {
	var paths []string
	_ = filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // 读不到的条目跳过
		}
		if !d.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	return paths
}

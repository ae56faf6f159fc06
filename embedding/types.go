// Package embedding 提供统一的嵌入提供者接口和 OpenAI 兼容实现.
package embedding

import (
	"context"
	"fmt"
	"net/http"
)

// Request 表示生成嵌入的请求
type Request struct {
	Input      []string  `json:"input"`                // 待嵌入文本
	Model      string    `json:"model,omitempty"`      // 模型标识
	Dimensions int       `json:"dimensions,omitempty"` // 输出维度（支持的模型）
	InputType  InputType `json:"input_type,omitempty"` // query / document
}

// InputType 指定嵌入优化的输入类型
type InputType string

const (
	InputTypeQuery    InputType = "query"    // 检索查询
	InputTypeDocument InputType = "document" // 待索引文档
)

// Response 表示嵌入请求的响应
type Response struct {
	Provider   string      `json:"provider"`
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"` // 与输入顺序一致
	Usage      Usage       `json:"usage"`
}

// Usage 表示嵌入请求的 Token 用量
type Usage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Provider 定义统一的嵌入提供者接口.
// 所有实现保证返回向量与输入文本一一对应且顺序一致。
type Provider interface {
	// Embed 为给定输入生成嵌入
	Embed(ctx context.Context, req *Request) (*Response, error)

	// EmbedQuery 是嵌入单个查询的便捷方法
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// EmbedDocuments 是嵌入多个文档的便捷方法
	EmbedDocuments(ctx context.Context, documents []string) ([][]float32, error)

	// Name 返回提供者名称
	Name() string

	// Dimensions 返回默认嵌入维度
	Dimensions() int

	// MaxBatchSize 返回单次请求支持的最大批量
	MaxBatchSize() int
}

// Error 远程嵌入调用的类型化错误
type Error struct {
	Message    string `json:"message"`
	HTTPStatus int    `json:"http_status"`
	Retryable  bool   `json:"retryable"`
	Provider   string `json:"provider"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("embedding: %s (provider=%s, status=%d)", e.Message, e.Provider, e.HTTPStatus)
}

// IsRetryable 判断错误是否值得重试（网络错误、限流、5xx）
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// mapHTTPError 将 HTTP 状态映射为类型化错误
func mapHTTPError(status int, msg, provider string) *Error {
	retryable := status >= 500 || status == http.StatusTooManyRequests
	return &Error{
		Message:    msg,
		HTTPStatus: status,
		Retryable:  retryable,
		Provider:   provider,
	}
}

package embedding

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// OpenAIProvider 通过 OpenAI 兼容的 /embeddings 端点生成嵌入。
// 本地推理服务（vLLM、Xinference 等）普遍暴露同一协议。
type OpenAIProvider struct {
	*baseProvider
	cfg Config
}

// NewOpenAIProvider 创建 OpenAI 兼容嵌入提供者
func NewOpenAIProvider(cfg Config, logger *zap.Logger) *OpenAIProvider {
	if cfg.Name == "" {
		cfg.Name = "openai-embedding"
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 1024
	}
	if cfg.MaxBatch == 0 {
		cfg.MaxBatch = 64
	}
	return &OpenAIProvider{
		baseProvider: newBaseProvider(cfg, logger),
		cfg:          cfg,
	}
}

func (p *OpenAIProvider) Name() string      { return p.cfg.Name }
func (p *OpenAIProvider) Dimensions() int   { return p.cfg.Dimensions }
func (p *OpenAIProvider) MaxBatchSize() int { return p.cfg.MaxBatch }

type openAIEmbedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// Embed 为给定输入生成嵌入。超过 MaxBatchSize 的输入被顺序分批，
// 返回向量与输入顺序一致。
func (p *OpenAIProvider) Embed(ctx context.Context, req *Request) (*Response, error) {
	if len(req.Input) == 0 {
		return &Response{Provider: p.Name(), Model: p.cfg.Model}, nil
	}

	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}

	resp := &Response{
		Provider:   p.Name(),
		Model:      model,
		Embeddings: make([][]float32, 0, len(req.Input)),
	}

	for start := 0; start < len(req.Input); start += p.cfg.MaxBatch {
		end := start + p.cfg.MaxBatch
		if end > len(req.Input) {
			end = len(req.Input)
		}
		batch := req.Input[start:end]

		body, err := p.doRequest(ctx, "POST", "/embeddings", openAIEmbedRequest{
			Input:      batch,
			Model:      model,
			Dimensions: req.Dimensions,
		})
		if err != nil {
			return nil, err
		}

		var oaResp openAIEmbedResponse
		if err := json.Unmarshal(body, &oaResp); err != nil {
			return nil, fmt.Errorf("decode embeddings response: %w", err)
		}
		if len(oaResp.Data) != len(batch) {
			return nil, &Error{
				Message:    fmt.Sprintf("expected %d embeddings, got %d", len(batch), len(oaResp.Data)),
				Provider:   p.Name(),
				HTTPStatus: 200,
			}
		}

		// 按服务端返回的 index 还原输入顺序
		vectors := make([][]float32, len(batch))
		for _, d := range oaResp.Data {
			if d.Index < 0 || d.Index >= len(batch) {
				return nil, &Error{
					Message:  fmt.Sprintf("embedding index %d out of range", d.Index),
					Provider: p.Name(),
				}
			}
			vectors[d.Index] = d.Embedding
		}
		resp.Embeddings = append(resp.Embeddings, vectors...)
		resp.Usage.PromptTokens += oaResp.Usage.PromptTokens
		resp.Usage.TotalTokens += oaResp.Usage.TotalTokens
	}

	p.logger.Debug("embeddings generated",
		zap.Int("inputs", len(req.Input)),
		zap.String("model", model))

	return resp, nil
}

// EmbedQuery 嵌入单个查询
func (p *OpenAIProvider) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	resp, err := p.Embed(ctx, &Request{Input: []string{query}, InputType: InputTypeQuery})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, &Error{Message: "no embeddings returned", Provider: p.Name()}
	}
	return resp.Embeddings[0], nil
}

// EmbedDocuments 嵌入多个文档
func (p *OpenAIProvider) EmbedDocuments(ctx context.Context, documents []string) ([][]float32, error) {
	resp, err := p.Embed(ctx, &Request{Input: documents, InputType: InputTypeDocument})
	if err != nil {
		return nil, err
	}
	return resp.Embeddings, nil
}

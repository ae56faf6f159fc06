package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/BaSui01/ragstore/embedding"
)

// StubEmbedder 确定性的词袋嵌入器，用于替代远端嵌入服务。
// 分词后将每个词散列到固定维度的桶中计数并做 L2 归一化，
// 共享关键词越多的文本余弦相似度越高。
type StubEmbedder struct {
	Dim   int
	Err   error // 非 nil 时所有调用返回该错误
	Calls int
}

var _ embedding.Provider = (*StubEmbedder)(nil)

// NewStubEmbedder 创建默认 32 维的词袋嵌入器
func NewStubEmbedder() *StubEmbedder {
	return &StubEmbedder{Dim: 32}
}

func (s *StubEmbedder) Name() string      { return "stub" }
func (s *StubEmbedder) Dimensions() int   { return s.Dim }
func (s *StubEmbedder) MaxBatchSize() int { return 1024 }

func (s *StubEmbedder) Embed(ctx context.Context, req *embedding.Request) (*embedding.Response, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(req.Input))
	for i, text := range req.Input {
		vectors[i] = s.vector(text)
	}
	return &embedding.Response{
		Provider:   s.Name(),
		Model:      "stub",
		Embeddings: vectors,
	}, nil
}

func (s *StubEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	resp, err := s.Embed(ctx, &embedding.Request{Input: []string{query}})
	if err != nil {
		return nil, err
	}
	return resp.Embeddings[0], nil
}

func (s *StubEmbedder) EmbedDocuments(ctx context.Context, documents []string) ([][]float32, error) {
	resp, err := s.Embed(ctx, &embedding.Request{Input: documents})
	if err != nil {
		return nil, err
	}
	return resp.Embeddings, nil
}

func (s *StubEmbedder) vector(text string) []float32 {
	vec := make([]float32, s.Dim)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[h.Sum32()%uint32(s.Dim)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		// 空文本映射到固定单位向量
		vec[0] = 1
		return vec
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

// tokenize 英文按词、CJK 按字切分，统一小写
func tokenize(text string) []string {
	var tokens []string
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, strings.ToLower(word.String()))
			word.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

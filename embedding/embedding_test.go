package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/ragstore/internal/retry"
)

// embedServer 返回一个模拟 OpenAI /embeddings 端点的测试服务。
// shuffle 为 true 时打乱 data 顺序，但 index 字段保持正确。
func embedServer(t *testing.T, dim int, shuffle bool, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		require.Equal(t, "/embeddings", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req openAIEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type datum struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		data := make([]datum, len(req.Input))
		for i := range req.Input {
			vec := make([]float32, dim)
			// 每个输入一个可区分的向量
			vec[0] = float32(i + 1)
			data[i] = datum{Index: i, Embedding: vec}
		}
		if shuffle && len(data) > 1 {
			data[0], data[len(data)-1] = data[len(data)-1], data[0]
		}

		resp := map[string]any{
			"data":  data,
			"model": req.Model,
			"usage": map[string]int{"prompt_tokens": len(req.Input), "total_tokens": len(req.Input)},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func newTestProvider(t *testing.T, url string, maxBatch int) *OpenAIProvider {
	t.Helper()
	return NewOpenAIProvider(Config{
		Name:       "test",
		BaseURL:    url,
		Model:      "bge-m3",
		Dimensions: 4,
		MaxBatch:   maxBatch,
		Timeout:    5 * time.Second,
		Retry:      retry.Policy{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2},
	}, nil)
}

func TestEmbedReturnsVectorsInInputOrder(t *testing.T) {
	srv := embedServer(t, 4, true, nil)
	defer srv.Close()

	p := newTestProvider(t, srv.URL, 64)
	resp, err := p.Embed(context.Background(), &Request{
		Input: []string{"第一段", "第二段", "第三段"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Embeddings, 3)

	// 服务端打乱了返回顺序，index 重排后首分量应恢复单调
	for i, vec := range resp.Embeddings {
		assert.Equal(t, float32(i+1), vec[0], "vector %d out of order", i)
	}
	assert.Equal(t, "bge-m3", resp.Model)
	assert.Equal(t, 3, resp.Usage.TotalTokens)
}

func TestEmbedSplitsOversizedBatches(t *testing.T) {
	var calls atomic.Int32
	srv := embedServer(t, 4, false, &calls)
	defer srv.Close()

	p := newTestProvider(t, srv.URL, 2)
	inputs := []string{"a", "b", "c", "d", "e"}
	resp, err := p.Embed(context.Background(), &Request{Input: inputs})
	require.NoError(t, err)

	assert.Len(t, resp.Embeddings, 5)
	assert.Equal(t, int32(3), calls.Load(), "5 inputs with batch size 2 should take 3 requests")
}

func TestEmbedEmptyInputSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	srv := embedServer(t, 4, false, &calls)
	defer srv.Close()

	p := newTestProvider(t, srv.URL, 64)
	resp, err := p.Embed(context.Background(), &Request{})
	require.NoError(t, err)
	assert.Empty(t, resp.Embeddings)
	assert.Equal(t, int32(0), calls.Load())
}

func TestEmbedRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream overloaded", http.StatusInternalServerError)
			return
		}
		var req openAIEmbedRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		fmt.Fprintf(w, `{"data":[{"index":0,"embedding":[1,0,0,0]}],"model":%q,"usage":{"prompt_tokens":1,"total_tokens":1}}`, req.Model)
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL, 64)
	vec, err := p.EmbedQuery(context.Background(), "查询")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0, 0}, vec)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad model name", http.StatusBadRequest)
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL, 64)
	_, err := p.EmbedQuery(context.Background(), "查询")
	require.Error(t, err)

	var embErr *Error
	require.ErrorAs(t, err, &embErr)
	assert.Equal(t, http.StatusBadRequest, embErr.HTTPStatus)
	assert.False(t, embErr.Retryable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEmbedDocumentsConvenience(t *testing.T) {
	srv := embedServer(t, 4, false, nil)
	defer srv.Close()

	p := newTestProvider(t, srv.URL, 64)
	vecs, err := p.EmbedDocuments(context.Background(), []string{"文档一", "文档二"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Len(t, vecs[0], 4)
}

func TestEmbedContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 必须先读完请求体：否则服务器不会监测客户端断连，
		// r.Context() 永不取消，srv.Close() 将死锁。
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL, 64)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.EmbedQuery(ctx, "查询")
	require.Error(t, err)
}

func TestEmbedCountMismatchFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[],"model":"bge-m3"}`)
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL, 64)
	_, err := p.EmbedQuery(context.Background(), "查询")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 1 embeddings")
}

func TestEmbedRateLimiterAllowsWithinBudget(t *testing.T) {
	var calls atomic.Int32
	srv := embedServer(t, 4, false, &calls)
	defer srv.Close()

	p := NewOpenAIProvider(Config{
		Name:              "test",
		BaseURL:           srv.URL,
		Model:             "bge-m3",
		Dimensions:        4,
		MaxBatch:          1,
		Timeout:           5 * time.Second,
		RequestsPerSecond: 1000,
		Retry:             retry.Policy{MaxRetries: 1, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2},
	}, nil)

	resp, err := p.Embed(context.Background(), &Request{Input: []string{"一", "二", "三"}})
	require.NoError(t, err)
	require.Len(t, resp.Embeddings, 3)
	assert.Equal(t, int32(3), calls.Load())
}

func TestEmbedRateLimiterHonorsContextDeadline(t *testing.T) {
	var calls atomic.Int32
	srv := embedServer(t, 4, false, &calls)
	defer srv.Close()

	// 额度一秒百分之一次：首个子批消耗突发额度，
	// 第二个子批的限流等待超出截止时间直接失败
	p := NewOpenAIProvider(Config{
		Name:              "test",
		BaseURL:           srv.URL,
		Model:             "bge-m3",
		Dimensions:        4,
		MaxBatch:          1,
		Timeout:           5 * time.Second,
		RequestsPerSecond: 0.01,
		Retry:             retry.Policy{MaxRetries: 1, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2},
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Embed(ctx, &Request{Input: []string{"一", "二"}})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestProviderMetadata(t *testing.T) {
	p := NewOpenAIProvider(Config{Name: "bge", BaseURL: "http://x", Dimensions: 1024, MaxBatch: 32}, nil)
	assert.Equal(t, "bge", p.Name())
	assert.Equal(t, 1024, p.Dimensions())
	assert.Equal(t, 32, p.MaxBatchSize())
}

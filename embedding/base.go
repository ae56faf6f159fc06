package embedding

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
	"golang.org/x/time/rate"

	"github.com/BaSui01/ragstore/internal/retry"
	"github.com/BaSui01/ragstore/internal/tlsutil"
)

// Config 持有 OpenAI 兼容提供者的配置
type Config struct {
	Name       string        `json:"name" yaml:"name"`
	BaseURL    string        `json:"base_url" yaml:"base_url"`
	APIKey     string        `json:"api_key" yaml:"api_key"`
	Model      string        `json:"model" yaml:"model"`
	Dimensions int           `json:"dimensions" yaml:"dimensions"`
	MaxBatch   int           `json:"max_batch" yaml:"max_batch"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`

	// 每秒请求上限；为 0 时不限流
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// 重试策略；零值使用默认策略
	Retry retry.Policy `json:"-" yaml:"-"`
}

// baseProvider 为嵌入提供者提供公共的 HTTP 能力：
// 超时、限流与针对瞬时错误的有界重试。
type baseProvider struct {
	name    string
	client  *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	retryer *retry.Retryer
	logger  *zap.Logger
}

func newBaseProvider(cfg Config, logger *zap.Logger) *baseProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	policy := cfg.Retry
	if policy.MaxRetries == 0 && policy.InitialDelay == 0 {
		policy = retry.DefaultPolicy()
	}
	policy.IsRetryable = IsRetryable

	return &baseProvider{
		name:    cfg.Name,
		client:  tlsutil.SecureHTTPClient(timeout),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		limiter: limiter,
		retryer: retry.New(policy, logger),
		logger:  logger,
	}
}

// doRequest 执行 HTTP 请求，带限流与重试。
// 上下文取消会同时终止限流等待、重试等待与在途请求。
func (p *baseProvider) doRequest(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		payload = data
	}

	var respBody []byte
	err := p.retryer.Do(ctx, func() error {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, p.baseURL+endpoint, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if p.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+p.apiKey)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return &Error{
				Message:    err.Error(),
				HTTPStatus: http.StatusBadGateway,
				Retryable:  true,
				Provider:   p.name,
			}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode >= 400 {
			return mapHTTPError(resp.StatusCode, string(data), p.name)
		}

		respBody = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return respBody, nil
}

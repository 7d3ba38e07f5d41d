package annotator

import (
	"context"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"
)

// NewChatClient builds the go-openai client for cfg.BaseURL and layers the enabled
// resilience wrappers around it.
//
// From the inside out: per-call timeout, rate limit, retry, circuit breaker. The
// timeout applies to each attempt and the breaker sees one outcome per item.
func NewChatClient(cfg Config, metrics *MetricsRecorder) ChatClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return WrapChatClient(openai.NewClientWithConfig(clientCfg), cfg, metrics)
}

// WrapChatClient applies the wrappers enabled in cfg to an existing client.
func WrapChatClient(base ChatClient, cfg Config, metrics *MetricsRecorder) ChatClient {
	client := base

	if cfg.Timeout > 0 {
		client = &timeoutClient{client: client, timeout: cfg.Timeout}
	}

	if cfg.EnableRateLimit {
		slog.Info("Enabling rate limit",
			"requests_per_second", cfg.RateLimitConfig.RequestsPerSecond,
			"burst", cfg.RateLimitConfig.Burst)
		client = NewRateLimitWrapper(client, cfg.RateLimitConfig)
	}

	if cfg.EnableRetry {
		slog.Info("Enabling retry logic",
			"max_attempts", cfg.RetryConfig.MaxAttempts,
			"strategy", cfg.RetryConfig.Strategy)
		client = NewRetryWrapper(client, cfg.RetryConfig, metrics)
	}

	if cfg.EnableCircuitBreaker {
		slog.Info("Enabling circuit breaker",
			"max_requests", cfg.CircuitBreakerConfig.MaxRequests,
			"timeout", cfg.CircuitBreakerConfig.Timeout)
		client = NewCircuitBreakerWrapper(client, cfg.CircuitBreakerConfig, metrics)
	}

	return client
}

type timeoutClient struct {
	client  ChatClient
	timeout time.Duration
}

func (t *timeoutClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.client.CreateChatCompletion(ctx, req)
}

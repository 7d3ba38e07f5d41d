package annotator

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// RateLimitWrapper throttles calls to a chat client, for shared inference servers
// that should not be saturated by a single batch.
type RateLimitWrapper struct {
	client  ChatClient
	limiter *rate.Limiter
}

// NewRateLimitWrapper creates a rate limited chat client
func NewRateLimitWrapper(client ChatClient, config *RateLimitConfig) *RateLimitWrapper {
	if config == nil {
		config = &RateLimitConfig{RequestsPerSecond: 1, Burst: 1}
	}
	return &RateLimitWrapper{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
	}
}

// CreateChatCompletion waits for a token and forwards the call
func (w *RateLimitWrapper) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return openai.ChatCompletionResponse{}, fmt.Errorf("rate limiter: %w", err)
	}
	return w.client.CreateChatCompletion(ctx, req)
}

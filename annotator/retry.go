package annotator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sethvargo/go-retry"
)

// RetryWrapper wraps a chat client with retry logic.
//
// Only failed backend calls are replayed; a reply that fails to parse is a successful
// call and is never re-requested.
type RetryWrapper struct {
	client  ChatClient
	config  *RetryConfig
	metrics *MetricsRecorder
}

// DefaultRetryConfig returns the retry settings used when none are given.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  3,
		Strategy:     RetryStrategyExponential,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
	}
}

// NewRetryWrapper creates a new retry wrapper around a chat client
func NewRetryWrapper(client ChatClient, config *RetryConfig, metrics *MetricsRecorder) *RetryWrapper {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if metrics == nil {
		metrics = NewMetricsRecorder(false)
	}

	return &RetryWrapper{
		client:  client,
		config:  config,
		metrics: metrics,
	}
}

// CreateChatCompletion executes the backend call with retry logic
func (w *RetryWrapper) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	var resp openai.ChatCompletionResponse
	attempts := 0

	err := retry.Do(ctx, w.backoff(), func(ctx context.Context) error {
		attempts++

		r, err := w.client.CreateChatCompletion(ctx, req)
		if err == nil {
			resp = r
			return nil
		}

		if !IsRetryableError(err) {
			slog.Debug("Non-retryable error, giving up",
				"error", err,
				"attempts", attempts)
			return err
		}

		w.metrics.RecordRetry(ClassifyError(err))
		slog.Debug("Retrying chat completion",
			"attempt", attempts,
			"error", err)
		return retry.RetryableError(err)
	})

	w.metrics.RecordRetryAttempts(attempts)

	if err != nil {
		if attempts >= w.config.MaxAttempts {
			slog.Warn("Max retry attempts reached",
				"attempts", attempts,
				"error", err)
		}
		return openai.ChatCompletionResponse{}, err
	}

	if attempts > 1 {
		slog.Info("Request succeeded after retry", "attempts", attempts)
	}
	return resp, nil
}

// backoff builds a fresh backoff sequence for one call. MaxAttempts counts the
// first call, so the number of retries is one less.
func (w *RetryWrapper) backoff() retry.Backoff {
	retries := uint64(0)
	if w.config.MaxAttempts > 1 {
		retries = uint64(w.config.MaxAttempts - 1)
	}
	jitter := w.config.InitialDelay / 10

	var base retry.Backoff
	switch w.config.Strategy {
	case RetryStrategyConstant:
		base = retry.NewConstant(w.config.InitialDelay)
	case RetryStrategyFibonacci:
		base = retry.NewFibonacci(w.config.InitialDelay)
	default:
		base = retry.NewExponential(w.config.InitialDelay)
	}

	if jitter > 0 {
		base = retry.WithJitter(jitter, base)
	}
	if w.config.MaxDelay > 0 {
		base = retry.WithCappedDuration(w.config.MaxDelay, base)
	}
	return retry.WithMaxRetries(retries, base)
}

// IsRetryableError determines if an error should trigger a retry
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 429:
			return true
		case apiErr.HTTPStatusCode >= 500:
			return true
		default:
			return false
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 429 || reqErr.HTTPStatusCode >= 500
	}

	if errors.Is(err, ErrEmptyResponse) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	// Connection resets and similar transport errors
	return true
}

package annotator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
)

// CircuitBreakerWrapper wraps a chat client with circuit breaker functionality.
//
// A run of failing backend calls (server down, model not loaded) opens the circuit so
// the batch aborts quickly instead of hammering the endpoint once per item.
type CircuitBreakerWrapper struct {
	client ChatClient
	cb     *gobreaker.CircuitBreaker[openai.ChatCompletionResponse]
}

// DefaultCircuitBreakerConfig returns the breaker settings used when none are given.
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip on 5 consecutive failures OR failure rate > 60%
			if counts.ConsecutiveFailures >= 5 {
				return true
			}
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > 0.6
		},
	}
}

// NewCircuitBreakerWrapper creates a new circuit breaker wrapper around a chat client
func NewCircuitBreakerWrapper(client ChatClient, config *CircuitBreakerConfig, metrics *MetricsRecorder) *CircuitBreakerWrapper {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	if metrics == nil {
		metrics = NewMetricsRecorder(false)
	}

	settings := gobreaker.Settings{
		Name:        "inference-backend",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: config.ReadyToTrip,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String())

			metrics.RecordCircuitBreakerState(name, stateToInt(to))
			if to == gobreaker.StateOpen {
				metrics.RecordCircuitBreakerTrip(name)
			}

			if config.OnStateChange != nil {
				config.OnStateChange(name, from, to)
			}
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !ShouldTripCircuit(err)
		},
	}

	return &CircuitBreakerWrapper{
		client: client,
		cb:     gobreaker.NewCircuitBreaker[openai.ChatCompletionResponse](settings),
	}
}

// CreateChatCompletion executes the backend call through the circuit breaker
func (w *CircuitBreakerWrapper) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	resp, err := w.cb.Execute(func() (openai.ChatCompletionResponse, error) {
		return w.client.CreateChatCompletion(ctx, req)
	})

	switch {
	case err == nil:
	case errors.Is(err, gobreaker.ErrOpenState):
		slog.Debug("Circuit breaker is open, request rejected", "error", err)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		slog.Debug("Circuit breaker in half-open state, too many requests", "error", err)
	default:
		slog.Debug("Request failed through circuit breaker",
			"error", err,
			"should_trip", ShouldTripCircuit(err))
	}

	return resp, err
}

// State returns the current state of the circuit breaker
func (w *CircuitBreakerWrapper) State() gobreaker.State {
	return w.cb.State()
}

// Counts returns the current counts of the circuit breaker
func (w *CircuitBreakerWrapper) Counts() gobreaker.Counts {
	return w.cb.Counts()
}

// ShouldTripCircuit determines if an error should count against the circuit
func ShouldTripCircuit(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		// Rate limiting is expected back-pressure, not a broken backend
		return apiErr.HTTPStatusCode != 429
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	return true
}

// stateToInt converts circuit breaker state to int for metrics
func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

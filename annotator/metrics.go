package annotator

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
)

var (
	// Request metrics
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bws_annotator_requests_total",
			Help: "Total number of inference requests",
		},
		[]string{"status", "model"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bws_annotator_request_duration_seconds",
			Help:    "Duration of inference requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	// Item metrics
	itemsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bws_annotator_items_loaded_total",
			Help: "Total number of target items loaded",
		},
		[]string{"domain"},
	)

	annotationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bws_annotator_annotations_total",
			Help: "Total number of annotations written, by parse outcome",
		},
		[]string{"domain", "model", "outcome"},
	)

	wordIDs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bws_annotator_word_ids_total",
			Help: "Distribution of parsed word IDs by position (best, worst)",
		},
		[]string{"position", "word_id"},
	)

	// Error metrics
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bws_annotator_errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"error_type"},
	)

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bws_annotator_circuit_breaker_state",
			Help: "Current state of circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	circuitBreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bws_annotator_circuit_breaker_trips_total",
			Help: "Total number of circuit breaker trips",
		},
		[]string{"name"},
	)

	// Retry metrics
	retryAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bws_annotator_retry_attempts",
			Help:    "Number of attempts per request",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	retryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bws_annotator_retry_total",
			Help: "Total number of retries by reason",
		},
		[]string{"reason"},
	)

	apiTokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bws_annotator_tokens_used_total",
			Help: "Total number of tokens reported by the backend",
		},
		[]string{"type"}, // prompt, completion, total
	)
)

// MetricsRecorder provides methods to record metrics
type MetricsRecorder struct {
	enabled bool
}

// NewMetricsRecorder creates a new metrics recorder
func NewMetricsRecorder(enabled bool) *MetricsRecorder {
	return &MetricsRecorder{enabled: enabled}
}

// RecordRequest records a request and its duration
func (m *MetricsRecorder) RecordRequest(status string, model string, seconds float64) {
	if !m.enabled {
		return
	}
	requestsTotal.WithLabelValues(status, model).Inc()
	requestDuration.WithLabelValues(model).Observe(seconds)
}

// RecordItemsLoaded records the number of items read for a domain
func (m *MetricsRecorder) RecordItemsLoaded(domain string, count int) {
	if !m.enabled {
		return
	}
	itemsLoaded.WithLabelValues(domain).Add(float64(count))
}

// RecordAnnotation records a written annotation
func (m *MetricsRecorder) RecordAnnotation(domain, model string, ann Annotation) {
	if !m.enabled {
		return
	}
	outcome := "unparsed"
	if ann.Parsed() {
		outcome = "parsed"
		wordIDs.WithLabelValues("best", strconv.Itoa(*ann.Best)).Inc()
		wordIDs.WithLabelValues("worst", strconv.Itoa(*ann.Worst)).Inc()
	}
	annotationsTotal.WithLabelValues(domain, model, outcome).Inc()
}

// RecordError records an error
func (m *MetricsRecorder) RecordError(errorType string) {
	if !m.enabled {
		return
	}
	errorsTotal.WithLabelValues(errorType).Inc()
}

// RecordCircuitBreakerState records circuit breaker state
func (m *MetricsRecorder) RecordCircuitBreakerState(name string, state int) {
	if !m.enabled {
		return
	}
	circuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *MetricsRecorder) RecordCircuitBreakerTrip(name string) {
	if !m.enabled {
		return
	}
	circuitBreakerTrips.WithLabelValues(name).Inc()
}

// RecordRetryAttempts records how many attempts a request took
func (m *MetricsRecorder) RecordRetryAttempts(attempts int) {
	if !m.enabled {
		return
	}
	retryAttempts.Observe(float64(attempts))
}

// RecordRetry records a retry
func (m *MetricsRecorder) RecordRetry(reason string) {
	if !m.enabled {
		return
	}
	retryTotal.WithLabelValues(reason).Inc()
}

// RecordUsage records token usage reported by the backend
func (m *MetricsRecorder) RecordUsage(usage openai.Usage) {
	if !m.enabled {
		return
	}
	apiTokensUsed.WithLabelValues("prompt").Add(float64(usage.PromptTokens))
	apiTokensUsed.WithLabelValues("completion").Add(float64(usage.CompletionTokens))
	apiTokensUsed.WithLabelValues("total").Add(float64(usage.TotalTokens))
}

// GetMetricsHandler returns an HTTP handler for Prometheus metrics
func GetMetricsHandler() http.Handler {
	return promhttp.Handler()
}

// ServeMetrics exposes /metrics on addr until ctx is done.
func ServeMetrics(ctx context.Context, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", GetMetricsHandler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return srv
}

// ClassifyError returns error type for metrics
func ClassifyError(err error) string {
	if err == nil {
		return "none"
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 429:
			return "rate_limit"
		case apiErr.HTTPStatusCode >= 500:
			return "server_error"
		case apiErr.HTTPStatusCode >= 400:
			return "client_error"
		default:
			return "api_error"
		}
	}

	switch {
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, gobreaker.ErrOpenState):
		return "circuit_open"
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return "circuit_half_open"
	}

	return "unknown"
}

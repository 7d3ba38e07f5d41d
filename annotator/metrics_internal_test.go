package annotator

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
)

var _ = Describe("MetricsRecorder", func() {
	three, one := 3, 1
	parsed := Annotation{Best: &three, Worst: &one, Raw: "3;1"}

	It("should count annotations by outcome", func() {
		m := NewMetricsRecorder(true)
		parsedBefore := testutil.ToFloat64(annotationsTotal.WithLabelValues("law", "Mistral", "parsed"))
		unparsedBefore := testutil.ToFloat64(annotationsTotal.WithLabelValues("law", "Mistral", "unparsed"))
		bestBefore := testutil.ToFloat64(wordIDs.WithLabelValues("best", "3"))

		m.RecordAnnotation("law", "Mistral", parsed)
		m.RecordAnnotation("law", "Mistral", Annotation{Raw: "no idea"})

		Expect(testutil.ToFloat64(annotationsTotal.WithLabelValues("law", "Mistral", "parsed")) - parsedBefore).To(Equal(1.0))
		Expect(testutil.ToFloat64(annotationsTotal.WithLabelValues("law", "Mistral", "unparsed")) - unparsedBefore).To(Equal(1.0))
		Expect(testutil.ToFloat64(wordIDs.WithLabelValues("best", "3")) - bestBefore).To(Equal(1.0))
	})

	It("should count loaded items and token usage", func() {
		m := NewMetricsRecorder(true)
		itemsBefore := testutil.ToFloat64(itemsLoaded.WithLabelValues("migration"))
		promptBefore := testutil.ToFloat64(apiTokensUsed.WithLabelValues("prompt"))

		m.RecordItemsLoaded("migration", 25)
		m.RecordUsage(openai.Usage{PromptTokens: 100, CompletionTokens: 2, TotalTokens: 102})

		Expect(testutil.ToFloat64(itemsLoaded.WithLabelValues("migration")) - itemsBefore).To(Equal(25.0))
		Expect(testutil.ToFloat64(apiTokensUsed.WithLabelValues("prompt")) - promptBefore).To(Equal(100.0))
	})

	It("should track circuit breaker state", func() {
		m := NewMetricsRecorder(true)
		m.RecordCircuitBreakerState("metrics-test", stateToInt(gobreaker.StateOpen))
		Expect(testutil.ToFloat64(circuitBreakerState.WithLabelValues("metrics-test"))).To(Equal(2.0))

		m.RecordCircuitBreakerState("metrics-test", stateToInt(gobreaker.StateClosed))
		Expect(testutil.ToFloat64(circuitBreakerState.WithLabelValues("metrics-test"))).To(Equal(0.0))
	})

	It("should record nothing when disabled", func() {
		m := NewMetricsRecorder(false)
		before := testutil.ToFloat64(annotationsTotal.WithLabelValues("health", "Gemma", "parsed"))
		errBefore := testutil.ToFloat64(errorsTotal.WithLabelValues("disabled_test"))

		m.RecordAnnotation("health", "Gemma", parsed)
		m.RecordError("disabled_test")

		Expect(testutil.ToFloat64(annotationsTotal.WithLabelValues("health", "Gemma", "parsed"))).To(Equal(before))
		Expect(testutil.ToFloat64(errorsTotal.WithLabelValues("disabled_test"))).To(Equal(errBefore))
	})

	It("should count retries from the retry wrapper", func() {
		before := testutil.ToFloat64(retryTotal.WithLabelValues("server_error"))
		client := &flakyClient{failures: 1, err: &openai.APIError{HTTPStatusCode: 502}}
		cfg := &RetryConfig{MaxAttempts: 2, Strategy: RetryStrategyConstant, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}

		_, err := NewRetryWrapper(client, cfg, NewMetricsRecorder(true)).
			CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{})
		Expect(err).ToNot(HaveOccurred())
		Expect(testutil.ToFloat64(retryTotal.WithLabelValues("server_error")) - before).To(Equal(1.0))
	})
})

var _ = DescribeTable("ClassifyError",
	func(err error, expected string) {
		Expect(ClassifyError(err)).To(Equal(expected))
	},
	Entry("nil", nil, "none"),
	Entry("rate limit", &openai.APIError{HTTPStatusCode: 429}, "rate_limit"),
	Entry("server error", &openai.APIError{HTTPStatusCode: 503}, "server_error"),
	Entry("client error", &openai.APIError{HTTPStatusCode: 404}, "client_error"),
	Entry("api error", &openai.APIError{}, "api_error"),
	Entry("empty response", fmt.Errorf("law: %w", ErrEmptyResponse), "empty_response"),
	Entry("timeout", context.DeadlineExceeded, "timeout"),
	Entry("cancelled", context.Canceled, "cancelled"),
	Entry("circuit open", gobreaker.ErrOpenState, "circuit_open"),
	Entry("circuit half open", gobreaker.ErrTooManyRequests, "circuit_half_open"),
	Entry("unknown", errors.New("boom"), "unknown"),
)

type flakyClient struct {
	failures int
	err      error
	calls    int
}

func (f *flakyClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	if f.calls <= f.failures {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "1;2"}}},
	}, nil
}

package annotator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Annotator asks a model for the best and worst word of one item at a time.
type Annotator struct {
	client    ChatClient
	model     ModelSpec
	itemType  string
	maxTokens int
	metrics   *MetricsRecorder
}

// Option configures an Annotator
type Option func(*Annotator)

// WithItemType sets the target item type (default BWS-tuples)
func WithItemType(itemType string) Option {
	return func(a *Annotator) {
		a.itemType = itemType
	}
}

// WithMaxNewTokens caps the generated reply length
func WithMaxNewTokens(n int) Option {
	return func(a *Annotator) {
		a.maxTokens = n
	}
}

// WithMetricsRecorder sets the recorder used for request metrics
func WithMetricsRecorder(m *MetricsRecorder) Option {
	return func(a *Annotator) {
		a.metrics = m
	}
}

// NewAnnotator creates an annotator that sends requests for model through client.
func NewAnnotator(client ChatClient, model ModelSpec, opts ...Option) *Annotator {
	a := &Annotator{
		client:    client,
		model:     model,
		itemType:  ItemTypeBWSTuples,
		maxTokens: DefaultMaxNewTokens,
		metrics:   NewMetricsRecorder(false),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Model returns the model the annotator sends requests for.
func (a *Annotator) Model() ModelSpec {
	return a.model
}

// BuildRequest renders the chat completion request for an item.
func (a *Annotator) BuildRequest(domain, item string) (openai.ChatCompletionRequest, error) {
	msgs, err := BuildPrompt(a.model, a.itemType, domain, item)
	if err != nil {
		return openai.ChatCompletionRequest{}, err
	}
	return openai.ChatCompletionRequest{
		Model:     a.model.ModelID,
		Messages:  msgs,
		MaxTokens: a.maxTokens,
	}, nil
}

// Annotate submits the prompt for one item and parses the reply.
//
// Only prompt and backend failures are returned as errors; an unparseable reply
// yields an Annotation with nil IDs and the raw text.
func (a *Annotator) Annotate(ctx context.Context, domain, item string) (Annotation, error) {
	req, err := a.BuildRequest(domain, item)
	if err != nil {
		return Annotation{}, err
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, req)
	seconds := time.Since(start).Seconds()
	if err != nil {
		a.metrics.RecordRequest("error", a.model.Name, seconds)
		a.metrics.RecordError(ClassifyError(err))
		return Annotation{}, fmt.Errorf("inference request for %s item failed: %w", domain, err)
	}
	a.metrics.RecordRequest("success", a.model.Name, seconds)
	a.metrics.RecordUsage(resp.Usage)

	if len(resp.Choices) == 0 {
		a.metrics.RecordError(ClassifyError(ErrEmptyResponse))
		return Annotation{}, fmt.Errorf("inference request for %s item: %w", domain, ErrEmptyResponse)
	}

	ann := ParseBWS(resp.Choices[0].Message.Content)
	if !ann.Parsed() {
		slog.Debug("Reply did not match the best;worst pattern",
			"domain", domain,
			"raw", ann.Raw)
	}
	return ann, nil
}

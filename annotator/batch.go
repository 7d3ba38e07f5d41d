package annotator

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Runner drives a full annotation run: every domain, every item, one request each.
type Runner struct {
	cfg       Config
	annotator *Annotator
	writer    *RecordWriter
	metrics   *MetricsRecorder
}

// DomainSummary reports the outcome of one domain.
type DomainSummary struct {
	Domain     string
	Items      int
	Parsed     int
	Unparsed   int
	OutputPath string
}

// Summary reports the outcome of a run.
type Summary struct {
	Model    string
	Domains  []DomainSummary
	Duration time.Duration
}

// Items returns the number of records written across all domains.
func (s Summary) Items() int {
	total := 0
	for _, d := range s.Domains {
		total += d.Items
	}
	return total
}

// NewRunner validates cfg and builds a runner backed by the configured endpoint.
func NewRunner(cfg Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	metrics := NewMetricsRecorder(cfg.EnableMetrics)
	return newRunner(cfg, NewChatClient(cfg, metrics), metrics)
}

// NewRunnerWithClient builds a runner that sends requests through client. The
// resilience wrappers enabled in cfg are applied on top of it.
func NewRunnerWithClient(cfg Config, client ChatClient) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	metrics := NewMetricsRecorder(cfg.EnableMetrics)
	return newRunner(cfg, WrapChatClient(client, cfg, metrics), metrics)
}

func newRunner(cfg Config, client ChatClient, metrics *MetricsRecorder) (*Runner, error) {
	spec, err := ResolveModel(cfg.ModelName)
	if err != nil {
		return nil, err
	}

	ann := NewAnnotator(client, spec,
		WithItemType(cfg.ItemType),
		WithMaxNewTokens(cfg.MaxNewTokens),
		WithMetricsRecorder(metrics),
	)

	slog.Info("Annotator created",
		"model", spec.Name,
		"model_id", spec.ModelID,
		"format", spec.Format.String(),
		"base_url", cfg.BaseURL,
		"retry", cfg.EnableRetry,
		"circuit_breaker", cfg.EnableCircuitBreaker,
		"rate_limit", cfg.EnableRateLimit)

	return &Runner{
		cfg:       cfg,
		annotator: ann,
		writer:    NewRecordWriter(cfg.OutputDir),
		metrics:   metrics,
	}, nil
}

// Run annotates every configured domain in order. The first error aborts the run;
// records written before it stay on disk.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{Model: r.cfg.ModelName}

	if err := r.writer.EnsureDir(); err != nil {
		return summary, err
	}

	for _, domain := range r.cfg.Domains {
		ds, err := r.RunDomain(ctx, domain)
		summary.Domains = append(summary.Domains, ds)
		if err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}
	}

	summary.Duration = time.Since(start)
	slog.Info("All domains annotated",
		"model", r.cfg.ModelName,
		"domains", len(summary.Domains),
		"items", summary.Items(),
		"duration", summary.Duration)

	return summary, nil
}

// RunDomain annotates every item of one domain, appending a record per item.
func (r *Runner) RunDomain(ctx context.Context, domain string) (DomainSummary, error) {
	ds := DomainSummary{
		Domain:     domain,
		OutputPath: RecordPath(r.cfg.OutputDir, domain, r.cfg.ModelName),
	}

	items, err := LoadItems(r.cfg.InputDir, r.cfg.ItemType, domain)
	if err != nil {
		return ds, err
	}
	r.metrics.RecordItemsLoaded(domain, len(items))

	for _, res := range ValidateItems(items) {
		slog.Warn("Suspicious target item",
			"domain", domain,
			"line", res.Item.Line,
			"issues", res.Issues)
	}

	slog.Info("Annotating domain",
		"domain", domain,
		"items", len(items),
		"output", ds.OutputPath)

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return ds, err
		}

		ann, err := r.annotator.Annotate(ctx, domain, item.Text)
		if err != nil {
			return ds, fmt.Errorf("line %d: %w", item.Line, err)
		}

		if err := r.writer.Append(domain, r.cfg.ModelName, item.Text, ann); err != nil {
			return ds, err
		}
		r.metrics.RecordAnnotation(domain, r.cfg.ModelName, ann)

		ds.Items++
		if ann.Parsed() {
			ds.Parsed++
		} else {
			ds.Unparsed++
		}

		slog.Debug("Item annotated",
			"domain", domain,
			"line", item.Line,
			"best", optionalInt(ann.Best),
			"worst", optionalInt(ann.Worst),
			"raw", ann.Raw)
	}

	slog.Info("Domain annotated",
		"domain", domain,
		"items", ds.Items,
		"parsed", ds.Parsed,
		"unparsed", ds.Unparsed)

	return ds, nil
}

package annotator

import (
	"context"
	"errors"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
)

// ItemTypeBWSTuples is the only supported target item type: each item is a 4-tuple
// annotated with a best-worst scaling procedure.
const ItemTypeBWSTuples = "BWS-tuples"

var defaultDomains = []string{"economics", "health", "law", "migration"}

// DefaultDomains returns the domains annotated by a run, in processing order.
// Each call returns a fresh slice.
func DefaultDomains() []string {
	domains := make([]string, len(defaultDomains))
	copy(domains, defaultDomains)
	return domains
}

// Item is one target item: a line of the domain's item file, passed verbatim into the prompt.
type Item struct {
	Domain string // Domain the item was loaded for
	Line   int    // 1-based line number in the item file
	Text   string // Trimmed line content
}

// Annotation is the parsed model judgement for one item.
//
// Best and Worst are either both nil or both set to distinct values in 1-4.
type Annotation struct {
	Best  *int   // word_ID of the most typical word
	Worst *int   // word_ID of the least typical word
	Raw   string // Unmodified (trimmed) model reply
}

// Parsed reports whether the reply yielded a valid best/worst pair.
func (a Annotation) Parsed() bool {
	return a.Best != nil && a.Worst != nil
}

// ChatClient defines the interface for interacting with a chat completion backend
type ChatClient interface {
	CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config holds the configuration for an annotation run
type Config struct {
	// ModelName is the short model name (see ModelNames)
	ModelName string `validate:"required"`
	// BaseURL is the OpenAI-compatible endpoint serving the model
	BaseURL string `validate:"required,url"`
	// APIKey is sent as bearer token; local servers accept an empty key
	APIKey   string
	ItemType string `validate:"required"`
	// InputDir is the root holding <ItemType>/<domain>.txt files
	InputDir  string `validate:"required"`
	OutputDir string `validate:"required"`
	// Domains are annotated in slice order
	Domains      []string `validate:"min=1,dive,required"`
	MaxNewTokens int      `validate:"gt=0"`
	// Timeout bounds a single backend call (0 = none)
	Timeout time.Duration

	EnableMetrics        bool
	EnableRetry          bool
	EnableCircuitBreaker bool
	EnableRateLimit      bool
	RetryConfig          *RetryConfig
	CircuitBreakerConfig *CircuitBreakerConfig
	RateLimitConfig      *RateLimitConfig
}

// CircuitBreakerConfig holds circuit breaker settings
type CircuitBreakerConfig struct {
	MaxRequests   uint32                                      // Max requests in half-open state
	Interval      time.Duration                               // Interval for closed state
	Timeout       time.Duration                               // Timeout for open state
	ReadyToTrip   func(counts gobreaker.Counts) bool          // Custom trip condition
	OnStateChange func(name string, from, to gobreaker.State) // State change callback
}

// RetryConfig holds retry settings
type RetryConfig struct {
	MaxAttempts  int           `validate:"gt=0"`                                // Maximum number of attempts, including the first
	Strategy     RetryStrategy `validate:"oneof=exponential constant fibonacci"` // Backoff strategy to use
	InitialDelay time.Duration // Initial delay between retries
	MaxDelay     time.Duration // Maximum delay between retries
}

// RateLimitConfig holds request throttling settings
type RateLimitConfig struct {
	RequestsPerSecond float64 `validate:"gt=0"`
	Burst             int     `validate:"gt=0"`
}

// RetryStrategy defines the backoff strategy for retries
type RetryStrategy string

const (
	RetryStrategyExponential RetryStrategy = "exponential"
	RetryStrategyConstant    RetryStrategy = "constant"
	RetryStrategyFibonacci   RetryStrategy = "fibonacci"

	// DefaultMaxNewTokens caps the reply length; two IDs and a separator fit easily.
	DefaultMaxNewTokens = 16
)

// Error definitions
var (
	ErrUnknownModel        = errors.New("unknown model name")
	ErrUnsupportedItemType = errors.New("unsupported target item type")
	ErrEmptyResponse       = errors.New("backend returned no choices")
	ErrInvalidConfig       = errors.New("invalid configuration")
)

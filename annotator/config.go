package annotator

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the OpenAI-compatible endpoint of a locally served model (vLLM, TGI).
const DefaultBaseURL = "http://localhost:8000/v1"

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewDefaultConfig creates a config with sensible defaults for the named model
func NewDefaultConfig(modelName string) Config {
	return Config{
		ModelName:    modelName,
		BaseURL:      DefaultBaseURL,
		ItemType:     ItemTypeBWSTuples,
		InputDir:     "input",
		OutputDir:    "output",
		Domains:      DefaultDomains(),
		MaxNewTokens: DefaultMaxNewTokens,
	}
}

// WithBaseURL sets the inference endpoint
func (c Config) WithBaseURL(baseURL string) Config {
	c.BaseURL = baseURL
	return c
}

// WithAPIKey sets the bearer token sent to the endpoint
func (c Config) WithAPIKey(apiKey string) Config {
	c.APIKey = apiKey
	return c
}

// WithDirs sets the input and output directories
func (c Config) WithDirs(inputDir, outputDir string) Config {
	c.InputDir = inputDir
	c.OutputDir = outputDir
	return c
}

// WithTimeout sets the per-request timeout
func (c Config) WithTimeout(timeout time.Duration) Config {
	if timeout < 0 {
		panic("timeout must be positive")
	}
	c.Timeout = timeout
	return c
}

// WithMetrics enables Prometheus metrics recording
func (c Config) WithMetrics() Config {
	c.EnableMetrics = true
	return c
}

// WithRetry enables retry with default exponential backoff
func (c Config) WithRetry() Config {
	c.EnableRetry = true
	c.RetryConfig = DefaultRetryConfig()
	return c
}

// WithRetryConfig enables retry with custom settings
func (c Config) WithRetryConfig(config *RetryConfig) Config {
	c.EnableRetry = true
	c.RetryConfig = config
	return c
}

// WithCircuitBreaker enables circuit breaker with default settings
func (c Config) WithCircuitBreaker() Config {
	c.EnableCircuitBreaker = true
	c.CircuitBreakerConfig = DefaultCircuitBreakerConfig()
	return c
}

// WithCircuitBreakerConfig enables circuit breaker with custom settings
func (c Config) WithCircuitBreakerConfig(config *CircuitBreakerConfig) Config {
	c.EnableCircuitBreaker = true
	c.CircuitBreakerConfig = config
	return c
}

// WithRateLimit throttles backend calls to rps requests per second
func (c Config) WithRateLimit(rps float64) Config {
	c.EnableRateLimit = true
	c.RateLimitConfig = &RateLimitConfig{RequestsPerSecond: rps, Burst: 1}
	return c
}

// Validate checks if the config is valid
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if _, err := ResolveModel(c.ModelName); err != nil {
		return err
	}

	if err := ValidateItemType(c.ItemType); err != nil {
		return err
	}

	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}

	if c.EnableRetry {
		if c.RetryConfig == nil {
			return fmt.Errorf("%w: retry enabled but config is nil", ErrInvalidConfig)
		}
		if c.RetryConfig.InitialDelay <= 0 {
			return fmt.Errorf("%w: retry InitialDelay must be positive", ErrInvalidConfig)
		}
		if c.RetryConfig.MaxDelay <= 0 {
			return fmt.Errorf("%w: retry MaxDelay must be positive", ErrInvalidConfig)
		}
	}

	if c.EnableCircuitBreaker && c.CircuitBreakerConfig == nil {
		return fmt.Errorf("%w: circuit breaker enabled but config is nil", ErrInvalidConfig)
	}

	if c.EnableRateLimit && c.RateLimitConfig == nil {
		return fmt.Errorf("%w: rate limit enabled but config is nil", ErrInvalidConfig)
	}

	return nil
}

// fileConfig is the YAML layout of a config file. Absent keys keep their current value.
type fileConfig struct {
	BaseURL      *string        `yaml:"base_url"`
	APIKey       *string        `yaml:"api_key"`
	ItemType     *string        `yaml:"item_type"`
	InputDir     *string        `yaml:"input_dir"`
	OutputDir    *string        `yaml:"output_dir"`
	Domains      []string       `yaml:"domains"`
	MaxNewTokens *int           `yaml:"max_new_tokens"`
	Timeout      *time.Duration `yaml:"timeout"`
	Metrics      *bool          `yaml:"metrics"`

	Retry *struct {
		MaxAttempts  int           `yaml:"max_attempts"`
		Strategy     string        `yaml:"strategy"`
		InitialDelay time.Duration `yaml:"initial_delay"`
		MaxDelay     time.Duration `yaml:"max_delay"`
	} `yaml:"retry"`

	CircuitBreaker *struct {
		MaxRequests uint32        `yaml:"max_requests"`
		Interval    time.Duration `yaml:"interval"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"circuit_breaker"`

	RateLimit *struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// LoadConfigFile overlays the YAML file at path onto c.
func (c Config) LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("failed to read config file: %w", err)
	}
	return c.ApplyYAML(data)
}

// ApplyYAML overlays a YAML document onto c.
func (c Config) ApplyYAML(data []byte) (Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return c, fmt.Errorf("%w: failed to parse config file: %v", ErrInvalidConfig, err)
	}

	setString(&c.BaseURL, fc.BaseURL)
	setString(&c.APIKey, fc.APIKey)
	setString(&c.ItemType, fc.ItemType)
	setString(&c.InputDir, fc.InputDir)
	setString(&c.OutputDir, fc.OutputDir)
	if len(fc.Domains) > 0 {
		c.Domains = fc.Domains
	}
	if fc.MaxNewTokens != nil {
		c.MaxNewTokens = *fc.MaxNewTokens
	}
	if fc.Timeout != nil {
		c.Timeout = *fc.Timeout
	}
	if fc.Metrics != nil {
		c.EnableMetrics = *fc.Metrics
	}

	if r := fc.Retry; r != nil {
		rc := DefaultRetryConfig()
		if r.MaxAttempts != 0 {
			rc.MaxAttempts = r.MaxAttempts
		}
		if r.Strategy != "" {
			rc.Strategy = RetryStrategy(r.Strategy)
		}
		if r.InitialDelay != 0 {
			rc.InitialDelay = r.InitialDelay
		}
		if r.MaxDelay != 0 {
			rc.MaxDelay = r.MaxDelay
		}
		c = c.WithRetryConfig(rc)
	}

	if cb := fc.CircuitBreaker; cb != nil {
		cbc := DefaultCircuitBreakerConfig()
		if cb.MaxRequests != 0 {
			cbc.MaxRequests = cb.MaxRequests
		}
		if cb.Interval != 0 {
			cbc.Interval = cb.Interval
		}
		if cb.Timeout != 0 {
			cbc.Timeout = cb.Timeout
		}
		c = c.WithCircuitBreakerConfig(cbc)
	}

	if rl := fc.RateLimit; rl != nil {
		c.EnableRateLimit = true
		c.RateLimitConfig = &RateLimitConfig{RequestsPerSecond: rl.RequestsPerSecond, Burst: rl.Burst}
		if c.RateLimitConfig.Burst == 0 {
			c.RateLimitConfig.Burst = 1
		}
	}

	return c, nil
}

// Environment variables read by ApplyEnv.
const (
	EnvConfigFile     = "BWS_CONFIG"
	EnvBaseURL        = "BWS_BASE_URL"
	EnvAPIKey         = "OPENAI_API_KEY"
	EnvInputDir       = "BWS_INPUT_DIR"
	EnvOutputDir      = "BWS_OUTPUT_DIR"
	EnvMaxNewTokens   = "BWS_MAX_NEW_TOKENS"
	EnvTimeout        = "BWS_TIMEOUT"
	EnvRetry          = "BWS_RETRY"
	EnvCircuitBreaker = "BWS_CIRCUIT_BREAKER"
	EnvRateLimit      = "BWS_RATE_LIMIT"
	EnvMetricsAddr    = "BWS_METRICS_ADDR"
	EnvLogLevel       = "BWS_LOG_LEVEL"
)

// ApplyEnv overlays environment settings onto c. lookup is usually os.LookupEnv.
func (c Config) ApplyEnv(lookup func(string) (string, bool)) (Config, error) {
	var errs []error

	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.BaseURL = v
	}
	if v, ok := lookup(EnvAPIKey); ok {
		c.APIKey = v
	}
	if v, ok := lookup(EnvInputDir); ok && v != "" {
		c.InputDir = v
	}
	if v, ok := lookup(EnvOutputDir); ok && v != "" {
		c.OutputDir = v
	}
	if v, ok := lookup(EnvMaxNewTokens); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvMaxNewTokens, err))
		} else {
			c.MaxNewTokens = n
		}
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvTimeout, err))
		} else {
			c.Timeout = d
		}
	}
	if v, ok := lookup(EnvRetry); ok && v != "" {
		on, err := strconv.ParseBool(v)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", EnvRetry, err))
		case on && c.RetryConfig == nil:
			c = c.WithRetry()
		default:
			c.EnableRetry = on
		}
	}
	if v, ok := lookup(EnvCircuitBreaker); ok && v != "" {
		on, err := strconv.ParseBool(v)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", EnvCircuitBreaker, err))
		case on && c.CircuitBreakerConfig == nil:
			c = c.WithCircuitBreaker()
		default:
			c.EnableCircuitBreaker = on
		}
	}
	if v, ok := lookup(EnvRateLimit); ok && v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvRateLimit, err))
		} else if rps > 0 {
			c = c.WithRateLimit(rps)
		}
	}
	if v, ok := lookup(EnvMetricsAddr); ok && v != "" {
		c.EnableMetrics = true
	}

	if len(errs) > 0 {
		return c, fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return c, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

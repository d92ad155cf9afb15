package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/guidance"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultBaseURL is the Groq OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	// DefaultModel is the model used for guidance generation.
	DefaultModel = "llama3-70b-8192"

	// DefaultTimeout is the per-request HTTP timeout. Guidance replies
	// are long-form, so this is generous compared to a typical API call.
	DefaultTimeout = 60 * time.Second

	// DefaultTemperature keeps the advice varied without drifting off
	// the data in the prompt.
	DefaultTemperature = 0.7

	// DefaultMaxTokens caps the reply length.
	DefaultMaxTokens = 2048
)

// ClientConfig contains configuration for the Groq client.
type ClientConfig struct {
	// BaseURL is the API endpoint (tests point this at a local server)
	BaseURL string

	// APIKey is the bearer token for authentication
	APIKey string

	// Model is the model identifier to request
	Model string

	// Temperature is the sampling temperature
	Temperature float64

	// MaxTokens caps the reply length
	MaxTokens int

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// RateLimiterConfig configures request rate limiting
	RateLimiterConfig RateLimiterConfig

	// CircuitBreakerConfig configures the circuit breaker
	CircuitBreakerConfig CircuitBreakerConfig

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables request/response body logging
	Debug bool
}

// DefaultClientConfig returns a config with sensible defaults.
func DefaultClientConfig(apiKey string) ClientConfig {
	return ClientConfig{
		BaseURL:              DefaultBaseURL,
		APIKey:               apiKey,
		Model:                DefaultModel,
		Temperature:          DefaultTemperature,
		MaxTokens:            DefaultMaxTokens,
		Timeout:              DefaultTimeout,
		RateLimiterConfig:    DefaultRateLimiterConfig(),
		CircuitBreakerConfig: DefaultCircuitBreakerConfig(),
		Logger:               slog.Default(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the Groq API client. It implements guidance.Generator.
//
// Generate makes exactly one upstream attempt per call. The caller
// turns a failure into displayable text, so a retry here would only
// delay that text and double-bill the quota. The rate limiter and
// circuit breaker still protect ACROSS calls.
type Client struct {
	config         ClientConfig
	httpClient     *http.Client
	logger         *slog.Logger
	rateLimiter    *RateLimiter
	circuitBreaker *CircuitBreaker
}

// compile-time interface check
var _ guidance.Generator = (*Client)(nil)

// NewClient creates a new Groq client with the given configuration.
func NewClient(config ClientConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultMaxTokens
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:         config.Logger.With("component", "groq_client"),
		rateLimiter:    NewRateLimiter(config.RateLimiterConfig),
		circuitBreaker: NewCircuitBreaker(config.CircuitBreakerConfig),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// ErrEmptyPrompt is returned when Generate is called with an empty prompt.
var ErrEmptyPrompt = errors.New("prompt is empty")

// ErrNoChoices is returned when the API reply contains no choices.
var ErrNoChoices = errors.New("model returned no choices")

// APIError is a non-2xx response from the Groq API.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("groq api error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("groq api error (status %d)", e.StatusCode)
}

// ══════════════════════════════════════════════════════════════════════════════
// GENERATION
// ══════════════════════════════════════════════════════════════════════════════

// Generate sends the prompt to the model and returns its reply.
// One attempt, no retry.
func (c *Client) Generate(ctx context.Context, prompt string) (guidance.Generation, error) {
	if prompt == "" {
		return guidance.Generation{}, ErrEmptyPrompt
	}

	if err := c.circuitBreaker.Allow(); err != nil {
		c.logger.Warn("request blocked by circuit breaker")
		return guidance.Generation{}, err
	}

	if err := c.rateLimiter.Allow(ctx); err != nil {
		return guidance.Generation{}, err
	}

	start := time.Now()
	resp, err := c.doRequest(ctx, prompt)
	latency := time.Since(start)

	if err != nil {
		c.circuitBreaker.RecordFailure()
		c.logger.Error("completion request failed",
			"error", err,
			"latency_ms", latency.Milliseconds(),
		)
		return guidance.Generation{}, err
	}

	if len(resp.Choices) == 0 {
		c.circuitBreaker.RecordFailure()
		return guidance.Generation{}, ErrNoChoices
	}

	c.circuitBreaker.RecordSuccess()

	model := resp.Model
	if model == "" {
		model = c.config.Model
	}

	if c.config.Debug {
		c.logger.Debug("completion received",
			"model", model,
			"latency_ms", latency.Milliseconds(),
			"finish_reason", resp.Choices[0].FinishReason,
		)
	}
	if resp.Usage != nil {
		c.logger.Info("completion usage",
			"model", model,
			"prompt_tokens", resp.Usage.PromptTokens,
			"completion_tokens", resp.Usage.CompletionTokens,
			"latency_ms", latency.Milliseconds(),
		)
	}

	// Models pad replies with leading/trailing whitespace; archived
	// guidance stores the trimmed text.
	return guidance.Generation{
		Text:  strings.TrimSpace(resp.Choices[0].Message.Content),
		Model: model,
	}, nil
}

// doRequest performs a single HTTP round-trip to the completions endpoint.
func (c *Client) doRequest(ctx context.Context, prompt string) (*ChatCompletionResponse, error) {
	reqBody := ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []ChatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.config.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if httpResp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(httpResp.Header.Get("Retry-After"))
		c.rateLimiter.RecordRateLimitHit(retryAfter)
		return nil, &RateLimitError{
			RetryAfter: retryAfter,
			Message:    "groq api rate limit exceeded",
		}
	}

	if httpResp.StatusCode >= 400 {
		var apiErr APIErrorDTO
		_ = json.Unmarshal(body, &apiErr)
		return nil, &APIError{
			StatusCode: httpResp.StatusCode,
			Type:       apiErr.Error.Type,
			Message:    apiErr.Error.Message,
		}
	}

	var resp ChatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &resp, nil
}

// parseRetryAfter parses the Retry-After header (seconds form only).
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// IsHealthy returns true if the client can make requests.
func (c *Client) IsHealthy() bool {
	return c.circuitBreaker.State() != CircuitOpen
}

// ClientStatus contains the current status of the client.
type ClientStatus struct {
	RateLimiter    RateLimiterStatus
	CircuitBreaker CircuitBreakerStatus
	IsHealthy      bool
}

// Status returns the current status of the client.
func (c *Client) Status() ClientStatus {
	return ClientStatus{
		RateLimiter:    c.rateLimiter.Status(),
		CircuitBreaker: c.circuitBreaker.Status(),
		IsHealthy:      c.IsHealthy(),
	}
}

// Reset resets the rate limiter and circuit breaker.
func (c *Client) Reset() {
	c.rateLimiter.Reset()
	c.circuitBreaker.Reset()
	c.logger.Info("client state reset")
}

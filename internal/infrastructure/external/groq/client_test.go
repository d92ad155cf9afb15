package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) ClientConfig {
	cfg := DefaultClientConfig("test-key")
	cfg.BaseURL = baseURL
	// No throttling inside tests.
	cfg.RateLimiterConfig = RateLimiterConfig{
		RequestsPerSecond: 1000,
		BurstSize:         1000,
		WaitTimeout:       time.Second,
	}
	return cfg
}

func completionJSON(text string) string {
	resp := ChatCompletionResponse{
		ID:    "chatcmpl-123",
		Model: "llama3-70b-8192",
		Choices: []ChatChoice{
			{Index: 0, Message: ChatMessage{Role: "assistant", Content: text}, FinishReason: "stop"},
		},
		Usage: &ChatUsage{PromptTokens: 120, CompletionTokens: 300, TotalTokens: 420},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestClient_Generate(t *testing.T) {
	var gotRequest ChatCompletionRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionJSON("Consider a career in robotics engineering.")))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	gen, err := client.Generate(context.Background(), "The student Asel has the following details:")
	require.NoError(t, err)

	assert.Equal(t, "Consider a career in robotics engineering.", gen.Text)
	assert.Equal(t, "llama3-70b-8192", gen.Model)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, DefaultModel, gotRequest.Model)
	require.Len(t, gotRequest.Messages, 1)
	assert.Equal(t, "user", gotRequest.Messages[0].Role)
	assert.Equal(t, "The student Asel has the following details:", gotRequest.Messages[0].Content)
}

func TestClient_Generate_TrimsReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionJSON("\n\n  Consider a career in data science.  \n")))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	gen, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Consider a career in data science.", gen.Text)
}

func TestClient_Generate_EmptyPrompt(t *testing.T) {
	client := NewClient(testConfig("http://localhost:1"))

	_, err := client.Generate(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestClient_Generate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"service unavailable","type":"server_error"}}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "service unavailable", apiErr.Message)
}

func TestClient_Generate_SingleAttempt(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	_, err := client.Generate(context.Background(), "prompt")
	assert.Error(t, err)
	assert.Equal(t, 1, requests)
}

func TestClient_Generate_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)

	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, 30*time.Second, rlErr.RetryAfter)
}

func TestClient_Generate_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"chatcmpl-123","model":"llama3-70b-8192","choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	_, err := client.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestClient_CircuitBreakerOpensAfterFailures(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.CircuitBreakerConfig = CircuitBreakerConfig{
		FailureThreshold:   2,
		SuccessThreshold:   1,
		Timeout:            time.Minute,
		HalfOpenMaxRetries: 1,
	}
	client := NewClient(cfg)

	ctx := context.Background()
	_, _ = client.Generate(ctx, "prompt")
	_, _ = client.Generate(ctx, "prompt")

	assert.False(t, client.IsHealthy())

	// Open circuit fails fast without hitting the server.
	_, err := client.Generate(ctx, "prompt")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, requests)

	client.Reset()
	assert.True(t, client.IsHealthy())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold:   1,
		SuccessThreshold:   1,
		Timeout:            time.Millisecond,
		HalfOpenMaxRetries: 1,
	})

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State())

	time.Sleep(5 * time.Millisecond)
	assert.NoError(t, cb.Allow())
	assert.Equal(t, CircuitHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 30*time.Second, parseRetryAfter("30"))
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, time.Duration(0), parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
}

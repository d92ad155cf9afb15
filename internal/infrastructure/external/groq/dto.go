// Package groq implements the Groq chat-completions API client that
// backs guidance generation. The wire format is OpenAI-compatible:
// a messages array in, a choices array out.
package groq

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DTOs
// ══════════════════════════════════════════════════════════════════════════════

// ChatMessage is a single message in the conversation sent to the model.
type ChatMessage struct {
	// Role is one of "system", "user" or "assistant"
	Role string `json:"role"`

	// Content is the message text
	Content string `json:"content"`
}

// ChatCompletionRequest is the request body for POST /chat/completions.
type ChatCompletionRequest struct {
	// Model is the model identifier (e.g. "llama3-70b-8192")
	Model string `json:"model"`

	// Messages is the conversation so far; guidance sends a single user message
	Messages []ChatMessage `json:"messages"`

	// Temperature controls sampling randomness
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens caps the length of the reply
	MaxTokens int `json:"max_tokens,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE DTOs
// ══════════════════════════════════════════════════════════════════════════════

// ChatCompletionResponse is the response body for a successful completion.
type ChatCompletionResponse struct {
	// ID is the completion identifier assigned by the API
	ID string `json:"id"`

	// Model is the model that actually served the request
	Model string `json:"model"`

	// Choices holds the generated replies; guidance uses the first one
	Choices []ChatChoice `json:"choices"`

	// Usage reports token consumption for the request
	Usage *ChatUsage `json:"usage,omitempty"`
}

// ChatChoice is one generated reply.
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

// ChatUsage reports token consumption.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// APIErrorDTO is the error body the API returns on non-2xx responses.
type APIErrorDTO struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
}

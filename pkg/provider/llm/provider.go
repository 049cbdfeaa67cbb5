// Package llm defines the Provider interface for text-generation backends.
//
// An LLM provider wraps a remote or local model API (e.g., DeepSeek, OpenAI
// GPT-4o, or a local Ollama instance) and exposes a uniform request/response
// interface so that the script synthesizers can request completions without
// coupling to any specific SDK.
//
// Implementations must be safe for concurrent use.
package llm

import "context"

// ResponseFormat selects the output shape requested from the model.
type ResponseFormat string

const (
	// FormatText requests free-form text output. This is the default.
	FormatText ResponseFormat = "text"

	// FormatJSON requests a single top-level JSON object. Models may still wrap
	// the object in surrounding prose; callers must extract it defensively.
	FormatJSON ResponseFormat = "json"
)

// Message represents a single message in an LLM conversation.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// Usage holds token accounting information returned by the LLM backend.
// All counts are in the model's native token unit and may differ between
// providers for the same textual content.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the input messages.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the response.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens. Some providers return it
	// directly rather than computing it from the parts.
	TotalTokens int
}

// CompletionRequest carries everything the LLM needs to produce a response.
// Callers should treat a zero-value request as invalid; at minimum Messages
// must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation. The last message is typically from
	// the "user" role and drives the response.
	Messages []Message

	// SystemPrompt is an optional high-priority instruction injected before the
	// conversation. Providers that do not natively support a dedicated system
	// prompt prepend it as a "system"-role message.
	SystemPrompt string

	// Temperature controls output randomness in the range [0.0, 2.0]. A value
	// of 0 means use the provider default.
	Temperature float64

	// MaxTokens caps the number of completion tokens the model may generate.
	// Zero means use the provider default.
	MaxTokens int

	// ResponseFormat selects text or JSON-object output. An empty value is
	// treated as FormatText.
	ResponseFormat ResponseFormat
}

// CompletionResponse is returned by Complete.
type CompletionResponse struct {
	// Content is the full text of the model's reply.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any text-generation backend.
//
// Implementations must be safe for concurrent use from multiple goroutines and
// should propagate context cancellation promptly.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	//
	// Returns an error if the request fails or if ctx is cancelled before the
	// completion arrives.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

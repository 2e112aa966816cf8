package driven

import (
	"context"
	"time"
)

// LLMService provides text completion for answer generation.
//
// Implementations may include:
//   - Ollama (local models)
//   - OpenAI (GPT family)
type LLMService interface {
	// Complete produces a text completion from a prompt.
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (*CompletionResult, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionOptions configures completion behaviour.
type CompletionOptions struct {
	// SystemPrompt is prepended as a system instruction when the
	// backend supports one.
	SystemPrompt string

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// CompletionResult is the outcome of a completion request.
type CompletionResult struct {
	// Content is the generated text.
	Content string

	// TokensUsed is the total token count reported by the backend,
	// zero when the backend does not report usage.
	TokensUsed int

	// Elapsed is the wall-clock duration of the request.
	Elapsed time.Duration
}

// Package driven holds the outbound ports: storage, model providers and
// document processing.
package driven

import "context"

// LLMService is a chat-capable language model. A nil LLMService means
// queries return passages without an answer.
type LLMService interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)
	ModelName() string

	// Ping makes the cheapest request the provider allows. It is used when
	// wiring providers and by the health endpoint.
	Ping(ctx context.Context) error
	Close() error
}

// GenerateOptions tune a single-prompt completion. Zero values leave the
// provider default in place.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	StopWords   []string
}

// ChatMessage is one turn. Role is "system", "user" or "assistant".
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions tune a chat completion.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64
}

// Package generator provides the answer Generator backed by an LLMService.
//
// Each call renders the answer (or no_context) prompt from the PromptStore,
// waits for a slot on a token-bucket limiter and sends a two-message chat
// (system prompt, then the rendered question) bounded by a timeout.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
	"github.com/custodia-labs/ragbox/internal/logger"
)

// Ensure Generator implements the interface.
var _ driven.Generator = (*Generator)(nil)

// Default configuration values.
const (
	DefaultTimeout           = 120 * time.Second
	DefaultRequestsPerSecond = 2
	DefaultBurst             = 4
	DefaultTemperature       = 0.1
)

// Fallback templates for when no PromptStore is configured.
const (
	fallbackAnswer    = "Context:\n%s\n\nAnswer the question using only the context above.\nQuestion: %s\nAnswer:"
	fallbackNoContext = "No documents matched. Say that the collection does not contain the answer.\nQuestion: %s\nAnswer:"
	fallbackSystem    = "You answer questions about the user's documents using only the passages provided."
)

// Config holds generator settings.
type Config struct {
	// Timeout bounds one answer, including the rate limiter wait (default: 120s).
	Timeout time.Duration

	// RequestsPerSecond limits LLM calls. Negative disables the limiter;
	// zero means the default of 2.
	RequestsPerSecond float64

	// Burst is the limiter bucket size (default: 4).
	Burst int

	// Temperature is passed to the model (default: 0.1).
	Temperature float64

	// MaxTokens caps the answer length. Zero leaves it to the provider.
	MaxTokens int
}

// Generator synthesises answers with an LLMService.
type Generator struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	limiter *rate.Limiter
	timeout time.Duration
	opts    driven.ChatOptions
}

// New creates a generator. prompts may be nil, in which case built-in
// templates are used.
func New(llm driven.LLMService, prompts driven.PromptStore, cfg Config) *Generator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}

	g := &Generator{
		llm:     llm,
		prompts: prompts,
		timeout: cfg.Timeout,
		opts: driven.ChatOptions{
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		},
	}
	if cfg.RequestsPerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}
	return g
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (g *Generator) SetPromptStore(store driven.PromptStore) {
	g.prompts = store
}

// ModelName reports the underlying model, or "" when none is configured.
func (g *Generator) ModelName() string {
	if g.llm == nil {
		return ""
	}
	return g.llm.ModelName()
}

// Generate answers req.Question from req.Passages.
func (g *Generator) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	if g.llm == nil {
		return "", fmt.Errorf("%w: no language model configured", domain.ErrGenerationUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			if ctx.Err() == nil {
				// The wait would outlast the deadline.
				err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
			}
			return "", g.fail(ctx, fmt.Errorf("rate limit: %w", err))
		}
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: g.load(driven.PromptChatSystem, fallbackSystem)},
		{Role: "user", Content: g.render(req)},
	}

	start := time.Now()
	answer, err := g.llm.Chat(ctx, messages, g.opts)
	if err != nil {
		return "", g.fail(ctx, err)
	}
	logger.Debug("Generated answer with %s in %s (%d passages)",
		g.llm.ModelName(), time.Since(start).Round(time.Millisecond), len(req.Passages))

	return strings.TrimSpace(answer), nil
}

// render fills the answer or no_context template.
func (g *Generator) render(req domain.GenerateRequest) string {
	if req.NoContext || len(req.Passages) == 0 {
		return fmt.Sprintf(g.load(driven.PromptNoContext, fallbackNoContext), req.Question)
	}
	return fmt.Sprintf(g.load(driven.PromptAnswer, fallbackAnswer), FormatPassages(req.Passages), req.Question)
}

func (g *Generator) load(name, fallback string) string {
	if g.prompts == nil {
		return fallback
	}
	prompt, err := g.prompts.Load(name)
	if err != nil || prompt == "" {
		logger.Warn("prompt %q unavailable, using built-in: %v", name, err)
		return fallback
	}
	return prompt
}

// fail classifies err. A hit deadline is a timeout; anything else, including
// client cancellation, is plain unavailability.
func (g *Generator) fail(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w: no answer within %s: %w",
			domain.ErrGenerationUnavailable, domain.ErrGenerationTimeout, g.timeout, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
}

// FormatPassages renders passages as the context block of the answer prompt.
// Each passage is headed by its file name so the model can cite it.
func FormatPassages(passages []domain.Passage) string {
	var b strings.Builder
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s\n%s", i+1, p.Chunk.FileName, strings.TrimSpace(p.Chunk.Content))
	}
	return b.String()
}

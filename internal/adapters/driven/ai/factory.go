// Package ai builds the embedding and LLM adapters named by the settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/ragbox/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ragbox/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/ragbox/internal/adapters/driven/generator"
	anthropicllm "github.com/custodia-labs/ragbox/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/ragbox/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/ragbox/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
	"github.com/custodia-labs/ragbox/internal/logger"
)

// pingTimeout bounds every connectivity check.
const pingTimeout = 5 * time.Second

// InitResult holds the AI services built at startup.
type InitResult struct {
	EmbeddingService driven.EmbeddingService // Nil means keyword ranking.
	LLMService       driven.LLMService
	Generator        *generator.Generator // Always set; reports unavailability without an LLM.
	Warnings         []string
	FellBack         bool // Embeddings were configured but could not be used.
}

// Close releases the services.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		_ = r.LLMService.Close()
	}
}

// Init builds the embedding service, the LLM service and the answer
// generator from settings. An unreachable embedding provider falls back to
// keyword ranking. An unreachable LLM is kept, since local model servers are
// often started after ragbox; generation fails until it answers.
func Init(settings *domain.AppSettings, prompts driven.PromptStore) *InitResult {
	result := &InitResult{}

	embedder, err := connectEmbedding(&settings.Embedding)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		result.FellBack = true
	}
	result.EmbeddingService = embedder

	llm, err := CreateLLMService(&settings.LLM)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, fmt.Sprintf("%v: %v", domain.ErrLLMUnavailable, err))
	case llm != nil:
		if err := ping(llm); err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("LLM %s not reachable yet: %v", llm.ModelName(), err))
		}
		result.LLMService = llm
	}

	result.Generator = generator.New(result.LLMService, prompts, generator.Config{
		Timeout:           settings.Query.GenerationTimeout,
		RequestsPerSecond: settings.Query.RequestsPerSecond,
		Burst:             settings.Query.Burst,
	})

	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}
	return result
}

// pinger is what the connectivity checks need from either provider port.
type pinger interface {
	Ping(ctx context.Context) error
	Close() error
}

func ping(p pinger) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return p.Ping(ctx)
}

// connectEmbedding builds the embedding service and checks that it answers.
// Unconfigured settings return nil without error.
func connectEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'ragbox settings' to fix", domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}
	if err := ping(svc); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: %s unreachable (%w). Run 'ragbox settings' to fix",
			domain.ErrEmbeddingUnavailable, settings.Provider, err)
	}
	return svc, nil
}

// ValidateEmbeddingConfig builds the service described by settings and pings it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(svc)
}

// ValidateLLMConfig builds the service described by settings and pings it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(svc)
}

// CreateEmbeddingService returns the adapter for the configured provider,
// or nil when embeddings are not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	dimensions := domain.EmbeddingDimensions()[settings.Model]

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		}), nil
	case domain.AIProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil
	case domain.AIProviderAnthropic:
		return nil, errors.New("anthropic has no embeddings API, use ollama or openai")
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService returns the adapter for the configured provider, or nil
// when no LLM is configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		svc driven.LLMService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = ollamallm.NewLLMService(ollamallm.LLMConfig{BaseURL: settings.BaseURL, Model: settings.Model})
	case domain.AIProviderOpenAI:
		var s *openaillm.LLMService
		s, err = openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey: settings.APIKey, BaseURL: settings.BaseURL, Model: settings.Model,
		})
		svc = s
	case domain.AIProviderAnthropic:
		var s *anthropicllm.LLMService
		s, err = anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey: settings.APIKey, BaseURL: settings.BaseURL, Model: settings.Model,
		})
		svc = s
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, err
	}
	return svc, nil
}

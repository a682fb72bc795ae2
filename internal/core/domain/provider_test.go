package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_Capabilities(t *testing.T) {
	tests := []struct {
		provider    AIProvider
		valid       bool
		local       bool
		needsKey    bool
		embeddings  bool
		description string
	}{
		{AIProviderOllama, true, true, false, true, "Ollama (local)"},
		{AIProviderOpenAI, true, false, true, true, "OpenAI (cloud)"},
		{AIProviderAnthropic, true, false, true, false, "Anthropic (cloud)"},
		{AIProvider(""), false, false, false, false, "Unknown"},
		{AIProvider("cohere"), false, false, false, false, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.provider.String(), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.provider.IsValid())
			assert.Equal(t, tt.local, tt.provider.IsLocal())
			assert.Equal(t, tt.needsKey, tt.provider.RequiresAPIKey())
			assert.Equal(t, tt.embeddings, tt.provider.SupportsEmbeddings())
			assert.Equal(t, tt.description, tt.provider.Description())
		})
	}
}

func TestProviderLists(t *testing.T) {
	assert.Equal(t, []AIProvider{AIProviderOllama, AIProviderOpenAI}, AllEmbeddingProviders())
	assert.Equal(t, []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic}, AllLLMProviders())

	// Callers may sort or trim the returned slice.
	llms := AllLLMProviders()
	llms[0] = "changed"
	assert.Equal(t, AIProviderOllama, AllLLMProviders()[0])
}

func TestDefaultModels(t *testing.T) {
	assert.Equal(t, map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}, DefaultEmbeddingModels())

	assert.Equal(t, map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}, DefaultLLMModels())

	assert.Empty(t, AIProviderAnthropic.DefaultEmbeddingModel())
}

func TestEmbeddingDimensions(t *testing.T) {
	dims := EmbeddingDimensions()
	assert.Equal(t, 768, dims["nomic-embed-text"])
	assert.Equal(t, 1024, dims["mxbai-embed-large"])
	assert.Equal(t, 3072, dims["text-embedding-3-large"])
	assert.NotContains(t, dims, "llama3.2")

	dims["nomic-embed-text"] = 1
	assert.Equal(t, 768, EmbeddingDimensions()["nomic-embed-text"])
}

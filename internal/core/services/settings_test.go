package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbox/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragbox/internal/core/domain"
)

func TestNewSettingsService(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	require.NotNil(t, service)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	require.NotNil(t, settings)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.LLM.Provider, settings.LLM.Provider)
	assert.Equal(t, defaults.LLM.Model, settings.LLM.Model)
	assert.Equal(t, domain.StoreBackendSQLite, settings.Store.Backend)
	assert.Equal(t, "http://localhost:6333", settings.Store.QdrantURL)
	assert.Equal(t, 8000, settings.Server.Port)
	assert.Equal(t, domain.DefaultTopK, settings.Query.TopK)
	assert.Equal(t, 120*time.Second, settings.Query.GenerationTimeout)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "openai")
	_ = store.Set("embedding.model", "text-embedding-3-large")
	_ = store.Set("store.backend", "qdrant")
	_ = store.Set("qdrant.url", "http://qdrant:6333")
	_ = store.Set("server.port", 9090)
	_ = store.Set("query.top_k", 8)
	_ = store.Set("llm.timeout", "45s")
	_ = store.Set("llm.requests_per_second", 0.5)

	service := NewSettingsService(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, domain.StoreBackendQdrant, settings.Store.Backend)
	assert.Equal(t, "http://qdrant:6333", settings.Store.QdrantURL)
	assert.Equal(t, 9090, settings.Server.Port)
	assert.Equal(t, 8, settings.Query.TopK)
	assert.Equal(t, 45*time.Second, settings.Query.GenerationTimeout)
	assert.InDelta(t, 0.5, settings.Query.RequestsPerSecond, 0.0001)
}

func TestSettingsService_Get_DurationAsSeconds(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("llm.timeout", 30)
	_ = store.Set("store.timeout", "2.5")

	service := NewSettingsService(store, nil)
	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, settings.Query.GenerationTimeout)
	assert.Equal(t, 2500*time.Millisecond, settings.Store.Timeout)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "invalid_provider")
	_ = store.Set("store.backend", "chroma")
	_ = store.Set("llm.timeout", "soon")

	service := NewSettingsService(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.Store.Backend, settings.Store.Backend)
	assert.Equal(t, defaults.Query.GenerationTimeout, settings.Query.GenerationTimeout)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	settings := domain.DefaultAppSettings()
	settings.Embedding = domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		Model:    "nomic-embed-text",
		BaseURL:  "http://localhost:11434",
	}
	settings.Store.Backend = domain.StoreBackendQdrant
	settings.Store.QdrantAPIKey = "secret"
	settings.Query.GenerationTimeout = 90 * time.Second
	settings.Query.TopK = 3

	require.NoError(t, service.Save(&settings))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings.Embedding, got.Embedding)
	assert.Equal(t, domain.StoreBackendQdrant, got.Store.Backend)
	assert.Equal(t, "secret", got.Store.QdrantAPIKey)
	assert.Equal(t, 90*time.Second, got.Query.GenerationTimeout)
	assert.Equal(t, 3, got.Query.TopK)
}

func TestSettingsService_Save_EmptyAPIKeyNotStored(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	settings := domain.DefaultAppSettings()
	require.NoError(t, service.Save(&settings))

	_, exists := store.Get("llm.api_key")
	assert.False(t, exists)
	_, exists = store.Get("qdrant.api_key")
	assert.False(t, exists)
}

// Mock config store that fails on Set
type failingConfigStore struct {
	*memory.ConfigStore
	failOn string
}

func (f *failingConfigStore) Set(key string, value any) error {
	if f.failOn == "" || key == f.failOn {
		return assert.AnError
	}
	return f.ConfigStore.Set(key, value)
}

func TestSettingsService_Save_Errors(t *testing.T) {
	tests := []struct {
		key     string
		message string
	}{
		{"embedding.provider", "save embedding.provider"},
		{"llm.model", "save llm.model"},
		{"llm.timeout", "save llm.timeout"},
		{"store.backend", "save store.backend"},
		{"qdrant.url", "save qdrant.url"},
		{"server.port", "save server.port"},
		{"query.top_k", "save query.top_k"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			store := &failingConfigStore{ConfigStore: memory.NewConfigStore(), failOn: tt.key}
			service := NewSettingsService(store, nil)

			settings := domain.DefaultAppSettings()
			err := service.Save(&settings)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestSettingsService_SetEmbeddingProvider_Ollama(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
}

func TestSettingsService_SetEmbeddingProvider_CloudClearsBaseURL(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.base_url", "http://localhost:11434")
	service := NewSettingsService(store, nil)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "sk-test"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Empty(t, settings.Embedding.BaseURL)
	assert.Equal(t, "sk-test", settings.Embedding.APIKey)
	assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
}

func TestSettingsService_SetEmbeddingProvider_Errors(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	assert.Error(t, service.SetEmbeddingProvider(domain.AIProvider("bogus"), "", ""))
	assert.Error(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))
	assert.Error(t, service.SetEmbeddingProvider(domain.AIProviderAnthropic, "", "key"))
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	require.NoError(t, service.SetLLMProvider(domain.AIProviderAnthropic, "", "sk-ant"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, "claude-3-5-sonnet-latest", settings.LLM.Model)
	assert.Empty(t, settings.LLM.BaseURL)

	assert.Error(t, service.SetLLMProvider(domain.AIProviderOpenAI, "gpt-4o", ""))
	assert.Error(t, service.SetLLMProvider(domain.AIProvider("x"), "", ""))
}

func TestSettingsService_SetStoreBackend(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	require.NoError(t, service.SetStoreBackend(domain.StoreBackendMemory))
	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.StoreBackendMemory, settings.Store.Backend)

	assert.Error(t, service.SetStoreBackend(domain.StoreBackend("chroma")))
}

func TestSettingsService_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)
		assert.NoError(t, service.Validate())
	})

	t.Run("qdrant requires embeddings", func(t *testing.T) {
		store := memory.NewConfigStore()
		_ = store.Set("store.backend", "qdrant")
		service := NewSettingsService(store, nil)

		err := service.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding")
	})

	t.Run("qdrant with embeddings", func(t *testing.T) {
		store := memory.NewConfigStore()
		_ = store.Set("store.backend", "qdrant")
		_ = store.Set("embedding.provider", "ollama")
		service := NewSettingsService(store, nil)

		assert.NoError(t, service.Validate())
	})

	t.Run("port out of range", func(t *testing.T) {
		store := memory.NewConfigStore()
		_ = store.Set("server.port", 70000)
		service := NewSettingsService(store, nil)

		assert.Error(t, service.Validate())
	})
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)
	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}

// Mock AIConfigValidator for testing
type mockAIConfigValidator struct {
	embedErr error
	llmErr   error
}

func (m *mockAIConfigValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error {
	return m.embedErr
}

func (m *mockAIConfigValidator) ValidateLLM(_ *domain.LLMSettings) error {
	return m.llmErr
}

func TestSettingsService_ValidateConfig_NilValidator(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	assert.NoError(t, service.ValidateEmbeddingConfig())
	assert.NoError(t, service.ValidateLLMConfig())
}

func TestSettingsService_ValidateConfig_Errors(t *testing.T) {
	validator := &mockAIConfigValidator{embedErr: assert.AnError, llmErr: assert.AnError}
	service := NewSettingsService(memory.NewConfigStore(), validator)

	assert.ErrorIs(t, service.ValidateEmbeddingConfig(), assert.AnError)
	assert.ErrorIs(t, service.ValidateLLMConfig(), assert.AnError)
}

func TestSettingsService_GetPipelineConfig(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("pipeline.chunker.chunk_size", 500)
	service := NewSettingsService(store, nil)

	cfg := service.GetPipelineConfig()

	assert.Equal(t, []string{"chunker"}, cfg.Processors)
	assert.Equal(t, 500, cfg.GetProcessorConfig("chunker")["chunk_size"])
	assert.Equal(t, 200, cfg.GetProcessorConfig("chunker")["overlap"])
}

func TestSettingsService_EnvironmentOverridesAreNotSaved(t *testing.T) {
	store := memory.NewConfigStore()
	require.NoError(t, store.Set("llm.model", "llama3.2"))
	store.Override(map[string]any{"llm.model": "from-env"})
	service := NewSettingsService(store, nil)

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "from-env", settings.LLM.Model)

	require.NoError(t, service.SetLLMProvider(domain.AIProviderOllama, "mistral", ""))

	assert.Equal(t, "mistral", store.Snapshot()["llm.model"])
	settings, err = service.Get()
	require.NoError(t, err)
	assert.Equal(t, "from-env", settings.LLM.Model)
}

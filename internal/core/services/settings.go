package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
	"github.com/custodia-labs/ragbox/internal/core/ports/driving"
)

var _ driving.SettingsService = (*SettingsService)(nil)

//nolint:gosec // key names, not credentials
const (
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMBaseURL    = "llm.base_url"
	keyLLMAPIKey     = "llm.api_key"
	keyLLMTimeout    = "llm.timeout"
	keyLLMRate       = "llm.requests_per_second"
	keyLLMBurst      = "llm.burst"
	keyStoreBackend  = "store.backend"
	keyStoreDataDir  = "store.data_dir"
	keyStoreTimeout  = "store.timeout"
	keyQdrantURL     = "qdrant.url"
	keyQdrantAPIKey  = "qdrant.api_key"
	keyServerHost    = "server.host"
	keyServerPort    = "server.port"
	keyQueryTopK     = "query.top_k"
	keyProcessors    = "pipeline.processors"
)

const (
	defaultOllamaURL = "http://localhost:11434"
	defaultQdrantURL = "http://localhost:6333"
)

// processorOptions are read from pipeline.<processor>.<option>.
var processorOptions = []string{"chunk_size", "overlap", "max_length", "model"}

// SettingsService reads and writes AppSettings through a ConfigStore.
// Missing or unparseable values fall back to domain.DefaultAppSettings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService wires the store and an optional provider validator.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{configStore: configStore, aiValidator: aiValidator}
}

func (s *SettingsService) Get() (*domain.AppSettings, error) {
	def := domain.DefaultAppSettings()
	c := configReader{s.configStore}

	return &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: c.provider(keyEmbedProvider, def.Embedding.Provider),
			Model:    c.str(keyEmbedModel, def.Embedding.Model),
			BaseURL:  c.str(keyEmbedBaseURL, ""),
			APIKey:   c.str(keyEmbedAPIKey, ""),
		},
		LLM: domain.LLMSettings{
			Provider: c.provider(keyLLMProvider, def.LLM.Provider),
			Model:    c.str(keyLLMModel, def.LLM.Model),
			BaseURL:  c.str(keyLLMBaseURL, ""),
			APIKey:   c.str(keyLLMAPIKey, ""),
		},
		Store: domain.StoreSettings{
			Backend:      c.backend(keyStoreBackend, def.Store.Backend),
			DataDir:      c.str(keyStoreDataDir, ""),
			QdrantURL:    c.str(keyQdrantURL, defaultQdrantURL),
			QdrantAPIKey: c.str(keyQdrantAPIKey, ""),
			Timeout:      c.duration(keyStoreTimeout, def.Store.Timeout),
		},
		Server: domain.ServerSettings{
			Host: c.str(keyServerHost, def.Server.Host),
			Port: c.integer(keyServerPort, def.Server.Port),
		},
		Query: domain.QuerySettings{
			TopK:              c.integer(keyQueryTopK, def.Query.TopK),
			GenerationTimeout: c.duration(keyLLMTimeout, def.Query.GenerationTimeout),
			RequestsPerSecond: c.float(keyLLMRate, def.Query.RequestsPerSecond),
			Burst:             c.integer(keyLLMBurst, def.Query.Burst),
		},
	}, nil
}

// Save writes every setting. Secrets and the data directory are only
// written when set, so saving never erases a stored key.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	always := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTimeout, settings.Query.GenerationTimeout.String()},
		{keyLLMRate, settings.Query.RequestsPerSecond},
		{keyLLMBurst, settings.Query.Burst},
		{keyStoreBackend, settings.Store.Backend.String()},
		{keyStoreTimeout, settings.Store.Timeout.String()},
		{keyQdrantURL, settings.Store.QdrantURL},
		{keyServerHost, settings.Server.Host},
		{keyServerPort, settings.Server.Port},
		{keyQueryTopK, settings.Query.TopK},
	}
	for _, kv := range always {
		if err := s.set(kv.key, kv.value); err != nil {
			return err
		}
	}

	ifSet := map[string]string{
		keyEmbedAPIKey:  settings.Embedding.APIKey,
		keyLLMAPIKey:    settings.LLM.APIKey,
		keyQdrantAPIKey: settings.Store.QdrantAPIKey,
		keyStoreDataDir: settings.Store.DataDir,
	}
	for key, value := range ifSet {
		if value == "" {
			continue
		}
		if err := s.set(key, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *SettingsService) set(key string, value any) error {
	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetEmbeddingProvider switches the embedding provider. An empty model
// selects the provider's default.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	switch {
	case !provider.IsValid():
		return fmt.Errorf("invalid embedding provider: %s", provider)
	case !provider.SupportsEmbeddings():
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	return s.update(func(settings *domain.AppSettings) error {
		e := &settings.Embedding
		var err error
		e.Model, e.BaseURL, err = choose(provider, model, apiKey, provider.DefaultEmbeddingModel(), e.BaseURL)
		e.Provider, e.APIKey = provider, apiKey
		return err
	})
}

// SetLLMProvider switches the answering model. An empty model selects the
// provider's default.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	return s.update(func(settings *domain.AppSettings) error {
		l := &settings.LLM
		var err error
		l.Model, l.BaseURL, err = choose(provider, model, apiKey, provider.DefaultLLMModel(), l.BaseURL)
		l.Provider, l.APIKey = provider, apiKey
		return err
	})
}

// choose resolves the model and endpoint for a provider switch. Cloud
// providers always use their public endpoint.
func choose(provider domain.AIProvider, model, apiKey, defaultModel, baseURL string) (string, string, error) {
	if provider.RequiresAPIKey() && apiKey == "" {
		return "", "", fmt.Errorf("API key required for %s", provider)
	}
	if model == "" {
		model = defaultModel
	}
	switch {
	case !provider.IsLocal():
		baseURL = ""
	case baseURL == "":
		baseURL = defaultOllamaURL
	}
	return model, baseURL, nil
}

// SetStoreBackend selects the document store.
func (s *SettingsService) SetStoreBackend(backend domain.StoreBackend) error {
	if !backend.IsValid() {
		return fmt.Errorf("invalid store backend: %s", backend)
	}
	return s.update(func(settings *domain.AppSettings) error {
		settings.Store.Backend = backend
		return nil
	})
}

// update applies fn to the current settings and saves them unless fn fails.
func (s *SettingsService) update(fn func(*domain.AppSettings) error) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := fn(settings); err != nil {
		return err
	}
	return s.Save(settings)
}

// Validate checks the combination of settings without contacting providers.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	st := settings.Store
	if !st.Backend.IsValid() {
		return fmt.Errorf("invalid store backend: %s", st.Backend)
	}
	if st.Backend == domain.StoreBackendQdrant {
		// Qdrant holds vectors only.
		if !settings.Embedding.IsConfigured() {
			return fmt.Errorf("store backend %q requires embedding provider to be configured", st.Backend)
		}
		if st.QdrantURL == "" {
			return fmt.Errorf("store backend %q requires qdrant.url", st.Backend)
		}
	}
	if k := settings.Query.TopK; k <= 0 {
		return fmt.Errorf("query.top_k must be positive, got %d", k)
	}
	if p := settings.Server.Port; p <= 0 || p > 65535 {
		return fmt.Errorf("server.port out of range: %d", p)
	}
	return nil
}

func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig pings the configured embedding provider. It is a
// no-op without a validator.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig pings the configured LLM provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// GetPipelineConfig layers configured processors and options over
// domain.DefaultPipelineConfig.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	cfg := domain.DefaultPipelineConfig()
	if names := s.configStore.GetStringSlice(keyProcessors); len(names) > 0 {
		cfg.Processors = names
	}

	for _, name := range cfg.Processors {
		for _, option := range processorOptions {
			v, ok := s.configStore.Get("pipeline." + name + "." + option)
			if !ok {
				continue
			}
			opts := cfg.ProcessorConfigs[name]
			if opts == nil {
				opts = make(map[string]any)
				cfg.ProcessorConfigs[name] = opts
			}
			opts[option] = v
		}
	}
	return cfg
}

// configReader reads typed values, returning def for missing, zero or
// invalid ones.
type configReader struct {
	store driven.ConfigStore
}

func (c configReader) str(key, def string) string {
	if v := c.store.GetString(key); v != "" {
		return v
	}
	return def
}

func (c configReader) integer(key string, def int) int {
	if v := c.store.GetInt(key); v != 0 {
		return v
	}
	return def
}

func (c configReader) provider(key string, def domain.AIProvider) domain.AIProvider {
	if p := domain.AIProvider(c.store.GetString(key)); p.IsValid() {
		return p
	}
	return def
}

func (c configReader) backend(key string, def domain.StoreBackend) domain.StoreBackend {
	if b := domain.StoreBackend(c.store.GetString(key)); b.IsValid() {
		return b
	}
	return def
}

// duration accepts "90s" style strings or a number of seconds.
func (c configReader) duration(key string, def time.Duration) time.Duration {
	raw := c.store.GetString(key)
	if raw == "" {
		if secs := c.store.GetInt(key); secs > 0 {
			return time.Duration(secs) * time.Second
		}
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return def
}

func (c configReader) float(key string, def float64) float64 {
	v, ok := c.store.Get(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return def
}

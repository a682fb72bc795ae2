package domain

import "time"

// EmbeddingSettings selects the embedding provider. A zero value means no
// embeddings: stores rank passages by keyword overlap.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string // Ollama only
	APIKey   string
}

// IsConfigured reports whether Provider is known and has the key it needs.
// Whether it can embed at all is checked when the service is built.
func (e EmbeddingSettings) IsConfigured() bool {
	return usable(e.Provider, e.APIKey)
}

// LLMSettings selects the provider that writes answers.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string // Ollama only
	APIKey   string
}

func (l LLMSettings) IsConfigured() bool {
	return usable(l.Provider, l.APIKey)
}

func usable(p AIProvider, apiKey string) bool {
	return p.IsValid() && (!p.RequiresAPIKey() || apiKey != "")
}

// StoreBackend selects where chunks live.
type StoreBackend string

const (
	StoreBackendSQLite StoreBackend = "sqlite"
	StoreBackendQdrant StoreBackend = "qdrant" // one Qdrant collection per handle
	StoreBackendMemory StoreBackend = "memory"
)

func (b StoreBackend) IsValid() bool {
	return b == StoreBackendSQLite || b == StoreBackendQdrant || b == StoreBackendMemory
}

func (b StoreBackend) String() string { return string(b) }

// StoreSettings configures the document store.
type StoreSettings struct {
	Backend      StoreBackend
	DataDir      string // SQLite directory; empty means ~/.ragbox/data
	QdrantURL    string
	QdrantAPIKey string
	Timeout      time.Duration // per store call
}

// ServerSettings is the HTTP API listen address.
type ServerSettings struct {
	Host string
	Port int
}

// QuerySettings tunes retrieval and answer generation. A zero
// RequestsPerSecond disables generator rate limiting.
type QuerySettings struct {
	TopK              int
	GenerationTimeout time.Duration
	RequestsPerSecond float64
	Burst             int
}

// AppSettings is the full persisted configuration.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Store     StoreSettings
	Server    ServerSettings
	Query     QuerySettings
}

// DefaultAppSettings answers with a local Ollama model, keeps chunks in
// SQLite and ranks by keywords until embeddings are configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    AIProviderOllama.DefaultLLMModel(),
		},
		Store:  StoreSettings{Backend: StoreBackendSQLite, Timeout: 30 * time.Second},
		Server: ServerSettings{Host: "0.0.0.0", Port: 8000},
		Query: QuerySettings{
			TopK:              DefaultTopK,
			GenerationTimeout: 2 * time.Minute,
			RequestsPerSecond: 2,
			Burst:             4,
		},
	}
}

// PipelineConfig is the ordered list of post-processors run on every
// normalised file, with per-processor options.
type PipelineConfig struct {
	Processors       []string
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns the options for name, or nil.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	return c.ProcessorConfigs[name]
}

// DefaultPipelineConfig chunks at 1000 runes with 200 of overlap.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {"chunk_size": 1000, "overlap": 200},
		},
	}
}

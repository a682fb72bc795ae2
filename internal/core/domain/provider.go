package domain

import "slices"

// AIProvider names a model vendor used for embeddings, answers or both.
type AIProvider string

// Known providers.
const (
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
)

type providerEntry struct {
	id          AIProvider
	description string
	local       bool
	embedModel  string // empty when the vendor has no embeddings API
	llmModel    string
}

// catalogue is in the order providers are offered to the user.
var catalogue = []providerEntry{
	{id: AIProviderOllama, description: "Ollama (local)", local: true, embedModel: "nomic-embed-text", llmModel: "llama3.2"},
	{id: AIProviderOpenAI, description: "OpenAI (cloud)", embedModel: "text-embedding-3-small", llmModel: "gpt-4o-mini"},
	{id: AIProviderAnthropic, description: "Anthropic (cloud)", llmModel: "claude-3-5-sonnet-latest"},
}

func (p AIProvider) entry() (providerEntry, bool) {
	i := slices.IndexFunc(catalogue, func(s providerEntry) bool { return s.id == p })
	if i < 0 {
		return providerEntry{}, false
	}
	return catalogue[i], true
}

func (p AIProvider) String() string { return string(p) }

// IsValid reports whether p is in the catalogue.
func (p AIProvider) IsValid() bool {
	_, ok := p.entry()
	return ok
}

// IsLocal reports whether p runs on this machine.
func (p AIProvider) IsLocal() bool {
	s, _ := p.entry()
	return s.local
}

// RequiresAPIKey is true for every known cloud provider.
func (p AIProvider) RequiresAPIKey() bool {
	s, ok := p.entry()
	return ok && !s.local
}

// SupportsEmbeddings reports whether p can embed text.
func (p AIProvider) SupportsEmbeddings() bool {
	return p.DefaultEmbeddingModel() != ""
}

func (p AIProvider) DefaultEmbeddingModel() string {
	s, _ := p.entry()
	return s.embedModel
}

func (p AIProvider) DefaultLLMModel() string {
	s, _ := p.entry()
	return s.llmModel
}

// Description is the label shown in the settings wizard.
func (p AIProvider) Description() string {
	if s, ok := p.entry(); ok {
		return s.description
	}
	return "Unknown"
}

// AllEmbeddingProviders lists the providers that can embed, in offer order.
func AllEmbeddingProviders() []AIProvider {
	var out []AIProvider
	for _, s := range catalogue {
		if s.embedModel != "" {
			out = append(out, s.id)
		}
	}
	return out
}

// AllLLMProviders lists every provider in offer order.
func AllLLMProviders() []AIProvider {
	out := make([]AIProvider, len(catalogue))
	for i, s := range catalogue {
		out[i] = s.id
	}
	return out
}

func DefaultEmbeddingModels() map[AIProvider]string {
	out := make(map[AIProvider]string)
	for _, p := range AllEmbeddingProviders() {
		out[p] = p.DefaultEmbeddingModel()
	}
	return out
}

func DefaultLLMModels() map[AIProvider]string {
	out := make(map[AIProvider]string, len(catalogue))
	for _, s := range catalogue {
		out[s.id] = s.llmModel
	}
	return out
}

// EmbeddingDimensions is the vector size of the embedding models we know.
// The returned map is a fresh copy.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

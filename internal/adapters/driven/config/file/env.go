package file

import (
	"errors"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/ragbox/internal/logger"
)

// qdrantPort is the REST port used when only QDRANT_HOSTNAME is given.
const qdrantPort = "6333"

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env")
// into the process environment. Missing files are skipped and variables
// that are already set keep their value.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		logger.Debug("loaded environment from %s", path)
	}
	return nil
}

// EnvOverrides maps environment variables onto config keys.
// getenv is usually os.Getenv. Unset variables produce no entry.
func EnvOverrides(getenv func(string) string) map[string]any {
	out := make(map[string]any)
	set := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}

	set("store.data_dir", firstNonEmpty(getenv("RAGBOX_DATA_DIR"), getenv("COLLECTIONS_DIR")))
	set("store.backend", getenv("RAGBOX_STORE"))

	set("qdrant.url", getenv("QDRANT_URL"))
	if _, ok := out["qdrant.url"]; !ok {
		if host := getenv("QDRANT_HOSTNAME"); host != "" {
			out["qdrant.url"] = "http://" + host + ":" + qdrantPort
		}
	}
	set("qdrant.api_key", getenv("QDRANT_API_KEY"))

	set("server.host", getenv("RAGBOX_HOST"))
	if port, err := strconv.Atoi(getenv("RAGBOX_PORT")); err == nil && port > 0 {
		out["server.port"] = port
	}

	llmProvider := strings.ToLower(getenv("RAGBOX_LLM_PROVIDER"))
	if useOpenAI, _ := strconv.ParseBool(getenv("USE_OPENAI")); useOpenAI {
		llmProvider = "openai"
	}
	set("llm.provider", llmProvider)
	set("llm.model", getenv("LLM_MODEL_NAME"))
	if _, ok := out["llm.model"]; !ok && llmProvider == "openai" {
		out["llm.model"] = "gpt-4o"
	}
	set("llm.api_key", apiKeyFor(llmProvider, getenv))

	embedProvider := strings.ToLower(getenv("RAGBOX_EMBEDDING_PROVIDER"))
	set("embedding.provider", embedProvider)
	set("embedding.model", getenv("EMBEDDING_MODEL"))
	set("embedding.api_key", apiKeyFor(embedProvider, getenv))

	if base := getenv("OLLAMA_BASE_URL"); base != "" {
		if llmProvider == "" || llmProvider == "ollama" {
			out["llm.base_url"] = base
		}
		if embedProvider == "" || embedProvider == "ollama" {
			out["embedding.base_url"] = base
		}
	}

	return out
}

func apiKeyFor(provider string, getenv func(string) string) string {
	switch provider {
	case "openai":
		return getenv("OPENAI_API_KEY")
	case "anthropic":
		return getenv("ANTHROPIC_API_KEY")
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

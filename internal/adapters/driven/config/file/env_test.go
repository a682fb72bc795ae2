package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestEnvOverrides_Empty(t *testing.T) {
	assert.Empty(t, EnvOverrides(envFrom(nil)))
}

func TestEnvOverrides_LegacyNames(t *testing.T) {
	got := EnvOverrides(envFrom(map[string]string{
		"COLLECTIONS_DIR": "/srv/collections",
		"QDRANT_HOSTNAME": "qdrant",
		"OLLAMA_BASE_URL": "http://ollama:11434",
		"LLM_MODEL_NAME":  "mistral",
		"EMBEDDING_MODEL": "nomic-embed-text",
	}))

	assert.Equal(t, map[string]any{
		"store.data_dir":     "/srv/collections",
		"qdrant.url":         "http://qdrant:6333",
		"llm.model":          "mistral",
		"llm.base_url":       "http://ollama:11434",
		"embedding.model":    "nomic-embed-text",
		"embedding.base_url": "http://ollama:11434",
	}, got)
}

func TestEnvOverrides_PreferredNamesWin(t *testing.T) {
	got := EnvOverrides(envFrom(map[string]string{
		"RAGBOX_DATA_DIR": "/data",
		"COLLECTIONS_DIR": "/legacy",
		"QDRANT_URL":      "https://cloud.qdrant.io",
		"QDRANT_HOSTNAME": "qdrant",
		"RAGBOX_PORT":     "9000",
		"RAGBOX_STORE":    "qdrant",
	}))

	assert.Equal(t, "/data", got["store.data_dir"])
	assert.Equal(t, "https://cloud.qdrant.io", got["qdrant.url"])
	assert.Equal(t, 9000, got["server.port"])
	assert.Equal(t, "qdrant", got["store.backend"])
}

func TestEnvOverrides_UseOpenAI(t *testing.T) {
	got := EnvOverrides(envFrom(map[string]string{
		"USE_OPENAI":      "True",
		"OPENAI_API_KEY":  "sk-test",
		"OLLAMA_BASE_URL": "http://ollama:11434",
	}))

	assert.Equal(t, "openai", got["llm.provider"])
	assert.Equal(t, "gpt-4o", got["llm.model"])
	assert.Equal(t, "sk-test", got["llm.api_key"])
	assert.NotContains(t, got, "llm.base_url")
	assert.Equal(t, "http://ollama:11434", got["embedding.base_url"])
}

func TestEnvOverrides_InvalidPortIgnored(t *testing.T) {
	got := EnvOverrides(envFrom(map[string]string{"RAGBOX_PORT": "http"}))
	assert.NotContains(t, got, "server.port")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("RAGBOX_TEST_DOTENV=from-file\n"), 0600))

	t.Setenv("RAGBOX_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("RAGBOX_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("RAGBOX_TEST_DOTENV"))
}

func TestLoadDotEnv_KeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("RAGBOX_TEST_DOTENV=from-file\n"), 0600))

	t.Setenv("RAGBOX_TEST_DOTENV", "from-shell")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-shell", os.Getenv("RAGBOX_TEST_DOTENV"))
}

package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbox/internal/adapters/driven/apiclient"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
)

func serve(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewLLMService(LLMConfig{BaseURL: srv.URL, Model: "llama-test"})
}

func TestNewLLMService_Defaults(t *testing.T) {
	svc := NewLLMService(LLMConfig{})
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.Equal(t, DefaultBaseURL, svc.api.BaseURL())
	assert.NoError(t, svc.Close())
}

func TestLLMService_Chat(t *testing.T) {
	var got chatRequest
	svc := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"Etna."},"done":true}`))
	})

	answer, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "context"},
		{Role: "user", Content: "Which volcano?"},
	}, driven.ChatOptions{})
	require.NoError(t, err)

	assert.Equal(t, "Etna.", answer)
	assert.Equal(t, "llama-test", got.Model)
	assert.False(t, got.Stream)
	assert.Nil(t, got.Options)
	assert.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestLLMService_GenerateOptions(t *testing.T) {
	var got generateRequest
	svc := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"done","done":true}`))
	})

	out, err := svc.Generate(context.Background(), "go", driven.GenerateOptions{MaxTokens: 7, StopWords: []string{"END"}})
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, "go", got.Prompt)
	require.NotNil(t, got.Options)
	assert.Equal(t, 7, got.Options.NumPredict)
	assert.Equal(t, []string{"END"}, got.Options.Stop)
}

func TestLLMService_ModelMissing(t *testing.T) {
	svc := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"llama-test\" not found, try pulling it first"}`))
	})

	_, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})
	assert.True(t, apiclient.IsStatus(err, http.StatusNotFound))
	assert.Contains(t, err.Error(), "try pulling it first")
}

func TestLLMService_Ping(t *testing.T) {
	svc := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	})
	assert.NoError(t, svc.Ping(context.Background()))

	unreachable := NewLLMService(LLMConfig{BaseURL: "http://127.0.0.1:1"})
	assert.Error(t, unreachable.Ping(context.Background()))
}

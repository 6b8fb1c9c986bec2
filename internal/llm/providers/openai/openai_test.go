package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/yt2blog/internal/llm"
)

func TestCompleteTextSendsSingleUserMessage(t *testing.T) {
	var got struct {
		Model    string              `json:"model"`
		Messages []map[string]string `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"model":"gpt-4","choices":[{"message":{"content":"# Title\nbody"},"finish_reason":"stop"},{"message":{"content":"second"}}],"usage":{"total_tokens":42}}`))
	}))
	defer server.Close()

	provider, err := llm.GetProvider("openai", map[string]string{"api_key": "sk-test", "base_url": server.URL + "/"})
	require.NoError(t, err)

	resp, err := provider.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "write"})
	require.NoError(t, err)

	assert.Equal(t, "# Title\nbody", resp.Text)
	assert.Equal(t, 42, resp.TokensUsed)
	assert.Equal(t, "gpt-4", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0]["role"])
	assert.Equal(t, "write", got.Messages[0]["content"])
}

func TestCompleteTextErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer bad" {
			http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	provider, err := llm.GetProvider("groq", map[string]string{"api_key": "bad", "base_url": server.URL})
	require.NoError(t, err)
	_, err = provider.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "x"})
	assert.ErrorContains(t, err, "401")

	provider, err = llm.GetProvider("groq", map[string]string{"api_key": "good", "base_url": server.URL})
	require.NoError(t, err)
	_, err = provider.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "x"})
	assert.ErrorContains(t, err, "no choices")
}

func TestInitializeRequiresKey(t *testing.T) {
	_, err := llm.GetProvider("openai", map[string]string{})
	assert.Error(t, err)
}

func TestCompatibleProvidersRegistered(t *testing.T) {
	names := llm.ListProviders()
	for _, key := range []string{"openai", "groq", "openrouter", "grok", "qwen", "glm", "githubmodels"} {
		assert.Contains(t, names, key)
	}

	provider, err := llm.GetProvider("openrouter", map[string]string{"api_key": "k"})
	require.NoError(t, err)
	assert.Equal(t, "OpenRouter", provider.GetName())
	assert.NotEmpty(t, provider.GetSupportedModels())
}

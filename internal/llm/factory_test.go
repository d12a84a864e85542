package llm

import (
	"context"
	"testing"

	"github.com/recrsn/mcpchat/internal/config"
	"github.com/recrsn/mcpchat/internal/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Kinds(t *testing.T) {
	tests := []struct {
		cfg      config.ProviderConfig
		name     string
		provider string
		auth     string
		model    string
	}{
		{cfg: config.ProviderConfig{Kind: "openai", APIKey: "sk"}, name: "openai", provider: "OpenAI", auth: "API Key", model: "gpt-4o"},
		{cfg: config.ProviderConfig{Kind: "azure", Endpoint: "https://x.openai.azure.com", Deployment: "gpt-4o-mini", APIKey: "k"},
			name: "azure", provider: "Azure OpenAI", auth: "API Key", model: "gpt-4o-mini"},
		{cfg: config.ProviderConfig{Kind: "azure", Endpoint: "https://x.openai.azure.com", Deployment: "gpt-4o-mini"},
			name: "azure", provider: "Azure OpenAI", auth: "DefaultAzureCredential", model: "gpt-4o-mini"},
		{cfg: config.ProviderConfig{Kind: "azure", Endpoint: "https://x.openai.azure.com", APIKey: "k"},
			name: "azure", provider: "Azure OpenAI", auth: "API Key", model: config.DefaultAzureDeployment},
		{cfg: config.ProviderConfig{Kind: "ollama"}, name: "ollama", provider: "Ollama", model: "llama3.2:3b"},
		{cfg: config.ProviderConfig{Kind: "anthropic", APIKey: "sk-ant"}, name: "anthropic", provider: "Anthropic", auth: "API Key", model: defaultAnthropicModel},
	}
	for _, tc := range tests {
		t.Run(tc.provider+" "+tc.auth, func(t *testing.T) {
			backend, conn, err := New(tc.cfg, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.name, backend.Name())
			assert.Equal(t, tc.provider, conn.Provider)
			assert.Equal(t, tc.auth, conn.Auth)
			assert.Equal(t, tc.model, conn.Model)
			assert.Equal(t, tc.name != "ollama", conn.Streaming)
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, _, err := New(config.ProviderConfig{Kind: "palm"}, nil)
	assert.ErrorContains(t, err, `unknown provider kind "palm"`)

	_, _, err = New(config.ProviderConfig{Kind: "azure"}, nil)
	assert.ErrorContains(t, err, "endpoint is required")
}

func TestNew_AzureDeploymentURL(t *testing.T) {
	srv, reqs := sseServer(t, `{"choices":[{"index":0,"delta":{"content":"hi"},"finish_reason":"stop"}]}`, `[DONE]`)

	backend, _, err := New(config.ProviderConfig{
		Kind:       "azure",
		Endpoint:   srv.URL + "/",
		Deployment: "gpt-4o",
		APIVersion: "2024-10-21",
		APIKey:     "azure-key",
	}, nil)
	require.NoError(t, err)

	stream, err := backend.Stream(context.Background(), Request{Messages: []conversation.Message{conversation.UserMessage("hi")}})
	require.NoError(t, err)
	frags, err := collect(stream)
	require.NoError(t, err)
	require.Len(t, frags, 1)

	req := <-reqs
	assert.Equal(t, "/openai/deployments/gpt-4o/chat/completions?api-version=2024-10-21", req.url)
	assert.Equal(t, "azure-key", req.header.Get("api-key"))
	assert.Empty(t, req.header.Get("Authorization"))
	assert.Empty(t, req.body.Model)
}

func TestChatCompletionsURL(t *testing.T) {
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", chatCompletionsURL("https://api.openai.com/v1"))
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", chatCompletionsURL("https://api.openai.com/v1/chat/completions"))
}

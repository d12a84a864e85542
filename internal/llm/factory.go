package llm

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/recrsn/mcpchat/internal/config"
)

const (
	defaultOpenAIModel    = "gpt-4o"
	defaultAnthropicModel = "claude-sonnet-4-20250514"
)

// New builds the backend selected by cfg.Kind
func New(cfg config.ProviderConfig, logger APILogger) (Backend, Connection, error) {
	switch cfg.Kind {
	case config.ProviderOpenAI, "":
		endpoint := strings.TrimRight(orDefault(cfg.Endpoint, config.DefaultOpenAIEndpoint), "/")
		model := orDefault(cfg.Model, defaultOpenAIModel)
		client := NewClient(chatCompletionsURL(endpoint), BearerKey(cfg.APIKey), logger)
		return NewOpenAIBackend("openai", client, model, cfg.Temperature, cfg.MaxTokens),
			Connection{Provider: "OpenAI", Auth: "API Key", Model: model, Streaming: true}, nil

	case config.ProviderAzure:
		if cfg.Endpoint == "" {
			return nil, Connection{}, fmt.Errorf("Azure OpenAI endpoint is required")
		}
		deployment := orDefault(cfg.Deployment, orDefault(cfg.Model, config.DefaultAzureDeployment))
		var auth Authenticator = NewAzureCredential()
		if cfg.APIKey != "" {
			auth = AzureKey(cfg.APIKey)
		}
		client := NewClient(azureURL(cfg.Endpoint, deployment, cfg.APIVersion), auth, logger)
		return NewOpenAIBackend("azure", client, "", cfg.Temperature, cfg.MaxTokens),
			Connection{Provider: "Azure OpenAI", Auth: auth.Method(), Model: deployment, Streaming: true}, nil

	case config.ProviderOllama:
		backend, err := NewOllamaBackend(cfg.Endpoint, cfg.Model, cfg.Temperature, cfg.MaxTokens, logger)
		if err != nil {
			return nil, Connection{}, err
		}
		return backend, Connection{Provider: "Ollama", Model: orDefault(cfg.Model, defaultOllamaModel)}, nil

	case config.ProviderAnthropic:
		model := orDefault(cfg.Model, defaultAnthropicModel)
		var opts []option.RequestOption
		if cfg.Endpoint != "" {
			opts = append(opts, option.WithBaseURL(cfg.Endpoint))
		}
		return NewAnthropicBackend(cfg.APIKey, model, cfg.MaxTokens, cfg.Temperature, logger, opts...),
			Connection{Provider: "Anthropic", Auth: "API Key", Model: model, Streaming: true}, nil
	}
	return nil, Connection{}, fmt.Errorf("unknown provider kind %q", cfg.Kind)
}

// chatCompletionsURL accepts either a base url or the full endpoint
func chatCompletionsURL(endpoint string) string {
	if strings.HasSuffix(endpoint, "/chat/completions") {
		return endpoint
	}
	return endpoint + "/chat/completions"
}

func azureURL(endpoint, deployment, apiVersion string) string {
	q := url.Values{}
	if apiVersion != "" {
		q.Set("api-version", apiVersion)
	}
	u := fmt.Sprintf("%s/openai/deployments/%s/chat/completions",
		strings.TrimRight(endpoint, "/"), url.PathEscape(deployment))
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearProviderEnv keeps the developer's environment out of the tests
func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY",
		"AZURE_OPENAI_API_KEY", "AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_DEPLOYMENT",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".mcpchat.yaml"), []byte(content), 0o644))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.Provider.Kind)
	assert.Equal(t, "sk-test", cfg.Provider.APIKey)
	assert.Equal(t, "students-server", cfg.ToolHost.Command)
	assert.Equal(t, 10, cfg.Session.MaxToolRounds)
	assert.Equal(t, DefaultSystemPrompt, cfg.Session.SystemPrompt)
	assert.True(t, cfg.UI.ShowSpinner)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Permissions.AutoApprove["*"])
}

func TestLoad_File(t *testing.T) {
	clearProviderEnv(t)
	dir := writeConfig(t, `
provider:
  kind: azure
  endpoint: https://example.openai.azure.com
  deployment: gpt-4o
  api_key: secret
toolhost:
  command: "stdio://dotnet run --project ../StudentsMcpServer"
session:
  max_tool_rounds: 3
`)

	cfg, err := Load(viper.New(), dir)
	require.NoError(t, err)

	assert.Equal(t, ProviderAzure, cfg.Provider.Kind)
	assert.Equal(t, "https://example.openai.azure.com", cfg.Provider.Endpoint)
	assert.Equal(t, "gpt-4o", cfg.Provider.Deployment)
	assert.Equal(t, "secret", cfg.Provider.APIKey)
	assert.Equal(t, "2024-10-21", cfg.Provider.APIVersion)
	assert.Equal(t, "stdio://dotnet run --project ../StudentsMcpServer", cfg.ToolHost.Command)
	assert.Equal(t, 3, cfg.Session.MaxToolRounds)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearProviderEnv(t)
	dir := writeConfig(t, "provider:\n  model: gpt-4o\n  api_key: sk-file\n")
	t.Setenv("MCPCHAT_PROVIDER_MODEL", "gpt-4o-mini")
	t.Setenv("MCPCHAT_SESSION_MAX_TOOL_ROUNDS", "4")

	cfg, err := Load(viper.New(), dir)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.Provider.Model)
	assert.Equal(t, 4, cfg.Session.MaxToolRounds)
}

func TestLoad_ProviderEnvFallback(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("MCPCHAT_PROVIDER_KIND", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := Load(viper.New(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "sk-ant", cfg.Provider.APIKey)
}

func TestLoad_OpenAIRequiresKey(t *testing.T) {
	clearProviderEnv(t)

	_, err := Load(viper.New(), t.TempDir())
	assert.EqualError(t, err, "OpenAI API key is required")
}

func TestLoad_AzureDefaultDeployment(t *testing.T) {
	clearProviderEnv(t)
	dir := writeConfig(t, `
provider:
  kind: azure
  endpoint: https://example.openai.azure.com
`)

	cfg, err := Load(viper.New(), dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultAzureDeployment, cfg.Provider.Deployment)
	assert.Empty(t, cfg.Provider.APIKey)
}

func TestLoad_InvalidFile(t *testing.T) {
	clearProviderEnv(t)
	dir := writeConfig(t, "provider: [unterminated\n")

	_, err := Load(viper.New(), dir)
	assert.ErrorContains(t, err, "reading config")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults with key", mutate: func(c *Config) { c.Provider.APIKey = "sk-test" }},
		{name: "openai without key", mutate: func(*Config) {}, wantErr: "OpenAI API key is required"},
		{name: "openai default endpoint without key", mutate: func(c *Config) {
			c.Provider.Endpoint = DefaultOpenAIEndpoint + "/"
		}, wantErr: "OpenAI API key is required"},
		{name: "openai-compatible server without key", mutate: func(c *Config) {
			c.Provider.Endpoint = "http://localhost:8000/v1"
		}},
		{name: "unknown kind", mutate: func(c *Config) { c.Provider.Kind = "palm" }, wantErr: `unknown provider kind "palm"`},
		{name: "azure without endpoint", mutate: func(c *Config) {
			c.Provider.Kind = ProviderAzure
			c.Provider.Deployment = "gpt-4o"
		}, wantErr: "Azure OpenAI endpoint is required"},
		{name: "no tool host", mutate: func(c *Config) {
			c.Provider.APIKey = "sk-test"
			c.ToolHost.Command = " "
		}, wantErr: "toolhost.command is required"},
		{name: "zero rounds", mutate: func(c *Config) {
			c.Provider.APIKey = "sk-test"
			c.Session.MaxToolRounds = 0
		}, wantErr: "max_tool_rounds"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

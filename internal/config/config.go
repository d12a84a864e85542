package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Provider kinds
const (
	ProviderOpenAI    = "openai"
	ProviderAzure     = "azure"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
)

const (
	configName = ".mcpchat"
	envPrefix  = "MCPCHAT"

	// DefaultOpenAIEndpoint is used when an openai provider sets no endpoint
	DefaultOpenAIEndpoint = "https://api.openai.com/v1"
	// DefaultAzureDeployment is used when an azure provider names neither a
	// deployment nor a model
	DefaultAzureDeployment = "gpt-4o"
)

// Config holds the application configuration
type Config struct {
	Provider    ProviderConfig   `mapstructure:"provider"`
	ToolHost    ToolHostConfig   `mapstructure:"toolhost"`
	Session     SessionConfig    `mapstructure:"session"`
	UI          UIConfig         `mapstructure:"ui"`
	Log         LogConfig        `mapstructure:"log"`
	Permissions PermissionConfig `mapstructure:"permissions"`
}

// ProviderConfig holds provider-specific configuration
type ProviderConfig struct {
	Kind        string  `mapstructure:"kind"`
	Endpoint    string  `mapstructure:"endpoint"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Deployment  string  `mapstructure:"deployment"`
	APIVersion  string  `mapstructure:"api_version"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// ToolHostConfig describes how to reach the MCP server providing tools.
// Command is either a bare command line (run over stdio) or a url such as
// stdio://cmd args, sse://host/path or http+stream://host/path.
type ToolHostConfig struct {
	Name    string `mapstructure:"name"`
	Command string `mapstructure:"command"`
	Dir     string `mapstructure:"dir"`
}

// SessionConfig holds chat session settings
type SessionConfig struct {
	MaxToolRounds int    `mapstructure:"max_tool_rounds"`
	SystemPrompt  string `mapstructure:"system_prompt"`
}

// UIConfig holds UI-specific configuration
type UIConfig struct {
	ColorEnabled   bool   `mapstructure:"color_enabled"`
	ShowSpinner    bool   `mapstructure:"show_spinner"`
	RenderMarkdown bool   `mapstructure:"render_markdown"`
	HistoryFile    string `mapstructure:"history_file"`
}

// LogConfig holds diagnostics settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	File   string `mapstructure:"file"`
	APILog bool   `mapstructure:"api_log"`
}

// LoadConfig loads the configuration from .env, the config file and the
// environment, in increasing order of precedence
func LoadConfig() (Config, error) {
	// a missing .env file is not an error
	_ = godotenv.Load()

	searchPaths := []string{"."}
	if homeDir, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, homeDir)
	}
	return Load(viper.New(), searchPaths...)
}

// Load reads configuration into v from the first config file found in
// searchPaths and the environment
func Load(v *viper.Viper, searchPaths ...string) (Config, error) {
	setDefaults(v)

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config (will use first found file)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found - continue with defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("unmarshaling config: %w", err)
	}
	applyProviderEnv(&config.Provider)

	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// applyProviderEnv falls back to the provider's conventional environment
// variables when no key or endpoint was configured
func applyProviderEnv(p *ProviderConfig) {
	var keyVar, endpointVar string
	switch p.Kind {
	case ProviderOpenAI:
		keyVar = "OPENAI_API_KEY"
	case ProviderAzure:
		keyVar, endpointVar = "AZURE_OPENAI_API_KEY", "AZURE_OPENAI_ENDPOINT"
		if p.Deployment == "" {
			p.Deployment = os.Getenv("AZURE_OPENAI_DEPLOYMENT")
		}
		if p.Deployment == "" && p.Model == "" {
			p.Deployment = DefaultAzureDeployment
		}
	case ProviderAnthropic:
		keyVar = "ANTHROPIC_API_KEY"
	}
	if p.APIKey == "" && keyVar != "" {
		p.APIKey = os.Getenv(keyVar)
	}
	if p.Endpoint == "" && endpointVar != "" {
		p.Endpoint = os.Getenv(endpointVar)
	}
}

// Validate checks the configuration for settings that cannot work
func (c Config) Validate() error {
	switch c.Provider.Kind {
	case ProviderOpenAI:
		// OpenAI-compatible servers elsewhere may not need a key
		endpoint := strings.TrimRight(c.Provider.Endpoint, "/")
		if c.Provider.APIKey == "" && (endpoint == "" || endpoint == DefaultOpenAIEndpoint) {
			return errors.New("OpenAI API key is required")
		}
	case ProviderOllama, ProviderAnthropic:
	case ProviderAzure:
		if c.Provider.Endpoint == "" {
			return errors.New("Azure OpenAI endpoint is required")
		}
	default:
		return fmt.Errorf("unknown provider kind %q", c.Provider.Kind)
	}
	if strings.TrimSpace(c.ToolHost.Command) == "" {
		return errors.New("toolhost.command is required")
	}
	if c.Session.MaxToolRounds < 1 {
		return fmt.Errorf("session.max_tool_rounds must be at least 1, got %d", c.Session.MaxToolRounds)
	}
	return nil
}

// GetDataDir returns the data directory for the application
func GetDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}

	dataDir := filepath.Join(homeDir, ".mcpchat")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}

	return dataDir, nil
}

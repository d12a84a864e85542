package config

import "github.com/spf13/viper"

// DefaultSystemPrompt is sent to the model unless configured otherwise
const DefaultSystemPrompt = "You are a helpful assistant."

// DefaultConfig returns a default configuration. Endpoint and model are
// left empty so each provider kind can pick its own.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderConfig{
			Kind:        ProviderOpenAI,
			APIVersion:  "2024-10-21",
			MaxTokens:   4096,
			Temperature: 0,
		},
		ToolHost: ToolHostConfig{
			Name:    "students",
			Command: "students-server",
		},
		Session: SessionConfig{
			MaxToolRounds: 10,
			SystemPrompt:  DefaultSystemPrompt,
		},
		UI: UIConfig{
			ColorEnabled:   true,
			ShowSpinner:    true,
			RenderMarkdown: true,
			HistoryFile:    "history",
		},
		Log: LogConfig{
			Level:  "warn",
			APILog: false,
		},
		Permissions: DefaultPermissionConfig(),
	}
}

// setDefaults registers every key so environment overrides reach Unmarshal
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("provider.kind", d.Provider.Kind)
	v.SetDefault("provider.endpoint", d.Provider.Endpoint)
	v.SetDefault("provider.api_key", d.Provider.APIKey)
	v.SetDefault("provider.model", d.Provider.Model)
	v.SetDefault("provider.deployment", d.Provider.Deployment)
	v.SetDefault("provider.api_version", d.Provider.APIVersion)
	v.SetDefault("provider.max_tokens", d.Provider.MaxTokens)
	v.SetDefault("provider.temperature", d.Provider.Temperature)

	v.SetDefault("toolhost.name", d.ToolHost.Name)
	v.SetDefault("toolhost.command", d.ToolHost.Command)
	v.SetDefault("toolhost.dir", d.ToolHost.Dir)

	v.SetDefault("session.max_tool_rounds", d.Session.MaxToolRounds)
	v.SetDefault("session.system_prompt", d.Session.SystemPrompt)

	v.SetDefault("ui.color_enabled", d.UI.ColorEnabled)
	v.SetDefault("ui.show_spinner", d.UI.ShowSpinner)
	v.SetDefault("ui.render_markdown", d.UI.RenderMarkdown)
	v.SetDefault("ui.history_file", d.UI.HistoryFile)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.api_log", d.Log.APILog)

	v.SetDefault("permissions.auto_approve", d.Permissions.AutoApprove)
}

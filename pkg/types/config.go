package types

// Config is the chatcore configuration, merged from config files,
// inline JSON and environment overrides.
type Config struct {
	// Schema reference (for editor support).
	Schema string `json:"$schema,omitempty"`

	// Model selects the default model as "provider/model",
	// e.g. "anthropic/claude-sonnet-4-20250514".
	Model string `json:"model,omitempty"`

	// Provider holds per-provider credentials and overrides.
	Provider map[string]ProviderConfig `json:"provider,omitempty"`

	// IdleTimeoutSeconds is how long a session may sit idle before it
	// becomes eligible for eviction. Defaults to 3600.
	IdleTimeoutSeconds int `json:"idleTimeoutSeconds,omitempty"`

	// ReaperIntervalSeconds is the sweep frequency of the session
	// reaper. Defaults to 300.
	ReaperIntervalSeconds int `json:"reaperIntervalSeconds,omitempty"`

	// MaxSteps bounds the reasoning loop per invocation.
	MaxSteps int `json:"maxSteps,omitempty"`

	// LogLevel is DEBUG|INFO|WARN|ERROR.
	LogLevel string `json:"logLevel,omitempty"`
}

// ProviderConfig holds configuration for a single LLM provider.
type ProviderConfig struct {
	APIKey    string `json:"apiKey,omitempty"`
	BaseURL   string `json:"baseURL,omitempty"`
	Model     string `json:"model,omitempty"`
	MaxTokens int    `json:"maxTokens,omitempty"`
	Disabled  bool   `json:"disabled,omitempty"`
}

// Model describes one model offered by a provider.
type Model struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MaxOutputTokens int    `json:"maxOutputTokens,omitempty"`
	SupportsTools   bool   `json:"supportsTools"`
}

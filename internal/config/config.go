package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/chatcore-ai/chatcore/pkg/types"
)

// Defaults applied after all sources are merged.
const (
	DefaultIdleTimeoutSeconds    = 3600
	DefaultReaperIntervalSeconds = 300
)

// Load loads configuration from multiple sources (priority order):
// 1. Global config (~/.config/chatcore/)
// 2. Project config (chatcore.json / .chatcore/)
// 3. CHATCORE_CONFIG file
// 4. CHATCORE_CONFIG_CONTENT inline JSON
// 5. Environment variables
func Load(directory string) (*types.Config, error) {
	config := &types.Config{
		Provider: make(map[string]types.ProviderConfig),
	}

	// Track loaded files to avoid duplicates
	loaded := make(map[string]bool)

	loadOnce := func(path string, baseDir string) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if loaded[absPath] {
			return
		}
		if loadConfigFile(path, config, baseDir) == nil {
			loaded[absPath] = true
		}
	}

	// 1. Global config
	globalPath := GetPaths().Config
	loadOnce(filepath.Join(globalPath, "chatcore.json"), globalPath)
	loadOnce(filepath.Join(globalPath, "chatcore.jsonc"), globalPath)

	// 2. Project config
	if directory != "" {
		projectConfigDir := filepath.Join(directory, ".chatcore")
		loadOnce(filepath.Join(directory, "chatcore.json"), directory)
		loadOnce(filepath.Join(directory, "chatcore.jsonc"), directory)
		loadOnce(filepath.Join(projectConfigDir, "chatcore.json"), projectConfigDir)
		loadOnce(filepath.Join(projectConfigDir, "chatcore.jsonc"), projectConfigDir)
	}

	// 3. CHATCORE_CONFIG file override
	if configPath := os.Getenv("CHATCORE_CONFIG"); configPath != "" {
		loadOnce(configPath, filepath.Dir(configPath))
	}

	// 4. CHATCORE_CONFIG_CONTENT inline JSON
	if configContent := os.Getenv("CHATCORE_CONFIG_CONTENT"); configContent != "" {
		var inlineConfig types.Config
		if err := json.Unmarshal([]byte(configContent), &inlineConfig); err == nil {
			mergeConfig(config, &inlineConfig)
		}
	}

	// 5. Environment variables (highest priority)
	applyEnvOverrides(config)

	applyDefaults(config)

	return config, nil
}

// loadConfigFile loads a single config file with interpolation support.
func loadConfigFile(path string, config *types.Config, baseDir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err // File doesn't exist, skip
	}

	// Strip JSONC comments using tidwall/jsonc
	data = jsonc.ToJSON(data)

	// Apply interpolation
	data = interpolate(data, baseDir)

	var fileConfig types.Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return err
	}

	mergeConfig(config, &fileConfig)
	return nil
}

// interpolate processes {env:VAR} and {file:path} placeholders.
func interpolate(data []byte, baseDir string) []byte {
	str := string(data)

	// Handle {env:VAR_NAME} placeholders
	envPattern := regexp.MustCompile(`\{env:([^}]+)\}`)
	str = envPattern.ReplaceAllStringFunc(str, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})

	// Handle {file:path} placeholders
	filePattern := regexp.MustCompile(`\{file:([^}]+)\}`)
	str = filePattern.ReplaceAllStringFunc(str, func(match string) string {
		filePath := filePattern.FindStringSubmatch(match)[1]

		if strings.HasPrefix(filePath, "~/") {
			home := os.Getenv("HOME")
			filePath = filepath.Join(home, filePath[2:])
		} else if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(baseDir, filePath)
		}

		content, err := os.ReadFile(filePath)
		if err != nil {
			return match // Keep original if file not found
		}

		// Escape for JSON string
		escaped := strings.ReplaceAll(string(content), "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		escaped = strings.ReplaceAll(escaped, "\n", "\\n")
		escaped = strings.ReplaceAll(escaped, "\r", "\\r")
		escaped = strings.ReplaceAll(escaped, "\t", "\\t")

		return escaped
	})

	return []byte(str)
}

// mergeConfig merges source config into target.
func mergeConfig(target, source *types.Config) {
	if source.Schema != "" {
		target.Schema = source.Schema
	}
	if source.Model != "" {
		target.Model = source.Model
	}
	if source.IdleTimeoutSeconds != 0 {
		target.IdleTimeoutSeconds = source.IdleTimeoutSeconds
	}
	if source.ReaperIntervalSeconds != 0 {
		target.ReaperIntervalSeconds = source.ReaperIntervalSeconds
	}
	if source.MaxSteps != 0 {
		target.MaxSteps = source.MaxSteps
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
	}

	if source.Provider != nil {
		if target.Provider == nil {
			target.Provider = make(map[string]types.ProviderConfig)
		}
		for k, v := range source.Provider {
			target.Provider[k] = v
		}
	}
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(config *types.Config) {
	// Provider API keys
	providerEnvMap := map[string]string{
		"anthropic": "ANTHROPIC_API_KEY",
		"openai":    "OPENAI_API_KEY",
	}

	for provider, envVar := range providerEnvMap {
		if apiKey := os.Getenv(envVar); apiKey != "" {
			if config.Provider == nil {
				config.Provider = make(map[string]types.ProviderConfig)
			}
			p := config.Provider[provider]
			if p.APIKey == "" {
				p.APIKey = apiKey
				config.Provider[provider] = p
			}
		}
	}

	if model := os.Getenv("CHATCORE_MODEL"); model != "" {
		config.Model = model
	}
	if level := os.Getenv("CHATCORE_LOG_LEVEL"); level != "" {
		config.LogLevel = level
	}
}

// applyDefaults fills in lifecycle defaults. Nonpositive values from
// any source fall back to the defaults rather than disabling the
// reaper.
func applyDefaults(config *types.Config) {
	if config.IdleTimeoutSeconds <= 0 {
		config.IdleTimeoutSeconds = DefaultIdleTimeoutSeconds
	}
	if config.ReaperIntervalSeconds <= 0 {
		config.ReaperIntervalSeconds = DefaultReaperIntervalSeconds
	}
}

// Save saves the configuration to a file.
func Save(config *types.Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

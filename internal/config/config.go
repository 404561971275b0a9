// ABOUTME: Configuration loading and parsing for promptgate
// ABOUTME: Supports YAML files with environment variable expansion and validation

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Config represents the complete promptgate configuration
type Config struct {
	Database      DatabaseConfig      `yaml:"database"`
	DefaultPrompt DefaultPromptConfig `yaml:"default_prompt"`
	Admin         AdminConfig         `yaml:"admin"`
	Providers     ProvidersConfig     `yaml:"providers"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// DefaultPromptConfig points at the static default system prompt resource.
// The file is read once at startup; a missing file is a fatal startup error.
type DefaultPromptConfig struct {
	Path string `yaml:"path"`
}

// AdminConfig holds the static admin allow-list.
// IDs listed here are merged with the PROMPTGATE_ADMIN_IDS environment
// variable (comma-separated).
type AdminConfig struct {
	UserIDs []string `yaml:"user_ids"`
}

// ProvidersConfig holds per-provider settings and the startup default
type ProvidersConfig struct {
	Default   string         `yaml:"default"`
	OpenAI    ProviderConfig `yaml:"openai"`
	Anthropic ProviderConfig `yaml:"anthropic"`
	Gemini    ProviderConfig `yaml:"gemini"`
}

// ProviderConfig holds configuration for a single inference backend
type ProviderConfig struct {
	Enabled     bool    `yaml:"enabled"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
	TopP        float32 `yaml:"top_p"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AdminUserIDsEnv is the environment variable holding additional admin ids.
const AdminUserIDsEnv = "PROMPTGATE_ADMIN_IDS"

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment
// variable values. Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in defaults for optional fields
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Providers.Default == "" {
		cfg.Providers.Default = "openai"
	}
}

// Validate checks that all required configuration fields are present and valid.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Database,
		validation.Field(&c.Database.Path, validation.Required),
	); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := validation.ValidateStruct(&c.DefaultPrompt,
		validation.Field(&c.DefaultPrompt.Path, validation.Required),
	); err != nil {
		return fmt.Errorf("default_prompt: %w", err)
	}

	if err := validation.ValidateStruct(&c.Logging,
		validation.Field(&c.Logging.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Logging.Format, validation.In("text", "json")),
	); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	if err := c.Providers.validate(); err != nil {
		return fmt.Errorf("providers: %w", err)
	}

	return nil
}

func (p *ProvidersConfig) validate() error {
	if err := validation.Validate(p.Default,
		validation.Required,
		validation.In("openai", "anthropic", "gemini"),
	); err != nil {
		return fmt.Errorf("default: %w", err)
	}

	enabled := p.Enabled()
	if len(enabled) == 0 {
		return fmt.Errorf("at least one provider must be enabled")
	}

	if _, ok := enabled[p.Default]; !ok {
		return fmt.Errorf("default provider %q is not enabled", p.Default)
	}

	for name, pc := range enabled {
		if err := validation.ValidateStruct(&pc,
			validation.Field(&pc.Model, validation.Required),
			validation.Field(&pc.MaxTokens, validation.Min(0)),
		); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil
}

// Enabled returns the enabled providers keyed by name
func (p *ProvidersConfig) Enabled() map[string]ProviderConfig {
	out := make(map[string]ProviderConfig)
	if p.OpenAI.Enabled {
		out["openai"] = p.OpenAI
	}
	if p.Anthropic.Enabled {
		out["anthropic"] = p.Anthropic
	}
	if p.Gemini.Enabled {
		out["gemini"] = p.Gemini
	}
	return out
}

// AdminIDs returns the merged admin allow-list: config user_ids plus the
// comma-separated PROMPTGATE_ADMIN_IDS environment variable, deduplicated.
func (c *Config) AdminIDs() []string {
	seen := make(map[string]struct{})
	var ids []string

	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, id := range c.Admin.UserIDs {
		add(id)
	}
	for _, id := range strings.Split(os.Getenv(AdminUserIDsEnv), ",") {
		add(id)
	}

	return ids
}

// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, validation, and admin id merging

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return configPath
}

const validConfig = `
database:
  path: "./test.db"

default_prompt:
  path: "./prompts/chat_system.txt"

admin:
  user_ids:
    - "100"
    - "200"

providers:
  default: "openai"
  openai:
    enabled: true
    api_key: "sk-test"
    model: "gpt-4o"
    max_tokens: 1024
    temperature: 0.7
    top_p: 1.0
  anthropic:
    enabled: true
    api_key: "sk-ant-test"
    model: "claude-sonnet-4-20250514"
    max_tokens: 1024

logging:
  level: "debug"
  format: "json"
`

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Path != "./test.db" {
		t.Errorf("database path = %q, want ./test.db", cfg.Database.Path)
	}
	if cfg.DefaultPrompt.Path != "./prompts/chat_system.txt" {
		t.Errorf("default prompt path = %q", cfg.DefaultPrompt.Path)
	}
	if cfg.Providers.Default != "openai" {
		t.Errorf("default provider = %q, want openai", cfg.Providers.Default)
	}
	if !cfg.Providers.OpenAI.Enabled || cfg.Providers.OpenAI.Model != "gpt-4o" {
		t.Errorf("openai provider not parsed: %+v", cfg.Providers.OpenAI)
	}
	if cfg.Providers.Anthropic.MaxTokens != 1024 {
		t.Errorf("anthropic max_tokens = %d, want 1024", cfg.Providers.Anthropic.MaxTokens)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-from-env")

	content := strings.Replace(validConfig, `api_key: "sk-test"`, `api_key: "${TEST_OPENAI_KEY}"`, 1)
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Providers.OpenAI.APIKey != "sk-from-env" {
		t.Errorf("api_key = %q, want sk-from-env", cfg.Providers.OpenAI.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_MissingDatabasePath(t *testing.T) {
	content := strings.Replace(validConfig, `path: "./test.db"`, `path: ""`, 1)
	_, err := Load(writeConfig(t, content))
	if err == nil || !strings.Contains(err.Error(), "database") {
		t.Fatalf("expected database validation error, got: %v", err)
	}
}

func TestLoad_MissingDefaultPromptPath(t *testing.T) {
	content := strings.Replace(validConfig, `path: "./prompts/chat_system.txt"`, `path: ""`, 1)
	_, err := Load(writeConfig(t, content))
	if err == nil || !strings.Contains(err.Error(), "default_prompt") {
		t.Fatalf("expected default_prompt validation error, got: %v", err)
	}
}

func TestLoad_NoProvidersEnabled(t *testing.T) {
	content := strings.ReplaceAll(validConfig, "enabled: true", "enabled: false")
	_, err := Load(writeConfig(t, content))
	if err == nil || !strings.Contains(err.Error(), "provider") {
		t.Fatalf("expected provider validation error, got: %v", err)
	}
}

func TestLoad_DefaultNotEnabled(t *testing.T) {
	content := strings.Replace(validConfig, `default: "openai"`, `default: "gemini"`, 1)
	_, err := Load(writeConfig(t, content))
	if err == nil || !strings.Contains(err.Error(), "not enabled") {
		t.Fatalf("expected default-not-enabled error, got: %v", err)
	}
}

func TestLoad_UnknownDefaultProvider(t *testing.T) {
	content := strings.Replace(validConfig, `default: "openai"`, `default: "foo"`, 1)
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("expected error for unknown default provider")
	}
}

func TestLoad_EnabledProviderWithoutModel(t *testing.T) {
	content := strings.Replace(validConfig, `model: "gpt-4o"`, `model: ""`, 1)
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("expected error for enabled provider without model")
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	content := strings.Replace(validConfig, `
logging:
  level: "debug"
  format: "json"
`, "", 1)
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("logging defaults = %+v, want info/text", cfg.Logging)
	}
}

func TestAdminIDs_MergesEnvAndConfig(t *testing.T) {
	t.Setenv(AdminUserIDsEnv, "200, 300 ,")

	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	ids := cfg.AdminIDs()
	want := []string{"100", "200", "300"}
	if len(ids) != len(want) {
		t.Fatalf("AdminIDs = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("AdminIDs[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestAdminIDs_EmptyEnv(t *testing.T) {
	t.Setenv(AdminUserIDsEnv, "")

	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	ids := cfg.AdminIDs()
	if len(ids) != 2 {
		t.Fatalf("AdminIDs = %v, want 2 entries", ids)
	}
}

// Package config handles configuration loading for promptgate.
//
// # Overview
//
// Configuration is loaded from a YAML file with environment variable
// expansion. The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	providers:
//	  openai:
//	    api_key: "${OPENAI_API_KEY}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Database:
//
//	database:
//	  path: "/var/lib/promptgate/promptgate.db"
//
// Static default prompt (read once at startup, missing file is fatal):
//
//	default_prompt:
//	  path: "prompts/chat_system.txt"
//
// Admin allow-list (merged with PROMPTGATE_ADMIN_IDS):
//
//	admin:
//	  user_ids: ["873412"]
//
// Providers:
//
//	providers:
//	  default: "openai"
//	  openai:
//	    enabled: true
//	    api_key: "${OPENAI_API_KEY}"
//	    model: "gpt-4o"
//	    max_tokens: 1024
//	    temperature: 0.7
//	    top_p: 1.0
//	  anthropic:
//	    enabled: true
//	    api_key: "${ANTHROPIC_API_KEY}"
//	    model: "claude-sonnet-4-20250514"
//	    max_tokens: 1024
//	  gemini:
//	    enabled: false
//	    api_key: "${GEMINI_API_KEY}"
//	    model: "gemini-2.0-flash"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - Database and default prompt paths are present
//   - At least one provider is enabled and the default is among them
//   - Each enabled provider names a model
//   - Logging level/format values
//
// # Usage
//
//	cfg, err := config.Load("/etc/promptgate/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config

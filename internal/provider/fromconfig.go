// ABOUTME: Builds the registry and client set from configuration
// ABOUTME: Registration order is fixed so List output is deterministic

package provider

import (
	"context"
	"fmt"

	"github.com/2389/promptgate/internal/config"
)

// displayNames maps provider ids to the labels shown to users
var displayNames = map[ID]string{
	ProviderOpenAI:    "OpenAI",
	ProviderAnthropic: "Anthropic",
	ProviderGemini:    "Google Gemini",
}

// registrationOrder fixes the order providers appear in List output
var registrationOrder = []ID{ProviderOpenAI, ProviderAnthropic, ProviderGemini}

// RegistryFromConfig builds a registry from the enabled providers in the
// configuration, with the configured default as the initial selection.
func RegistryFromConfig(cfg *config.ProvidersConfig) (*Registry, error) {
	enabled := cfg.Enabled()

	var infos []Info
	for _, id := range registrationOrder {
		pc, ok := enabled[string(id)]
		if !ok {
			continue
		}
		infos = append(infos, Info{
			ID:          id,
			DisplayName: displayNames[id],
			Params: Params{
				Model:       pc.Model,
				MaxTokens:   pc.MaxTokens,
				Temperature: pc.Temperature,
				TopP:        pc.TopP,
			},
		})
	}

	return NewRegistry(infos, ID(cfg.Default))
}

// ClientsFromConfig builds one client per enabled provider.
// A client that fails to construct (for example a missing API key) is a
// startup error, not a per-request one.
func ClientsFromConfig(ctx context.Context, cfg *config.ProvidersConfig) (map[ID]Client, error) {
	clients := make(map[ID]Client)

	if cfg.OpenAI.Enabled {
		c, err := NewOpenAIClient(cfg.OpenAI.APIKey)
		if err != nil {
			return nil, fmt.Errorf("openai: %w", err)
		}
		clients[ProviderOpenAI] = c
	}

	if cfg.Anthropic.Enabled {
		c, err := NewAnthropicClient(cfg.Anthropic.APIKey)
		if err != nil {
			return nil, fmt.Errorf("anthropic: %w", err)
		}
		clients[ProviderAnthropic] = c
	}

	if cfg.Gemini.Enabled {
		c, err := NewGeminiClient(ctx, cfg.Gemini.APIKey)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		clients[ProviderGemini] = c
	}

	return clients, nil
}

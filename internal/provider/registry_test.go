// ABOUTME: Tests for the provider registry
// ABOUTME: Covers listing, atomic switching, unknown candidates, and concurrent access

package provider

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/promptgate/internal/config"
)

func testInfos() []Info {
	return []Info{
		{ID: ProviderOpenAI, DisplayName: "OpenAI", Params: Params{Model: "gpt-4o", MaxTokens: 1024, Temperature: 0.7, TopP: 1.0}},
		{ID: ProviderAnthropic, DisplayName: "Anthropic", Params: Params{Model: "claude-sonnet-4-20250514", MaxTokens: 2048, Temperature: 0.5, TopP: 0.9}},
	}
}

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry(testInfos(), ProviderOpenAI)
	require.NoError(t, err)

	sel := r.Active()
	assert.Equal(t, ProviderOpenAI, sel.Provider)
	assert.Equal(t, "gpt-4o", sel.Params.Model)
}

func TestNewRegistry_UnknownInitial(t *testing.T) {
	_, err := NewRegistry(testInfos(), ProviderGemini)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestNewRegistry_Empty(t *testing.T) {
	_, err := NewRegistry(nil, ProviderOpenAI)
	assert.Error(t, err)
}

func TestRegistry_List_Ordered(t *testing.T) {
	r, err := NewRegistry(testInfos(), ProviderOpenAI)
	require.NoError(t, err)

	infos := r.List()
	require.Len(t, infos, 2)
	assert.Equal(t, ProviderOpenAI, infos[0].ID)
	assert.Equal(t, ProviderAnthropic, infos[1].ID)
}

func TestRegistry_SetActive(t *testing.T) {
	r, err := NewRegistry(testInfos(), ProviderOpenAI)
	require.NoError(t, err)

	require.NoError(t, r.SetActive(ProviderAnthropic))

	sel := r.Active()
	assert.Equal(t, ProviderAnthropic, sel.Provider)
	assert.Equal(t, "Anthropic", sel.DisplayName)
	assert.Equal(t, "claude-sonnet-4-20250514", sel.Params.Model)
	assert.Equal(t, 2048, sel.Params.MaxTokens)
}

func TestRegistry_SetActive_Unknown(t *testing.T) {
	r, err := NewRegistry(testInfos(), ProviderOpenAI)
	require.NoError(t, err)

	err = r.SetActive(ID("foo"))
	assert.ErrorIs(t, err, ErrUnknownProvider)

	// Selection is unchanged after a failed switch
	assert.Equal(t, ProviderOpenAI, r.Active().Provider)
}

func TestRegistry_SelectionNeverTorn(t *testing.T) {
	r, err := NewRegistry(testInfos(), ProviderOpenAI)
	require.NoError(t, err)

	// Readers racing a writer must always observe a matching id/model pair.
	valid := map[ID]string{
		ProviderOpenAI:    "gpt-4o",
		ProviderAnthropic: "claude-sonnet-4-20250514",
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_ = r.SetActive(ProviderAnthropic)
			_ = r.SetActive(ProviderOpenAI)
		}
		close(stop)
	}()

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				sel := r.Active()
				if valid[sel.Provider] != sel.Params.Model {
					t.Errorf("torn read: provider %s paired with model %s", sel.Provider, sel.Params.Model)
					return
				}
			}
		}()
	}

	wg.Wait()
}

func TestRegistryFromConfig(t *testing.T) {
	cfg := &config.ProvidersConfig{
		Default: "anthropic",
		OpenAI: config.ProviderConfig{
			Enabled: true, Model: "gpt-4o", MaxTokens: 1024,
		},
		Anthropic: config.ProviderConfig{
			Enabled: true, Model: "claude-sonnet-4-20250514", MaxTokens: 1024, Temperature: 0.7,
		},
	}

	r, err := RegistryFromConfig(cfg)
	require.NoError(t, err)

	sel := r.Active()
	assert.Equal(t, ProviderAnthropic, sel.Provider)
	assert.Equal(t, "Google Gemini", displayNames[ProviderGemini])

	infos := r.List()
	require.Len(t, infos, 2, "disabled providers are not registered")
}

func TestRegistryFromConfig_DefaultDisabled(t *testing.T) {
	cfg := &config.ProvidersConfig{
		Default: "gemini",
		OpenAI:  config.ProviderConfig{Enabled: true, Model: "gpt-4o"},
	}

	_, err := RegistryFromConfig(cfg)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

// ABOUTME: Thread-safe registry of inference backends and the active selection
// ABOUTME: Provider id and params swap together so readers never see a torn pair

package provider

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrUnknownProvider indicates the named provider is not registered.
var ErrUnknownProvider = errors.New("unknown provider")

// ID identifies an inference backend
type ID string

const (
	ProviderOpenAI    ID = "openai"
	ProviderAnthropic ID = "anthropic"
	ProviderGemini    ID = "gemini"
)

// Params holds provider-specific generation parameters
type Params struct {
	Model       string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// Info describes a registered provider
type Info struct {
	ID          ID
	DisplayName string
	Params      Params
}

// Selection is the active provider and its parameters, read as one value
type Selection struct {
	Provider    ID
	DisplayName string
	Params      Params
}

// Registry maintains the set of registered providers and the active
// selection. All mutation goes through SetActive under one mutex; readers
// copy the full selection under RLock, so a switch is atomic with respect
// to concurrent reads.
type Registry struct {
	mu      sync.RWMutex
	order   []ID
	entries map[ID]Info
	active  ID
	logger  *slog.Logger
}

// NewRegistry creates a registry over the given providers with the initial
// active selection. Returns ErrUnknownProvider if initial is not among the
// registered providers.
func NewRegistry(infos []Info, initial ID) (*Registry, error) {
	if len(infos) == 0 {
		return nil, fmt.Errorf("no providers registered")
	}

	r := &Registry{
		entries: make(map[ID]Info, len(infos)),
		logger:  slog.Default().With("component", "provider"),
	}

	for _, info := range infos {
		if _, exists := r.entries[info.ID]; exists {
			return nil, fmt.Errorf("provider %q registered twice", info.ID)
		}
		r.entries[info.ID] = info
		r.order = append(r.order, info.ID)
	}

	if _, ok := r.entries[initial]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, initial)
	}
	r.active = initial

	r.logger.Info("provider registry initialized", "providers", len(infos), "active", initial)
	return r, nil
}

// List returns the registered providers in registration order
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.order))
	for _, id := range r.order {
		infos = append(infos, r.entries[id])
	}
	return infos
}

// Active returns the current selection as one consistent value
func (r *Registry) Active() Selection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info := r.entries[r.active]
	return Selection{
		Provider:    info.ID,
		DisplayName: info.DisplayName,
		Params:      info.Params,
	}
}

// SetActive switches the active provider.
// Returns ErrUnknownProvider if the candidate is not registered; the
// current selection is left untouched in that case.
func (r *Registry) SetActive(candidate ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[candidate]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, candidate)
	}

	r.active = candidate
	r.logger.Info("active provider changed", "provider", candidate)
	return nil
}

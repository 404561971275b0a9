// ABOUTME: Conversation service assembling inference requests per user
// ABOUTME: Snapshots the provider selection and resolved prompt at request time

package conversation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/promptgate/internal/access"
	"github.com/2389/promptgate/internal/prompt"
	"github.com/2389/promptgate/internal/provider"
	"github.com/2389/promptgate/internal/store"
)

// Service ties the provider registry, prompt resolver, and access gate
// together into the per-message flow: authorize, snapshot configuration,
// dispatch to the active backend.
type Service struct {
	registry *provider.Registry
	resolver *prompt.Resolver
	gate     *access.Gate
	clients  map[provider.ID]provider.Client
	logger   *slog.Logger
}

// NewService creates a conversation service.
// clients must contain an entry for every provider registered in the
// registry; a missing client is a wiring bug, not a runtime condition.
func NewService(registry *provider.Registry, resolver *prompt.Resolver, gate *access.Gate, clients map[provider.ID]provider.Client) *Service {
	return &Service{
		registry: registry,
		resolver: resolver,
		gate:     gate,
		clients:  clients,
		logger:   slog.Default().With("component", "conversation"),
	}
}

// Assemble builds the inference request for one user message.
// The provider selection and the resolved prompt are both snapshotted
// here; a provider switch or force-mode toggle after this point does not
// affect the returned request.
func (s *Service) Assemble(ctx context.Context, userID, input string) (*provider.Request, error) {
	if err := s.gate.Authorize(ctx, userID, store.PermissionStandard); err != nil {
		return nil, err
	}

	sel := s.registry.Active()

	sys, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolving prompt: %w", err)
	}

	return &provider.Request{
		Provider:     sel.Provider,
		SystemPrompt: sys,
		UserInput:    input,
		Params:       sel.Params,
	}, nil
}

// SingleTurn assembles a request and dispatches it to the selected
// backend. Upstream failures propagate as provider.ErrUpstreamUnavailable
// and leave no conversation state behind.
func (s *Service) SingleTurn(ctx context.Context, userID, input string) (*provider.Response, error) {
	req, err := s.Assemble(ctx, userID, input)
	if err != nil {
		return nil, err
	}

	client, ok := s.clients[req.Provider]
	if !ok {
		return nil, fmt.Errorf("no client for provider %s", req.Provider)
	}

	s.logger.Debug("dispatching turn",
		"user_id", userID,
		"provider", req.Provider,
		"model", req.Params.Model)

	resp, err := client.Generate(ctx, *req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

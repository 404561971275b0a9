// ABOUTME: Uniform request/response contract for inference backends
// ABOUTME: One Client variant per provider; adding a provider adds one variant

package provider

import (
	"context"
	"errors"
)

// ErrUpstreamUnavailable indicates the inference backend call failed.
// The raw upstream error never reaches callers; detail goes to logs only.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Request is the backend-agnostic inference request.
// It is assembled once per exchange and not mutated afterwards.
type Request struct {
	Provider     ID
	SystemPrompt string
	UserInput    string
	Params       Params
}

// Response is the backend-agnostic inference response
type Response struct {
	Text string
}

// Client generates a single-turn response from one inference backend
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

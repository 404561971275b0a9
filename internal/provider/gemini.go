// ABOUTME: Google Gemini client variant
// ABOUTME: Implements the Client contract via google.golang.org/genai

package provider

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

// GeminiClient implements Client against the Gemini API
type GeminiClient struct {
	client *genai.Client
	logger *slog.Logger
}

// NewGeminiClient creates a Gemini client with the given API key
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		logger: slog.Default().With("component", "provider", "provider", ProviderGemini),
	}, nil
}

// Generate performs a single-turn content generation
func (c *GeminiClient) Generate(ctx context.Context, req Request) (*Response, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemPrompt, genai.RoleUser),
	}
	if req.Params.Temperature > 0 {
		cfg.Temperature = genai.Ptr(req.Params.Temperature)
	}
	if req.Params.TopP > 0 {
		cfg.TopP = genai.Ptr(req.Params.TopP)
	}
	if req.Params.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.Params.MaxTokens)
	}

	resp, err := c.client.Models.GenerateContent(ctx, req.Params.Model, genai.Text(req.UserInput), cfg)
	if err != nil {
		c.logger.Error("generate content failed", "model", req.Params.Model, "error", err)
		return nil, fmt.Errorf("%w: gemini", ErrUpstreamUnavailable)
	}

	return &Response{Text: resp.Text()}, nil
}

var _ Client = (*GeminiClient)(nil)

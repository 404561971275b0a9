// ABOUTME: Anthropic messages client variant
// ABOUTME: Implements the Client contract via the official anthropic-sdk-go

package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient implements Client against the Anthropic Messages API
type AnthropicClient struct {
	client anthropic.Client
	logger *slog.Logger
}

// NewAnthropicClient creates an Anthropic client with the given API key
func NewAnthropicClient(apiKey string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is empty")
	}

	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		logger: slog.Default().With("component", "provider", "provider", ProviderAnthropic),
	}, nil
}

// Generate performs a single-turn message exchange
func (c *AnthropicClient) Generate(ctx context.Context, req Request) (*Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Params.Model),
		MaxTokens: int64(req.Params.MaxTokens),
		System: []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserInput)),
		},
	}
	if req.Params.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(req.Params.Temperature))
	}
	if req.Params.TopP > 0 {
		params.TopP = anthropic.Float(float64(req.Params.TopP))
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		c.logger.Error("message request failed", "model", req.Params.Model, "error", err)
		return nil, fmt.Errorf("%w: anthropic", ErrUpstreamUnavailable)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return &Response{Text: sb.String()}, nil
}

var _ Client = (*AnthropicClient)(nil)

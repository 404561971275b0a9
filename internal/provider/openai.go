// ABOUTME: OpenAI chat-completion client variant
// ABOUTME: Implements the Client contract via github.com/sashabaranov/go-openai

package provider

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client against the OpenAI chat completions API
type OpenAIClient struct {
	client *openai.Client
	logger *slog.Logger
}

// NewOpenAIClient creates an OpenAI client with the given API key
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is empty")
	}

	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		logger: slog.Default().With("component", "provider", "provider", ProviderOpenAI),
	}, nil
}

// Generate performs a single-turn chat completion
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Params.Model,
		MaxTokens:   req.Params.MaxTokens,
		Temperature: req.Params.Temperature,
		TopP:        req.Params.TopP,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserInput},
		},
	})
	if err != nil {
		c.logger.Error("chat completion failed", "model", req.Params.Model, "error", err)
		return nil, fmt.Errorf("%w: openai", ErrUpstreamUnavailable)
	}

	if len(resp.Choices) == 0 {
		c.logger.Error("chat completion returned no choices", "model", req.Params.Model)
		return nil, fmt.Errorf("%w: openai", ErrUpstreamUnavailable)
	}

	return &Response{Text: resp.Choices[0].Message.Content}, nil
}

var _ Client = (*OpenAIClient)(nil)

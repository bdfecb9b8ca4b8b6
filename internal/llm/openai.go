package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/gratefultolord/astro_bot/internal/prompt"
)

var ErrEmptyCompletion = errors.New("llm: empty completion")

// OpenAIClient talks to the chat completions endpoint.
type OpenAIClient struct {
	api   *openai.Client
	model string
}

// Option configures an OpenAIClient.
type Option func(*openai.ClientConfig)

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(base string) Option {
	return func(cfg *openai.ClientConfig) {
		if base != "" {
			cfg.BaseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithHTTPClient assigns a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *openai.ClientConfig) {
		if client != nil {
			cfg.HTTPClient = client
		}
	}
}

func NewOpenAIClient(apiKey, model string, opts ...Option) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = &http.Client{Timeout: 2 * time.Minute}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &OpenAIClient{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, p prompt.Prompt, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAIClient.Complete: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("OpenAIClient.Complete: %w", ErrEmptyCompletion)
	}

	return resp.Choices[0].Message.Content, nil
}

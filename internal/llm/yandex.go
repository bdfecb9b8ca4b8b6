package llm

import (
	"context"
	"fmt"

	yandexgpt "github.com/sheeiavellie/go-yandexgpt"

	"github.com/gratefultolord/astro_bot/internal/prompt"
)

const yandexMaxTokens = 2000

// YandexClient is the YandexGPT alternative to OpenAIClient.
type YandexClient struct {
	api      *yandexgpt.YandexGPTClient
	modelURI string
}

func NewYandexClient(apiKey, catalogID string) *YandexClient {
	return &YandexClient{
		api:      yandexgpt.NewYandexGPTClientWithAPIKey(apiKey),
		modelURI: yandexgpt.MakeModelURI(catalogID, yandexgpt.YandexGPT4Model32k),
	}
}

func (c *YandexClient) Complete(ctx context.Context, p prompt.Prompt, temperature float32) (string, error) {
	request := yandexgpt.YandexGPTRequest{
		ModelURI: c.modelURI,
		CompletionOptions: yandexgpt.YandexGPTCompletionOptions{
			Stream:      false,
			Temperature: float64(temperature),
			MaxTokens:   yandexMaxTokens,
		},
		Messages: []yandexgpt.YandexGPTMessage{
			{Role: yandexgpt.YandexGPTMessageRoleSystem, Text: p.System},
			{Role: yandexgpt.YandexGPTMessageRoleUser, Text: p.User},
		},
	}

	response, err := c.api.GetCompletion(ctx, request)
	if err != nil {
		return "", fmt.Errorf("YandexClient.Complete: %w", err)
	}

	if len(response.Result.Alternatives) == 0 || response.Result.Alternatives[0].Message.Text == "" {
		return "", fmt.Errorf("YandexClient.Complete: %w", ErrEmptyCompletion)
	}

	return response.Result.Alternatives[0].Message.Text, nil
}

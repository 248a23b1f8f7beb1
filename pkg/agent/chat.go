package agent

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ChatClient is the model transport. Tests substitute a scripted client.
type ChatClient interface {
	Chat(
		ctx context.Context,
		model string,
		messages []openai.ChatCompletionMessageParamUnion,
		tools []openai.ChatCompletionToolUnionParam,
	) (*openai.ChatCompletionMessage, error)
}

const openRouterBaseURL = "https://openrouter.ai/api/v1"

type ChatConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

func (c ChatConfig) WithDefaults() ChatConfig {
	if c.BaseURL == "" {
		c.BaseURL = openRouterBaseURL
	}
	return c
}

type openRouterClient struct {
	client openai.Client
}

// NewOpenRouterClient builds a ChatClient backed by the OpenRouter
// OpenAI-compatible endpoint.
func NewOpenRouterClient(cfg ChatConfig) ChatClient {
	cfg = cfg.WithDefaults()
	return &openRouterClient{
		client: openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.BaseURL),
		),
	}
}

func (c *openRouterClient) Chat(
	ctx context.Context,
	model string,
	messages []openai.ChatCompletionMessageParamUnion,
	tools []openai.ChatCompletionToolUnionParam,
) (*openai.ChatCompletionMessage, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    model,
		Messages: messages,
		Tools:    tools,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}
	return &resp.Choices[0].Message, nil
}

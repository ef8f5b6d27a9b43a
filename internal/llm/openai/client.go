package openai

import (
	"context"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"travelops/internal/llm"
)

const defaultModel = goopenai.GPT4oMini

var _ llm.Generator = (*Client)(nil)

// Config targets the OpenAI API or any server speaking its chat completions
// protocol when BaseURL is set.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Options llm.Options
}

type Client struct {
	client  *goopenai.Client
	model   string
	baseURL string
	opts    llm.Options
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai api key is empty")
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &Client{
		client:  goopenai.NewClientWithConfig(clientCfg),
		model:   model,
		baseURL: clientCfg.BaseURL,
		opts:    cfg.Options.WithDefaults(),
	}, nil
}

func (c *Client) Name() string {
	return llm.ProviderOpenAI
}

func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: req.System},
			{Role: goopenai.ChatMessageRoleUser, Content: req.User},
		},
		MaxTokens:   c.opts.TokensFor(req),
		Temperature: c.opts.Temperature,
		TopP:        c.opts.TopP,
	})
	if err != nil {
		if llm.IsConnectionError(err) {
			return "", llm.Unavailable(llm.ProviderOpenAI, c.baseURL, err)
		}
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", llm.ErrNoResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", llm.ErrEmptyResponse
	}
	return content, nil
}

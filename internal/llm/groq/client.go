package groq

import (
	"context"
	"fmt"
	"strings"

	"github.com/conneroisu/groq-go"

	"travelops/internal/llm"
)

const defaultModel = "llama-3.3-70b-versatile"

var _ llm.Generator = (*Client)(nil)

type Client struct {
	client *groq.Client
	model  groq.ChatModel
	opts   llm.Options
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Options llm.Options
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("groq api key is empty")
	}

	var clientOpts []groq.Opts
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, groq.WithBaseURL(cfg.BaseURL))
	}

	client, err := groq.NewClient(cfg.APIKey, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &Client{
		client: client,
		model:  groq.ChatModel(model),
		opts:   cfg.Options.WithDefaults(),
	}, nil
}

func (c *Client) Name() string {
	return llm.ProviderGroq
}

func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	resp, err := c.client.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Model: c.model,
		Messages: []groq.ChatCompletionMessage{
			{Role: groq.RoleSystem, Content: req.System},
			{Role: groq.RoleUser, Content: req.User},
		},
		MaxTokens:   c.opts.TokensFor(req),
		Temperature: c.opts.Temperature,
		TopP:        c.opts.TopP,
	})
	if err != nil {
		if llm.IsConnectionError(err) {
			return "", llm.Unavailable(llm.ProviderGroq, "api.groq.com", err)
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

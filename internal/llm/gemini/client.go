package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"travelops/internal/llm"
)

const defaultModel = "gemini-1.5-flash"

var _ llm.Generator = (*Client)(nil)

type Config struct {
	APIKey  string
	Model   string
	Options llm.Options
}

type Client struct {
	client *genai.Client
	model  string
	opts   llm.Options
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &Client{
		client: client,
		model:  model,
		opts:   cfg.Options.WithDefaults(),
	}, nil
}

func (c *Client) Name() string {
	return llm.ProviderGemini
}

func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	model.SetMaxOutputTokens(int32(c.opts.TokensFor(req)))
	model.SetTemperature(c.opts.Temperature)
	model.SetTopP(c.opts.TopP)

	resp, err := model.GenerateContent(ctx, genai.Text(req.User))
	if err != nil {
		if llm.IsConnectionError(err) {
			return "", llm.Unavailable(llm.ProviderGemini, "generativelanguage.googleapis.com", err)
		}
		return "", fmt.Errorf("generate: %w", err)
	}

	return responseText(resp)
}

func (c *Client) Close() error {
	return c.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", llm.ErrNoResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	content := strings.TrimSpace(b.String())
	if content == "" {
		return "", llm.ErrEmptyResponse
	}
	return content, nil
}

package ollama

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"travelops/internal/llm"
)

const (
	DefaultHost           = "http://127.0.0.1:11434"
	DefaultModel          = "llama3.1:8b"
	DefaultConnectTimeout = 10 * time.Second
	DefaultTimeout        = 20 * time.Minute
)

var _ llm.Generator = (*Client)(nil)

type Config struct {
	Host           string
	Model          string
	ConnectTimeout time.Duration
	Timeout        time.Duration
	Options        llm.Options
}

type Client struct {
	client *api.Client
	host   string
	model  string
	opts   llm.Options
}

// NewClient builds a chat client whose dialer gives up quickly on an
// unreachable host while allowing long generations once connected.
func NewClient(cfg Config) (*Client, error) {
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}
	base, err := url.Parse(strings.TrimRight(host, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse ollama host: %w", err)
	}

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout == 0 {
		connectTimeout = DefaultConnectTimeout
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: connectTimeout}).DialContext,
			TLSHandshakeTimeout:   connectTimeout,
			ResponseHeaderTimeout: timeout,
		},
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		client: api.NewClient(base, httpClient),
		host:   base.String(),
		model:  model,
		opts:   cfg.Options.WithDefaults(),
	}, nil
}

func (c *Client) Name() string {
	return llm.ProviderOllama
}

func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	stream := false
	chatReq := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Stream: &stream,
		Options: map[string]any{
			"temperature": c.opts.Temperature,
			"top_p":       c.opts.TopP,
			"num_predict": c.opts.TokensFor(req),
			"num_ctx":     c.opts.NumCtx,
		},
	}

	var content strings.Builder
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		if llm.IsConnectionError(err) {
			return "", llm.Unavailable(llm.ProviderOllama, c.host, err)
		}
		return "", fmt.Errorf("generate: %w", err)
	}

	text := strings.TrimSpace(content.String())
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

func (c *Client) Host() string {
	return c.host
}

// Ping checks that the server answers its version endpoint.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.client.Version(ctx); err != nil {
		if llm.IsConnectionError(err) {
			return llm.Unavailable(llm.ProviderOllama, c.host, err)
		}
		return fmt.Errorf("ping ollama: %w", err)
	}
	return nil
}

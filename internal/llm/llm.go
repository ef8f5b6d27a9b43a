package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

const (
	ProviderOllama = "ollama"
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultTemperature = 0.35
	DefaultTopP        = 0.9
	DefaultMaxTokens   = 420
	DefaultNumCtx      = 4096
)

var (
	ErrBackendUnavailable = errors.New("generation backend unavailable")
	ErrNoResponse         = errors.New("no response")
	ErrEmptyResponse      = errors.New("empty response")
)

// Request is a single system+user exchange. MaxTokens of zero falls back to
// the provider's configured default.
type Request struct {
	System    string
	User      string
	MaxTokens int
}

type Options struct {
	Temperature float32
	TopP        float32
	MaxTokens   int
	NumCtx      int
}

func DefaultOptions() Options {
	return Options{
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
		MaxTokens:   DefaultMaxTokens,
		NumCtx:      DefaultNumCtx,
	}
}

func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.Temperature == 0 {
		o.Temperature = d.Temperature
	}
	if o.TopP == 0 {
		o.TopP = d.TopP
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = d.MaxTokens
	}
	if o.NumCtx == 0 {
		o.NumCtx = d.NumCtx
	}
	return o
}

func (o Options) TokensFor(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return o.MaxTokens
}

type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

// Unavailable wraps a transport failure so callers can match it with
// errors.Is(err, ErrBackendUnavailable).
func Unavailable(provider, endpoint string, err error) error {
	return fmt.Errorf("cannot reach %s at %s: %w: %w", provider, endpoint, ErrBackendUnavailable, err)
}

func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}

// IsEmptyResponse reports whether err means the backend answered without
// usable text.
func IsEmptyResponse(err error) bool {
	return errors.Is(err, ErrEmptyResponse) || errors.Is(err, ErrNoResponse)
}

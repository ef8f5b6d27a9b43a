package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var ErrSecretNotFound = errors.New("secret not found")

type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SecretSource resolves a named secret to its latest value.
type SecretSource interface {
	Secret(ctx context.Context, name string) (string, error)
}

type SecretManager struct {
	client  *secretmanager.Client
	project string
}

func NewSecretManager(ctx context.Context, project string) (*SecretManager, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	return &SecretManager{client: client, project: project}, nil
}

func (s *SecretManager) Close() error {
	return s.client.Close()
}

func (s *SecretManager) Secret(ctx context.Context, name string) (string, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.project, name),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", fmt.Errorf("%s: %w", name, ErrSecretNotFound)
		}
		return "", fmt.Errorf("failed to access secret %s: %w", name, err)
	}
	return string(resp.GetPayload().GetData()), nil
}

func secretTargets(cfg *Config) map[string]*string {
	return map[string]*string{
		"PLACES_API_KEY": &cfg.PlacesAPIKey,
		"GROQ_API_KEY":   &cfg.GroqAPIKey,
		"GEMINI_API_KEY": &cfg.GeminiAPIKey,
		"OPENAI_API_KEY": &cfg.OpenAIAPIKey,
		"SMTP_PASS":      &cfg.SMTP.Password,
	}
}

// resolveSecrets fills secrets still empty after the environment from
// Secret Manager when a Google Cloud project is configured.
func resolveSecrets(ctx context.Context, cfg *Config, source SecretSource) error {
	targets := secretTargets(cfg)
	var missing []string
	for name, dst := range targets {
		if *dst == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if source == nil {
		if cfg.GCPProject == "" {
			return nil
		}
		sm, err := NewSecretManager(ctx, cfg.GCPProject)
		if err != nil {
			return err
		}
		defer func() { _ = sm.Close() }()
		source = sm
	}

	for _, name := range missing {
		value, err := source.Secret(ctx, name)
		if errors.Is(err, ErrSecretNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		*targets[name] = value
		slog.Debug("Loaded secret from Secret Manager", "name", name)
	}
	return nil
}

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	orig, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(orig) })
	_ = os.Chdir(tmp)
	return tmp
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GOOGLE_CLOUD_PROJECT", "PLACES_API_KEY", "GROQ_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY",
		"GCS_BUCKET", "SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "EMAIL_FROM", "FROM_EMAIL",
		"LLM_PROVIDER", "OLLAMA_HOST", "OLLAMA_MODEL", "REDIS_ADDR",
	} {
		t.Setenv(key, "")
	}
}

type fakeSecrets struct {
	values map[string]string
	err    error
	asked  []string
}

func (f *fakeSecrets) Secret(_ context.Context, name string) (string, error) {
	f.asked = append(f.asked, name)
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.values[name]
	if !ok {
		return "", ErrSecretNotFound
	}
	return v, nil
}

func TestLoadFromYAML(t *testing.T) {
	tmp := chdirTemp(t)
	clearEnv(t)

	yaml := `
llm:
  provider: groq
  model: test-model
  timeout: 5m
planner:
  max_attempts: 2
store:
  backend: redis
  redis_addr: localhost:6390
places:
  search_ttl: 1h
export:
  dir: ./out
  gcs:
    enabled: true
ocr:
  languages: [eng, fra]
`
	_ = os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte(yaml), 0644)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.LLM.Provider != "groq" || cfg.LLM.Model != "test-model" {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	if cfg.LLM.Timeout != 5*time.Minute {
		t.Errorf("LLM.Timeout = %v, want 5m", cfg.LLM.Timeout)
	}
	if cfg.LLM.Host != "" {
		t.Errorf("LLM.Host = %q, want empty for groq", cfg.LLM.Host)
	}
	if cfg.Planner.MaxAttempts != 2 || cfg.Planner.MaxDays != defaultMaxDays {
		t.Errorf("Planner = %+v", cfg.Planner)
	}
	if cfg.Store.Backend != "redis" || cfg.Store.RedisAddr != "localhost:6390" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Places.SearchTTL != time.Hour || cfg.Places.PhotoTTL != defaultPhotoTTL {
		t.Errorf("Places = %+v", cfg.Places)
	}
	if cfg.Export.Dir != "./out" || !cfg.Export.GCS.Enabled || cfg.Export.GCS.Prefix != defaultGCSPrefix {
		t.Errorf("Export = %+v", cfg.Export)
	}
	if len(cfg.OCR.Languages) != 2 {
		t.Errorf("OCR.Languages = %v", cfg.OCR.Languages)
	}
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"provider", cfg.LLM.Provider, "ollama"},
		{"ollamaHost", cfg.LLM.Host, "http://127.0.0.1:11434"},
		{"ollamaModel", cfg.LLM.Model, "llama3.1:8b"},
		{"temperature", cfg.LLM.Temperature, float32(0.35)},
		{"numCtx", cfg.LLM.NumCtx, 4096},
		{"connectTimeout", cfg.LLM.ConnectTimeout, 10 * time.Second},
		{"maxAttempts", cfg.Planner.MaxAttempts, 3},
		{"placesLimit", cfg.Planner.PlacesLimit, 8},
		{"historyLimit", cfg.History.Limit, 20},
		{"storeBackend", cfg.Store.Backend, "file"},
		{"maxUpload", cfg.Server.MaxUploadMB, 20},
		{"smtpPort", cfg.SMTP.Port, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)

	t.Setenv("GROQ_API_KEY", "test-groq")
	t.Setenv("PLACES_API_KEY", "test-places")
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")
	t.Setenv("OLLAMA_MODEL", "qwen2.5:7b")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USER", "bot@example.com")
	t.Setenv("SMTP_PASS", "secret")
	t.Setenv("FROM_EMAIL", "trips@example.com")

	cfg, err := load(context.Background(), defaultConfigPath, &fakeSecrets{})
	if err != nil {
		t.Fatalf("load() error: %v", err)
	}

	if cfg.GroqAPIKey != "test-groq" || cfg.PlacesAPIKey != "test-places" {
		t.Errorf("keys = %q, %q", cfg.GroqAPIKey, cfg.PlacesAPIKey)
	}
	if cfg.LLM.Host != "http://gpu-box:11434" || cfg.LLM.Model != "qwen2.5:7b" {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	if cfg.SMTP.Port != defaultSMTPPort || cfg.SMTP.From != "trips@example.com" {
		t.Errorf("SMTP = %+v", cfg.SMTP)
	}
}

func TestLoadSecretsFallback(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "from-env")

	secrets := &fakeSecrets{values: map[string]string{
		"GROQ_API_KEY":   "from-secret-manager",
		"PLACES_API_KEY": "places-secret",
	}}

	cfg, err := load(context.Background(), defaultConfigPath, secrets)
	if err != nil {
		t.Fatalf("load() error: %v", err)
	}

	if cfg.GroqAPIKey != "from-env" {
		t.Errorf("GroqAPIKey = %q, environment should win", cfg.GroqAPIKey)
	}
	if cfg.PlacesAPIKey != "places-secret" {
		t.Errorf("PlacesAPIKey = %q, want places-secret", cfg.PlacesAPIKey)
	}
	for _, name := range secrets.asked {
		if name == "GROQ_API_KEY" {
			t.Error("secret already set should not be looked up")
		}
	}
}

func TestLoadSecretsFailureIsNotFatal(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)

	cfg, err := load(context.Background(), defaultConfigPath, &fakeSecrets{err: errors.New("permission denied")})
	if err != nil {
		t.Fatalf("load() error: %v", err)
	}
	if cfg.PlacesAPIKey != "" {
		t.Errorf("PlacesAPIKey = %q, want empty", cfg.PlacesAPIKey)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmp := chdirTemp(t)
	clearEnv(t)

	_ = os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte("llm: [unclosed"), 0644)

	_, err := Load(context.Background())
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("Load() error = %v, want ParseError", err)
	}
}

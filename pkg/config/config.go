package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath     = "config.yaml"
	defaultProvider       = "ollama"
	defaultOllamaHost     = "http://127.0.0.1:11434"
	defaultOllamaModel    = "llama3.1:8b"
	defaultConnectTimeout = 10 * time.Second
	defaultLLMTimeout     = 20 * time.Minute
	defaultTemperature    = 0.35
	defaultTopP           = 0.9
	defaultMaxTokens      = 420
	defaultNumCtx         = 4096
	defaultMaxAttempts    = 3
	defaultMaxDays        = 30
	defaultPlacesLimit    = 8
	defaultTokenCap       = 2200
	defaultTokenBase      = 350
	defaultTokensPerDay   = 330
	defaultStoreBackend   = "file"
	defaultStorePath      = "./data/store.json"
	defaultStorePrefix    = "travelops:"
	defaultHistoryLimit   = 20
	defaultSearchTTL      = 24 * time.Hour
	defaultPhotoTTL       = 7 * 24 * time.Hour
	defaultPhotoWidth     = 900
	defaultExportDir      = "./exports"
	defaultUploadsDir     = "./uploads"
	defaultGCSPrefix      = "itineraries"
	defaultServerAddr     = ":8080"
	defaultMaxUploadMB    = 20
	defaultSMTPPort       = 587
	defaultOCRLanguage    = "eng"
)

type Config struct {
	GCPProject   string
	PlacesAPIKey string
	GroqAPIKey   string
	GeminiAPIKey string
	OpenAIAPIKey string
	GCSBucket    string
	SMTP         SMTPConfig

	LLM     LLMConfig     `yaml:"llm"`
	Planner PlannerConfig `yaml:"planner"`
	Store   StoreConfig   `yaml:"store"`
	History HistoryConfig `yaml:"history"`
	Places  PlacesConfig  `yaml:"places"`
	Export  ExportConfig  `yaml:"export"`
	OCR     OCRConfig     `yaml:"ocr"`
	Server  ServerConfig  `yaml:"server"`
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type LLMConfig struct {
	Provider       string        `yaml:"provider"` // "ollama", "groq", "gemini" or "openai"
	Model          string        `yaml:"model"`
	Host           string        `yaml:"host"`
	BaseURL        string        `yaml:"base_url"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	Timeout        time.Duration `yaml:"timeout"`
	Temperature    float32       `yaml:"temperature"`
	TopP           float32       `yaml:"top_p"`
	MaxTokens      int           `yaml:"max_tokens"`
	NumCtx         int           `yaml:"num_ctx"`
}

type PlannerConfig struct {
	MaxAttempts  int `yaml:"max_attempts"`
	MaxDays      int `yaml:"max_days"`
	PlacesLimit  int `yaml:"places_limit"`
	TokenCap     int `yaml:"token_cap"`
	TokenBase    int `yaml:"token_base"`
	TokensPerDay int `yaml:"tokens_per_day"`
}

type StoreConfig struct {
	Backend   string `yaml:"backend"` // "file", "redis" or "memory"
	Path      string `yaml:"path"`
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
	Prefix    string `yaml:"prefix"`
}

type HistoryConfig struct {
	Limit int `yaml:"limit"`
}

type PlacesConfig struct {
	BaseURL    string        `yaml:"base_url"`
	SearchTTL  time.Duration `yaml:"search_ttl"`
	PhotoTTL   time.Duration `yaml:"photo_ttl"`
	PhotoWidth int           `yaml:"photo_width"`
}

type ExportConfig struct {
	Dir        string    `yaml:"dir"`
	UploadsDir string    `yaml:"uploads_dir"`
	GCS        GCSConfig `yaml:"gcs"`
}

type GCSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Prefix  string `yaml:"prefix"`
}

type OCRConfig struct {
	Languages []string `yaml:"languages"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// Load reads config.yaml from the working directory.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, defaultConfigPath)
}

func LoadFrom(ctx context.Context, path string) (*Config, error) {
	return load(ctx, path, nil)
}

func load(ctx context.Context, path string, secrets SecretSource) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		GCPProject:   os.Getenv("GOOGLE_CLOUD_PROJECT"),
		PlacesAPIKey: os.Getenv("PLACES_API_KEY"),
		GroqAPIKey:   os.Getenv("GROQ_API_KEY"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		GCSBucket:    os.Getenv("GCS_BUCKET"),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvInt("SMTP_PORT", 0),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     firstNonEmpty(os.Getenv("EMAIL_FROM"), os.Getenv("FROM_EMAIL")),
		},
	}

	if err := loadYAMLConfig(cfg, path); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := resolveSecrets(ctx, cfg, secrets); err != nil {
		slog.Warn("Secret Manager lookup failed", "error", err)
	}

	return cfg, nil
}

func loadYAMLConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("No config file found, using defaults", "path", path)
		return nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return &ParseError{Path: path, Err: err}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.LLM.Provider = getEnvOrDefault("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.Host = getEnvOrDefault("OLLAMA_HOST", cfg.LLM.Host)
	if model := os.Getenv("OLLAMA_MODEL"); model != "" && (cfg.LLM.Provider == "" || cfg.LLM.Provider == defaultProvider) {
		cfg.LLM.Model = model
	}
	cfg.Store.RedisAddr = getEnvOrDefault("REDIS_ADDR", cfg.Store.RedisAddr)
}

func applyDefaults(cfg *Config) {
	applyLLMDefaults(cfg)
	applyPlannerDefaults(cfg)
	applyStoreDefaults(cfg)
	applyHistoryDefaults(cfg)
	applyPlacesDefaults(cfg)
	applyExportDefaults(cfg)
	applyOCRDefaults(cfg)
	applyServerDefaults(cfg)
	applySMTPDefaults(cfg)
}

func applyLLMDefaults(cfg *Config) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = defaultProvider
	}
	if cfg.LLM.Provider == defaultProvider {
		if cfg.LLM.Host == "" {
			cfg.LLM.Host = defaultOllamaHost
		}
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = defaultOllamaModel
		}
	}
	if cfg.LLM.ConnectTimeout == 0 {
		cfg.LLM.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = defaultLLMTimeout
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = defaultTemperature
	}
	if cfg.LLM.TopP == 0 {
		cfg.LLM.TopP = defaultTopP
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = defaultMaxTokens
	}
	if cfg.LLM.NumCtx == 0 {
		cfg.LLM.NumCtx = defaultNumCtx
	}
}

func applyPlannerDefaults(cfg *Config) {
	if cfg.Planner.MaxAttempts == 0 {
		cfg.Planner.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Planner.MaxDays == 0 {
		cfg.Planner.MaxDays = defaultMaxDays
	}
	if cfg.Planner.PlacesLimit == 0 {
		cfg.Planner.PlacesLimit = defaultPlacesLimit
	}
	if cfg.Planner.TokenCap == 0 {
		cfg.Planner.TokenCap = defaultTokenCap
	}
	if cfg.Planner.TokenBase == 0 {
		cfg.Planner.TokenBase = defaultTokenBase
	}
	if cfg.Planner.TokensPerDay == 0 {
		cfg.Planner.TokensPerDay = defaultTokensPerDay
	}
}

func applyStoreDefaults(cfg *Config) {
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = defaultStoreBackend
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = defaultStorePath
	}
	if cfg.Store.Prefix == "" {
		cfg.Store.Prefix = defaultStorePrefix
	}
}

func applyHistoryDefaults(cfg *Config) {
	if cfg.History.Limit == 0 {
		cfg.History.Limit = defaultHistoryLimit
	}
}

func applyPlacesDefaults(cfg *Config) {
	if cfg.Places.SearchTTL == 0 {
		cfg.Places.SearchTTL = defaultSearchTTL
	}
	if cfg.Places.PhotoTTL == 0 {
		cfg.Places.PhotoTTL = defaultPhotoTTL
	}
	if cfg.Places.PhotoWidth == 0 {
		cfg.Places.PhotoWidth = defaultPhotoWidth
	}
}

func applyExportDefaults(cfg *Config) {
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = defaultExportDir
	}
	if cfg.Export.UploadsDir == "" {
		cfg.Export.UploadsDir = defaultUploadsDir
	}
	if cfg.Export.GCS.Prefix == "" {
		cfg.Export.GCS.Prefix = defaultGCSPrefix
	}
}

func applyOCRDefaults(cfg *Config) {
	if len(cfg.OCR.Languages) == 0 {
		cfg.OCR.Languages = []string{defaultOCRLanguage}
	}
}

func applyServerDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultServerAddr
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = defaultMaxUploadMB
	}
}

func applySMTPDefaults(cfg *Config) {
	if cfg.SMTP.Host != "" && cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = defaultSMTPPort
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Ignoring non-numeric environment value", "key", key)
		return defaultValue
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

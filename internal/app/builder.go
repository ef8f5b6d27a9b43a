package app

import (
	"context"
	"fmt"
	"log/slog"

	"travelops/internal/export"
	"travelops/internal/extract"
	"travelops/internal/geo"
	"travelops/internal/history"
	"travelops/internal/llm"
	"travelops/internal/llm/gemini"
	"travelops/internal/llm/groq"
	"travelops/internal/llm/ollama"
	"travelops/internal/llm/openai"
	"travelops/internal/mail"
	"travelops/internal/places"
	"travelops/internal/planner"
	"travelops/internal/storage"
	"travelops/internal/store"
	"travelops/internal/summarize"
	"travelops/pkg/config"
	"travelops/pkg/prompts"
)

type BuildOptions struct {
	// OCR recognizes text in uploaded images. Nil disables image uploads.
	OCR extract.OCREngine
	// Generator overrides the configured provider.
	Generator llm.Generator
	// Store overrides the configured key-value backend.
	Store store.Store
}

func BuildService(ctx context.Context, cfg *config.Config, opts BuildOptions) (*Service, error) {
	p, err := prompts.Load()
	if err != nil {
		return nil, err
	}

	var closers []func() error

	generator := opts.Generator
	if generator == nil {
		var closeFn func() error
		generator, closeFn, err = NewGenerator(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
	}

	kv := opts.Store
	if kv == nil {
		kv, err = store.Open(ctx, store.Options{
			Backend:   cfg.Store.Backend,
			Path:      cfg.Store.Path,
			RedisAddr: cfg.Store.RedisAddr,
			RedisDB:   cfg.Store.RedisDB,
			Prefix:    cfg.Store.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
	}

	localStorage := storage.NewLocalStorage(cfg.Export.Dir, cfg.Export.UploadsDir)
	if err := localStorage.EnsureDirectories(); err != nil {
		return nil, err
	}

	var attractions attractionService
	placesClient, err := places.NewClient(places.Config{
		APIKey:    cfg.PlacesAPIKey,
		BaseURL:   cfg.Places.BaseURL,
		ImagesDir: localStorage.ImagesDir(),
		SearchTTL: cfg.Places.SearchTTL,
		PhotoTTL:  cfg.Places.PhotoTTL,
	}, store.NewCache(kv))
	if err != nil {
		slog.Warn("Attraction search unavailable", "error", err)
		attractions = unavailablePlaces{err: err}
	} else {
		attractions = placesClient
	}

	extractor, err := extract.NewExtractor(ctx, opts.OCR)
	if err != nil {
		return nil, err
	}

	hist := history.NewStore(kv, cfg.History.Limit)

	tripPlanner := planner.New(generator, p, geo.NewClient(), attractions, hist, planner.Config{
		MaxAttempts:  cfg.Planner.MaxAttempts,
		MaxDays:      cfg.Planner.MaxDays,
		PlacesLimit:  cfg.Planner.PlacesLimit,
		TokenCap:     cfg.Planner.TokenCap,
		TokenBase:    cfg.Planner.TokenBase,
		TokensPerDay: cfg.Planner.TokensPerDay,
	})

	var uploader storage.Uploader
	if cfg.Export.GCS.Enabled && cfg.GCSBucket != "" {
		gcs, err := storage.NewGCSStorage(ctx, cfg.GCSBucket, cfg.Export.GCS.Prefix)
		if err != nil {
			slog.Warn("GCS upload disabled", "error", err)
		} else {
			uploader = gcs
			closers = append(closers, gcs.Close)
		}
	}

	return NewService(ServiceOptions{
		Config:     cfg,
		Generator:  generator,
		Planner:    tripPlanner,
		Summarizer: summarize.New(generator, p, extractor),
		History:    hist,
		Photos:     attractions,
		Renderer:   export.NewRenderer(localStorage.ItinerariesDir()),
		Storage:    localStorage,
		Uploader:   uploader,
		Mailer: mail.NewSender(mail.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}),
		Store:   kv,
		Closers: closers,
	}), nil
}

// NewGenerator builds the configured text-generation client. The returned
// close function may be nil.
func NewGenerator(ctx context.Context, cfg *config.Config) (llm.Generator, func() error, error) {
	opts := llm.Options{
		Temperature: cfg.LLM.Temperature,
		TopP:        cfg.LLM.TopP,
		MaxTokens:   cfg.LLM.MaxTokens,
		NumCtx:      cfg.LLM.NumCtx,
	}

	switch cfg.LLM.Provider {
	case "", llm.ProviderOllama:
		c, err := ollama.NewClient(ollama.Config{
			Host:           cfg.LLM.Host,
			Model:          cfg.LLM.Model,
			ConnectTimeout: cfg.LLM.ConnectTimeout,
			Timeout:        cfg.LLM.Timeout,
			Options:        opts,
		})
		return c, nil, err
	case llm.ProviderGroq:
		c, err := groq.NewClient(groq.Config{
			APIKey:  cfg.GroqAPIKey,
			Model:   cfg.LLM.Model,
			BaseURL: cfg.LLM.BaseURL,
			Options: opts,
		})
		return c, nil, err
	case llm.ProviderGemini:
		c, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.LLM.Model,
			Options: opts,
		})
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	case llm.ProviderOpenAI:
		c, err := openai.NewClient(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.LLM.Model,
			BaseURL: cfg.LLM.BaseURL,
			Options: opts,
		})
		return c, nil, err
	default:
		return nil, nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}
}

type attractionService interface {
	planner.AttractionSearcher
	export.PhotoDownloader
}

type unavailablePlaces struct {
	err error
}

func (u unavailablePlaces) SearchAttractions(context.Context, string, int) ([]places.Attraction, error) {
	return nil, u.err
}

func (u unavailablePlaces) DownloadPhoto(context.Context, string, string, int) (string, error) {
	return "", u.err
}

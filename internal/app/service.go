package app

import (
	"context"
	"errors"

	"travelops/internal/export"
	"travelops/internal/history"
	"travelops/internal/llm"
	"travelops/internal/mail"
	"travelops/internal/planner"
	"travelops/internal/storage"
	"travelops/internal/store"
	"travelops/internal/summarize"
	"travelops/pkg/config"
)

// Mailer delivers a message and reports whether it was accepted.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) bool
}

type Service struct {
	cfg        *config.Config
	generator  llm.Generator
	planner    *planner.Planner
	summarizer *summarize.Summarizer
	history    *history.Store
	photos     export.PhotoDownloader
	renderer   *export.Renderer
	storage    *storage.LocalStorage
	uploader   storage.Uploader
	mailer     Mailer
	store      store.Store
	closers    []func() error
}

type ServiceOptions struct {
	Config     *config.Config
	Generator  llm.Generator
	Planner    *planner.Planner
	Summarizer *summarize.Summarizer
	History    *history.Store
	Photos     export.PhotoDownloader
	Renderer   *export.Renderer
	Storage    *storage.LocalStorage
	Uploader   storage.Uploader
	Mailer     Mailer
	Store      store.Store
	Closers    []func() error
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		cfg:        opts.Config,
		generator:  opts.Generator,
		planner:    opts.Planner,
		summarizer: opts.Summarizer,
		history:    opts.History,
		photos:     opts.Photos,
		renderer:   opts.Renderer,
		storage:    opts.Storage,
		uploader:   opts.Uploader,
		mailer:     opts.Mailer,
		store:      opts.Store,
		closers:    opts.Closers,
	}
}

func (s *Service) Config() *config.Config {
	return s.cfg
}

func (s *Service) Generator() llm.Generator {
	return s.generator
}

func (s *Service) History() *history.Store {
	return s.history
}

func (s *Service) Storage() *storage.LocalStorage {
	return s.storage
}

func (s *Service) Uploader() storage.Uploader {
	return s.uploader
}

func (s *Service) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Package server exposes the travel pipeline as a JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"travelops/internal/app"
	"travelops/internal/history"
	"travelops/internal/storage"
)

const (
	defaultMaxUploadMB = 20
	defaultMaxDays     = 30
	shutdownTimeout    = 10 * time.Second
	readHeaderTimeout  = 10 * time.Second
)

// Backend is the part of the application pipeline the handlers call.
type Backend interface {
	Summarize(ctx context.Context, req app.SummarizeRequest) (*app.SummarizeResult, error)
	Plan(ctx context.Context, req app.PlanRequest) (*app.PlanResult, error)
	ExportPDF(ctx context.Context, req app.PlanRequest) (*app.ExportResult, error)
	History(ctx context.Context, userName string) ([]history.Entry, error)
	Exports(ctx context.Context) (*app.ExportList, error)
}

type Options struct {
	Backend Backend
	Storage *storage.LocalStorage
	// Fetcher restores exports missing from local disk. Optional.
	Fetcher     storage.Fetcher
	MaxUploadMB int
	MaxDays     int
}

type Server struct {
	backend   Backend
	storage   *storage.LocalStorage
	fetcher   storage.Fetcher
	maxUpload int64
	maxDays   int
	engine    *gin.Engine
}

func New(opts Options) *Server {
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = defaultMaxUploadMB
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = defaultMaxDays
	}

	s := &Server{
		backend:   opts.Backend,
		storage:   opts.Storage,
		fetcher:   opts.Fetcher,
		maxUpload: int64(opts.MaxUploadMB) << 20,
		maxDays:   opts.MaxDays,
	}

	engine := gin.New()
	engine.MaxMultipartMemory = s.maxUpload
	engine.Use(RequestID(), Logging(), gin.Recovery())

	engine.GET("/healthz", s.health)
	engine.GET("/history", s.history)
	engine.POST("/summarize", s.summarize)
	engine.POST("/plan", s.plan)
	engine.GET("/exports", s.exports)
	engine.GET("/download/:filename", s.download)

	s.engine = engine
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		slog.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

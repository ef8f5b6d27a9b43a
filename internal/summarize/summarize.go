package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"travelops/internal/llm"
	"travelops/pkg/prompts"
)

const (
	MaxSourceChars = 8000
	SummaryTokens  = 320

	sourcePDF   = "PDF booking document"
	sourceImage = "ticket screenshot or photo"
)

type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

type Summarizer struct {
	gen       llm.Generator
	prompts   *prompts.Prompts
	extractor Extractor
}

func New(gen llm.Generator, p *prompts.Prompts, extractor Extractor) *Summarizer {
	return &Summarizer{gen: gen, prompts: p, extractor: extractor}
}

// File extracts text from a booking document and asks the model for a
// grouped bullet summary.
func (s *Summarizer) File(ctx context.Context, path string) (string, error) {
	slog.Info("Extracting text", "file", filepath.Base(path))
	raw, err := s.extractor.Extract(ctx, path)
	if err != nil {
		return "", err
	}
	slog.Debug("Extracted text", "chars", len(raw))

	return s.Text(ctx, SourceKind(path), raw)
}

func (s *Summarizer) Text(ctx context.Context, source, raw string) (string, error) {
	prompt, err := s.prompts.RenderSummarize(prompts.SummarizeParams{
		Source: source,
		Text:   Truncate(raw, MaxSourceChars),
	})
	if err != nil {
		return "", fmt.Errorf("render summarize prompt: %w", err)
	}

	summary, err := s.gen.Generate(ctx, llm.Request{
		System:    s.prompts.System.Summarizer,
		User:      prompt,
		MaxTokens: SummaryTokens,
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return strings.TrimSpace(summary), nil
}

func SourceKind(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return sourcePDF
	}
	return sourceImage
}

func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"travelops/internal/export"
	"travelops/internal/extract"
	"travelops/internal/geo"
	"travelops/internal/history"
	"travelops/internal/mail"
	"travelops/internal/planner"
	"travelops/internal/storage"
)

const anonymousUser = "Anonymous"

var ErrInvalidInput = errors.New("invalid input")

// IsInputError reports whether err was caused by the caller's request rather
// than a failing backend.
func IsInputError(err error) bool {
	for _, target := range []error{
		ErrInvalidInput,
		planner.ErrInvalidRequest,
		extract.ErrUnsupportedFile,
		os.ErrNotExist,
		geo.ErrCityNotFound,
		storage.ErrInvalidName,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type Pipeline struct {
	service *Service
}

type SummarizeRequest struct {
	Path  string
	Email string
}

type SummarizeResult struct {
	Summary string
	Emailed bool
}

type PlanRequest struct {
	planner.Request
	Email string
}

type PlanResult struct {
	*planner.Plan
	Emailed bool
}

type ExportResult struct {
	*planner.Plan
	PDFPath   string
	RemoteURI string
	Photos    int
	Emailed   bool
}

type ExportList struct {
	Local  []string
	Remote []string
}

func NewPipeline(service *Service) *Pipeline {
	return &Pipeline{service: service}
}

func (pipeline *Pipeline) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResult, error) {
	if strings.TrimSpace(req.Path) == "" {
		return nil, fmt.Errorf("%w: no file given", ErrInvalidInput)
	}

	slog.Info("Summarizing booking...", "file", req.Path)
	summary, err := pipeline.service.summarizer.File(ctx, req.Path)
	if err != nil {
		return nil, err
	}

	emailed := pipeline.email(ctx, mail.Message{
		To:      req.Email,
		Subject: mail.SummarySubject,
		Body:    summary,
	})
	return &SummarizeResult{Summary: summary, Emailed: emailed}, nil
}

func (pipeline *Pipeline) Plan(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	plan, err := pipeline.plan(ctx, req.Request)
	if err != nil {
		return nil, err
	}

	emailed := pipeline.email(ctx, mail.Message{
		To:      req.Email,
		Subject: mail.ItinerarySubject(cityLabel(req.City), req.StartDate, req.Days),
		Body:    plan.Itinerary + "\n\nUser: " + userLabel(req.UserName),
	})
	return &PlanResult{Plan: plan, Emailed: emailed}, nil
}

// ExportPDF plans the trip, renders it with photos of the places it uses and
// optionally uploads and emails the document.
func (pipeline *Pipeline) ExportPDF(ctx context.Context, req PlanRequest) (*ExportResult, error) {
	plan, err := pipeline.plan(ctx, req.Request)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	city := cityLabel(req.City)

	slog.Info("Fetching photos...", "run", runID)
	images, attributions := export.CollectPhotos(ctx, pipeline.service.photos, plan.Itinerary, plan.Attractions)

	slog.Info("Rendering PDF...", "run", runID, "photos", len(images))
	pdfPath, err := pipeline.service.renderer.Render(export.Document{
		Filename:     export.Filename(city, req.StartDate, req.Days),
		Title:        export.Title(city, req.StartDate, req.Days),
		Itinerary:    plan.Itinerary,
		Images:       images,
		Attributions: attributions,
	})
	if err != nil {
		return nil, err
	}

	result := &ExportResult{Plan: plan, PDFPath: pdfPath, Photos: len(images)}

	if uploader := pipeline.service.uploader; uploader != nil {
		uri, err := uploader.Upload(ctx, pdfPath)
		if err != nil {
			slog.Warn("Failed to upload PDF", "run", runID, "error", err)
		} else {
			result.RemoteURI = uri
			slog.Info("Uploaded PDF", "run", runID, "uri", uri)
		}
	}

	result.Emailed = pipeline.email(ctx, mail.Message{
		To:          req.Email,
		Subject:     mail.ItinerarySubject(city, req.StartDate, req.Days),
		Body:        plan.Itinerary + "\n\nAttached: PDF itinerary with photos.\nUser: " + userLabel(req.UserName),
		Attachments: []string{pdfPath},
	})
	return result, nil
}

func (pipeline *Pipeline) History(ctx context.Context, userName string) ([]history.Entry, error) {
	return pipeline.service.history.Load(ctx, userName)
}

func (pipeline *Pipeline) ClearHistory(ctx context.Context, userName string) (int, error) {
	return pipeline.service.history.Clear(ctx, userName)
}

// Exports lists rendered PDFs on disk and, when uploads are enabled, in the
// bucket. A failing remote listing is logged and leaves Remote empty.
func (pipeline *Pipeline) Exports(ctx context.Context) (*ExportList, error) {
	local, err := pipeline.service.storage.ListExports()
	if err != nil {
		return nil, err
	}
	list := &ExportList{Local: local}

	if lister, ok := pipeline.service.uploader.(storage.Lister); ok {
		remote, err := lister.ListExports(ctx)
		if err != nil {
			slog.Warn("Failed to list remote exports", "error", err)
		} else {
			list.Remote = remote
		}
	}
	return list, nil
}

func (pipeline *Pipeline) plan(ctx context.Context, req planner.Request) (*planner.Plan, error) {
	slog.Info("Planning trip...", "city", req.City, "start", req.StartDate, "days", req.Days, "fast", req.Fast)
	plan, err := pipeline.service.planner.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	if !plan.Validated {
		slog.Warn("Itinerary could not be fully validated", "attempts", plan.Trace.Count(planner.StateGenerated))
	}
	return plan, nil
}

// email hands msg to the mailer and reports whether it was delivered.
func (pipeline *Pipeline) email(ctx context.Context, msg mail.Message) bool {
	mailer := pipeline.service.mailer
	if strings.TrimSpace(msg.To) == "" || mailer == nil {
		return false
	}
	return mailer.Send(ctx, msg)
}

func cityLabel(city string) string {
	return strings.TrimSpace(city)
}

func userLabel(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return anonymousUser
}

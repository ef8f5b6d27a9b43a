package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"travelops/internal/geo"
	"travelops/internal/history"
	"travelops/internal/itinerary"
	"travelops/internal/llm"
	"travelops/internal/places"
	"travelops/internal/season"
	"travelops/pkg/prompts"
)

const (
	DateLayout       = "2006-01-02"
	DefaultMaxDays   = 30
	DefaultTokenCap  = 2200
	DefaultTokenBase = 350
	DefaultPerDay    = 330
	historyWindow    = 5
)

var ErrInvalidRequest = errors.New("invalid plan request")

type CityResolver interface {
	Resolve(ctx context.Context, query string) (*geo.City, error)
}

type AttractionSearcher interface {
	SearchAttractions(ctx context.Context, city string, limit int) ([]places.Attraction, error)
}

type Config struct {
	MaxAttempts  int
	MaxDays      int
	PlacesLimit  int
	TokenCap     int
	TokenBase    int
	TokensPerDay int
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.MaxDays <= 0 {
		c.MaxDays = DefaultMaxDays
	}
	if c.PlacesLimit <= 0 {
		c.PlacesLimit = places.DefaultLimit
	}
	if c.TokenCap <= 0 {
		c.TokenCap = DefaultTokenCap
	}
	if c.TokenBase <= 0 {
		c.TokenBase = DefaultTokenBase
	}
	if c.TokensPerDay <= 0 {
		c.TokensPerDay = DefaultPerDay
	}
	return c
}

type Request struct {
	City      string
	StartDate string
	Days      int
	UserName  string
	Vibe      string
	Fast      bool
}

type Plan struct {
	Itinerary   string
	Validated   bool
	City        *geo.City
	Season      season.Profile
	Dates       []string
	Attractions []places.Attraction
	Allowed     []string
	Trace       Trace
}

type Planner struct {
	gen     llm.Generator
	prompts *prompts.Prompts
	cities  CityResolver
	places  AttractionSearcher
	history *history.Store
	cfg     Config
}

func New(gen llm.Generator, p *prompts.Prompts, cities CityResolver, attractions AttractionSearcher, hist *history.Store, cfg Config) *Planner {
	return &Planner{
		gen:     gen,
		prompts: p,
		cities:  cities,
		places:  attractions,
		history: hist,
		cfg:     cfg.withDefaults(),
	}
}

func (p *Planner) Plan(ctx context.Context, req Request) (*Plan, error) {
	start, err := p.checkRequest(req)
	if err != nil {
		return nil, err
	}

	slog.Info("Resolving destination", "city", req.City)
	city, err := p.cities.Resolve(ctx, req.City)
	if err != nil {
		return nil, fmt.Errorf("resolve city: %w", err)
	}
	profile := season.ProfileFor(city.Country, city.Lat, start.Month())

	slog.Info("Searching attractions", "city", req.City, "limit", p.cfg.PlacesLimit)
	attractions, err := p.places.SearchAttractions(ctx, req.City, p.cfg.PlacesLimit)
	if err != nil {
		return nil, fmt.Errorf("search attractions: %w", err)
	}
	allowed := places.Names(attractions)

	recent, err := p.history.Recent(ctx, req.UserName, historyWindow)
	if err != nil {
		return nil, err
	}

	dates := BuildDates(start, req.Days)
	prompt, err := p.prompts.RenderPlan(prompts.PlanParams{
		UserName:    displayName(req.UserName),
		History:     historyLines(recent),
		City:        destinationName(city, req.City),
		Country:     city.Country,
		Days:        req.Days,
		Dates:       dates,
		SeasonLabel: profile.Label,
		SeasonNotes: profile.Notes,
		Vibe:        strings.TrimSpace(req.Vibe),
		Places:      allowed,
	})
	if err != nil {
		return nil, fmt.Errorf("render plan prompt: %w", err)
	}

	attempts := p.cfg.MaxAttempts
	if req.Fast {
		attempts = 1
	}

	slog.Info("Generating itinerary", "city", req.City, "days", req.Days, "places", len(allowed), "model", p.gen.Name())
	result, err := NewLoop(p.gen, p.prompts, attempts).Run(ctx, LoopInput{
		Prompt:    prompt,
		Allowed:   allowed,
		Days:      req.Days,
		Dates:     dates,
		MaxTokens: p.TokensFor(req.Days),
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Itinerary finished", "state", result.Trace.Last(), "attempts", result.Attempts, "validated", result.Validated)

	draft := itinerary.Parse(result.Text)
	if err := p.history.Append(ctx, history.Entry{
		UserName:   req.UserName,
		City:       req.City,
		StartDate:  req.StartDate,
		Days:       req.Days,
		ShortNotes: draft.FirstLine(0),
	}); err != nil {
		slog.Warn("Failed to save trip history", "error", err)
	}

	return &Plan{
		Itinerary:   result.Text,
		Validated:   result.Validated,
		City:        city,
		Season:      profile,
		Dates:       dates,
		Attractions: attractions,
		Allowed:     allowed,
		Trace:       result.Trace,
	}, nil
}

// destinationName prefers the geocoded name so a query like "Paris, France"
// does not repeat the country next to it in the prompt.
func destinationName(city *geo.City, query string) string {
	if name := strings.TrimSpace(city.Name); name != "" {
		return name
	}
	return strings.TrimSpace(query)
}

// TokensFor scales the generation budget with trip length.
func (p *Planner) TokensFor(days int) int {
	return min(p.cfg.TokenCap, p.cfg.TokenBase+p.cfg.TokensPerDay*days)
}

func (p *Planner) checkRequest(req Request) (time.Time, error) {
	if strings.TrimSpace(req.City) == "" {
		return time.Time{}, fmt.Errorf("%w: city is required", ErrInvalidRequest)
	}
	if req.Days < 1 || req.Days > p.cfg.MaxDays {
		return time.Time{}, fmt.Errorf("%w: days must be between 1 and %d", ErrInvalidRequest, p.cfg.MaxDays)
	}
	start, err := time.Parse(DateLayout, strings.TrimSpace(req.StartDate))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: start date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	return start, nil
}

// BuildDates returns one YYYY-MM-DD string per trip day starting at start.
func BuildDates(start time.Time, days int) []string {
	dates := make([]string, 0, days)
	for i := 0; i < days; i++ {
		dates = append(dates, start.AddDate(0, 0, i).Format(DateLayout))
	}
	return dates
}

func historyLines(entries []history.Entry) []string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s (%s, %d days)", e.City, e.StartDate, e.Days))
	}
	return lines
}

func displayName(name string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return "Anonymous"
}

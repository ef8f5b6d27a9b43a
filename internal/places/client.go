package places

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"googlemaps.github.io/maps"

	"travelops/internal/store"
)

const (
	DefaultSearchTTL = 24 * time.Hour
	DefaultPhotoTTL  = 7 * 24 * time.Hour
	DefaultLimit     = 8
	maxSafeLength    = 60
)

var ErrMissingAPIKey = errors.New("PLACES_API_KEY is not set")

type Photo struct {
	Reference    string   `json:"reference"`
	Width        int      `json:"width"`
	Height       int      `json:"height"`
	Attributions []string `json:"attributions"`
}

type Attraction struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Rating  float32 `json:"rating"`
	PlaceID string  `json:"place_id"`
	Photos  []Photo `json:"photos"`
}

type Config struct {
	APIKey    string
	BaseURL   string
	ImagesDir string
	SearchTTL time.Duration
	PhotoTTL  time.Duration
}

type Client struct {
	client    *maps.Client
	cache     *store.Cache
	imagesDir string
	searchTTL time.Duration
	photoTTL  time.Duration
}

func NewClient(cfg Config, cache *store.Cache) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}

	c := &Client{
		client:    client,
		cache:     cache,
		imagesDir: cfg.ImagesDir,
		searchTTL: cfg.SearchTTL,
		photoTTL:  cfg.PhotoTTL,
	}
	if c.searchTTL == 0 {
		c.searchTTL = DefaultSearchTTL
	}
	if c.photoTTL == 0 {
		c.photoTTL = DefaultPhotoTTL
	}
	if c.imagesDir == "" {
		c.imagesDir = filepath.Join("exports", "images")
	}
	return c, nil
}

// SearchAttractions returns up to limit top attractions for the city in the
// order the search API ranks them.
func (c *Client) SearchAttractions(ctx context.Context, city string, limit int) ([]Attraction, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	query := fmt.Sprintf("%s top attractions", strings.TrimSpace(city))
	cacheKey := fmt.Sprintf("places:textsearch:%s:%d", query, limit)

	var cached []Attraction
	if c.cache != nil {
		if ok, err := c.cache.Get(ctx, cacheKey, c.searchTTL, &cached); err == nil && ok {
			slog.Debug("Attractions cache hit", "query", query)
			return cached, nil
		}
	}

	resp, err := c.client.TextSearch(ctx, &maps.TextSearchRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	attractions := make([]Attraction, 0, limit)
	for _, result := range resp.Results {
		if len(attractions) >= limit {
			break
		}
		name := strings.TrimSpace(result.Name)
		if name == "" {
			continue
		}
		attractions = append(attractions, Attraction{
			Name:    name,
			Address: result.FormattedAddress,
			Rating:  result.Rating,
			PlaceID: result.PlaceID,
			Photos:  convertPhotos(result.Photos),
		})
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, attractions, c.searchTTL); err != nil {
			slog.Warn("Failed to cache attractions", "error", err)
		}
	}
	return attractions, nil
}

// DownloadPhoto stores the referenced photo under the images directory and
// returns its path. An empty path with nil error means the photo is not
// available.
func (c *Client) DownloadPhoto(ctx context.Context, ref, placeName string, maxWidth int) (string, error) {
	if ref == "" {
		return "", nil
	}
	cacheKey := fmt.Sprintf("photo:%s:%d", ref, maxWidth)

	if c.cache != nil {
		var cachedPath string
		if ok, err := c.cache.Get(ctx, cacheKey, c.photoTTL, &cachedPath); err == nil && ok {
			if _, statErr := os.Stat(cachedPath); statErr == nil {
				return cachedPath, nil
			}
		}
	}

	resp, err := c.client.PlacePhoto(ctx, &maps.PlacePhotoRequest{
		PhotoReference: ref,
		MaxWidth:       uint(maxWidth),
	})
	if err != nil {
		return "", fmt.Errorf("fetch photo: %w", err)
	}
	if resp.Data == nil {
		return "", nil
	}
	defer func() { _ = resp.Data.Close() }()

	if !strings.HasPrefix(resp.ContentType, "image/") {
		slog.Debug("Photo unavailable", "place", placeName, "content_type", resp.ContentType)
		return "", nil
	}

	if err := os.MkdirAll(c.imagesDir, 0755); err != nil {
		return "", fmt.Errorf("create images directory: %w", err)
	}
	path := filepath.Join(c.imagesDir, fmt.Sprintf("%s_%s.jpg", SafeName(placeName), SafeName(ref)))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create photo file: %w", err)
	}
	if _, err := io.Copy(f, resp.Data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write photo file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close photo file: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, path, c.photoTTL); err != nil {
			slog.Warn("Failed to cache photo path", "error", err)
		}
	}
	return path, nil
}

func Names(attractions []Attraction) []string {
	names := make([]string, 0, len(attractions))
	for _, a := range attractions {
		names = append(names, a.Name)
	}
	return names
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func SafeName(s string) string {
	safe := strings.Trim(unsafeChars.ReplaceAllString(s, "_"), "_")
	if len(safe) > maxSafeLength {
		safe = safe[:maxSafeLength]
	}
	if safe == "" {
		return "place"
	}
	return safe
}

func convertPhotos(photos []maps.Photo) []Photo {
	result := make([]Photo, 0, len(photos))
	for _, p := range photos {
		if p.PhotoReference == "" {
			continue
		}
		result = append(result, Photo{
			Reference:    p.PhotoReference,
			Width:        p.Width,
			Height:       p.Height,
			Attributions: p.HTMLAttributions,
		})
	}
	return result
}

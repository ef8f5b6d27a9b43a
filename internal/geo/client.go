package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"travelops/internal/season"
	"travelops/pkg/httputil"
)

const (
	baseURL        = "https://geocoding-api.open-meteo.com/v1/search"
	defaultTimeout = 20 * time.Second
	unknownCountry = "Unknown"
)

var ErrCityNotFound = errors.New("city not found, try 'City, Country'")

type City struct {
	Name       string
	Country    string
	Lat        float64
	Lon        float64
	Hemisphere season.Hemisphere
	Timezone   string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: httputil.NewRetryTransport(nil, httputil.DefaultRetryConfig()),
		},
		baseURL: baseURL,
	}
}

type searchResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Timezone  string  `json:"timezone"`
	} `json:"results"`
}

// Resolve looks up the best match for a free-text city query such as
// "Paris" or "Paris, France".
func (c *Client) Resolve(ctx context.Context, query string) (*City, error) {
	name := strings.TrimSpace(query)
	if name == "" {
		return nil, ErrCityNotFound
	}
	var countryHint string
	if idx := strings.Index(name, ","); idx >= 0 {
		countryHint = strings.TrimSpace(name[idx+1:])
		name = strings.TrimSpace(name[:idx])
	}

	params := url.Values{}
	params.Set("name", name)
	params.Set("count", "10")
	params.Set("language", "en")
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode %s: %w", query, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding api error: status %d: %s", resp.StatusCode, string(body))
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Results) == 0 {
		return nil, ErrCityNotFound
	}

	best := result.Results[0]
	if countryHint != "" {
		for _, r := range result.Results {
			if strings.EqualFold(r.Country, countryHint) {
				best = r
				break
			}
		}
	}

	country := best.Country
	if country == "" {
		country = unknownCountry
	}

	return &City{
		Name:       best.Name,
		Country:    country,
		Lat:        best.Latitude,
		Lon:        best.Longitude,
		Hemisphere: season.HemisphereOf(best.Latitude),
		Timezone:   best.Timezone,
	}, nil
}

package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"travelops/internal/itinerary"
	"travelops/internal/places"
)

const (
	MaxPhotos        = 6
	PhotoWidth       = 900
	maxCityNameChars = 40
	maxAttribution   = 300
)

type PhotoDownloader interface {
	DownloadPhoto(ctx context.Context, ref, placeName string, maxWidth int) (string, error)
}

// Filename builds "<city>_<start>_<days>d.pdf" keeping only letters, digits,
// underscores, hyphens and spaces from the city.
func Filename(city, startDate string, days int) string {
	var b strings.Builder
	for _, r := range city {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == ' ' {
			b.WriteRune(r)
		}
	}
	runes := []rune(b.String())
	if len(runes) > maxCityNameChars {
		runes = runes[:maxCityNameChars]
	}
	safe := strings.ReplaceAll(strings.TrimSpace(string(runes)), " ", "_")
	return fmt.Sprintf("%s_%s_%dd.pdf", safe, startDate, days)
}

func Title(city, startDate string, days int) string {
	return fmt.Sprintf("%d-Day Itinerary – %s (from %s)", days, city, startDate)
}

// UsedPlaces returns the places listed in the itinerary, falling back to
// allowed names mentioned anywhere in the text.
func UsedPlaces(text string, allowed []string) []string {
	if used := itinerary.ExtractPlacesUsed(text); len(used) > 0 {
		return used
	}
	lower := strings.ToLower(text)
	var used []string
	for _, name := range allowed {
		if name != "" && strings.Contains(lower, strings.ToLower(name)) {
			used = append(used, name)
		}
	}
	return used
}

// CollectPhotos downloads the first photo of each used attraction, in search
// order, up to MaxPhotos. Failed downloads are skipped.
func CollectPhotos(ctx context.Context, dl PhotoDownloader, text string, attractions []places.Attraction) ([]Image, []string) {
	used := make(map[string]bool)
	for _, name := range UsedPlaces(text, places.Names(attractions)) {
		used[strings.ToLower(strings.TrimSpace(name))] = true
	}

	var images []Image
	var attributions []string
	for _, a := range attractions {
		if a.Name == "" || !used[strings.ToLower(a.Name)] || len(a.Photos) == 0 {
			continue
		}
		photo := a.Photos[0]
		if photo.Reference == "" {
			continue
		}

		path, err := dl.DownloadPhoto(ctx, photo.Reference, a.Name, PhotoWidth)
		if err != nil {
			slog.Warn("Failed to download photo", "place", a.Name, "error", err)
		} else if path != "" {
			images = append(images, Image{Place: a.Name, Path: path})
		}

		if len(photo.Attributions) > 0 {
			attributions = append(attributions, truncate(a.Name+": "+strings.Join(photo.Attributions, " "), maxAttribution))
		}

		if len(images) >= MaxPhotos {
			break
		}
	}
	return images, attributions
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

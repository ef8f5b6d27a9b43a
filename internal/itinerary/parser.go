package itinerary

import (
	"regexp"
	"strconv"
	"strings"
)

type Day struct {
	Number int
	Date   string
	Line   string
}

type Draft struct {
	Text             string
	Days             []Day
	PlacesUsed       []string
	HasPlacesSection bool
}

var (
	dayHeaderPattern    = regexp.MustCompile(`^\s*Day\s+(\d+)\s*[–-]\s*(\d{4}-\d{2}-\d{2})\s*$`)
	placesMarkerPattern = regexp.MustCompile(`(?i)places used:`)
)

// Parse reads day headers and the trailing Places Used list. Missing sections
// leave the corresponding fields empty.
func Parse(text string) *Draft {
	draft := &Draft{
		Text: text,
		Days: make([]Day, 0),
	}

	for _, line := range strings.Split(text, "\n") {
		matches := dayHeaderPattern.FindStringSubmatch(line)
		if len(matches) != 3 {
			continue
		}
		number, err := strconv.Atoi(matches[1])
		if err != nil {
			continue
		}
		draft.Days = append(draft.Days, Day{
			Number: number,
			Date:   matches[2],
			Line:   strings.TrimSpace(line),
		})
	}

	draft.HasPlacesSection = hasPlacesMarker(text)
	draft.PlacesUsed = ExtractPlacesUsed(text)
	return draft
}

// ExtractPlacesUsed returns the bullet entries following the first
// "Places Used:" marker, stopping at a Notes: or Tips: line.
func ExtractPlacesUsed(text string) []string {
	loc := placesMarkerPattern.FindStringIndex(text)
	if loc == nil {
		return nil
	}

	places := make([]string, 0)
	for _, line := range strings.Split(text[loc[1]:], "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "notes:") || strings.HasPrefix(lower, "tips:") {
			break
		}
		if !strings.HasPrefix(line, "-") {
			continue
		}
		name := strings.TrimSpace(strings.TrimLeft(line, "-"))
		if name != "" {
			places = append(places, name)
		}
	}
	return places
}

// EnsurePlacesUsed appends a synthesized Places Used block listing every
// allowed name mentioned in the text. Text that already carries the marker is
// returned unchanged.
func EnsurePlacesUsed(text string, allowed []string) string {
	if hasPlacesMarker(text) {
		return text
	}

	lower := strings.ToLower(text)
	var found []string
	for _, name := range allowed {
		name = strings.TrimSpace(name)
		if name != "" && strings.Contains(lower, strings.ToLower(name)) {
			found = append(found, name)
		}
	}
	if len(found) == 0 {
		return text
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(text, " \t\r\n"))
	b.WriteString("\n\nPlaces Used:\n")
	for _, name := range found {
		b.WriteString("- ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	return b.String()
}

// FirstLine returns the first non-blank line, truncated to limit runes.
func (d *Draft) FirstLine(limit int) string {
	for _, line := range strings.Split(d.Text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if limit > 0 && len(runes) > limit {
			return string(runes[:limit])
		}
		return line
	}
	return ""
}

func hasPlacesMarker(text string) bool {
	return placesMarkerPattern.MatchString(text)
}

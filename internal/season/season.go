package season

import (
	"math"
	"strings"
	"time"
)

type Climate string

const (
	ClimateTemperate       Climate = "temperate-4-season"
	ClimateTropicalMonsoon Climate = "tropical-monsoon"
	ClimateTropicalGeneric Climate = "tropical-generic"
)

type Hemisphere string

const (
	Northern Hemisphere = "Northern"
	Southern Hemisphere = "Southern"
)

const tropicLatitude = 23.5

type Profile struct {
	Climate    Climate
	Label      string
	Hemisphere Hemisphere
	Country    string
	Notes      string
}

var monsoonCountries = map[string]bool{
	"indonesia":   true,
	"philippines": true,
	"singapore":   true,
	"malaysia":    true,
	"thailand":    true,
	"vietnam":     true,
	"cambodia":    true,
	"laos":        true,
	"brunei":      true,
}

func Classify(country string, lat float64) Climate {
	if monsoonCountries[strings.ToLower(strings.TrimSpace(country))] {
		return ClimateTropicalMonsoon
	}
	if math.Abs(lat) < tropicLatitude {
		return ClimateTropicalGeneric
	}
	return ClimateTemperate
}

func HemisphereOf(lat float64) Hemisphere {
	if lat >= 0 {
		return Northern
	}
	return Southern
}

// ProfileFor derives the season for the given location and travel month.
func ProfileFor(country string, lat float64, month time.Month) Profile {
	climate := Classify(country, lat)
	hemisphere := HemisphereOf(lat)

	var label, notes string
	switch climate {
	case ClimateTropicalMonsoon:
		label = monsoonLabel(strings.ToLower(strings.TrimSpace(country)), month)
		notes = monsoonNotes(label)
	case ClimateTropicalGeneric:
		if month >= time.June && month <= time.September {
			label = "Warm humid season"
		} else {
			label = "Hot humid season"
		}
		notes = "Warm/humid: mix outdoor with indoor rest."
	default:
		label = temperateLabel(hemisphere, month)
		notes = temperateNotes[label]
	}

	return Profile{
		Climate:    climate,
		Label:      label,
		Hemisphere: hemisphere,
		Country:    country,
		Notes:      notes,
	}
}

func temperateLabel(hemisphere Hemisphere, month time.Month) string {
	var label string
	switch month {
	case time.December, time.January, time.February:
		label = "Winter"
	case time.March, time.April, time.May:
		label = "Spring"
	case time.June, time.July, time.August:
		label = "Summer"
	default:
		label = "Autumn"
	}
	if hemisphere == Southern {
		return invertedSeasons[label]
	}
	return label
}

var invertedSeasons = map[string]string{
	"Winter": "Summer",
	"Summer": "Winter",
	"Spring": "Autumn",
	"Autumn": "Spring",
}

var temperateNotes = map[string]string{
	"Winter": "Cold/short daylight: prefer indoor + short outdoor highlights.",
	"Summer": "Warm/hot: use mornings/evenings; avoid midday heat; hydrate.",
	"Spring": "Mild: great for parks and walking routes.",
	"Autumn": "Cooler: mix indoor/outdoor; possible autumn colors.",
}

func monsoonLabel(country string, month time.Month) string {
	if country == "philippines" {
		switch month {
		case time.December, time.January, time.February:
			return "Cool dry season"
		case time.March, time.April, time.May:
			return "Hot dry season"
		default:
			return "Rainy season"
		}
	}

	switch month {
	case time.November, time.December, time.January, time.February, time.March:
		return "Rainy season"
	default:
		return "Dry season"
	}
}

func monsoonNotes(label string) string {
	switch label {
	case "Rainy season":
		return "Humid with frequent rain: plan indoor-heavy with flexible backups."
	case "Cool dry season":
		return "Relatively cooler/drier: great for outdoor sightseeing."
	case "Hot dry season":
		return "Hot and sunny: avoid midday heat; shade breaks."
	default:
		return "Warm tropical: mix outdoor with indoor rest."
	}
}

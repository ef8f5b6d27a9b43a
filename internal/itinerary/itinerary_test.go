package itinerary

import (
	"reflect"
	"strings"
	"testing"
)

var testAllowed = []string{"Louvre Museum", "Eiffel Tower", "Musée d'Orsay", "Sainte-Chapelle"}

const wellFormed = `Day 1 – 2024-06-01
Morning: Louvre Museum
Afternoon: walk along the Seine
Evening: Eiffel Tower

Day 2 – 2024-06-02
Morning: Musée d'Orsay
Afternoon: Sainte-Chapelle
Evening: dinner in the Marais

Places Used:
- Louvre Museum
- Eiffel Tower
- Musée d'Orsay
- Sainte-Chapelle
`

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantDays   []int
		wantPlaces []string
		wantMarker bool
	}{
		{
			name:       "wellFormed",
			input:      wellFormed,
			wantDays:   []int{1, 2},
			wantPlaces: []string{"Louvre Museum", "Eiffel Tower", "Musée d'Orsay", "Sainte-Chapelle"},
			wantMarker: true,
		},
		{
			name:       "hyphenSeparator",
			input:      "Day 1 - 2024-06-01\nMorning: Louvre Museum",
			wantDays:   []int{1},
			wantMarker: false,
		},
		{
			name:       "headerWithTrailingText",
			input:      "Day 1 – 2024-06-01 (arrival)\nMorning: rest",
			wantDays:   []int{},
			wantMarker: false,
		},
		{
			name:       "markerWithoutBullets",
			input:      "Day 1 – 2024-06-01\nPlaces Used:\nnone",
			wantDays:   []int{1},
			wantPlaces: []string{},
			wantMarker: true,
		},
		{
			name:       "empty",
			input:      "",
			wantDays:   []int{},
			wantMarker: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := Parse(tt.input)

			gotDays := make([]int, 0, len(draft.Days))
			for _, d := range draft.Days {
				gotDays = append(gotDays, d.Number)
			}
			if !reflect.DeepEqual(gotDays, tt.wantDays) {
				t.Errorf("Days = %v, want %v", gotDays, tt.wantDays)
			}
			if draft.HasPlacesSection != tt.wantMarker {
				t.Errorf("HasPlacesSection = %v, want %v", draft.HasPlacesSection, tt.wantMarker)
			}
			if len(draft.PlacesUsed) != len(tt.wantPlaces) {
				t.Fatalf("PlacesUsed = %v, want %v", draft.PlacesUsed, tt.wantPlaces)
			}
			for i := range tt.wantPlaces {
				if draft.PlacesUsed[i] != tt.wantPlaces[i] {
					t.Errorf("PlacesUsed[%d] = %q, want %q", i, draft.PlacesUsed[i], tt.wantPlaces[i])
				}
			}
		})
	}
}

func TestExtractPlacesUsed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "stopsAtNotes",
			input: "Places Used:\n- Louvre Museum\n- Eiffel Tower\nNotes:\n- bring water",
			want:  []string{"Louvre Museum", "Eiffel Tower"},
		},
		{
			name:  "stopsAtTips",
			input: "places used:\n- Louvre Museum\ntips: go early\n- Eiffel Tower",
			want:  []string{"Louvre Museum"},
		},
		{
			name:  "skipsNonBulletLines",
			input: "PLACES USED:\n\n- Louvre Museum\nsee above\n-  Eiffel Tower  ",
			want:  []string{"Louvre Museum", "Eiffel Tower"},
		},
		{
			name:  "noMarker",
			input: "Day 1 – 2024-06-01\n- Louvre Museum",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractPlacesUsed(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractPlacesUsed() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("ExtractPlacesUsed()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExtractPlacesUsedIdempotent(t *testing.T) {
	text := "Day 1 – 2024-06-01\nMorning: Louvre Museum then Eiffel Tower"
	ensured := EnsurePlacesUsed(text, testAllowed)

	first := ExtractPlacesUsed(ensured)
	second := ExtractPlacesUsed(ensured)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("ExtractPlacesUsed() not idempotent: %v vs %v", first, second)
	}

	want := []string{"Louvre Museum", "Eiffel Tower"}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("ExtractPlacesUsed() = %v, want %v", first, want)
	}

	if again := EnsurePlacesUsed(ensured, testAllowed); again != ensured {
		t.Errorf("EnsurePlacesUsed() changed text that already has a Places Used section")
	}
}

func TestEnsurePlacesUsed(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantBlock bool
	}{
		{
			name:      "appendsMatches",
			input:     "Day 1 – 2024-06-01\nMorning: louvre museum\n\n",
			wantBlock: true,
		},
		{
			name:      "noMatchesLeavesText",
			input:     "Day 1 – 2024-06-01\nMorning: a café",
			wantBlock: false,
		},
		{
			name:      "existingMarker",
			input:     "Day 1 – 2024-06-01\nplaces used:\n- Nowhere",
			wantBlock: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnsurePlacesUsed(tt.input, testAllowed)
			added := got != tt.input
			if added != tt.wantBlock {
				t.Fatalf("EnsurePlacesUsed() added block = %v, want %v\n%s", added, tt.wantBlock, got)
			}
			if tt.wantBlock && !strings.Contains(got, "\n\nPlaces Used:\n- Louvre Museum\n") {
				t.Errorf("EnsurePlacesUsed() = %q, missing synthesized block", got)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	missingDay := strings.Replace(wellFormed, "Day 2 – 2024-06-02", "Day two", 1)
	invented := strings.Replace(wellFormed, "- Sainte-Chapelle", "- Atlantis Aquarium", 1)
	noSection := strings.Split(wellFormed, "Places Used:")[0]

	tests := []struct {
		name     string
		input    string
		days     int
		wantOK   bool
		wantText string
	}{
		{
			name:   "wellFormed",
			input:  wellFormed,
			days:   2,
			wantOK: true,
		},
		{
			name:     "missingDay",
			input:    missingDay,
			days:     2,
			wantText: "FIX: Itinerary must contain exactly Day 1 through Day 2 with YYYY-MM-DD (no missing days).",
		},
		{
			name:     "tooManyDays",
			input:    wellFormed,
			days:     1,
			wantText: "Day 1 through Day 1",
		},
		{
			name:     "missingPlacesSection",
			input:    noSection,
			days:     2,
			wantText: "FIX: Add a final section 'Places Used:'",
		},
		{
			name:     "disallowedPlace",
			input:    invented,
			days:     2,
			wantText: "FIX: Replace non-allowed place names",
		},
		{
			name:   "caseInsensitiveNames",
			input:  strings.Replace(wellFormed, "- Eiffel Tower", "-   EIFFEL TOWER ", 1),
			days:   2,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.input, testAllowed, tt.days)
			if got.IsOK() != tt.wantOK {
				t.Fatalf("Validate() = %q, wantOK %v", got.String(), tt.wantOK)
			}
			if tt.wantOK {
				if got.String() != "OK" {
					t.Errorf("String() = %q, want OK", got.String())
				}
				return
			}
			if !strings.Contains(got.String(), tt.wantText) {
				t.Errorf("Validate() = %q, want containing %q", got.String(), tt.wantText)
			}
		})
	}
}

func TestValidateReply(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantOK   bool
		wantText string
	}{
		{"itinerary", wellFormed, true, ""},
		{"fixPrefixedItinerary", "FIX: Itinerary must contain exactly Day 1 through Day 2\n" + wellFormed, false, "without any OK or FIX: line"},
		{"bareOK", "OK", false, "without any OK or FIX: line"},
		{"empty", "  ", false, "without any OK or FIX: line"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateReply(tt.input, testAllowed, 2)
			if got.IsOK() != tt.wantOK {
				t.Fatalf("ValidateReply() = %q, wantOK %v", got.String(), tt.wantOK)
			}
			if !tt.wantOK && !strings.Contains(got.String(), tt.wantText) {
				t.Errorf("ValidateReply() = %q, want containing %q", got.String(), tt.wantText)
			}
		})
	}
}

func TestIsControlToken(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"ok", "OK", true},
		{"okLower", "  ok \n", true},
		{"fix", "FIX: add Day 3", true},
		{"fixLowerIndented", "\n\t fix: something", true},
		{"empty", "", true},
		{"whitespace", "   \n ", true},
		{"itinerary", "Day 1 – 2024-06-01\nMorning: Louvre Museum", false},
		{"okInsideText", "OK, here is your plan:\nDay 1 – 2024-06-01", false},
		{"fixLater", "Day 1 – 2024-06-01\nFIX: nothing", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsControlToken(tt.input); got != tt.want {
				t.Errorf("IsControlToken(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDraftFirstLine(t *testing.T) {
	draft := Parse("\n\n  " + strings.Repeat("a", 250) + "\nsecond")
	if got := draft.FirstLine(200); len(got) != 200 {
		t.Errorf("FirstLine(200) length = %d, want 200", len(got))
	}
	if got := Parse("").FirstLine(200); got != "" {
		t.Errorf("FirstLine() on empty = %q, want empty", got)
	}
}

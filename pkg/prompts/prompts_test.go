package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	p, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	fields := map[string]string{
		"System.Planner":       p.System.Planner,
		"System.Repair":        p.System.Repair,
		"System.Summarizer":    p.System.Summarizer,
		"Planner.Plan":         p.Planner.Plan,
		"Planner.Repair":       p.Planner.Repair,
		"Summarizer.Summarize": p.Summarizer.Summarize,
	}
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(originalWd) }()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}

	p, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !strings.Contains(p.Planner.Plan, "Mode: Planner") {
		t.Errorf("Planner.Plan = %q, want built-in prompt", p.Planner.Plan)
	}
}

func TestLoadFromMergesOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	promptsPath := filepath.Join(tmpDir, "custom.yaml")

	promptsContent := `
system:
  planner: "Custom planner"
summarizer:
  summarize: "Summarize {{.Text}}"
`
	if err := os.WriteFile(promptsPath, []byte(promptsContent), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadFrom(promptsPath)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if p.System.Planner != "Custom planner" {
		t.Errorf("System.Planner = %q, want Custom planner", p.System.Planner)
	}
	if p.System.Repair == "" {
		t.Error("System.Repair should keep the built-in value")
	}

	got, err := p.RenderSummarize(SummarizeParams{Text: "flight AF123"})
	if err != nil {
		t.Fatalf("RenderSummarize() error = %v", err)
	}
	if got != "Summarize flight AF123" {
		t.Errorf("RenderSummarize() = %q", got)
	}
}

func TestLoadFromErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		create  bool
	}{
		{"missingFile", "", false},
		{"invalidYAML", "system: [unclosed", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "prompts.yaml")
			if tt.create {
				if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
					t.Fatal(err)
				}
			}
			if _, err := LoadFrom(path); err == nil {
				t.Error("LoadFrom() expected error")
			}
		})
	}
}

func TestRenderPlan(t *testing.T) {
	p, err := Default()
	if err != nil {
		t.Fatal(err)
	}

	got, err := p.RenderPlan(PlanParams{
		UserName:    "Alice",
		History:     []string{"Rome, 2024-03-01, 3 days"},
		City:        "Paris",
		Country:     "France",
		Days:        2,
		Dates:       []string{"2024-06-01", "2024-06-02"},
		SeasonLabel: "Summer",
		SeasonNotes: "Warm",
		Vibe:        "museums",
		Places:      []string{"Louvre Museum", "Eiffel Tower"},
	})
	if err != nil {
		t.Fatalf("RenderPlan() error = %v", err)
	}

	for _, want := range []string{
		"Traveler: Alice",
		"- Rome, 2024-03-01, 3 days",
		"Destination: Paris, France",
		"Dates: 2024-06-01, 2024-06-02",
		"Day 1 through Day 2",
		"Vibe: museums",
		"Day 1 – 2024-06-01",
		"- Louvre Museum",
		"- Eiffel Tower",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderPlan() missing %q in:\n%s", want, got)
		}
	}

	if _, err := p.RenderPlan(PlanParams{}); err == nil {
		t.Error("RenderPlan() without dates should fail")
	}
}

func TestRenderRepair(t *testing.T) {
	p, err := Default()
	if err != nil {
		t.Fatal(err)
	}

	got, err := p.RenderRepair(RepairParams{
		Instruction: "Add a final section 'Places Used:'",
		Days:        3,
		Dates:       []string{"2024-06-01", "2024-06-02", "2024-06-03"},
		Places:      []string{"Louvre Museum"},
		Itinerary:   "Day 1 – 2024-06-01",
	})
	if err != nil {
		t.Fatalf("RenderRepair() error = %v", err)
	}
	for _, want := range []string{"Instruction: Add a final section", "Day 1 through Day 3", "- Louvre Museum", "NOT 'OK', NOT 'FIX:'"} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderRepair() missing %q", want)
		}
	}
}

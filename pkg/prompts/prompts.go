package prompts

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

const defaultPromptsPath = "prompts.yaml"

//go:embed prompts.yaml
var defaultPrompts []byte

type Prompts struct {
	System     SystemPrompts     `yaml:"system"`
	Planner    PlannerPrompts    `yaml:"planner"`
	Summarizer SummarizerPrompts `yaml:"summarizer"`
}

type SystemPrompts struct {
	Planner    string `yaml:"planner"`
	Repair     string `yaml:"repair"`
	Summarizer string `yaml:"summarizer"`
}

type PlannerPrompts struct {
	Plan   string `yaml:"plan"`
	Repair string `yaml:"repair"`
}

type SummarizerPrompts struct {
	Summarize string `yaml:"summarize"`
}

type PlanParams struct {
	UserName    string
	History     []string
	City        string
	Country     string
	Days        int
	Dates       []string
	SeasonLabel string
	SeasonNotes string
	Vibe        string
	Places      []string
}

type RepairParams struct {
	Instruction string
	Days        int
	Dates       []string
	Places      []string
	Itinerary   string
}

type SummarizeParams struct {
	Source string
	Text   string
}

var funcs = template.FuncMap{
	"join": strings.Join,
}

// Load reads prompts.yaml from the working directory when present and fills
// anything it leaves out from the built-in prompts.
func Load() (*Prompts, error) {
	p, err := LoadFrom(defaultPromptsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Default()
	}
	return p, err
}

func LoadFrom(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	p, err := Default()
	if err != nil {
		return nil, err
	}

	var override Prompts
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	p.merge(override)

	return p, nil
}

func Default() (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(defaultPrompts, &p); err != nil {
		return nil, fmt.Errorf("failed to parse default prompts: %w", err)
	}
	return &p, nil
}

func (p *Prompts) merge(o Prompts) {
	setIfPresent(&p.System.Planner, o.System.Planner)
	setIfPresent(&p.System.Repair, o.System.Repair)
	setIfPresent(&p.System.Summarizer, o.System.Summarizer)
	setIfPresent(&p.Planner.Plan, o.Planner.Plan)
	setIfPresent(&p.Planner.Repair, o.Planner.Repair)
	setIfPresent(&p.Summarizer.Summarize, o.Summarizer.Summarize)
}

func setIfPresent(dst *string, value string) {
	if strings.TrimSpace(value) != "" {
		*dst = value
	}
}

func (p *Prompts) RenderPlan(params PlanParams) (string, error) {
	if len(params.Dates) == 0 {
		return "", fmt.Errorf("plan prompt needs at least one date")
	}
	return render(p.Planner.Plan, params)
}

func (p *Prompts) RenderRepair(params RepairParams) (string, error) {
	return render(p.Planner.Repair, params)
}

func (p *Prompts) RenderSummarize(params SummarizeParams) (string, error) {
	return render(p.Summarizer.Summarize, params)
}

func render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Funcs(funcs).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

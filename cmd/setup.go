package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"

	"travelops/internal/llm"
	"travelops/internal/llm/ollama"
)

const ollamaPingTimeout = 5 * time.Second

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard for Travelops",
	Long:  `Check the language model backend, create directories, and write the .env file.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("🧭 Travelops Setup"))

	env := make(map[string]string)

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Creating directories", createDirectories},
		{"Choosing model backend", func() error { return configureLLM(cmd.Context(), env) }},
		{"Configuring environment", func() error { return configureEnv(env) }},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	return nil
}

func createDirectories() error {
	dirs := []string{"exports/images", "exports/itineraries", "uploads", "data"}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	fmt.Println(successStyle.Render("✓ Created directories"))
	return nil
}

func configureLLM(ctx context.Context, env map[string]string) error {
	var provider string
	if err := huh.NewSelect[string]().
		Title("Language model backend").
		Options(
			huh.NewOption("Ollama (local)", llm.ProviderOllama),
			huh.NewOption("Groq", llm.ProviderGroq),
			huh.NewOption("Gemini", llm.ProviderGemini),
			huh.NewOption("OpenAI-compatible", llm.ProviderOpenAI),
		).
		Value(&provider).
		Run(); err != nil {
		return err
	}
	env["LLM_PROVIDER"] = provider

	switch provider {
	case llm.ProviderOllama:
		return configureOllama(ctx, env)
	case llm.ProviderGroq:
		return askKey(env, "GROQ_API_KEY", "GROQ API Key", "https://console.groq.com/keys")
	case llm.ProviderGemini:
		return askKey(env, "GEMINI_API_KEY", "Gemini API Key", "https://aistudio.google.com/app/apikey")
	default:
		return askKey(env, "OPENAI_API_KEY", "OpenAI API Key", "https://platform.openai.com/api-keys")
	}
}

func configureOllama(ctx context.Context, env map[string]string) error {
	host, model := ollama.DefaultHost, ollama.DefaultModel
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Ollama host").
				Value(&host).
				Validate(required("Ollama host")),
			huh.NewInput().
				Title("Ollama model").
				Value(&model).
				Validate(required("Ollama model")),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	host, model = strings.TrimSpace(host), strings.TrimSpace(model)
	env["OLLAMA_HOST"] = host
	env["OLLAMA_MODEL"] = model

	client, err := ollama.NewClient(ollama.Config{Host: host, Model: model, ConnectTimeout: ollamaPingTimeout})
	if err != nil {
		return err
	}

	err = runWithSpinner("Checking Ollama at "+client.Host(), func() error {
		pingCtx, cancel := context.WithTimeout(ctx, ollamaPingTimeout)
		defer cancel()
		return client.Ping(pingCtx)
	})
	if err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Ollama not reachable: %v", err)))
		fmt.Println(infoStyle.Render("Start it with: ollama serve"))
		return nil
	}

	if !commandExists("ollama") {
		return nil
	}

	var pull bool
	if err := huh.NewConfirm().
		Title("Pull " + model + " now?").
		Description("Downloads the model if it is not present yet").
		Value(&pull).
		Run(); err != nil {
		return err
	}
	if pull {
		if err := runWithSpinner("Pulling "+model, func() error {
			return runSetupCmd("ollama", "pull", model)
		}); err != nil {
			fmt.Println(warnStyle.Render(fmt.Sprintf("Model pull failed: %v", err)))
		}
	}
	return nil
}

func configureEnv(env map[string]string) error {
	if _, err := os.Stat(".env"); err == nil {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing .env file").
			Description("Overwrite?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(infoStyle.Render("Kept existing .env"))
			return nil
		}
	}

	if err := askKey(env, "PLACES_API_KEY", "Google Places API Key", "https://console.cloud.google.com/apis/credentials"); err != nil {
		return err
	}

	if err := configureGCP(env); err != nil {
		return err
	}

	if err := configureSMTP(env); err != nil {
		return err
	}

	return writeEnvFile(env)
}

func configureGCP(env map[string]string) error {
	var setupGCP bool
	if err := huh.NewConfirm().
		Title("Setup Google Cloud?").
		Description("Optional: Secret Manager for keys and a bucket for exported PDFs").
		Value(&setupGCP).
		Run(); err != nil {
		return err
	}

	if !setupGCP {
		return nil
	}

	if !commandExists("gcloud") {
		fmt.Println(warnStyle.Render("gcloud CLI not found - install from https://cloud.google.com/sdk/docs/install"))
		return nil
	}

	project := getActiveProject()
	if err := huh.NewInput().
		Title("Project ID").
		Value(&project).
		Validate(required("Project ID")).
		Run(); err != nil {
		return err
	}
	project = strings.TrimSpace(project)
	env["GOOGLE_CLOUD_PROJECT"] = project

	apis := []string{
		"places-backend.googleapis.com",
		"secretmanager.googleapis.com",
		"storage.googleapis.com",
	}
	if err := runWithSpinner("Enabling APIs", func() error {
		args := append([]string{"services", "enable"}, apis...)
		args = append(args, "--project", project)
		return runSetupCmd("gcloud", args...)
	}); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("API enablement failed: %v", err)))
	}

	var bucket string
	if err := huh.NewInput().
		Title("GCS bucket for PDF exports").
		Description("Leave empty to keep exports local only").
		Value(&bucket).
		Run(); err != nil {
		return err
	}
	if bucket = strings.TrimSpace(bucket); bucket != "" {
		env["GCS_BUCKET"] = bucket
		fmt.Println(infoStyle.Render("Enable uploads with export.gcs.enabled: true in config.yaml"))
	}
	return nil
}

func getActiveProject() string {
	out, err := exec.Command("gcloud", "config", "get-value", "project").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func configureSMTP(env map[string]string) error {
	var setup bool
	if err := huh.NewConfirm().
		Title("Setup email delivery?").
		Description("Send summaries and itineraries by SMTP (optional)").
		Value(&setup).
		Run(); err != nil {
		return err
	}

	if !setup {
		return nil
	}

	var host, port, user, pass, from string
	port = "587"
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("SMTP host").Value(&host).Validate(required("SMTP host")),
			huh.NewInput().Title("SMTP port").Value(&port),
			huh.NewInput().Title("SMTP user").Value(&user),
			huh.NewInput().Title("SMTP password").EchoMode(huh.EchoModePassword).Value(&pass),
			huh.NewInput().Title("From address").Description("Defaults to the SMTP user").Value(&from),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	env["SMTP_HOST"] = strings.TrimSpace(host)
	env["SMTP_PORT"] = strings.TrimSpace(port)
	env["SMTP_USER"] = strings.TrimSpace(user)
	env["SMTP_PASS"] = strings.TrimSpace(pass)
	env["EMAIL_FROM"] = strings.TrimSpace(from)
	return nil
}

func askKey(env map[string]string, key, title, description string) error {
	var value string
	if err := huh.NewInput().
		Title(title).
		Description(description).
		EchoMode(huh.EchoModePassword).
		Value(&value).
		Validate(required(title)).
		Run(); err != nil {
		return err
	}
	env[key] = strings.TrimSpace(value)
	return nil
}

func writeEnvFile(env map[string]string) error {
	f, err := os.Create(".env")
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	order := []string{
		"LLM_PROVIDER",
		"OLLAMA_HOST",
		"OLLAMA_MODEL",
		"GROQ_API_KEY",
		"GEMINI_API_KEY",
		"OPENAI_API_KEY",
		"PLACES_API_KEY",
		"GOOGLE_CLOUD_PROJECT",
		"GCS_BUCKET",
		"SMTP_HOST",
		"SMTP_PORT",
		"SMTP_USER",
		"SMTP_PASS",
		"EMAIL_FROM",
	}

	for _, key := range order {
		if val, ok := env[key]; ok && val != "" {
			_, _ = fmt.Fprintf(f, "%s=%s\n", key, val)
		}
	}

	fmt.Println(successStyle.Render("✓ Created .env file"))
	printNextSteps()
	return nil
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Summarize a booking: travelops summarize ./booking.pdf")
	fmt.Println("  2. Plan a trip: travelops plan --city \"Lisbon\" --start 2025-05-10 --days 3")
	fmt.Println("  3. Serve the API: travelops serve")
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runSetupCmd(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %s", err, stderr.String())
	}
	return nil
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}

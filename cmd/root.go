package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"travelops/internal/app"
	"travelops/internal/extract/tesseract"
	"travelops/pkg/config"
)

var (
	verbose    bool
	configPath string
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

var rootCmd = &cobra.Command{
	Use:   "travelops",
	Short: "Plan trips and summarize bookings with a language model",
	Long: `Travelops summarizes booking documents and ticket screenshots, plans
day-by-day itineraries restricted to real attractions, exports them as PDF
with photos and can email the results.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogger()
	}
}

func Execute() error {
	return rootCmd.Execute()
}

func setupLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func buildService(ctx context.Context) (*app.Service, error) {
	cfg, err := config.LoadFrom(ctx, configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return app.BuildService(ctx, cfg, app.BuildOptions{
		OCR: tesseract.New(cfg.OCR.Languages...),
	})
}

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"travelops/internal/app"
	"travelops/internal/server"
	"travelops/internal/storage"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg := service.Config()
	opts := server.Options{
		Backend:     app.NewPipeline(service),
		Storage:     service.Storage(),
		MaxUploadMB: cfg.Server.MaxUploadMB,
		MaxDays:     cfg.Planner.MaxDays,
	}
	if fetcher, ok := service.Uploader().(storage.Fetcher); ok {
		opts.Fetcher = fetcher
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	return server.New(opts).Run(ctx, addr)
}

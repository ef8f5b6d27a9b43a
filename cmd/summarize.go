package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"travelops/internal/app"
)

var summarizeEmail string

var summarizeCmd = &cobra.Command{
	Use:   "summarize <path>",
	Short: "Summarize a booking PDF or ticket image",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarize,
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeEmail, "email", "", "Send the summary to this address")
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	service, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	result, err := app.NewPipeline(service).Summarize(ctx, app.SummarizeRequest{
		Path:  args[0],
		Email: summarizeEmail,
	})
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("Travel Summary"))
	fmt.Println(result.Summary)
	if result.Emailed {
		fmt.Println(successStyle.Render("✓ Emailed to " + summarizeEmail))
	}
	return nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"travelops/internal/app"
)

var exportsCmd = &cobra.Command{
	Use:   "exports",
	Short: "List exported PDF itineraries",
	Long:  `List PDFs in the local itineraries directory and, when uploads are enabled, in the GCS bucket.`,
	RunE:  runExports,
}

func init() {
	rootCmd.AddCommand(exportsCmd)
}

func runExports(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	service, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	list, err := app.NewPipeline(service).Exports(ctx)
	if err != nil {
		return err
	}

	printExports("Local", list.Local)
	if service.Uploader() != nil {
		printExports("Bucket", list.Remote)
	}
	return nil
}

func printExports(title string, names []string) {
	fmt.Println(titleStyle.Render(title))
	if len(names) == 0 {
		fmt.Println(infoStyle.Render("  none"))
		return
	}
	for _, name := range names {
		fmt.Println("  " + name)
	}
}

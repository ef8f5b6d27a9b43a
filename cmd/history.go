package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"travelops/internal/app"
)

var historyUser string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent trips for a traveler",
	RunE:  runHistory,
}

var clearHistoryCmd = &cobra.Command{
	Use:   "clear-history",
	Short: "Clear the trip history",
	Long:  `Remove all recorded trips for a traveler.`,
	RunE:  runClearHistory,
}

func init() {
	for _, c := range []*cobra.Command{historyCmd, clearHistoryCmd} {
		c.Flags().StringVarP(&historyUser, "user", "u", "", "Traveler name (default anonymous)")
		rootCmd.AddCommand(c)
	}
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	service, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	entries, err := app.NewPipeline(service).History(ctx, historyUser)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println(infoStyle.Render("No trips recorded yet"))
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%s  %s (%s, %d days)\n", e.CreatedAt.Local().Format("2006-01-02 15:04"), e.City, e.StartDate, e.Days)
		if e.ShortNotes != "" {
			fmt.Println("    " + e.ShortNotes)
		}
	}
	return nil
}

func runClearHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	service, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	count, err := app.NewPipeline(service).ClearHistory(ctx, historyUser)
	if err != nil {
		return err
	}

	fmt.Printf("Cleared %d trip(s) from history\n", count)
	return nil
}

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"travelops/internal/app"
	"travelops/internal/planner"
)

type tripFlags struct {
	city  string
	start string
	days  int
	user  string
	vibe  string
	fast  bool
	email string
}

func (f *tripFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.city, "city", "", "Destination city, e.g. \"Paris, France\"")
	cmd.Flags().StringVar(&f.start, "start", "", "First day of the trip (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&f.days, "days", "d", 3, "Number of days")
	cmd.Flags().StringVarP(&f.user, "user", "u", "", "Traveler name used for trip history")
	cmd.Flags().StringVar(&f.vibe, "vibe", "", "Free-text preferences, e.g. \"food, museums\"")
	cmd.Flags().BoolVar(&f.fast, "fast", false, "Single generation attempt without repair")
	cmd.Flags().StringVar(&f.email, "email", "", "Send the result to this address")
}

func (f *tripFlags) request() (app.PlanRequest, error) {
	if f.city == "" || f.start == "" {
		return app.PlanRequest{}, errors.New("please provide --city and --start")
	}
	return app.PlanRequest{
		Request: planner.Request{
			City:      f.city,
			StartDate: f.start,
			Days:      f.days,
			UserName:  f.user,
			Vibe:      f.vibe,
			Fast:      f.fast,
		},
		Email: f.email,
	}, nil
}

var (
	planFlags   tripFlags
	exportFlags tripFlags
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a day-by-day itinerary",
	Long: `Generate an itinerary for a city and date range. Only attractions found by
the places search may appear in the plan.`,
	RunE: runPlan,
}

var exportCmd = &cobra.Command{
	Use:   "export-pdf",
	Short: "Generate an itinerary and export it as PDF with photos",
	RunE:  runExport,
}

func init() {
	planFlags.register(planCmd)
	exportFlags.register(exportCmd)
	rootCmd.AddCommand(planCmd, exportCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	req, err := planFlags.request()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	service, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	result, err := app.NewPipeline(service).Plan(ctx, req)
	if err != nil {
		return err
	}

	printPlan(result.Plan)
	if result.Emailed {
		fmt.Println(successStyle.Render("✓ Emailed to " + req.Email))
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	req, err := exportFlags.request()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	service, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	result, err := app.NewPipeline(service).ExportPDF(ctx, req)
	if err != nil {
		return err
	}

	printPlan(result.Plan)
	fmt.Println(successStyle.Render(fmt.Sprintf("✓ PDF saved to %s (%d photos)", result.PDFPath, result.Photos)))
	if result.RemoteURI != "" {
		fmt.Println(infoStyle.Render("Uploaded to " + result.RemoteURI))
	}
	if result.Emailed {
		fmt.Println(successStyle.Render("✓ Emailed to " + req.Email))
	}
	return nil
}

func printPlan(plan *planner.Plan) {
	header := fmt.Sprintf("%s, %s · %s", plan.City.Name, plan.City.Country, plan.Season.Label)
	fmt.Println(titleStyle.Render(header))
	fmt.Println(plan.Itinerary)
	fmt.Println()
	if !plan.Validated {
		fmt.Println(warnStyle.Render("! Itinerary did not pass every check, review it before travelling"))
	}
}

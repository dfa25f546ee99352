package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"kisanrakshak/ai"
	"kisanrakshak/app"
	"kisanrakshak/domain/mandi"
	"kisanrakshak/domain/weather"
	"kisanrakshak/internal/container"
	"kisanrakshak/models"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// openFlows builds the flow service without a database. Uploads are
// unavailable and LLM usage is not recorded.
func openFlows(ctx context.Context, withLLM bool) (*app.FlowService, func(), error) {
	c, err := container.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = c.Shutdown(context.Background()) }

	var rt *ai.Runtime
	if withLLM {
		if err := c.InitLLM(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		rt = ai.NewRuntime(c.LLM, ai.NewPromptManager(cfg.LLM.PromptsDir, logger), nil, cfg.LLM, logger)
	}

	flows := app.NewFlowService(app.FlowDeps{
		Runtime: rt,
		Prices:  c.Mandi,
		Weather: c.Weather,
		Schemes: c.Schemes,
		Finance: c.Finance,
		Speech:  c.Speech,
		Logger:  logger,
	})
	return flows, closeFn, nil
}

func newPricesCmd() *cobra.Command {
	var q mandi.Query
	var xlsxPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "prices <commodity>",
		Short: "Show recent mandi prices for a commodity",
		Long: `Fetch recent mandi arrivals from data.gov.in and summarize them.

Example: kisan prices Wheat --state Punjab --limit 50 --xlsx wheat.xlsx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q.Commodity = strings.Join(args, " ")
			q = q.Normalize()

			flows, closeFn, err := openFlows(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeFn()

			if xlsxPath != "" {
				f, err := os.Create(xlsxPath)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", xlsxPath, err)
				}
				if err := flows.ExportPrices(cmd.Context(), q, f); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				cmd.Printf("wrote %s\n", xlsxPath)
				return nil
			}

			report, err := flows.Prices(cmd.Context(), q)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), report)
			}
			printPriceReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().StringVar(&q.State, "state", "", "State filter")
	cmd.Flags().StringVar(&q.District, "district", "", "District filter")
	cmd.Flags().StringVar(&q.Market, "market", "", "Market filter")
	cmd.Flags().IntVar(&q.Limit, "limit", 100, "Maximum records to fetch")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write an Excel workbook to this path instead of printing")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func printPriceReport(cmd *cobra.Command, report *app.PriceReport) {
	if len(report.Records) == 0 {
		cmd.Println(warnStyle.Render("no price records found"))
		return
	}

	rows := make([][]string, 0, len(report.Records))
	for _, r := range report.Records {
		rows = append(rows, []string{
			r.ArrivalDate.Format("2006-01-02"), r.Market, r.District, r.Variety,
			rupees(r.MinPrice), rupees(r.MaxPrice), rupees(r.ModalPrice),
		})
	}
	cmd.Println(renderTable([]string{"Date", "Market", "District", "Variety", "Min", "Max", "Modal"}, rows))

	if s := report.Summary; s != nil {
		cmd.Println(titleStyle.Render("Summary"))
		cmd.Printf("records %d  mean %s  median %s  range %s to %s\n",
			s.Count, rupees(s.MeanModal), rupees(s.MedianModal), rupees(s.MinModal), rupees(s.MaxModal))
		cmd.Printf("trend %s (%s/day)\n", s.Trend, rupees(s.SlopePerDay))
	}
	if report.Dropped > 0 {
		cmd.Println(warnStyle.Render(fmt.Sprintf("%d malformed records skipped", report.Dropped)))
	}
}

func newWeatherCmd() *cobra.Command {
	var lat, lon float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "weather [city]",
		Short: "Show the daily forecast and field alerts",
		Long: `Show the daily forecast for a city or coordinates.

Examples:
  kisan weather Nashik
  kisan weather --lat 19.99 --lon 73.79`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := weather.Location{}
			if len(args) == 1 {
				loc.Name = args[0]
			}
			latSet, lonSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon")
			if latSet != lonSet {
				return fmt.Errorf("--lat and --lon must be given together")
			}
			if latSet {
				loc.Lat, loc.Lon = &lat, &lon
			}
			if loc.Name == "" && loc.Lat == nil {
				return fmt.Errorf("a city or --lat/--lon is required")
			}

			flows, closeFn, err := openFlows(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeFn()

			report, err := flows.Weather(cmd.Context(), loc)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), report)
			}

			rows := make([][]string, 0, len(report.Days))
			for _, d := range report.Days {
				rows = append(rows, []string{
					d.Date, oneDecimal(d.MinTempC), oneDecimal(d.MaxTempC),
					oneDecimal(d.AvgHumidity), oneDecimal(d.TotalRainMM), oneDecimal(d.MaxWindMS), d.Condition,
				})
			}
			if report.Location.Name != "" {
				cmd.Println(titleStyle.Render(report.Location.Name))
			}
			cmd.Println(renderTable([]string{"Date", "Min °C", "Max °C", "Humidity %", "Rain mm", "Wind m/s", "Condition"}, rows))
			for _, a := range report.Alerts {
				cmd.Println(warnStyle.Render(a.Date + ": " + a.Message))
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func newSchemesCmd() *cobra.Command {
	var req models.SchemeEligibilityRequest
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "schemes [query...]",
		Short: "Search the government scheme catalogue",
		Long: `Search the built-in catalogue of central farmer schemes by keyword and
profile hints. No model call is made.

Example: kisan schemes drip irrigation --state Maharashtra --land 1.5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Query = strings.Join(args, " ")

			flows, closeFn, err := openFlows(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeFn()

			matches := flows.MatchSchemes(&req)
			if asJSON {
				return printJSON(cmd.OutOrStdout(), matches)
			}
			if len(matches) == 0 {
				cmd.Println(warnStyle.Render("no matching schemes"))
				return nil
			}
			rows := make([][]string, 0, len(matches))
			for _, s := range matches {
				rows = append(rows, []string{s.ID, s.Name, s.Benefits})
			}
			cmd.Println(renderTable([]string{"ID", "Scheme", "Benefits"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.State, "state", "", "Farmer's state")
	cmd.Flags().Float64Var(&req.LandHectares, "land", 0, "Land holding in hectares")
	cmd.Flags().StringVar(&req.Category, "category", "", "Farmer category, e.g. small, marginal, tenant")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the matches as JSON")
	return cmd
}

func newPremiumCmd() *cobra.Command {
	var season, cropType string
	var sumInsured, rate float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "premium",
		Short: "Quote the PMFBY farmer premium",
		Long: `Split the crop insurance premium between farmer and government.

Example: kisan premium --season kharif --sum-insured 100000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flows, closeFn, err := openFlows(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeFn()

			q, err := flows.PremiumQuote(season, cropType, sumInsured, rate)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), q)
			}
			cmd.Println(renderTable([]string{"Season", "Sum insured", "Actuarial", "Farmer pays", "Government pays"}, [][]string{{
				string(q.Season), rupees(q.SumInsured), rupees(q.TotalPremium), rupees(q.FarmerPremium), rupees(q.GovernmentShare),
			}}))
			return nil
		},
	}

	cmd.Flags().StringVar(&season, "season", "kharif", "kharif, rabi or commercial")
	cmd.Flags().StringVar(&cropType, "crop-type", "", "Set to commercial for horticulture and commercial crops")
	cmd.Flags().Float64Var(&sumInsured, "sum-insured", 0, "Sum insured in rupees")
	cmd.Flags().Float64Var(&rate, "actuarial-rate", 0, "Actuarial premium rate as a fraction (default 0.10)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the quote as JSON")
	_ = cmd.MarkFlagRequired("sum-insured")
	return cmd
}

func newTTSCmd() *cobra.Command {
	var voice, out string

	cmd := &cobra.Command{
		Use:   "tts <text>",
		Short: "Synthesize advisory text to a WAV file",
		Long: `Read text aloud with the Gemini speech model and write a WAV file.

Example: kisan tts "Irrigate wheat before the frost" -o advice.wav`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flows, closeFn, err := openFlows(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer closeFn()

			speech, err := flows.TextToSpeech(cmd.Context(), uuid.Nil, &models.TextToSpeechRequest{
				Text:  strings.Join(args, " "),
				Voice: voice,
			})
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, speech.WAV, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			cmd.Printf("wrote %s (%.1fs)\n", out, float64(speech.DurationMS)/1000)
			return nil
		},
	}

	cmd.Flags().StringVar(&voice, "voice", "", "Voice name (defaults to TTS_VOICE)")
	cmd.Flags().StringVarP(&out, "output", "o", "speech.wav", "Output WAV path")
	return cmd
}

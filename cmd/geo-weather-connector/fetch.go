package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/i474232898/geo-weather-connector/internal/common"
	"github.com/i474232898/geo-weather-connector/internal/table"
	"github.com/i474232898/geo-weather-connector/internal/weather"
)

var (
	startDate  string
	endDate    string
	variables  string
	fetchMode  string
	geocodeRun bool
	longFormat bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch daily weather for every located row of a table",
	Long: `Fetch daily NASA POWER data for every row of the input table that has
coordinates, or can be geocoded with --geocode, and write one output row per
location and day.`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	addTableFlags(fetchCmd, "Output CSV file; - writes stdout")
	fetchCmd.Flags().StringVar(&startDate, "start", "", "First day, YYYY-MM-DD")
	fetchCmd.Flags().StringVar(&endDate, "end", "", "Last day, YYYY-MM-DD (default today)")
	fetchCmd.Flags().StringVar(&variables, "vars", "", "Comma separated variables (default all configured)")
	fetchCmd.Flags().StringVar(&fetchMode, "mode", string(weather.ModeArea), "Query mode: area or point")
	fetchCmd.Flags().BoolVar(&geocodeRun, "geocode", false, "Geocode rows without coordinates first")
	fetchCmd.Flags().BoolVar(&longFormat, "long", false, "Write one row per parameter instead of one column per parameter")
	_ = fetchCmd.MarkFlagRequired("start")
}

func runFetch(cmd *cobra.Command, args []string) error {
	req, err := fetchRequest()
	if err != nil {
		return err
	}

	locs, err := readLocations()
	if err != nil {
		return err
	}
	if geocodeRun {
		if locs, err = newLocator().Enrich(cmd.Context(), locs); err != nil {
			return err
		}
	}

	service := newService()
	params, err := service.Parameters(req.Variables)
	if err != nil {
		return err
	}
	records, err := service.Fetch(cmd.Context(), locs, req)
	if err != nil {
		return err
	}

	err = writeOutput(func(w io.Writer) error {
		if longFormat {
			return table.WriteLong(w, records)
		}
		return table.WriteRecords(w, records, params)
	})
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	logger.Info("wrote records", zap.String("output", outputFile), zap.Int("records", len(records)))
	return nil
}

func fetchRequest() (weather.Request, error) {
	req := weather.Request{
		Variables: common.SplitList(variables),
		Mode:      weather.Mode(fetchMode),
	}
	switch req.Mode {
	case weather.ModeArea, weather.ModePoint:
	default:
		return req, fmt.Errorf("invalid --mode %q: use area or point", fetchMode)
	}

	start, err := weather.ParseDate(startDate)
	if err != nil {
		return req, fmt.Errorf("invalid --start: %w", err)
	}
	req.Start = start

	if endDate != "" {
		end, err := weather.ParseDate(endDate)
		if err != nil {
			return req, fmt.Errorf("invalid --end: %w", err)
		}
		req.End = end
	}
	return req, nil
}

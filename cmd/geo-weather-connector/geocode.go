package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/i474232898/geo-weather-connector/internal/table"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Fill in missing coordinates of a location table",
	Args:  cobra.NoArgs,
	RunE:  runGeocode,
}

func init() {
	addTableFlags(geocodeCmd, "Output CSV file with lat/lon filled in; - writes stdout")
}

func runGeocode(cmd *cobra.Command, args []string) error {
	locs, err := readLocations()
	if err != nil {
		return err
	}

	enriched, err := newLocator().Enrich(cmd.Context(), locs)
	if err != nil {
		return err
	}

	return writeOutput(func(w io.Writer) error {
		return table.WriteLocations(w, enriched)
	})
}

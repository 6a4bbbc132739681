package main

import (
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/i474232898/geo-weather-connector/internal/table"
)

var partitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Show the regional query boxes for a location table",
	Args:  cobra.NoArgs,
	RunE:  runPartition,
}

func init() {
	addTableFlags(partitionCmd, "Output CSV file of boxes; - writes stdout")
}

func runPartition(cmd *cobra.Command, args []string) error {
	locs, err := readLocations()
	if err != nil {
		return err
	}

	boxes, err := newService().Partition(locs)
	if err != nil {
		return err
	}
	logger.Info("partitioned locations", zap.Int("boxes", len(boxes)))

	return writeOutput(func(w io.Writer) error {
		return table.WriteBoxes(w, boxes)
	})
}

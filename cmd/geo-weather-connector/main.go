package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/i474232898/geo-weather-connector/internal/common"
	"github.com/i474232898/geo-weather-connector/internal/config"
	"github.com/i474232898/geo-weather-connector/internal/table"
	"github.com/i474232898/geo-weather-connector/internal/weather"
	"github.com/i474232898/geo-weather-connector/internal/weather/providers"
)

var (
	inputFile  string
	outputFile string
	logLevel   string

	cfg    *config.AppConfig
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "geo-weather-connector",
	Short: "Attach NASA POWER daily weather to a table of locations",
	Long: `Reads a table of locations (country, region, sub_region, city, lat, lon),
fetches daily NASA POWER time series for them and writes the joined table.
Locations are grouped into regional queries of at most 10x10 degrees.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")

	rootCmd.AddCommand(fetchCmd, geocodeCmd, partitionCmd, serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger, err = common.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	return nil
}

// addTableFlags registers the input and output flags shared by the table
// commands.
func addTableFlags(cmd *cobra.Command, outputUsage string) {
	cmd.Flags().StringVarP(&inputFile, "input", "i", "-", "Location table (CSV); - reads stdin")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", outputUsage)
	_ = cmd.MarkFlagRequired("output")
}

func httpClientConfig() providers.HTTPClientConfig {
	backoff := providers.DefaultBackoff()
	backoff.MaxRetries = cfg.HTTPMaxRetries
	return providers.HTTPClientConfig{
		Client:    &http.Client{Timeout: cfg.HTTPTimeout},
		UserAgent: cfg.UserAgent,
		Backoff:   backoff,
	}
}

func newService() *weather.Service {
	provider := providers.NewPowerProvider(httpClientConfig(), cfg.PowerBaseURL, logger)
	return weather.NewService(provider, cfg.Parameters, cfg.Partition, logger)
}

// newLocator geocodes with Google when an API key is configured and with
// Nominatim otherwise.
func newLocator() *weather.Locator {
	var geocoder weather.Geocoder
	if cfg.GoogleGeocoderAPIKey != "" {
		geocoder = providers.NewGoogleGeocoder(cfg.GoogleGeocoderAPIKey)
	} else {
		geocoder = providers.NewNominatimGeocoder(httpClientConfig(), cfg.NominatimBaseURL)
	}
	logger.Debug("geocoder selected", zap.String("geocoder", geocoder.Name()))
	return weather.NewLocator(geocoder, logger)
}

func openInput() (*os.File, error) {
	if inputFile == "-" || inputFile == "" {
		return os.Stdin, nil
	}
	f, err := os.Open(inputFile)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

func createOutput() (*os.File, error) {
	if outputFile == "-" {
		return os.Stdout, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return f, nil
}

// writeOutput writes through fn to the output file, closing it afterwards.
func writeOutput(fn func(io.Writer) error) error {
	out, err := createOutput()
	if err != nil {
		return err
	}
	if out == os.Stdout {
		return fn(out)
	}
	if err := fn(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func readLocations() ([]weather.Location, error) {
	in, err := openInput()
	if err != nil {
		return nil, err
	}
	if in != os.Stdin {
		defer in.Close()
	}

	locs, err := table.ReadLocations(in)
	if err != nil {
		return nil, err
	}
	logger.Info("read locations", zap.String("input", inputFile), zap.Int("rows", len(locs)))
	return locs, nil
}

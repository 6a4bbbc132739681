package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/geo-weather-connector/internal/geo"
	"github.com/i474232898/geo-weather-connector/internal/weather"
)

var validate = validator.New()

type AppConfig struct {
	PowerBaseURL     string `validate:"omitempty,url"`
	NominatimBaseURL string `validate:"omitempty,url"`
	// UserAgent is sent with every outbound request; Nominatim requires one.
	UserAgent string `validate:"required"`
	// GoogleGeocoderAPIKey selects the Google geocoder instead of Nominatim.
	GoogleGeocoderAPIKey string

	HTTPTimeout    time.Duration `validate:"gt=0"`
	HTTPMaxRetries int           `validate:"gte=0"`

	// Parameters maps variable names to NASA POWER parameter codes.
	Parameters weather.ParameterMap `validate:"required"`
	Partition  geo.PartitionOptions

	Port     string `validate:"required,numeric"`
	LogLevel string `validate:"oneof=debug info warn error"`
}

// Load reads configuration from environment with sensible defaults. Values
// in a .env file in the working directory are loaded first.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.PowerBaseURL = os.Getenv("POWER_BASE_URL")
	cfg.NominatimBaseURL = os.Getenv("NOMINATIM_BASE_URL")
	cfg.UserAgent = getenvDefault("GEOCODER_USER_AGENT", "geo-weather-connector")
	cfg.GoogleGeocoderAPIKey = os.Getenv("GOOGLE_GEOCODER_API_KEY")

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	if cfg.HTTPMaxRetries, err = getenvInt("HTTP_MAX_RETRIES", 0); err != nil {
		return nil, err
	}

	cfg.Parameters = weather.DefaultParameters()
	if raw := os.Getenv("POWER_PARAMETERS"); raw != "" {
		params, err := weather.ParseParameterMap(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid POWER_PARAMETERS: %w", err)
		}
		cfg.Parameters = params
	}

	cfg.Partition = geo.DefaultPartitionOptions()
	if cfg.Partition.MaxRadius, err = getenvFloat("PARTITION_MAX_RADIUS", cfg.Partition.MaxRadius); err != nil {
		return nil, err
	}
	if cfg.Partition.MaxClusters, err = getenvInt("PARTITION_MAX_CLUSTERS", cfg.Partition.MaxClusters); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

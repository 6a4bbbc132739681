package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/geo-weather-connector/internal/common"
	"github.com/i474232898/geo-weather-connector/internal/weather"
)

// GoogleGeocoder implements weather.Geocoder with the Google Geocoding API.
type GoogleGeocoder struct {
	name   string
	lookup func(geocoder.Address) (geocoder.Location, error)
}

// NewGoogleGeocoder configures the geocoder package with apiKey. The key is
// process-wide in that package, so only one Google geocoder is meaningful.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{
		name:   "google",
		lookup: geocoder.Geocoding,
	}
}

func (g *GoogleGeocoder) Name() string {
	return g.name
}

// Geocode resolves q. Google reports no bounding box through this API.
func (g *GoogleGeocoder) Geocode(ctx context.Context, q weather.GeoQuery) (weather.Geolocation, error) {
	if err := q.Validate(); err != nil {
		return weather.Geolocation{}, err
	}
	if err := ctx.Err(); err != nil {
		return weather.Geolocation{}, err
	}

	address := geocoder.Address{
		Country: q.Country,
		State:   q.Region,
		County:  q.SubRegion,
		City:    q.City,
	}
	if q.IsAddress() {
		address = geocoder.Address{Street: q.Address}
	}

	loc, err := g.safeLookup(address)
	if err != nil {
		if common.HasAny(strings.ToLower(err.Error()), "zero_results", "no results") {
			return weather.Geolocation{}, fmt.Errorf("%w: %s", weather.ErrGeoNotFound, q)
		}
		return weather.Geolocation{}, fmt.Errorf("google geocoding: %w", err)
	}
	return weather.Geolocation{Lat: loc.Latitude, Lon: loc.Longitude}, nil
}

// safeLookup turns a panic in the lookup into an error. The geocoder package
// indexes its first result without checking statuses it does not map, such
// as OVER_DAILY_LIMIT or an OK with no results.
func (g *GoogleGeocoder) safeLookup(a geocoder.Address) (loc geocoder.Location, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("google geocoding: unusable response: %v", r)
		}
	}()
	return g.lookup(a)
}

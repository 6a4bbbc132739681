package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/geo-weather-connector/internal/weather"
)

// DefaultNominatimURL is the OpenStreetMap search endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"

// NominatimGeocoder implements weather.Geocoder against OpenStreetMap Nominatim.
type NominatimGeocoder struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewNominatimGeocoder creates a geocoder against baseURL; empty means
// DefaultNominatimURL. Nominatim's usage policy requires a User-Agent, set it
// in httpCfg.
func NewNominatimGeocoder(httpCfg HTTPClientConfig, baseURL string) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	return &NominatimGeocoder{
		name:    "nominatim",
		baseURL: baseURL,
		httpCfg: httpCfg,
		circuit: newCircuitBreaker("nominatim"),
	}
}

func (g *NominatimGeocoder) Name() string {
	return g.name
}

// Geocode returns the most relevant match for q.
func (g *NominatimGeocoder) Geocode(ctx context.Context, q weather.GeoQuery) (weather.Geolocation, error) {
	if err := q.Validate(); err != nil {
		return weather.Geolocation{}, err
	}

	values := url.Values{}
	values.Set("format", "json")
	values.Set("limit", "1")
	if q.IsAddress() {
		values.Set("q", q.Address)
	} else {
		setIfPresent(values, "country", q.Country)
		setIfPresent(values, "state", q.Region)
		setIfPresent(values, "county", q.SubRegion)
		setIfPresent(values, "city", q.City)
	}

	var results []struct {
		Lat         string   `json:"lat"`
		Lon         string   `json:"lon"`
		BoundingBox []string `json:"boundingbox"`
		DisplayName string   `json:"display_name"`
	}
	if err := getJSON(ctx, g.httpCfg, g.circuit, g.baseURL+"?"+values.Encode(), &results); err != nil {
		return weather.Geolocation{}, err
	}
	if len(results) == 0 {
		return weather.Geolocation{}, fmt.Errorf("%w: %s", weather.ErrGeoNotFound, q)
	}

	best := results[0]
	lat, err := strconv.ParseFloat(best.Lat, 64)
	if err != nil {
		return weather.Geolocation{}, fmt.Errorf("%w: lat %q", errMalformed, best.Lat)
	}
	lon, err := strconv.ParseFloat(best.Lon, 64)
	if err != nil {
		return weather.Geolocation{}, fmt.Errorf("%w: lon %q", errMalformed, best.Lon)
	}

	gl := weather.Geolocation{Lat: lat, Lon: lon}
	for _, s := range best.BoundingBox {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return weather.Geolocation{}, fmt.Errorf("%w: boundingbox %q", errMalformed, s)
		}
		gl.BoundingBox = append(gl.BoundingBox, v)
	}
	return gl, nil
}

func setIfPresent(values url.Values, key, value string) {
	if value != "" {
		values.Set(key, value)
	}
}

package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// CandidateQueries returns the geocoding queries to try for loc, most
// specific first: a structured query when loc carries a valid hierarchy,
// then a free-text address built from the same parts.
func CandidateQueries(loc Location) []GeoQuery {
	var candidates []GeoQuery

	structured := GeoQuery{Country: loc.Country, Region: loc.Region}
	switch {
	case loc.City != "":
		structured.SubRegion = loc.SubRegion
		structured.City = loc.City
	case loc.SubRegion != "":
		structured.SubRegion = loc.SubRegion
	}
	if structured.Validate() == nil {
		candidates = append(candidates, structured)
	}

	var parts []string
	for _, part := range []string{loc.City, loc.SubRegion, loc.Region, loc.Country} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) > 0 {
		candidates = append(candidates, GeoQuery{Address: strings.Join(parts, ",")})
	}
	return candidates
}

// Locator resolves locations through a Geocoder.
type Locator struct {
	geocoder Geocoder
	logger   *zap.Logger
}

// NewLocator creates a new Locator.
func NewLocator(geocoder Geocoder, logger *zap.Logger) *Locator {
	return &Locator{
		geocoder: geocoder,
		logger:   logger,
	}
}

// Locate tries each candidate query in order and returns the first match.
// ErrGeoNotFound means no candidate matched; other errors abort the search.
func (l *Locator) Locate(ctx context.Context, loc Location) (Geolocation, error) {
	for _, q := range CandidateQueries(loc) {
		gl, err := l.geocoder.Geocode(ctx, q)
		if err == nil {
			l.logger.Debug("geocoded location",
				zap.String("geocoder", l.geocoder.Name()),
				zap.String("query", q.String()),
				zap.Float64("lat", gl.Lat),
				zap.Float64("lon", gl.Lon),
			)
			return gl, nil
		}
		if !errors.Is(err, ErrGeoNotFound) {
			return Geolocation{}, fmt.Errorf("geocode %s: %w", q, err)
		}
	}
	return Geolocation{}, fmt.Errorf("%w: %s", ErrGeoNotFound, loc.Key())
}

// Enrich returns a copy of locs with missing coordinates filled in. Rows the
// geocoder cannot place keep nil coordinates.
func (l *Locator) Enrich(ctx context.Context, locs []Location) ([]Location, error) {
	out := make([]Location, len(locs))
	unresolved := 0
	for i, loc := range locs {
		out[i] = loc
		if _, ok := loc.Point(); ok {
			continue
		}

		gl, err := l.Locate(ctx, loc)
		if errors.Is(err, ErrGeoNotFound) {
			unresolved++
			l.logger.Warn("location not found", zap.String("location", loc.Key()))
			continue
		}
		if err != nil {
			return nil, err
		}
		out[i] = loc.WithPoint(gl.Point())
	}

	l.logger.Info("geocoding complete",
		zap.Int("locations", len(locs)),
		zap.Int("unresolved", unresolved),
	)
	return out, nil
}

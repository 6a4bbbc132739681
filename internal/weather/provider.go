package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/geo-weather-connector/internal/geo"
)

var validate = validator.New()

var (
	// ErrGeoNotFound is returned by a Geocoder that has no result for a query.
	ErrGeoNotFound = errors.New("geolocation not found")
	// ErrNoData is returned when the data provider answers with no rows.
	ErrNoData = errors.New("no data returned")
	// ErrInvalidGeoQuery is returned for structurally incomplete queries.
	ErrInvalidGeoQuery = errors.New("invalid geocoding query")
)

// Query describes a time series request to a DataProvider. Parameters are
// provider parameter codes, e.g. T2M.
type Query struct {
	Start      time.Time `validate:"required"`
	End        time.Time `validate:"required,gtefield=Start"`
	Parameters []string  `validate:"required,min=1,dive,required"`
}

// Validate checks the query fields.
func (q Query) Validate() error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}
	return nil
}

// DataProvider abstracts a gridded meteorological data source.
type DataProvider interface {
	Name() string
	// FetchArea returns grid rows for every half-degree cell in box.
	FetchArea(ctx context.Context, box geo.BoundingBox, q Query) ([]geo.GridRow, error)
	// FetchPoint returns rows for a single location, labeled with p.
	FetchPoint(ctx context.Context, p geo.Point, q Query) ([]geo.GridRow, error)
}

// GeoQuery is either a structured place query or, when Address is set, a
// free-text one.
type GeoQuery struct {
	Country   string
	Region    string
	SubRegion string
	City      string
	Address   string
}

// IsAddress reports whether q is a free-text query.
func (q GeoQuery) IsAddress() bool {
	return q.Address != ""
}

// Validate enforces that each structured level has its parent.
func (q GeoQuery) Validate() error {
	if q.IsAddress() {
		return nil
	}
	switch {
	case q.Country == "":
		return fmt.Errorf("%w: country is required", ErrInvalidGeoQuery)
	case q.SubRegion != "" && q.Region == "":
		return fmt.Errorf("%w: sub_region requires region", ErrInvalidGeoQuery)
	case q.City != "" && q.SubRegion == "":
		return fmt.Errorf("%w: city requires sub_region", ErrInvalidGeoQuery)
	}
	return nil
}

// String is a readable form used in logs.
func (q GeoQuery) String() string {
	if q.IsAddress() {
		return "address=" + q.Address
	}
	var parts []string
	for _, kv := range [][2]string{
		{"country", q.Country}, {"region", q.Region},
		{"sub_region", q.SubRegion}, {"city", q.City},
	} {
		if kv[1] != "" {
			parts = append(parts, kv[0]+"="+kv[1])
		}
	}
	return strings.Join(parts, "&")
}

// Geocoder resolves a place query to its best match.
type Geocoder interface {
	Name() string
	// Geocode returns ErrGeoNotFound when nothing matches.
	Geocode(ctx context.Context, q GeoQuery) (Geolocation, error)
}

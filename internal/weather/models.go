package weather

import (
	"strings"
	"time"

	"github.com/i474232898/geo-weather-connector/internal/geo"
)

// Mode selects how the data provider is queried.
type Mode string

const (
	// ModeArea issues one regional query per partition box.
	ModeArea Mode = "area"
	// ModePoint issues one query per location.
	ModePoint Mode = "point"
)

// Location represents a named place, optionally with coordinates.
// Country is expected; Region, SubRegion and City narrow it down.
type Location struct {
	Country   string   `json:"country"`
	Region    string   `json:"region,omitempty"`
	SubRegion string   `json:"sub_region,omitempty"`
	City      string   `json:"city,omitempty"`
	Lat       *float64 `json:"lat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Lon       *float64 `json:"lon,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

// Key returns a canonical string key for the named part of the location.
func (l Location) Key() string {
	return strings.Join([]string{l.Country, l.Region, l.SubRegion, l.City}, ":")
}

// Point returns the location's coordinates, if both are set.
func (l Location) Point() (geo.Point, bool) {
	if l.Lat == nil || l.Lon == nil {
		return geo.Point{}, false
	}
	p := geo.Point{Lat: *l.Lat, Lon: *l.Lon}
	return p, p.Valid()
}

// WithPoint returns a copy of the location placed at p.
func (l Location) WithPoint(p geo.Point) Location {
	lat, lon := p.Lat, p.Lon
	l.Lat = &lat
	l.Lon = &lon
	return l
}

// identity is the comparable form of a located Location. City is display
// data and does not distinguish two rows.
type identity struct {
	country, region, subRegion string
	point                      geo.Point
}

func identityOf(l Location, p geo.Point) identity {
	return identity{country: l.Country, region: l.Region, subRegion: l.SubRegion, point: p}
}

// Geolocation is a geocoder result.
type Geolocation struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	// BoundingBox is south, north, west, east when the geocoder reports one.
	BoundingBox []float64 `json:"bbox,omitempty"`
}

// Point returns the geolocation's coordinates.
func (g Geolocation) Point() geo.Point {
	return geo.Point{Lat: g.Lat, Lon: g.Lon}
}

// Record is one location's measurements for one day.
type Record struct {
	Location Location           `json:"location"`
	Date     time.Time          `json:"date"`
	Values   map[string]float64 `json:"values"`
}

// Package geo groups scattered coordinates into bounding boxes small enough
// for a single regional data query, and maps half-degree grid results back
// onto the exact coordinates that were asked for.
package geo

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Orb returns the point in orb's (lon, lat) order.
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// Valid reports whether both coordinates are present and within range.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// BoundingBox is an axis-aligned rectangle in latitude/longitude space.
// Boxes produced by Partition have half-degree aligned edges, are at most
// 10x10 degrees and never have zero area.
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// Bound converts the box to an orb.Bound.
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// Contains reports whether p lies inside the box, edges included.
func (b BoundingBox) Contains(p Point) bool {
	return b.Bound().Contains(p.Orb())
}

// Covers reports whether o lies entirely inside the box.
func (b BoundingBox) Covers(o BoundingBox) bool {
	return o.MinLat >= b.MinLat && o.MaxLat <= b.MaxLat &&
		o.MinLon >= b.MinLon && o.MaxLon <= b.MaxLon
}

// Union is the smallest box holding both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return BoundingBox{
		MinLat: math.Min(b.MinLat, o.MinLat),
		MinLon: math.Min(b.MinLon, o.MinLon),
		MaxLat: math.Max(b.MaxLat, o.MaxLat),
		MaxLon: math.Max(b.MaxLon, o.MaxLon),
	}
}

// Height is the latitude extent in degrees.
func (b BoundingBox) Height() float64 {
	return b.MaxLat - b.MinLat
}

// Width is the longitude extent in degrees.
func (b BoundingBox) Width() float64 {
	return b.MaxLon - b.MinLon
}

// String formats the box the way regional queries expect it:
// "minLat,minLon,maxLat,maxLon".
func (b BoundingBox) String() string {
	parts := []string{
		formatDegrees(b.MinLat),
		formatDegrees(b.MinLon),
		formatDegrees(b.MaxLat),
		formatDegrees(b.MaxLon),
	}
	return strings.Join(parts, ",")
}

// GridRow is one grid cell's measurements for a single day.
type GridRow struct {
	Lat    float64            `json:"lat"`
	Lon    float64            `json:"lon"`
	Date   time.Time          `json:"date"`
	Values map[string]float64 `json:"values"`
}

// Point returns the row's coordinates.
func (r GridRow) Point() Point {
	return Point{Lat: r.Lat, Lon: r.Lon}
}

// Clone returns a deep copy of the row.
func (r GridRow) Clone() GridRow {
	values := make(map[string]float64, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	r.Values = values
	return r
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package geo

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnmatchedLocation is returned when no grid cell exists for a location.
var ErrUnmatchedLocation = errors.New("no grid cell for location")

// Grid cell centres sit at .25 and .75 fractional degrees.
const (
	gridStep   = 0.5
	gridOffset = 0.25
)

// Snap maps a coordinate to the nearest half-degree grid centre. Halfway
// values round to even, as the numeric libraries producing the grid do.
func Snap(x float64) float64 {
	return gridStep*math.RoundToEven((x-gridOffset)/gridStep) + gridOffset
}

// SnapPoint snaps both coordinates of p to the centre of its grid cell.
// Points on the poles or the antimeridian snap to the outermost cell.
func SnapPoint(p Point) Point {
	return Point{
		Lat: clampCentre(Snap(p.Lat), 90),
		Lon: clampCentre(Snap(p.Lon), 180),
	}
}

// CellBounds is the grid cell whose centre p snaps to.
func CellBounds(p Point) BoundingBox {
	c := SnapPoint(p)
	return BoundingBox{
		MinLat: c.Lat - gridOffset,
		MinLon: c.Lon - gridOffset,
		MaxLat: c.Lat + gridOffset,
		MaxLon: c.Lon + gridOffset,
	}
}

func clampCentre(v, limit float64) float64 {
	return math.Max(-limit+gridOffset, math.Min(limit-gridOffset, v))
}

// cellKey identifies a grid cell in quarter degrees so lookups do not depend
// on exact float equality.
type cellKey struct {
	lat, lon int64
}

func keyOf(p Point) cellKey {
	return cellKey{
		lat: int64(math.Round(p.Lat / gridOffset)),
		lon: int64(math.Round(p.Lon / gridOffset)),
	}
}

// MatchGrid returns, for every point, copies of the grid rows of the cell
// nearest to it, relabeled with the point's exact coordinates. Output follows
// the order of points, then the order of rows within a cell.
func MatchGrid(points []Point, rows []GridRow) ([]GridRow, error) {
	cells := make(map[cellKey][]int, len(rows))
	for i, r := range rows {
		k := keyOf(r.Point())
		cells[k] = append(cells[k], i)
	}

	out := make([]GridRow, 0, len(points))
	for _, p := range points {
		snapped := SnapPoint(p)
		matches, ok := cells[keyOf(snapped)]
		if !ok {
			return nil, fmt.Errorf("%w: (%v, %v) snaps to (%v, %v)",
				ErrUnmatchedLocation, p.Lat, p.Lon, snapped.Lat, snapped.Lon)
		}
		for _, i := range matches {
			row := rows[i].Clone()
			row.Lat = p.Lat
			row.Lon = p.Lon
			out = append(out, row)
		}
	}
	return out, nil
}

package geo

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrNoPoints is returned when there is nothing to partition.
	ErrNoPoints = errors.New("no points to partition")
	// ErrCannotPartition is returned when no clustering within the
	// configured cluster limit fits every box inside the size bound.
	ErrCannotPartition = errors.New("could not partition points")
)

// PartitionOptions bounds the clustering search.
type PartitionOptions struct {
	// MaxRadius is the largest accepted distance, in degrees, between a
	// cluster centre and any of its members.
	MaxRadius float64 `validate:"gt=0"`
	// MaxBoxSize is the largest accepted box width and height in degrees.
	MaxBoxSize float64 `validate:"gt=0"`
	// MaxClusters caps the number of boxes tried before giving up.
	MaxClusters int `validate:"gt=0"`
	// KMeansIterations caps Lloyd iterations per clustering attempt.
	KMeansIterations int `validate:"gt=0"`
}

// DefaultPartitionOptions matches the limits of a regional query: boxes up
// to 10x10 degrees, so clusters with a radius up to 5 degrees.
func DefaultPartitionOptions() PartitionOptions {
	return PartitionOptions{
		MaxRadius:        5,
		MaxBoxSize:       10,
		MaxClusters:      64,
		KMeansIterations: 100,
	}
}

func (o PartitionOptions) withDefaults() PartitionOptions {
	def := DefaultPartitionOptions()
	if o.MaxRadius <= 0 {
		o.MaxRadius = def.MaxRadius
	}
	if o.MaxBoxSize <= 0 {
		o.MaxBoxSize = def.MaxBoxSize
	}
	if o.MaxClusters <= 0 {
		o.MaxClusters = def.MaxClusters
	}
	if o.KMeansIterations <= 0 {
		o.KMeansIterations = def.KMeansIterations
	}
	return o
}

// UniquePoints drops invalid points and duplicates. The result is sorted by
// latitude, then longitude.
func UniquePoints(points []Point) []Point {
	seen := make(map[Point]struct{}, len(points))
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if !p.Valid() {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Lat != out[j].Lat {
			return out[i].Lat < out[j].Lat
		}
		return out[i].Lon < out[j].Lon
	})
	return out
}

// Partition finds a small set of boxes covering every point. It clusters
// the points with k = 1, 2, ... until every cluster fits within
// opts.MaxRadius and its box within opts.MaxBoxSize.
func Partition(points []Point, opts PartitionOptions) ([]BoundingBox, error) {
	opts = opts.withDefaults()

	unique := UniquePoints(points)
	if len(unique) == 0 {
		return nil, ErrNoPoints
	}

	limit := opts.MaxClusters
	if limit > len(unique) {
		limit = len(unique)
	}

	for k := 1; k <= limit; k++ {
		clusters := kmeans(unique, k, opts.KMeansIterations)
		boxes, ok := boxClusters(clusters, opts)
		if !ok {
			continue
		}
		if err := verifyCoverage(unique, boxes); err != nil {
			return nil, err
		}
		return boxes, nil
	}
	return nil, fmt.Errorf("%w: %d points need more than %d boxes", ErrCannotPartition, len(unique), limit)
}

func boxClusters(clusters []cluster, opts PartitionOptions) ([]BoundingBox, bool) {
	boxes := make([]BoundingBox, 0, len(clusters))
	seen := make(map[BoundingBox]struct{}, len(clusters))
	for _, c := range clusters {
		r := c.radius()
		if r > opts.MaxRadius {
			return nil, false
		}
		box, ok := clusterBox(c, r, opts.MaxBoxSize)
		if !ok {
			return nil, false
		}
		if _, dup := seen[box]; dup {
			continue
		}
		seen[box] = struct{}{}
		boxes = append(boxes, box)
	}
	return boxes, true
}

// clusterBox rounds the circle around the cluster outward to the half-degree
// grid and grows it to hold every member's grid cell. When that pushes the
// box past maxSize the members' own extent is used instead.
func clusterBox(c cluster, r, maxSize float64) (BoundingBox, bool) {
	rounded := BoundingBox{
		MinLat: floorHalf(c.center.Lat - r),
		MinLon: floorHalf(c.center.Lon - r),
		MaxLat: ceilHalf(c.center.Lat + r),
		MaxLon: ceilHalf(c.center.Lon + r),
	}
	box := withCells(widen(rounded), c.members)
	if !fits(box, maxSize) {
		box = withCells(widen(extentBox(c.members)), c.members)
		if !fits(box, maxSize) {
			return BoundingBox{}, false
		}
	}
	return clampWorld(box), true
}

func extentBox(members []Point) BoundingBox {
	minLat, minLon := math.Inf(1), math.Inf(1)
	maxLat, maxLon := math.Inf(-1), math.Inf(-1)
	for _, m := range members {
		minLat = math.Min(minLat, m.Lat)
		minLon = math.Min(minLon, m.Lon)
		maxLat = math.Max(maxLat, m.Lat)
		maxLon = math.Max(maxLon, m.Lon)
	}
	return BoundingBox{
		MinLat: floorHalf(minLat),
		MinLon: floorHalf(minLon),
		MaxLat: ceilHalf(maxLat),
		MaxLon: ceilHalf(maxLon),
	}
}

// withCells extends b over the grid cell of every point.
func withCells(b BoundingBox, points []Point) BoundingBox {
	for _, p := range points {
		b = b.Union(CellBounds(p))
	}
	return b
}

func fits(b BoundingBox, maxSize float64) bool {
	return b.Height() <= maxSize && b.Width() <= maxSize
}

// widen gives a zero-width axis half a degree on each side.
func widen(b BoundingBox) BoundingBox {
	if b.MinLat == b.MaxLat {
		b.MinLat -= 0.5
		b.MaxLat += 0.5
	}
	if b.MinLon == b.MaxLon {
		b.MinLon -= 0.5
		b.MaxLon += 0.5
	}
	return b
}

func clampWorld(b BoundingBox) BoundingBox {
	b.MinLat = math.Max(b.MinLat, -90)
	b.MaxLat = math.Min(b.MaxLat, 90)
	b.MinLon = math.Max(b.MinLon, -180)
	b.MaxLon = math.Min(b.MaxLon, 180)
	return b
}

func floorHalf(v float64) float64 {
	return math.Floor(2*v) / 2
}

func ceilHalf(v float64) float64 {
	return math.Ceil(2*v) / 2
}

// verifyCoverage checks that every point, and the grid cell it snaps to,
// lies inside at least one box.
func verifyCoverage(points []Point, boxes []BoundingBox) error {
	index, err := NewBoxIndex(boxes)
	if err != nil {
		return err
	}
	for _, p := range points {
		cell := CellBounds(p)
		covered := false
		for _, b := range index.Locate(p) {
			if b.Covers(cell) {
				covered = true
				break
			}
		}
		if !covered {
			return fmt.Errorf("%w: grid cell %s of point (%v, %v) is outside every box",
				ErrCannotPartition, cell, p.Lat, p.Lon)
		}
	}
	return nil
}

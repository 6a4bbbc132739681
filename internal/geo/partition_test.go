package geo

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertBoxInvariants(t *testing.T, points []Point, boxes []BoundingBox) {
	t.Helper()

	for _, b := range boxes {
		assert.LessOrEqual(t, b.Height(), 10.0, "box %s too tall", b)
		assert.LessOrEqual(t, b.Width(), 10.0, "box %s too wide", b)
		assert.Greater(t, b.Height(), 0.0, "box %s has zero height", b)
		assert.Greater(t, b.Width(), 0.0, "box %s has zero width", b)
		for _, edge := range []float64{b.MinLat, b.MinLon, b.MaxLat, b.MaxLon} {
			assert.Equal(t, 0.0, math.Mod(edge*2, 1), "edge %v of %s is not half-degree aligned", edge, b)
		}
	}

	for _, p := range points {
		covered := false
		for _, b := range boxes {
			if b.Contains(p) && b.Contains(SnapPoint(p)) && b.Covers(CellBounds(p)) {
				covered = true
				break
			}
		}
		assert.True(t, covered, "point %+v or its grid cell %s not covered", p, CellBounds(p))
	}
}

func TestPartitionSinglePoint(t *testing.T) {
	points := []Point{{Lat: 10, Lon: 20}}

	boxes, err := Partition(points, DefaultPartitionOptions())
	require.NoError(t, err)
	require.Len(t, boxes, 1)

	// Degenerate box widened on both axes.
	assert.Equal(t, BoundingBox{MinLat: 9.5, MinLon: 19.5, MaxLat: 10.5, MaxLon: 20.5}, boxes[0])
	assertBoxInvariants(t, points, boxes)
}

func TestPartitionHoldsCellsOnBoxEdge(t *testing.T) {
	// Both points sit on the rounded box's lower edge but snap to cells
	// above it; (4, 0) snaps to 4.25.
	points := []Point{{Lat: 0, Lon: 0}, {Lat: 4, Lon: 0}}

	boxes, err := Partition(points, DefaultPartitionOptions())
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	assert.Equal(t, BoundingBox{MinLat: 0, MinLon: -2, MaxLat: 4.5, MaxLon: 2}, boxes[0])
	assert.True(t, boxes[0].Contains(Point{Lat: 4.25, Lon: 0.25}))
	assertBoxInvariants(t, points, boxes)
}

func TestPartitionCellPushesPastSizeLimit(t *testing.T) {
	// The points span 9.9 degrees; their cells span 10.5, so one box is
	// not enough.
	points := []Point{{Lat: 0.1, Lon: 0}, {Lat: 10, Lon: 0}}

	boxes, err := Partition(points, DefaultPartitionOptions())
	require.NoError(t, err)
	assert.Len(t, boxes, 2)
	assertBoxInvariants(t, points, boxes)
}

func TestVerifyCoverageRejectsMissingCell(t *testing.T) {
	points := []Point{{Lat: 4, Lon: 0}}

	err := verifyCoverage(points, []BoundingBox{{MinLat: 0, MinLon: -1, MaxLat: 4, MaxLon: 1}})
	assert.ErrorIs(t, err, ErrCannotPartition)

	assert.NoError(t, verifyCoverage(points, []BoundingBox{{MinLat: 0, MinLon: -1, MaxLat: 4.5, MaxLon: 1}}))
}

func TestBoundingBoxCoversAndUnion(t *testing.T) {
	a := BoundingBox{MinLat: 0, MinLon: 0, MaxLat: 2, MaxLon: 2}
	b := BoundingBox{MinLat: 1, MinLon: -1, MaxLat: 3, MaxLon: 1}

	u := a.Union(b)
	assert.Equal(t, BoundingBox{MinLat: 0, MinLon: -1, MaxLat: 3, MaxLon: 2}, u)
	assert.True(t, u.Covers(a))
	assert.True(t, u.Covers(b))
	assert.False(t, a.Covers(b))
}

func TestPartitionCloseCluster(t *testing.T) {
	points := []Point{
		{Lat: 48.85, Lon: 2.35},
		{Lat: 49.90, Lon: 2.30},
		{Lat: 49.44, Lon: 1.10},
	}

	boxes, err := Partition(points, DefaultPartitionOptions())
	require.NoError(t, err)
	assert.Len(t, boxes, 1)
	assertBoxInvariants(t, points, boxes)
}

func TestPartitionFarPoints(t *testing.T) {
	points := []Point{{Lat: 0, Lon: 0}, {Lat: 9, Lon: 9}}

	// A single cluster centred at (4.5, 4.5) has radius ~6.36 > 5.
	c := cluster{center: Point{Lat: 4.5, Lon: 4.5}, members: points}
	require.Greater(t, c.radius(), 5.0)

	boxes, err := Partition(points, DefaultPartitionOptions())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(boxes), 2)
	assertBoxInvariants(t, points, boxes)
}

func TestPartitionDropsDuplicatesAndMissing(t *testing.T) {
	points := []Point{
		{Lat: 1, Lon: 1},
		{Lat: 1, Lon: 1},
		{Lat: math.NaN(), Lon: 3},
		{Lat: 2, Lon: math.NaN()},
	}

	boxes, err := Partition(points, DefaultPartitionOptions())
	require.NoError(t, err)
	assert.Len(t, boxes, 1)
}

func TestPartitionNoPoints(t *testing.T) {
	_, err := Partition(nil, DefaultPartitionOptions())
	assert.ErrorIs(t, err, ErrNoPoints)

	_, err = Partition([]Point{{Lat: math.NaN(), Lon: math.NaN()}}, DefaultPartitionOptions())
	assert.ErrorIs(t, err, ErrNoPoints)
}

func TestPartitionClusterLimit(t *testing.T) {
	points := []Point{
		{Lat: -40, Lon: -100},
		{Lat: 0, Lon: 0},
		{Lat: 40, Lon: 100},
	}
	opts := DefaultPartitionOptions()
	opts.MaxClusters = 2

	_, err := Partition(points, opts)
	assert.ErrorIs(t, err, ErrCannotPartition)

	opts.MaxClusters = 3
	boxes, err := Partition(points, opts)
	require.NoError(t, err)
	assert.Len(t, boxes, 3)
	assertBoxInvariants(t, points, boxes)
}

func TestPartitionWorldEdges(t *testing.T) {
	points := []Point{{Lat: 90, Lon: 180}, {Lat: -90, Lon: -180}}

	boxes, err := Partition(points, DefaultPartitionOptions())
	require.NoError(t, err)
	for _, b := range boxes {
		assert.GreaterOrEqual(t, b.MinLat, -90.0)
		assert.LessOrEqual(t, b.MaxLat, 90.0)
		assert.GreaterOrEqual(t, b.MinLon, -180.0)
		assert.LessOrEqual(t, b.MaxLon, 180.0)
	}
	assertBoxInvariants(t, points, boxes)
}

func TestPartitionRandomInvariants(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for _, spread := range []float64{1, 5, 20, 60} {
		points := make([]Point, 50)
		for i := range points {
			points[i] = Point{
				Lat: 10 + r.Float64()*spread,
				Lon: -30 + r.Float64()*spread,
			}
		}

		boxes, err := Partition(points, DefaultPartitionOptions())
		require.NoError(t, err, "spread %v", spread)
		assertBoxInvariants(t, points, boxes)
	}
}

func TestPartitionBoxCountGrowsWithSpread(t *testing.T) {
	base := []Point{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}, {Lat: 2, Lon: 0}, {Lat: 1, Lon: 2}}

	prev := 0
	for _, scale := range []float64{1, 4, 15} {
		points := make([]Point, len(base))
		for i, p := range base {
			points[i] = Point{Lat: p.Lat * scale, Lon: p.Lon * scale}
		}
		boxes, err := Partition(points, DefaultPartitionOptions())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(boxes), prev, "scale %v", scale)
		prev = len(boxes)
	}
}

func TestUniquePointsSorted(t *testing.T) {
	got := UniquePoints([]Point{
		{Lat: 3, Lon: 1},
		{Lat: 1, Lon: 5},
		{Lat: 1, Lon: 2},
		{Lat: 3, Lon: 1},
		{Lat: 100, Lon: 0},
	})

	assert.Equal(t, []Point{{Lat: 1, Lon: 2}, {Lat: 1, Lon: 5}, {Lat: 3, Lon: 1}}, got)
}

func TestKMeansSingletonsAtFullK(t *testing.T) {
	points := UniquePoints([]Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 5, Lon: 5}})

	clusters := kmeans(points, len(points), 100)
	require.Len(t, clusters, 3)
	for _, c := range clusters {
		assert.Len(t, c.members, 1)
		assert.Equal(t, 0.0, c.radius())
	}
}

func TestBoundingBoxString(t *testing.T) {
	b := BoundingBox{MinLat: -1.5, MinLon: 20, MaxLat: 3, MaxLon: 29.5}
	assert.Equal(t, "-1.5,20,3,29.5", b.String())
}

package geo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnap(t *testing.T) {
	testCases := []struct {
		in, want float64
	}{
		{10.3, 10.25},
		{20.1, 20.25},
		{19.9, 19.75},
		{0, 0.25},   // -0.25 / 0.5 = -0.5 rounds to even (0)
		{0.5, 0.25}, // 0.25 / 0.5 = 0.5 rounds to even (0)
		{-0.3, -0.25},
		{-10.6, -10.75},
		{0.75, 0.75},
	}

	for _, tc := range testCases {
		assert.InDelta(t, tc.want, Snap(tc.in), 1e-12, "Snap(%v)", tc.in)
		assert.InDelta(t, 0.5*roundEven(2*(tc.in-0.25))+0.25, Snap(tc.in), 1e-12)
	}
}

func roundEven(x float64) float64 {
	// reference implementation used only to cross-check Snap
	f := float64(int64(x))
	if x < 0 && f != x {
		f--
	}
	diff := x - f
	switch {
	case diff > 0.5:
		return f + 1
	case diff < 0.5:
		return f
	case int64(f)%2 == 0:
		return f
	default:
		return f + 1
	}
}

func TestSnapPointClampsToGrid(t *testing.T) {
	testCases := []struct {
		in, want Point
	}{
		{Point{Lat: 90, Lon: 180}, Point{Lat: 89.75, Lon: 179.75}},
		{Point{Lat: -90, Lon: -180}, Point{Lat: -89.75, Lon: -179.75}},
		{Point{Lat: 10.3, Lon: 20.1}, Point{Lat: 10.25, Lon: 20.25}},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, SnapPoint(tc.in), "SnapPoint(%+v)", tc.in)
	}
}

func TestCellBounds(t *testing.T) {
	assert.Equal(t, BoundingBox{MinLat: 4, MinLon: 0, MaxLat: 4.5, MaxLon: 0.5}, CellBounds(Point{Lat: 4, Lon: 0}))
	assert.Equal(t, BoundingBox{MinLat: 89.5, MinLon: 179.5, MaxLat: 90, MaxLon: 180}, CellBounds(Point{Lat: 90, Lon: 180}))
}

func TestMatchGridRelabels(t *testing.T) {
	day := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []GridRow{
		{Lat: 10.25, Lon: 20.25, Date: day, Values: map[string]float64{"T2M": 14.2}},
		{Lat: 10.25, Lon: 20.25, Date: day.AddDate(0, 0, 1), Values: map[string]float64{"T2M": 15.1}},
		{Lat: 10.75, Lon: 20.25, Date: day, Values: map[string]float64{"T2M": 99}},
	}

	out, err := MatchGrid([]Point{{Lat: 10.3, Lon: 20.1}}, rows)
	require.NoError(t, err)
	require.Len(t, out, 2)

	for _, r := range out {
		assert.Equal(t, 10.3, r.Lat)
		assert.Equal(t, 20.1, r.Lon)
	}
	assert.Equal(t, 14.2, out[0].Values["T2M"])
	assert.Equal(t, 15.1, out[1].Values["T2M"])

	// Source rows are untouched.
	assert.Equal(t, 10.25, rows[0].Lat)
	out[0].Values["T2M"] = 0
	assert.Equal(t, 14.2, rows[0].Values["T2M"])
}

func TestMatchGridSharedCell(t *testing.T) {
	rows := []GridRow{{Lat: 1.25, Lon: 1.25, Values: map[string]float64{"PS": 101.3}}}

	out, err := MatchGrid([]Point{{Lat: 1.1, Lon: 1.2}, {Lat: 1.4, Lon: 1.3}}, rows)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, Point{Lat: 1.1, Lon: 1.2}, out[0].Point())
	assert.Equal(t, Point{Lat: 1.4, Lon: 1.3}, out[1].Point())
}

func TestMatchGridUnmatched(t *testing.T) {
	rows := []GridRow{{Lat: 10.25, Lon: 19.75, Values: map[string]float64{"T2M": 1}}}

	_, err := MatchGrid([]Point{{Lat: 10.3, Lon: 20.1}}, rows)
	assert.ErrorIs(t, err, ErrUnmatchedLocation)
}

func TestBoxIndexLocate(t *testing.T) {
	boxes := []BoundingBox{
		{MinLat: 0, MinLon: 0, MaxLat: 10, MaxLon: 10},
		{MinLat: 5, MinLon: 5, MaxLat: 15, MaxLon: 15},
		{MinLat: -20, MinLon: -20, MaxLat: -15, MaxLon: -15},
	}
	index, err := NewBoxIndex(boxes)
	require.NoError(t, err)
	assert.Equal(t, 3, index.Size())

	assert.Len(t, index.Locate(Point{Lat: 1, Lon: 1}), 1)
	assert.Len(t, index.Locate(Point{Lat: 7, Lon: 7}), 2)
	assert.Len(t, index.Locate(Point{Lat: 10, Lon: 10}), 2) // edges are inclusive
	assert.Empty(t, index.Locate(Point{Lat: 10.0001, Lon: -1}))
	assert.Equal(t, boxes[2], index.Locate(Point{Lat: -17, Lon: -16})[0])
}

func TestBoxIndexRejectsDegenerate(t *testing.T) {
	_, err := NewBoxIndex([]BoundingBox{{MinLat: 1, MinLon: 1, MaxLat: 1, MaxLon: 2}})
	assert.Error(t, err)
}

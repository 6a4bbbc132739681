package geo

import "math"

// cluster is a group of points around a centre.
type cluster struct {
	center  Point
	members []Point
}

// radius is the largest distance from the centre to any member.
func (c cluster) radius() float64 {
	var r float64
	for _, m := range c.members {
		if d := distance(c.center, m); d > r {
			r = d
		}
	}
	return r
}

// distance is plain Euclidean distance on raw degrees. It ignores the
// convergence of meridians and the antimeridian.
func distance(a, b Point) float64 {
	return math.Hypot(a.Lat-b.Lat, a.Lon-b.Lon)
}

// kmeans splits points into at most k clusters with Lloyd's algorithm.
// Seeding is deterministic: the first point, then repeatedly the point
// farthest from every centre chosen so far. Empty clusters are dropped.
func kmeans(points []Point, k, maxIter int) []cluster {
	if k > len(points) {
		k = len(points)
	}
	if k <= 0 {
		return nil
	}

	centers := seedCenters(points, k)
	assign := make([]int, len(points))
	for i := range assign {
		assign[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range points {
			best := nearestCenter(centers, p)
			if best != assign[i] {
				assign[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		sumLat := make([]float64, k)
		sumLon := make([]float64, k)
		count := make([]int, k)
		for i, p := range points {
			c := assign[i]
			sumLat[c] += p.Lat
			sumLon[c] += p.Lon
			count[c]++
		}
		for c := range centers {
			if count[c] == 0 {
				continue
			}
			centers[c] = Point{
				Lat: sumLat[c] / float64(count[c]),
				Lon: sumLon[c] / float64(count[c]),
			}
		}
	}

	clusters := make([]cluster, k)
	for c := range clusters {
		clusters[c].center = centers[c]
	}
	for i, p := range points {
		clusters[assign[i]].members = append(clusters[assign[i]].members, p)
	}

	out := clusters[:0]
	for _, c := range clusters {
		if len(c.members) > 0 {
			out = append(out, c)
		}
	}
	return out
}

func seedCenters(points []Point, k int) []Point {
	centers := make([]Point, 0, k)
	centers = append(centers, points[0])

	// minDist[i] is the distance from points[i] to its closest centre.
	minDist := make([]float64, len(points))
	for i, p := range points {
		minDist[i] = distance(p, points[0])
	}

	for len(centers) < k {
		far := 0
		for i := range points {
			if minDist[i] > minDist[far] {
				far = i
			}
		}
		next := points[far]
		centers = append(centers, next)
		for i, p := range points {
			if d := distance(p, next); d < minDist[i] {
				minDist[i] = d
			}
		}
	}
	return centers
}

func nearestCenter(centers []Point, p Point) int {
	best := 0
	bestDist := math.Inf(1)
	for c, center := range centers {
		if d := distance(center, p); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

package weather

import (
	"sort"

	"github.com/i474232898/geo-weather-connector/internal/geo"
)

// uniqueLocations keeps the first occurrence of every located row and drops
// rows without usable coordinates.
func uniqueLocations(locs []Location) []Location {
	seen := make(map[identity]struct{}, len(locs))
	out := make([]Location, 0, len(locs))
	for _, loc := range locs {
		p, ok := loc.Point()
		if !ok {
			continue
		}
		id := identityOf(loc, p)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, loc)
	}
	return out
}

func locationPoints(locs []Location) []geo.Point {
	points := make([]geo.Point, 0, len(locs))
	for _, loc := range locs {
		if p, ok := loc.Point(); ok {
			points = append(points, p)
		}
	}
	return geo.UniquePoints(points)
}

// dedupeGrid drops rows for a cell and day already seen. Neighbouring boxes
// can overlap on shared cells.
func dedupeGrid(rows []geo.GridRow) []geo.GridRow {
	type cellDay struct {
		point geo.Point
		day   int64
	}
	seen := make(map[cellDay]struct{}, len(rows))
	out := rows[:0]
	for _, r := range rows {
		k := cellDay{point: r.Point(), day: r.Date.Unix()}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// AggregateRecords joins location-labeled rows back onto the locations they
// were fetched for. Rows must carry the locations' exact coordinates. Records
// are ordered by place name, then coordinates, then date.
func AggregateRecords(locs []Location, rows []geo.GridRow) []Record {
	byPoint := make(map[geo.Point][]geo.GridRow)
	for _, r := range rows {
		byPoint[r.Point()] = append(byPoint[r.Point()], r)
	}

	var records []Record
	for _, loc := range locs {
		p, ok := loc.Point()
		if !ok {
			continue
		}
		for _, r := range byPoint[p] {
			records = append(records, Record{
				Location: loc,
				Date:     r.Date,
				Values:   r.Clone().Values,
			})
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		for _, f := range [][2]string{
			{a.Location.Country, b.Location.Country},
			{a.Location.Region, b.Location.Region},
			{a.Location.SubRegion, b.Location.SubRegion},
			{a.Location.City, b.Location.City},
		} {
			if f[0] != f[1] {
				return f[0] < f[1]
			}
		}
		if *a.Location.Lat != *b.Location.Lat {
			return *a.Location.Lat < *b.Location.Lat
		}
		if *a.Location.Lon != *b.Location.Lon {
			return *a.Location.Lon < *b.Location.Lon
		}
		return a.Date.Before(b.Date)
	})
	return records
}

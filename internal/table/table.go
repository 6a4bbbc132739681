// Package table reads location tables and writes connector output as CSV.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/i474232898/geo-weather-connector/internal/geo"
	"github.com/i474232898/geo-weather-connector/internal/weather"
)

const dateFormat = "2006-01-02"

type locationRow struct {
	Country   string        `csv:"country"`
	Region    string        `csv:"region"`
	SubRegion string        `csv:"sub_region"`
	City      string        `csv:"city"`
	Lat       OptionalFloat `csv:"lat"`
	Lon       OptionalFloat `csv:"lon"`
}

// inputRow keeps coordinates as text so that absent columns read as missing
// rather than zero.
type inputRow struct {
	Country   string `csv:"country"`
	Region    string `csv:"region"`
	SubRegion string `csv:"sub_region"`
	City      string `csv:"city"`
	Lat       string `csv:"lat"`
	Lon       string `csv:"lon"`
}

func (r inputRow) location() (weather.Location, error) {
	var lat, lon OptionalFloat
	if err := lat.UnmarshalCSV(r.Lat); err != nil {
		return weather.Location{}, fmt.Errorf("lat %q: %w", r.Lat, err)
	}
	if err := lon.UnmarshalCSV(r.Lon); err != nil {
		return weather.Location{}, fmt.Errorf("lon %q: %w", r.Lon, err)
	}
	return weather.Location{
		Country:   strings.TrimSpace(r.Country),
		Region:    strings.TrimSpace(r.Region),
		SubRegion: strings.TrimSpace(r.SubRegion),
		City:      strings.TrimSpace(r.City),
		Lat:       lat.Ptr(),
		Lon:       lon.Ptr(),
	}, nil
}

// Optional columns may be absent, so rows are allowed to be shorter than the
// header.
func csvReader(in io.Reader) gocsv.CSVReader {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r
}

// ReadLocations reads a location table with a header row. Recognised columns
// are country, region, sub_region, city, lat and lon; others are ignored and
// empty coordinates are treated as missing.
func ReadLocations(in io.Reader) ([]weather.Location, error) {
	var rows []inputRow
	if err := gocsv.UnmarshalCSV(csvReader(in), &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("read locations: %w", err)
	}

	locs := make([]weather.Location, len(rows))
	for i, r := range rows {
		loc, err := r.location()
		if err != nil {
			return nil, fmt.Errorf("read locations: row %d: %w", i+1, err)
		}
		locs[i] = loc
	}
	return locs, nil
}

// WriteLocations writes locs in the format ReadLocations accepts.
func WriteLocations(out io.Writer, locs []weather.Location) error {
	rows := make([]locationRow, len(locs))
	for i, l := range locs {
		rows[i] = locationRow{
			Country:   l.Country,
			Region:    l.Region,
			SubRegion: l.SubRegion,
			City:      l.City,
			Lat:       optional(l.Lat),
			Lon:       optional(l.Lon),
		}
	}
	return gocsv.Marshal(&rows, out)
}

// WriteRecords writes one row per location and day with a column per
// parameter, in params order. A city column is added when any record has a
// city. Missing values are left empty.
func WriteRecords(out io.Writer, records []weather.Record, params []string) error {
	withCity := false
	for _, r := range records {
		if r.Location.City != "" {
			withCity = true
			break
		}
	}

	header := []string{"country", "region", "sub_region"}
	if withCity {
		header = append(header, "city")
	}
	header = append(header, "lon", "lat", "date")
	header = append(header, params...)

	w := gocsv.NewSafeCSVWriter(csv.NewWriter(out))
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		loc := r.Location
		row := []string{loc.Country, loc.Region, loc.SubRegion}
		if withCity {
			row = append(row, loc.City)
		}
		row = append(row, optional(loc.Lon).String(), optional(loc.Lat).String(), r.Date.Format(dateFormat))
		for _, p := range params {
			if v, ok := r.Values[p]; ok {
				row = append(row, formatFloat(v))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

type longRow struct {
	Country   string        `csv:"country"`
	Region    string        `csv:"region"`
	SubRegion string        `csv:"sub_region"`
	City      string        `csv:"city"`
	Lon       OptionalFloat `csv:"lon"`
	Lat       OptionalFloat `csv:"lat"`
	Date      string        `csv:"date"`
	Parameter string        `csv:"parameter"`
	Value     OptionalFloat `csv:"value"`
}

// WriteLong writes one row per location, day and parameter. Parameters are
// written in sorted order.
func WriteLong(out io.Writer, records []weather.Record) error {
	var rows []longRow
	for _, r := range records {
		params := make([]string, 0, len(r.Values))
		for p := range r.Values {
			params = append(params, p)
		}
		sort.Strings(params)

		for _, p := range params {
			rows = append(rows, longRow{
				Country:   r.Location.Country,
				Region:    r.Location.Region,
				SubRegion: r.Location.SubRegion,
				City:      r.Location.City,
				Lon:       optional(r.Location.Lon),
				Lat:       optional(r.Location.Lat),
				Date:      r.Date.Format(dateFormat),
				Parameter: p,
				Value:     OptionalFloat(r.Values[p]),
			})
		}
	}
	return gocsv.Marshal(&rows, out)
}

type boxRow struct {
	MinLat OptionalFloat `csv:"min_lat"`
	MinLon OptionalFloat `csv:"min_lon"`
	MaxLat OptionalFloat `csv:"max_lat"`
	MaxLon OptionalFloat `csv:"max_lon"`
	BBox   string        `csv:"bbox"`
}

// WriteBoxes writes partition boxes, with the query string form in bbox.
func WriteBoxes(out io.Writer, boxes []geo.BoundingBox) error {
	rows := make([]boxRow, len(boxes))
	for i, b := range boxes {
		rows[i] = boxRow{
			MinLat: OptionalFloat(b.MinLat),
			MinLon: OptionalFloat(b.MinLon),
			MaxLat: OptionalFloat(b.MaxLat),
			MaxLon: OptionalFloat(b.MaxLon),
			BBox:   b.String(),
		}
	}
	return gocsv.Marshal(&rows, out)
}

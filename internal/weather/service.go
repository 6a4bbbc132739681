package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/geo-weather-connector/internal/geo"
)

// Request describes a connector run.
type Request struct {
	Start time.Time
	// End defaults to today (UTC) when zero.
	End time.Time
	// Variables are user-facing names; empty means all configured ones.
	Variables []string
	// Mode defaults to ModeArea.
	Mode Mode
}

// Service reshapes provider data onto a table of locations.
type Service struct {
	provider  DataProvider
	params    ParameterMap
	partition geo.PartitionOptions
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new Service.
func NewService(provider DataProvider, params ParameterMap, partition geo.PartitionOptions, logger *zap.Logger) *Service {
	if params == nil {
		params = DefaultParameters()
	}
	return &Service{
		provider:  provider,
		params:    params,
		partition: partition,
		logger:    logger,
		now:       time.Now,
	}
}

// Parameters resolves variable names to the provider codes a run would request.
func (s *Service) Parameters(variables []string) ([]string, error) {
	return s.params.Expand(variables)
}

// PartitionOptions returns the options used to split area queries.
func (s *Service) PartitionOptions() geo.PartitionOptions {
	return s.partition
}

// Partition splits the located rows of locs into query boxes.
func (s *Service) Partition(locs []Location) ([]geo.BoundingBox, error) {
	return geo.Partition(locationPoints(locs), s.partition)
}

// Window returns the day range req covers. A missing end means today, UTC.
func (s *Service) Window(req Request) (start, end time.Time) {
	start, end = truncateDay(req.Start), truncateDay(req.End)
	if req.End.IsZero() {
		end = truncateDay(s.now().UTC())
	}
	return start, end
}

// Fetch retrieves the requested time series for every located row of locs.
// Rows without coordinates are skipped; duplicate rows are fetched once.
func (s *Service) Fetch(ctx context.Context, locs []Location, req Request) ([]Record, error) {
	logger := s.logger.With(zap.String("run_id", uuid.NewString()))

	params, err := s.params.Expand(req.Variables)
	if err != nil {
		return nil, err
	}

	start, end := s.Window(req)
	q := Query{Start: start, End: end, Parameters: params}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	located := uniqueLocations(locs)
	if len(located) == 0 {
		return nil, fmt.Errorf("%w: no location has coordinates", geo.ErrNoPoints)
	}
	points := locationPoints(located)

	logger.Info("fetching weather data",
		zap.String("provider", s.provider.Name()),
		zap.String("mode", string(req.Mode)),
		zap.Int("rows", len(locs)),
		zap.Int("locations", len(located)),
		zap.Int("points", len(points)),
		zap.Strings("parameters", params),
	)

	var rows []geo.GridRow
	switch req.Mode {
	case ModeArea, "":
		rows, err = s.fetchArea(ctx, logger, points, q)
	case ModePoint:
		rows, err = s.fetchPoints(ctx, points, q)
	default:
		return nil, fmt.Errorf("unknown mode %q", req.Mode)
	}
	if err != nil {
		return nil, err
	}

	records := AggregateRecords(located, rows)
	logger.Info("fetch complete", zap.Int("records", len(records)))
	return records, nil
}

func (s *Service) fetchArea(ctx context.Context, logger *zap.Logger, points []geo.Point, q Query) ([]geo.GridRow, error) {
	boxes, err := geo.Partition(points, s.partition)
	if err != nil {
		return nil, err
	}

	index, err := geo.NewBoxIndex(boxes)
	if err != nil {
		return nil, err
	}
	served := make(map[geo.BoundingBox]int, len(boxes))
	for _, p := range points {
		for _, b := range index.Locate(p) {
			served[b]++
		}
	}

	var grid []geo.GridRow
	for _, box := range boxes {
		rows, err := s.provider.FetchArea(ctx, box, q)
		if err != nil {
			return nil, fmt.Errorf("fetch area %s: %w", box, err)
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("%w for area %s", ErrNoData, box)
		}
		logger.Debug("fetched area",
			zap.String("bbox", box.String()),
			zap.Int("points", served[box]),
			zap.Int("rows", len(rows)),
		)
		grid = append(grid, rows...)
	}

	return geo.MatchGrid(points, dedupeGrid(grid))
}

func (s *Service) fetchPoints(ctx context.Context, points []geo.Point, q Query) ([]geo.GridRow, error) {
	var out []geo.GridRow
	for _, p := range points {
		rows, err := s.provider.FetchPoint(ctx, p, q)
		if err != nil {
			return nil, fmt.Errorf("fetch point (%v, %v): %w", p.Lat, p.Lon, err)
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("%w for point (%v, %v)", ErrNoData, p.Lat, p.Lon)
		}
		for _, r := range rows {
			r.Lat, r.Lon = p.Lat, p.Lon
			out = append(out, r)
		}
	}
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts YYYY-MM-DD, YYYYMMDD or RFC3339.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "20060102", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q; use YYYY-MM-DD, YYYYMMDD or RFC3339", s)
}

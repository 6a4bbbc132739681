package providers

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/geo-weather-connector/internal/geo"
	"github.com/i474232898/geo-weather-connector/internal/weather"
)

// DefaultPowerURL is the NASA POWER data access endpoint.
const DefaultPowerURL = "https://power.larc.nasa.gov/cgi-bin/v1/DataAccess.py"

const powerDateFormat = "20060102"

// PowerProvider implements weather.DataProvider for NASA POWER daily data.
type PowerProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewPowerProvider creates a provider against baseURL; empty means
// DefaultPowerURL.
func NewPowerProvider(httpCfg HTTPClientConfig, baseURL string, logger *zap.Logger) *PowerProvider {
	if baseURL == "" {
		baseURL = DefaultPowerURL
	}
	return &PowerProvider{
		name:    "nasa-power",
		baseURL: baseURL,
		httpCfg: httpCfg,
		circuit: newCircuitBreaker("nasa-power"),
		logger:  logger,
	}
}

func (p *PowerProvider) Name() string {
	return p.name
}

func (p *PowerProvider) baseValues(identifier, outputs string, q weather.Query) url.Values {
	values := url.Values{}
	values.Set("request", "execute")
	values.Set("identifier", identifier)
	values.Set("parameters", strings.Join(q.Parameters, ","))
	values.Set("startDate", q.Start.Format(powerDateFormat))
	values.Set("endDate", q.End.Format(powerDateFormat))
	values.Set("tempAverage", "DAILY")
	values.Set("outputList", outputs)
	values.Set("userCommunity", "SSE")
	values.Set("user", "anonymous")
	return values
}

// FetchPoint queries a single location.
func (p *PowerProvider) FetchPoint(ctx context.Context, pt geo.Point, q weather.Query) ([]geo.GridRow, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	values := p.baseValues("SinglePoint", "JSON,ASCII", q)
	values.Set("lat", strconv.FormatFloat(pt.Lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(pt.Lon, 'f', -1, 64))

	fc, err := p.getFeatures(ctx, p.baseURL+"?"+values.Encode())
	if err != nil {
		return nil, err
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("%w: point (%v, %v)", weather.ErrNoData, pt.Lat, pt.Lon)
	}

	rows, err := featureRows(fc.Features[0], q.Parameters)
	if err != nil {
		return nil, err
	}
	// Point responses are labeled with the requested coordinates.
	for i := range rows {
		rows[i].Lat, rows[i].Lon = pt.Lat, pt.Lon
	}
	return rows, nil
}

// FetchArea queries a region of at most 10x10 degrees. The service answers
// with a link to the result document, which holds one feature per
// half-degree grid cell.
func (p *PowerProvider) FetchArea(ctx context.Context, box geo.BoundingBox, q weather.Query) ([]geo.GridRow, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	values := p.baseValues("Regional", "JSON", q)
	values.Set("bbox", box.String())

	var job struct {
		Outputs struct {
			JSON string `json:"json"`
		} `json:"outputs"`
	}
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.baseURL+"?"+values.Encode(), &job); err != nil {
		return nil, err
	}
	if job.Outputs.JSON == "" {
		return nil, fmt.Errorf("%w: regional response has no json output", errMalformed)
	}

	fc, err := p.getFeatures(ctx, job.Outputs.JSON)
	if err != nil {
		return nil, err
	}

	var rows []geo.GridRow
	for _, f := range fc.Features {
		featRows, err := featureRows(f, q.Parameters)
		if err != nil {
			return nil, err
		}
		rows = append(rows, featRows...)
	}

	p.logger.Debug("regional query complete",
		zap.String("bbox", box.String()),
		zap.Int("cells", len(fc.Features)),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}

func (p *PowerProvider) getFeatures(ctx context.Context, rawURL string) (*geojson.FeatureCollection, error) {
	body, err := getBody(ctx, p.httpCfg, p.circuit, rawURL)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	return fc, nil
}

// featureRows turns properties.parameter.{PARAM}.{YYYYMMDD} into one row per day.
func featureRows(f *geojson.Feature, params []string) ([]geo.GridRow, error) {
	pt, ok := f.Geometry.(orb.Point)
	if !ok {
		return nil, fmt.Errorf("%w: feature geometry is %T, want point", errMalformed, f.Geometry)
	}

	series, ok := f.Properties["parameter"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: feature has no parameter block", errMalformed)
	}

	byDay := make(map[time.Time]map[string]float64)
	for _, param := range params {
		daily, ok := series[param].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: parameter %s missing", errMalformed, param)
		}
		for day, raw := range daily {
			date, err := time.Parse(powerDateFormat, day)
			if err != nil {
				return nil, fmt.Errorf("%w: date %q: %v", errMalformed, day, err)
			}
			v, ok := raw.(float64)
			if !ok {
				return nil, fmt.Errorf("%w: %s on %s is %T", errMalformed, param, day, raw)
			}
			if byDay[date] == nil {
				byDay[date] = make(map[string]float64, len(params))
			}
			byDay[date][param] = v
		}
	}

	rows := make([]geo.GridRow, 0, len(byDay))
	for date, values := range byDay {
		rows = append(rows, geo.GridRow{
			Lat:    pt.Lat(),
			Lon:    pt.Lon(),
			Date:   date,
			Values: values,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, nil
}

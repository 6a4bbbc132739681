package httpapi

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/geo-weather-connector/internal/geo"
	"github.com/i474232898/geo-weather-connector/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app. locator may be
// nil, in which case geocoding answers 503.
func RegisterRoutes(app *fiber.App, service *weather.Service, locator *weather.Locator) {
	v1 := app.Group("/api/v1")

	v1.Post("/partition", func(c *fiber.Ctx) error {
		var req partitionRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		boxes, err := geo.Partition(req.Points, service.PartitionOptions())
		if err != nil {
			return mapError(err, "failed to partition points")
		}

		return c.JSON(fiber.Map{
			"boxes": boxes,
		})
	})

	v1.Get("/geocode", func(c *fiber.Ctx) error {
		if locator == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "geocoding is not configured")
		}

		q := geocodeQuery{
			Country:   c.Query("country"),
			Region:    c.Query("region"),
			SubRegion: c.Query("sub_region"),
			City:      c.Query("city"),
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		gl, err := locator.Locate(c.UserContext(), q.toLocation())
		if err != nil {
			return mapError(err, "failed to geocode location")
		}

		return c.JSON(gl)
	})

	v1.Post("/weather", func(c *fiber.Ctx) error {
		var body weatherRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req, err := body.toRequest()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		locs := body.Locations
		if body.Geocode {
			if locator == nil {
				return fiber.NewError(fiber.StatusServiceUnavailable, "geocoding is not configured")
			}
			if locs, err = locator.Enrich(c.UserContext(), locs); err != nil {
				return mapError(err, "failed to geocode locations")
			}
		}

		records, err := service.Fetch(c.UserContext(), locs, req)
		if err != nil {
			return mapError(err, "failed to fetch weather data")
		}

		start, end := service.Window(req)
		return c.JSON(fiber.Map{
			"start":   start,
			"end":     end,
			"records": records,
		})
	})
}

// mapError translates domain errors into HTTP errors; anything unknown is
// reported as an upstream failure with msg.
func mapError(err error, msg string) error {
	switch {
	case errors.Is(err, geo.ErrNoPoints),
		errors.Is(err, weather.ErrUnknownVariable),
		errors.Is(err, weather.ErrInvalidGeoQuery):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, weather.ErrGeoNotFound),
		errors.Is(err, weather.ErrNoData):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, geo.ErrCannotPartition),
		errors.Is(err, geo.ErrUnmatchedLocation):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(fiber.StatusBadGateway, msg+": "+err.Error())
	}
}

// geocodeQuery holds query parameters for the geocode endpoint.
type geocodeQuery struct {
	Country   string `validate:"required"`
	Region    string
	SubRegion string
	City      string
}

func (q geocodeQuery) toLocation() weather.Location {
	return weather.Location{
		Country:   q.Country,
		Region:    q.Region,
		SubRegion: q.SubRegion,
		City:      q.City,
	}
}

// partitionRequest is the body of the partition endpoint.
type partitionRequest struct {
	Points []geo.Point `json:"points" validate:"required,min=1,dive"`
}

// weatherRequest is the body of the weather endpoint.
type weatherRequest struct {
	Locations []weather.Location `json:"locations" validate:"required,min=1,dive"`
	Start     string             `json:"start" validate:"required"`
	End       string             `json:"end"`
	Variables []string           `json:"variables"`
	Mode      string             `json:"mode" validate:"omitempty,oneof=area point"`
	Geocode   bool               `json:"geocode"`
}

func (w weatherRequest) toRequest() (weather.Request, error) {
	req := weather.Request{
		Variables: w.Variables,
		Mode:      weather.Mode(w.Mode),
	}

	start, err := weather.ParseDate(w.Start)
	if err != nil {
		return req, err
	}
	req.Start = start

	if w.End != "" {
		end, err := weather.ParseDate(w.End)
		if err != nil {
			return req, err
		}
		req.End = end
	}
	if !req.End.IsZero() && req.End.Before(req.Start) {
		return req, errors.New("end must not be before start")
	}
	if req.Start.After(time.Now().UTC()) {
		return req, errors.New("start must not be in the future")
	}
	return req, nil
}

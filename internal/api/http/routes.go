package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/dmi-forecast/internal/forecast"
	"github.com/i474232898/dmi-forecast/internal/store"
	"github.com/i474232898/dmi-forecast/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		snap, err := service.Latest()
		if err != nil {
			return toHTTPError(err)
		}

		start, end := snap.Forecast.TimeSpan()
		return c.JSON(fiber.Map{
			"snapshot": snap,
			"start":    start,
			"end":      end,
			"points":   snap.Forecast.Points(),
		})
	})

	v1.Get("/forecast/points", func(c *fiber.Ctx) error {
		var req rangeQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		clip := c.QueryBool("clip", false)

		snap, points, err := service.Points(req.From, req.To, clip)
		if err != nil {
			return toHTTPError(err)
		}

		return c.JSON(fiber.Map{
			"snapshot": snap,
			"from":     req.From,
			"to":       req.To,
			"clipped":  clip,
			"points":   points,
		})
	})

	v1.Get("/forecast/slice", func(c *fiber.Ctx) error {
		var req rangeQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snap, slice, err := service.Slice(req.From, req.To)
		if err != nil {
			return toHTTPError(err)
		}

		return c.JSON(fiber.Map{
			"snapshot": snap,
			"from":     req.From,
			"to":       req.To,
			"slice":    newSliceResponse(slice),
		})
	})
}

// sliceResponse adds the derived values to a forecast.Slice.
type sliceResponse struct {
	forecast.Slice
	DurationSeconds float64 `json:"durationSeconds"`
	// Nil when the slice covers a single point.
	PrecipitationPerHour *float64 `json:"precipitationPerHour"`
}

func newSliceResponse(s forecast.Slice) sliceResponse {
	resp := sliceResponse{
		Slice:           s,
		DurationSeconds: s.Duration().Seconds(),
	}
	if rate, err := s.PrecipitationPerHour(); err == nil {
		resp.PrecipitationPerHour = &rate
	}
	return resp
}

// toHTTPError maps service and forecast errors onto status codes.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusServiceUnavailable, "no forecast available yet")
	case errors.Is(err, store.ErrStale):
		return fiber.NewError(fiber.StatusServiceUnavailable, "forecast is stale")
	case errors.Is(err, forecast.ErrOutOfRange):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, forecast.ErrEmptyRange):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to query forecast")
	}
}

// rangeQuery holds the from/to query parameters.
type rangeQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (r *rangeQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	r.From = from
	r.To = to
	return validate.Struct(r)
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

package httpapi

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/advisor"
	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/earthdata"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *advisor.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/soil-moisture", func(c *fiber.Ctx) error {
		q, err := parsePointQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		series := service.GetSoilMoisture(c.Context(), q.Lat, q.Lon, q.From, q.To)
		return c.JSON(fiber.Map{
			"lat":    q.Lat,
			"lon":    q.Lon,
			"from":   q.From,
			"to":     q.To,
			"series": series,
		})
	})

	v1.Get("/vegetation-index", func(c *fiber.Ctx) error {
		q, err := parsePointQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		observations, err := service.GetVegetationIndex(c.Context(), q.area(), q.From, q.To)
		if err != nil {
			return vegetationError(err)
		}
		return c.JSON(fiber.Map{
			"lat":          q.Lat,
			"lon":          q.Lon,
			"from":         q.From,
			"to":           q.To,
			"observations": observations,
		})
	})

	v1.Get("/drought", func(c *fiber.Ctx) error {
		q, err := parsePointQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		assessment := service.GetDroughtAssessment(c.Context(), q.Lat, q.Lon, q.From, q.To)
		return c.JSON(assessment)
	})

	v1.Get("/irrigation-plan", func(c *fiber.Ctx) error {
		var q irrigationQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		plan := service.GetIrrigationPlan(c.Context(), q.Lat, q.Lon, q.From, q.To, q.Target, q.AreaHa)
		return c.JSON(plan)
	})

	v1.Get("/grazing-plan", func(c *fiber.Ctx) error {
		var q grazingQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		plan, err := service.GetGrazingPlan(c.Context(), q.area(), q.From, q.To, q.AreaHa, q.Animals, q.Intake)
		if err != nil {
			return vegetationError(err)
		}
		return c.JSON(plan)
	})

	v1.Get("/moisture-forecast", func(c *fiber.Ctx) error {
		q, err := parsePointQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		rainfall, err := parseRainfall(c.Query("rain"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		predictions := service.GetMoistureForecast(c.Context(), q.Lat, q.Lon, q.From, q.To, rainfall)
		return c.JSON(fiber.Map{
			"lat":         q.Lat,
			"lon":         q.Lon,
			"predictions": predictions,
		})
	})

	v1.Get("/field-report", func(c *fiber.Ctx) error {
		var q fieldReportQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report := service.GetFieldReport(c.Context(), q.area(), q.From, q.To, advisor.FieldReportParams{
			TargetMoisture: q.Target,
			AreaHa:         q.AreaHa,
			Animals:        q.Animals,
			IntakeKgPerDay: q.Intake,
			RainfallMM:     q.Rainfall,
		})
		return c.JSON(report)
	})
}

// vegetationError maps the area workflow's error taxonomy onto HTTP
// statuses: polling exhaustion is an upstream timeout, provider-side
// failures are bad gateways.
func vegetationError(err error) error {
	var timeoutErr *earthdata.TaskTimeoutError
	var failedErr *earthdata.TaskFailedError
	var authErr *earthdata.AuthenticationError

	switch {
	case errors.As(err, &timeoutErr):
		return fiber.NewError(fiber.StatusGatewayTimeout, err.Error())
	case errors.As(err, &failedErr), errors.As(err, &authErr):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case errors.Is(err, earthdata.ErrTerminalRequest):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch vegetation data")
}

// pointQuery holds the location and window every endpoint shares.
type pointQuery struct {
	Lat  float64   `validate:"gte=-90,lte=90"`
	Lon  float64   `validate:"gte=-180,lte=180"`
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (q pointQuery) area() earthdata.AreaOfInterest {
	return earthdata.AreaOfInterest{Point: &earthdata.Coordinate{Lat: q.Lat, Lon: q.Lon}}
}

func parsePointQuery(c *fiber.Ctx) (pointQuery, error) {
	var q pointQuery

	lat, err := parseFloatParam(c, "lat")
	if err != nil {
		return q, err
	}
	lon, err := parseFloatParam(c, "lon")
	if err != nil {
		return q, err
	}
	q.Lat = lat
	q.Lon = lon

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return q, errors.New("from and to query parameters are required")
	}
	from, err := parseTime(fromStr)
	if err != nil {
		return q, err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return q, err
	}
	q.From = from
	q.To = to

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// irrigationQuery adds the target moisture and field area.
type irrigationQuery struct {
	pointQuery
	Target float64 `validate:"gt=0,lte=1"`
	AreaHa float64 `validate:"gt=0"`
}

func (q *irrigationQuery) bind(c *fiber.Ctx) error {
	pq, err := parsePointQuery(c)
	if err != nil {
		return err
	}
	q.pointQuery = pq

	if q.Target, err = parseFloatParam(c, "target"); err != nil {
		return err
	}
	if q.AreaHa, err = parseFloatParam(c, "area"); err != nil {
		return err
	}
	return validate.Struct(q)
}

// grazingQuery adds the stocking inputs.
type grazingQuery struct {
	pointQuery
	AreaHa  float64 `validate:"gt=0"`
	Animals int     `validate:"gte=0"`
	Intake  float64 `validate:"gte=0"`
}

func (q *grazingQuery) bind(c *fiber.Ctx) error {
	pq, err := parsePointQuery(c)
	if err != nil {
		return err
	}
	q.pointQuery = pq

	if q.AreaHa, err = parseFloatParam(c, "area"); err != nil {
		return err
	}
	q.Animals = c.QueryInt("animals")
	if q.Intake, err = parseFloatParam(c, "intake"); err != nil {
		return err
	}
	return validate.Struct(q)
}

// fieldReportQuery carries everything the combined report needs.
type fieldReportQuery struct {
	pointQuery
	Target   float64 `validate:"gt=0,lte=1"`
	AreaHa   float64 `validate:"gt=0"`
	Animals  int     `validate:"gte=0"`
	Intake   float64 `validate:"gte=0"`
	Rainfall []float64
}

func (q *fieldReportQuery) bind(c *fiber.Ctx) error {
	pq, err := parsePointQuery(c)
	if err != nil {
		return err
	}
	q.pointQuery = pq

	if q.Target, err = parseFloatParam(c, "target"); err != nil {
		return err
	}
	if q.AreaHa, err = parseFloatParam(c, "area"); err != nil {
		return err
	}
	q.Animals = c.QueryInt("animals")
	if v := c.Query("intake"); v != "" {
		if q.Intake, err = strconv.ParseFloat(v, 64); err != nil {
			return errors.New("invalid intake parameter")
		}
	}
	if q.Rainfall, err = parseRainfall(c.Query("rain")); err != nil {
		return err
	}
	return validate.Struct(q)
}

func parseFloatParam(c *fiber.Ctx, name string) (float64, error) {
	v := c.Query(name)
	if v == "" {
		return 0, errors.New(name + " query parameter is required")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New("invalid " + name + " parameter")
	}
	return f, nil
}

// parseRainfall decodes a comma-separated list of daily millimetres.
func parseRainfall(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		mm, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.New("invalid rain parameter; use comma-separated millimetres")
		}
		out = append(out, mm)
	}
	return out, nil
}

// parseTime tries to parse either RFC3339, a bare date, or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse("2006-01-02", s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339, YYYY-MM-DD or unix seconds")
}

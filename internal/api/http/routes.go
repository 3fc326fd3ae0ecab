package httpapi

import (
	"context"
	"errors"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Abhibhav1976/weather-dashboard/internal/history"
	"github.com/Abhibhav1976/weather-dashboard/internal/weather"
)

var validate = validator.New()

// healthProbeCity is the fixed location used for the live upstream probe.
const healthProbeCity = "London"

// WeatherClient is the subset of the upstream client the routes depend on.
type WeatherClient interface {
	Current(ctx context.Context, city string) (*weather.WeatherResponse, error)
	Forecast(ctx context.Context, city string, days int) (*weather.WeatherResponse, error)
	ByCoordinates(ctx context.Context, lat, lon float64, days int) (*weather.WeatherResponse, error)
	Search(ctx context.Context, query string) ([]weather.CitySearchResult, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, client WeatherClient, store history.Store) {
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		weatherStatus := "connected"
		if _, err := client.Search(ctx, healthProbeCity); err != nil {
			log.Printf("health: upstream probe failed: %v", err)
			weatherStatus = "disconnected"
		}

		dbStatus := "connected"
		if err := store.Ping(ctx); err != nil {
			log.Printf("health: store ping failed: %v", err)
			dbStatus = "disconnected"
		}

		payload := fiber.Map{
			"weather_api": weatherStatus,
			"database":    dbStatus,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		}

		if weatherStatus != "connected" {
			payload["status"] = "degraded"
			return c.Status(fiber.StatusServiceUnavailable).JSON(payload)
		}
		payload["status"] = "healthy"
		return c.JSON(payload)
	})

	api.Get("/weather/current/:city", func(c *fiber.Ctx) error {
		city := pathParam(c, "city")

		resp, err := client.Current(c.UserContext(), city)
		if err != nil {
			return weatherError(c, err)
		}

		recordSearch(c, store, resp.Location)
		return c.JSON(resp)
	})

	api.Get("/weather/forecast/:city", func(c *fiber.Ctx) error {
		city := pathParam(c, "city")

		days := c.QueryInt("days", 3)
		if days < 1 || days > 10 {
			return respondError(c, fiber.StatusBadRequest, codeInvalidParameter, "Days must be between 1 and 10")
		}

		resp, err := client.Forecast(c.UserContext(), city, days)
		if err != nil {
			return weatherError(c, err)
		}

		recordSearch(c, store, resp.Location)
		return c.JSON(resp)
	})

	api.Post("/weather", func(c *fiber.Ctx) error {
		var req weatherRequest
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, fiber.StatusBadRequest, codeInvalidParameter, "Invalid request body")
		}
		if req.Days == 0 {
			req.Days = 3
		}
		if err := validate.Struct(req); err != nil {
			return respondError(c, fiber.StatusBadRequest, codeInvalidParameter, err.Error())
		}

		// Oversized day counts are clamped by the client, not rejected.
		resp, err := client.Forecast(c.UserContext(), req.City, req.Days)
		if err != nil {
			return weatherError(c, err)
		}

		recordSearch(c, store, resp.Location)
		return c.JSON(resp)
	})

	api.Get("/weather/coordinates", func(c *fiber.Ctx) error {
		var q coordinatesQuery
		if err := q.bind(c); err != nil {
			return respondError(c, fiber.StatusBadRequest, codeInvalidParameter, err.Error())
		}
		if err := validate.Struct(q); err != nil {
			return respondError(c, fiber.StatusBadRequest, codeInvalidParameter, "Invalid coordinates")
		}

		resp, err := client.ByCoordinates(c.UserContext(), q.Lat, q.Lon, q.Days)
		if err != nil {
			return weatherError(c, err)
		}

		recordSearch(c, store, resp.Location)
		return c.JSON(resp)
	})

	api.Get("/cities/search", func(c *fiber.Ctx) error {
		q := c.Query("q")
		if len(strings.TrimSpace(q)) < 2 {
			return respondError(c, fiber.StatusBadRequest, codeInvalidParameter, "Search query must be at least 2 characters")
		}

		cities, err := client.Search(c.UserContext(), q)
		if err != nil {
			// Autocomplete stays best-effort: an empty list beats an error.
			log.Printf("search: upstream failed for %q: %v", q, err)
			return c.JSON([]weather.CitySearchResult{})
		}
		return c.JSON(cities)
	})

	api.Get("/history/searches", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)

		entries, err := store.Recent(c.UserContext(), limit)
		if err != nil {
			log.Printf("history: recent query failed: %v", err)
			return respondError(c, fiber.StatusInternalServerError, codeDatabaseError, "Failed to fetch search history")
		}
		return c.JSON(entries)
	})

	api.Get("/history/popular", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 10)

		cities, err := store.Popular(c.UserContext(), limit)
		if err != nil {
			log.Printf("history: popular query failed: %v", err)
			return respondError(c, fiber.StatusInternalServerError, codeDatabaseError, "Failed to fetch popular cities")
		}
		return c.JSON(cities)
	})
}

// recordSearch persists one history entry derived from the returned location.
// Writes are best-effort: history is an analytics side channel and must never
// fail the weather response.
func recordSearch(c *fiber.Ctx, store history.Store, loc weather.Location) {
	err := store.Record(c.UserContext(), history.Entry{
		CityName:  loc.Name,
		Country:   loc.Country,
		Region:    loc.Region,
		Latitude:  loc.Lat,
		Longitude: loc.Lon,
		UserIP:    c.IP(),
	})
	if err != nil {
		log.Printf("history: failed to record search for %s: %v", loc.Name, err)
	}
}

// pathParam returns a percent-decoded path parameter.
func pathParam(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// weatherRequest is the POST /api/weather body.
type weatherRequest struct {
	City string `json:"city" validate:"required"`
	Days int    `json:"days" validate:"gte=0"`
}

// coordinatesQuery holds the coordinate-lookup query parameters.
type coordinatesQuery struct {
	Lat  float64 `validate:"gte=-90,lte=90"`
	Lon  float64 `validate:"gte=-180,lte=180"`
	Days int     `validate:"gte=1,lte=10"`
}

func (q *coordinatesQuery) bind(c *fiber.Ctx) error {
	latStr := c.Query("lat")
	lonStr := c.Query("lon")
	if latStr == "" || lonStr == "" {
		return errLatLonRequired
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return errLatLonInvalid
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return errLatLonInvalid
	}

	q.Lat = lat
	q.Lon = lon
	q.Days = c.QueryInt("days", 3)
	return nil
}

var (
	errLatLonRequired = errors.New("lat and lon query parameters are required")
	errLatLonInvalid  = errors.New("lat and lon must be valid numbers")
)

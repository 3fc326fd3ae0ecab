package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Abhibhav1976/weather-dashboard/internal/weather"
)

// Stable error codes returned in the "error" field of failure bodies.
const (
	codeCityNotFound     = "city_not_found"
	codeNetworkError     = "network_error"
	codeAPIError         = "api_error"
	codeServerError      = "server_error"
	codeDatabaseError    = "database_error"
	codeInvalidParameter = "invalid_parameter"
)

// respondError writes the uniform failure body and ends the handler.
func respondError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

// weatherError maps the client's closed error set onto HTTP statuses.
// Credential and quota failures are deliberately generalized so the upstream
// detail never reaches the caller.
func weatherError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, weather.ErrCityNotFound):
		return respondError(c, fiber.StatusNotFound, codeCityNotFound, err.Error())
	case errors.Is(err, weather.ErrNetworkUnavailable):
		return respondError(c, fiber.StatusServiceUnavailable, codeNetworkError, "Network connection failed")
	case errors.Is(err, weather.ErrInvalidCredentials), errors.Is(err, weather.ErrQuotaExceeded):
		return respondError(c, fiber.StatusServiceUnavailable, codeAPIError, "Weather service temporarily unavailable")
	default:
		var upstream *weather.UpstreamError
		if errors.As(err, &upstream) {
			return respondError(c, fiber.StatusInternalServerError, codeAPIError, upstream.Error())
		}
		return respondError(c, fiber.StatusInternalServerError, codeServerError, "Internal server error")
	}
}

// ErrorHandler is the app-level catch-all: any error escaping a handler still
// yields a well-formed JSON body instead of a raw fault.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	return respondError(c, code, codeServerError, "An unexpected error occurred")
}

package weather

import (
	"errors"
	"fmt"
)

// Sentinel errors covering the closed set of upstream failure kinds. Callers
// classify with errors.Is and never inspect raw upstream payloads themselves.
var (
	// ErrCityNotFound means upstream could not resolve the requested location.
	ErrCityNotFound = errors.New("city not found")

	// ErrInvalidCredentials means upstream rejected the API key (HTTP 401).
	ErrInvalidCredentials = errors.New("invalid api key")

	// ErrQuotaExceeded means the API key is over its quota (HTTP 403).
	ErrQuotaExceeded = errors.New("api key exceeded quota")

	// ErrNetworkUnavailable means the upstream call failed at the transport
	// level (DNS, timeout, connection reset) after any retries.
	ErrNetworkUnavailable = errors.New("network connection failed")
)

// UpstreamError is the catch-all for upstream failures that do not map to a
// sentinel: unexpected status codes, malformed bodies, 400s with an
// unrecognized message.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("weather service error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("weather service error: status %d", e.StatusCode)
}

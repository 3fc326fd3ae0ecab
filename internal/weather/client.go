package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// maxForecastDays is the upstream-imposed ceiling on forecast length.
// Larger requests are clamped, not rejected.
const maxForecastDays = 10

const defaultBaseURL = "http://api.weatherapi.com/v1"

// ClientConfig bundles the upstream endpoint, credentials and resilience
// settings for a Client.
type ClientConfig struct {
	APIKey  string
	BaseURL string // defaults to the public WeatherAPI.com endpoint
	Client  *http.Client

	// Timeout is the per-call deadline applied on top of the caller's
	// context. Zero disables it.
	Timeout time.Duration

	// MaxRetries is the number of additional attempts after a
	// transport-level failure. HTTP error statuses are never retried.
	MaxRetries    int
	RetryInterval time.Duration
}

// Client wraps the upstream weather provider. It performs exactly one logical
// outbound call per operation and translates transport and status failures
// into the package's closed error set.
type Client struct {
	apiKey        string
	baseURL       string
	httpClient    *http.Client
	timeout       time.Duration
	maxRetries    int
	retryInterval time.Duration
	circuit       *gobreaker.CircuitBreaker
}

// NewClient creates a Client. The API key must be non-empty; the caller is
// expected to have validated configuration at startup.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	retryInterval := cfg.RetryInterval
	if retryInterval <= 0 {
		retryInterval = 500 * time.Millisecond
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "weatherapi",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		apiKey:        cfg.APIKey,
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    httpClient,
		timeout:       cfg.Timeout,
		maxRetries:    cfg.MaxRetries,
		retryInterval: retryInterval,
		circuit:       cb,
	}
}

// Current fetches current conditions for a city. The returned response never
// carries a forecast.
func (c *Client) Current(ctx context.Context, city string) (*WeatherResponse, error) {
	values := url.Values{}
	values.Set("q", city)
	values.Set("aqi", "no")

	var out WeatherResponse
	if err := c.getJSON(ctx, "/current.json", values, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Forecast fetches current conditions plus a multi-day forecast for a city.
// days is clamped to [1, 10] before the upstream call.
func (c *Client) Forecast(ctx context.Context, city string, days int) (*WeatherResponse, error) {
	return c.forecast(ctx, city, days)
}

// ByCoordinates fetches a forecast for a lat/lon pair. The location query is
// the literal "lat,lon" string; upstream resolves it to the nearest place.
func (c *Client) ByCoordinates(ctx context.Context, lat, lon float64, days int) (*WeatherResponse, error) {
	q := strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
	return c.forecast(ctx, q, days)
}

func (c *Client) forecast(ctx context.Context, q string, days int) (*WeatherResponse, error) {
	values := url.Values{}
	values.Set("q", q)
	values.Set("days", strconv.Itoa(clampDays(days)))
	values.Set("aqi", "no")
	values.Set("alerts", "no")

	var out WeatherResponse
	if err := c.getJSON(ctx, "/forecast.json", values, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search looks up location candidates by name. Queries shorter than two
// non-whitespace characters return an empty slice without calling upstream.
// Upstream failures are returned classified; callers that want autocomplete
// semantics discard them and treat the result as empty.
func (c *Client) Search(ctx context.Context, query string) ([]CitySearchResult, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []CitySearchResult{}, nil
	}

	values := url.Values{}
	values.Set("q", query)

	var out []CitySearchResult
	if err := c.getJSON(ctx, "/search.json", values, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []CitySearchResult{}
	}
	return out, nil
}

// getJSON performs one upstream GET and decodes a 200 body into v. Non-200
// statuses are classified into the package error set.
func (c *Client) getJSON(ctx context.Context, endpoint string, values url.Values, v interface{}) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	values.Set("key", c.apiKey)
	u := c.baseURL + endpoint + "?" + values.Encode()

	status, body, err := c.get(ctx, u)
	if err != nil {
		return err
	}

	if status != http.StatusOK {
		return classifyStatus(status, body)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &UpstreamError{StatusCode: status, Message: fmt.Sprintf("malformed response: %v", err)}
	}
	return nil
}

// get executes the request through the circuit breaker, retrying
// transport-level failures only. Any HTTP response, whatever its status, is
// returned to the caller for classification.
func (c *Client) get(ctx context.Context, u string) (int, []byte, error) {
	var lastErr error

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, nil, fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return 0, nil, err
		}

		result, err := c.circuit.Execute(func() (interface{}, error) {
			resp, execErr := c.httpClient.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			defer resp.Body.Close()

			body, readErr := io.ReadAll(resp.Body)
			if readErr != nil {
				return nil, readErr
			}
			return &upstreamReply{status: resp.StatusCode, body: body}, nil
		})
		if err == nil {
			reply := result.(*upstreamReply)
			return reply.status, reply.body, nil
		}

		// An open circuit means upstream is already known bad; do not
		// keep hammering it with retries.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return 0, nil, fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
		}

		lastErr = err
		if attempt >= c.maxRetries {
			return 0, nil, fmt.Errorf("%w: %v", ErrNetworkUnavailable, lastErr)
		}

		timer := time.NewTimer(c.retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return 0, nil, fmt.Errorf("%w: %v", ErrNetworkUnavailable, ctx.Err())
		case <-timer.C:
		}
	}
}

type upstreamReply struct {
	status int
	body   []byte
}

// classifyStatus maps a non-200 upstream reply onto the closed error set.
// Upstream distinguishes "unknown location" from other validation errors only
// by a message substring inside the 400 body.
func classifyStatus(status int, body []byte) error {
	switch status {
	case http.StatusBadRequest:
		msg := upstreamMessage(body)
		if strings.Contains(msg, "No matching location found") {
			return fmt.Errorf("%w: %s", ErrCityNotFound, msg)
		}
		return &UpstreamError{StatusCode: status, Message: msg}
	case http.StatusUnauthorized:
		return ErrInvalidCredentials
	case http.StatusForbidden:
		return ErrQuotaExceeded
	default:
		return &UpstreamError{StatusCode: status}
	}
}

func upstreamMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error.Message == "" {
		return "Invalid request"
	}
	return payload.Error.Message
}

func clampDays(days int) int {
	if days < 1 {
		return 1
	}
	if days > maxForecastDays {
		return maxForecastDays
	}
	return days
}

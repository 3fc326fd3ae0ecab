package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Abhibhav1976/weather-dashboard/internal/history"
	"github.com/Abhibhav1976/weather-dashboard/internal/weather"
)

var errUnexpectedCall = errors.New("unexpected upstream call")

// fakeWeather satisfies WeatherClient with pluggable behavior per test.
type fakeWeather struct {
	current  func(ctx context.Context, city string) (*weather.WeatherResponse, error)
	forecast func(ctx context.Context, city string, days int) (*weather.WeatherResponse, error)
	byCoords func(ctx context.Context, lat, lon float64, days int) (*weather.WeatherResponse, error)
	search   func(ctx context.Context, query string) ([]weather.CitySearchResult, error)
}

func (f *fakeWeather) Current(ctx context.Context, city string) (*weather.WeatherResponse, error) {
	if f.current == nil {
		return nil, errUnexpectedCall
	}
	return f.current(ctx, city)
}

func (f *fakeWeather) Forecast(ctx context.Context, city string, days int) (*weather.WeatherResponse, error) {
	if f.forecast == nil {
		return nil, errUnexpectedCall
	}
	return f.forecast(ctx, city, days)
}

func (f *fakeWeather) ByCoordinates(ctx context.Context, lat, lon float64, days int) (*weather.WeatherResponse, error) {
	if f.byCoords == nil {
		return nil, errUnexpectedCall
	}
	return f.byCoords(ctx, lat, lon, days)
}

func (f *fakeWeather) Search(ctx context.Context, query string) ([]weather.CitySearchResult, error) {
	if f.search == nil {
		return nil, errUnexpectedCall
	}
	return f.search(ctx, query)
}

// failingStore reports an error from every operation.
type failingStore struct{}

func (failingStore) Record(context.Context, history.Entry) error { return errors.New("store down") }
func (failingStore) Recent(context.Context, int) ([]history.Entry, error) {
	return nil, errors.New("store down")
}
func (failingStore) Popular(context.Context, int) ([]history.PopularCity, error) {
	return nil, errors.New("store down")
}
func (failingStore) Ping(context.Context) error { return errors.New("store down") }

func newTestApp(client WeatherClient, store history.Store) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, client, store)
	return app
}

func parisResponse() *weather.WeatherResponse {
	return &weather.WeatherResponse{
		Location: weather.Location{
			Name:    "Paris",
			Region:  "Ile-de-France",
			Country: "France",
			Lat:     48.87,
			Lon:     2.33,
		},
		Current: weather.CurrentWeather{TempC: 18.0},
	}
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	return body
}

// TestForecastDaysValidation verifies the 1-10 range for the days query
// parameter; out-of-range values must be rejected before any upstream call.
func TestForecastDaysValidation(t *testing.T) {
	var calls int
	client := &fakeWeather{
		forecast: func(context.Context, string, int) (*weather.WeatherResponse, error) {
			calls++
			return parisResponse(), nil
		},
	}
	app := newTestApp(client, history.NewMemoryStore(0, 0))

	for _, days := range []string{"0", "11", "-1"} {
		req := httptest.NewRequest(http.MethodGet, "/api/weather/forecast/Paris?days="+days, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("days=%s: expected status 400, got %d", days, resp.StatusCode)
		}
		if body := decodeBody(t, resp); body["error"] != "invalid_parameter" {
			t.Errorf("days=%s: expected invalid_parameter, got %v", days, body["error"])
		}
	}
	if calls != 0 {
		t.Errorf("expected no upstream calls, got %d", calls)
	}
}

func TestCoordinateValidation(t *testing.T) {
	var calls int
	client := &fakeWeather{
		byCoords: func(context.Context, float64, float64, int) (*weather.WeatherResponse, error) {
			calls++
			return parisResponse(), nil
		},
	}
	app := newTestApp(client, history.NewMemoryStore(0, 0))

	for _, query := range []string{
		"lat=91&lon=0",
		"lat=0&lon=-181",
		"lat=0&lon=181&days=3",
		"lon=2.35",
		"lat=abc&lon=2.35",
		"lat=48.85&lon=2.35&days=11",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/weather/coordinates?"+query, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", query, resp.StatusCode)
		}
	}
	if calls != 0 {
		t.Errorf("expected no upstream calls, got %d", calls)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/weather/coordinates?lat=48.85&lon=2.35", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("valid coordinates: expected status 200, got %d", resp.StatusCode)
	}
	if calls != 1 {
		t.Errorf("expected exactly one upstream call, got %d", calls)
	}
}

func TestSearchQueryTooShort(t *testing.T) {
	client := &fakeWeather{}
	app := newTestApp(client, history.NewMemoryStore(0, 0))

	req := httptest.NewRequest(http.MethodGet, "/api/cities/search?q=%20a%20", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
}

func TestSearchSwallowsUpstreamFailure(t *testing.T) {
	client := &fakeWeather{
		search: func(context.Context, string) ([]weather.CitySearchResult, error) {
			return nil, weather.ErrNetworkUnavailable
		},
	}
	app := newTestApp(client, history.NewMemoryStore(0, 0))

	req := httptest.NewRequest(http.MethodGet, "/api/cities/search?q=London", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var results []weather.CitySearchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty result list, got %d entries", len(results))
	}
}

func TestCurrentWeatherRecordsHistory(t *testing.T) {
	client := &fakeWeather{
		current: func(_ context.Context, city string) (*weather.WeatherResponse, error) {
			return parisResponse(), nil
		},
	}
	store := history.NewMemoryStore(0, 0)
	app := newTestApp(client, store)

	req := httptest.NewRequest(http.MethodGet, "/api/weather/current/Paris", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	entries, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one history entry, got %d", len(entries))
	}
	e := entries[0]
	if e.CityName != "Paris" || e.Latitude != 48.87 || e.Longitude != 2.33 {
		t.Errorf("history entry does not match returned location: %+v", e)
	}

	// And the entry is served back by the history endpoint.
	req = httptest.NewRequest(http.MethodGet, "/api/history/searches", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var served []history.Entry
	if err := json.NewDecoder(resp.Body).Decode(&served); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(served) != 1 || served[0].CityName != "Paris" {
		t.Errorf("expected history endpoint to include the Paris search, got %+v", served)
	}
}

func TestHistoryWriteFailureDoesNotFailResponse(t *testing.T) {
	client := &fakeWeather{
		current: func(context.Context, string) (*weather.WeatherResponse, error) {
			return parisResponse(), nil
		},
	}
	app := newTestApp(client, failingStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/weather/current/Paris", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history write failure must not fail the response; got %d", resp.StatusCode)
	}
}

func TestWeatherErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"city not found", weather.ErrCityNotFound, http.StatusNotFound, "city_not_found"},
		{"network", weather.ErrNetworkUnavailable, http.StatusServiceUnavailable, "network_error"},
		{"credentials", weather.ErrInvalidCredentials, http.StatusServiceUnavailable, "api_error"},
		{"quota", weather.ErrQuotaExceeded, http.StatusServiceUnavailable, "api_error"},
		{"upstream", &weather.UpstreamError{StatusCode: 502}, http.StatusInternalServerError, "api_error"},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, "server_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeWeather{
				current: func(context.Context, string) (*weather.WeatherResponse, error) {
					return nil, tc.err
				},
			}
			app := newTestApp(client, history.NewMemoryStore(0, 0))

			req := httptest.NewRequest(http.MethodGet, "/api/weather/current/Paris", nil)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.StatusCode != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, resp.StatusCode)
			}
			body := decodeBody(t, resp)
			if body["error"] != tc.wantCode {
				t.Errorf("expected code %q, got %v", tc.wantCode, body["error"])
			}
		})
	}
}

func TestCredentialFailureMessageIsGeneric(t *testing.T) {
	client := &fakeWeather{
		current: func(context.Context, string) (*weather.WeatherResponse, error) {
			return nil, weather.ErrInvalidCredentials
		},
	}
	app := newTestApp(client, history.NewMemoryStore(0, 0))

	req := httptest.NewRequest(http.MethodGet, "/api/weather/current/Paris", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := decodeBody(t, resp)
	msg, _ := body["message"].(string)
	if strings.Contains(msg, "api key") {
		t.Errorf("credential detail leaked to the client: %q", msg)
	}
	if msg != "Weather service temporarily unavailable" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestPostWeatherRequiresCity(t *testing.T) {
	client := &fakeWeather{}
	app := newTestApp(client, history.NewMemoryStore(0, 0))

	req := httptest.NewRequest(http.MethodPost, "/api/weather", strings.NewReader(`{"days": 3}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
}

func TestPostWeatherDefaultsDays(t *testing.T) {
	var gotDays int
	client := &fakeWeather{
		forecast: func(_ context.Context, _ string, days int) (*weather.WeatherResponse, error) {
			gotDays = days
			return parisResponse(), nil
		},
	}
	app := newTestApp(client, history.NewMemoryStore(0, 0))

	req := httptest.NewRequest(http.MethodPost, "/api/weather", strings.NewReader(`{"city": "Paris"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if gotDays != 3 {
		t.Errorf("expected default of 3 days, got %d", gotDays)
	}
}

func TestPopularCities(t *testing.T) {
	store := history.NewMemoryStore(0, 0)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		store.Record(context.Background(), history.Entry{
			CityName: "Tokyo", Country: "Japan", Region: "Tokyo",
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		})
	}
	store.Record(context.Background(), history.Entry{
		CityName: "Oslo", Country: "Norway", Region: "Oslo", Timestamp: base,
	})

	app := newTestApp(&fakeWeather{}, store)

	req := httptest.NewRequest(http.MethodGet, "/api/history/popular?limit=1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var cities []history.PopularCity
	if err := json.NewDecoder(resp.Body).Decode(&cities); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(cities) != 1 {
		t.Fatalf("expected a single group, got %d", len(cities))
	}
	if cities[0].CityName != "Tokyo" || cities[0].SearchCount != 3 {
		t.Errorf("expected Tokyo with 3 searches, got %s with %d", cities[0].CityName, cities[0].SearchCount)
	}
}

func TestPopularStoreFailure(t *testing.T) {
	app := newTestApp(&fakeWeather{}, failingStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/history/popular", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["error"] != "database_error" {
		t.Errorf("expected database_error, got %v", body["error"])
	}
}

func TestHealthStatus(t *testing.T) {
	healthy := &fakeWeather{
		search: func(context.Context, string) ([]weather.CitySearchResult, error) {
			return []weather.CitySearchResult{{Name: "London"}}, nil
		},
	}
	app := newTestApp(healthy, history.NewMemoryStore(0, 0))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", body["status"])
	}

	degraded := &fakeWeather{
		search: func(context.Context, string) ([]weather.CitySearchResult, error) {
			return nil, weather.ErrNetworkUnavailable
		},
	}
	app = newTestApp(degraded, history.NewMemoryStore(0, 0))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["status"] != "degraded" || body["weather_api"] != "disconnected" {
		t.Errorf("unexpected degraded payload: %v", body)
	}
	if body["database"] != "connected" {
		t.Errorf("database status must be reported independently, got %v", body["database"])
	}
}

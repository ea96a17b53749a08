package http_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/weather-daemon/internal/adapter/http"
	"github.com/couchcryptid/weather-daemon/internal/observability"
)

type mockHealth struct {
	health  observability.HealthReport
	metrics observability.MetricsReport
}

func (m *mockHealth) Health() observability.HealthReport   { return m.health }
func (m *mockHealth) Metrics() observability.MetricsReport { return m.metrics }

func newTestServer(h *mockHealth) *httpadapter.Server {
	return httpadapter.NewServer(":0", h, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func serve(t *testing.T, srv *httpadapter.Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth_Healthy(t *testing.T) {
	updated := time.Date(2026, time.January, 27, 20, 0, 0, 0, time.UTC)
	age := int64(120)
	srv := newTestServer(&mockHealth{health: observability.HealthReport{
		Status:       observability.StatusHealthy,
		LastUpdate:   &updated,
		AgeSeconds:   &age,
		PollInterval: 3600,
	}})

	rec := serve(t, srv, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "2026-01-27T20:00:00Z", body["last_update"])
	assert.InDelta(t, 120, body["age_seconds"], 0)
	assert.InDelta(t, 3600, body["poll_interval"], 0)
}

func TestHealth_NotHealthy(t *testing.T) {
	tests := []struct {
		name   string
		report observability.HealthReport
	}{
		{"stale", observability.HealthReport{Status: observability.StatusStale, PollInterval: 3600}},
		{"initializing", observability.HealthReport{Status: observability.StatusInitializing, Message: "Weather data not yet available"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, newTestServer(&mockHealth{health: tt.report}), http.MethodGet, "/health")

			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Equal(t, tt.name, decode(t, rec)["status"])
		})
	}
}

func TestMetrics_JSON(t *testing.T) {
	srv := newTestServer(&mockHealth{metrics: observability.MetricsReport{
		Location:            "Test Location",
		Coordinates:         observability.CoordinatesReport{Latitude: 37.422, Longitude: -122.0841},
		PollIntervalSeconds: 3600,
		TimeoutSeconds:      30,
		OutputFile:          "/tmp/weather_forecast.json",
		SuccessCount:        3,
	}})

	rec := serve(t, srv, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Test Location", body["location"])
	assert.Equal(t, map[string]any{"latitude": 37.422, "longitude": -122.0841}, body["coordinates"])
	assert.InDelta(t, 3600, body["poll_interval_seconds"], 0)
	assert.Equal(t, false, body["file_exists"])
	assert.Nil(t, body["file_size_bytes"])
	assert.InDelta(t, 3, body["success_count"], 0)
}

func TestMetrics_PrometheusFormat(t *testing.T) {
	rec := serve(t, newTestServer(&mockHealth{}), http.MethodGet, "/metrics?format=prometheus")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestUnknownRoutesReturnJSON404(t *testing.T) {
	srv := newTestServer(&mockHealth{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/"},
		{http.MethodGet, "/healthz"},
		{http.MethodGet, "/weather_forecast.json"},
		{http.MethodPost, "/health"},
	} {
		rec := serve(t, srv, tc.method, tc.path)

		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, "not found", decode(t, rec)["error"])
	}
}

package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-daemon/internal/adapter/weatherapi"
	"github.com/couchcryptid/weather-daemon/internal/domain"
)

var testNow = time.Date(2026, time.January, 27, 20, 30, 0, 0, time.UTC)

func testGenerator() generator {
	return generator{clock: clockwork.NewFakeClockAt(testNow), loc: time.UTC}
}

func testTarget(baseURL string) domain.PollTarget {
	return domain.PollTarget{
		Name:      "Mock",
		Latitude:  37.422,
		Longitude: -122.0841,
		BaseURL:   baseURL + "/v1",
		APIKey:    "mock-key",
		Timeout:   200 * time.Millisecond,
		Endpoints: domain.Endpoints{
			Current: "currentConditions:lookup",
			Hourly:  "forecast/hours:lookup",
			Daily:   "forecast/days:lookup",
		},
	}
}

func newTestServer(t *testing.T, failures map[domain.Section]failureMode) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newRouter(testGenerator(), failures, slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(srv.Close)
	return srv
}

func TestParseFailures(t *testing.T) {
	failures, err := parseFailures("hourly=hang, daily=error")
	require.NoError(t, err)
	assert.Equal(t, map[domain.Section]failureMode{
		domain.SectionHourly: failHang,
		domain.SectionDaily:  failError,
	}, failures)

	empty, err := parseFailures("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, bad := range []string{"hourly", "weekly=hang", "hourly=slow"} {
		_, err := parseFailures(bad)
		assert.Error(t, err, bad)
	}
}

func TestGenerator_NormalizesToFullDocument(t *testing.T) {
	gen := testGenerator()
	raw := domain.RawFetchResult{
		domain.SectionCurrent: domain.NewNode(roundTrip(t, gen.current())),
		domain.SectionHourly:  domain.NewNode(roundTrip(t, gen.hourly())),
		domain.SectionDaily:   domain.NewNode(roundTrip(t, gen.daily())),
	}

	doc := domain.Normalize(raw, testTarget("http://mock"), testNow)

	require.NotNil(t, doc.Now.Temp)
	assert.Equal(t, 62, *doc.Now.Temp)
	require.Len(t, doc.Hourly, 12)
	assert.Equal(t, "9 PM", doc.Hourly[0].Time)
	require.Len(t, doc.Daily, 7)
	assert.Equal(t, "Tuesday", doc.Daily[0].Day)
}

func TestRouter_ServesSections(t *testing.T) {
	srv := newTestServer(t, nil)
	client := weatherapi.NewClient(testTarget(srv.URL))

	for _, s := range domain.Sections {
		node, err := client.Get(context.Background(), s)
		require.NoError(t, err, s)
		assert.True(t, node.Exists(), s)
	}
}

func TestRouter_RequiresKey(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/v1/currentConditions:lookup")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRouter_FailureModes(t *testing.T) {
	srv := newTestServer(t, map[domain.Section]failureMode{
		domain.SectionCurrent: failError,
		domain.SectionHourly:  failGarbage,
		domain.SectionDaily:   failHang,
	})
	client := weatherapi.NewClient(testTarget(srv.URL))
	ctx := context.Background()

	_, err := client.Get(ctx, domain.SectionCurrent)
	var statusErr *weatherapi.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)

	_, err = client.Get(ctx, domain.SectionHourly)
	require.ErrorIs(t, err, weatherapi.ErrDecode)

	_, err = client.Get(ctx, domain.SectionDaily)
	require.Error(t, err)
	assert.True(t, weatherapi.IsTransportError(err))
}

func TestDumpPayloads(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fixtures")
	require.NoError(t, dumpPayloads(dir, testGenerator()))

	for _, s := range domain.Sections {
		assert.FileExists(t, filepath.Join(dir, string(s)+".json"))
	}
}

func roundTrip(t *testing.T, v map[string]any) any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

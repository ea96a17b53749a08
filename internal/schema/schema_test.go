package schema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-daemon/internal/domain"
)

var testNow = time.Date(2026, time.January, 27, 20, 0, 0, 0, time.UTC)

func normalized(raw domain.RawFetchResult) domain.Document {
	return domain.Normalize(raw, domain.PollTarget{Latitude: 37.422, Longitude: -122.0841}, testNow)
}

func TestSchemaIsValidJSON(t *testing.T) {
	var v map[string]any
	require.NoError(t, json.Unmarshal(weatherForecastSchema, &v))
	assert.Equal(t, "object", v["type"])
}

func TestValidateDocument_NormalizedOutput(t *testing.T) {
	hours := make([]any, 0, 20)
	for i := range 20 {
		hours = append(hours, map[string]any{
			"displayDateTime":  map[string]any{"hours": float64(i)},
			"temperature":      map[string]any{"degrees": 10.5},
			"weatherCondition": map[string]any{"type": "RAIN"},
		})
	}
	raw := domain.RawFetchResult{
		domain.SectionCurrent: domain.NewNode(map[string]any{
			"temperature":      map[string]any{"degrees": 16.9},
			"weatherCondition": map[string]any{"type": "CLOUDY", "description": map[string]any{"text": "Cloudy"}},
		}),
		domain.SectionHourly: domain.NewNode(map[string]any{"forecastHours": hours}),
		domain.SectionDaily: domain.NewNode(map[string]any{"forecastDays": []any{
			map[string]any{"displayDate": map[string]any{"year": 2026.0, "month": 2.0, "day": 30.0}},
			map[string]any{"displayDate": map[string]any{"year": 2026.0, "month": 1.0, "day": 28.0}},
		}}),
	}

	require.NoError(t, ValidateDocument(normalized(raw)))
	require.NoError(t, ValidateDocument(normalized(domain.RawFetchResult{})), "an empty cycle still yields a valid document")
}

func TestValidate_Violations(t *testing.T) {
	valid, err := json.Marshal(normalized(domain.RawFetchResult{}))
	require.NoError(t, err)

	mutate := func(t *testing.T, fn func(doc map[string]any)) []byte {
		t.Helper()
		var doc map[string]any
		require.NoError(t, json.Unmarshal(valid, &doc))
		fn(doc)
		out, err := json.Marshal(doc)
		require.NoError(t, err)
		return out
	}

	tests := []struct {
		name   string
		mutate func(doc map[string]any)
	}{
		{"missing now", func(doc map[string]any) { delete(doc, "now") }},
		{"string temperature", func(doc map[string]any) { doc["now"].(map[string]any)["temp"] = "62" }},
		{"fractional temperature", func(doc map[string]any) { doc["now"].(map[string]any)["temp"] = 61.5 }},
		{"hourly not array", func(doc map[string]any) { doc["hourly"] = nil }},
		{"bad hour label", func(doc map[string]any) {
			doc["hourly"] = []any{map[string]any{"time": "13 PM", "temp": nil, "icon": "☀️"}}
		}},
		{"too many days", func(doc map[string]any) {
			days := make([]any, 8)
			for i := range days {
				days[i] = map[string]any{"day": "", "high": nil, "low": nil, "summary": "", "icon": "☀️"}
			}
			doc["daily"] = days
		}},
		{"unknown weekday", func(doc map[string]any) {
			doc["daily"] = []any{map[string]any{"day": "Funday", "high": nil, "low": nil, "summary": "", "icon": "☀️"}}
		}},
		{"extra top-level field", func(doc map[string]any) { doc["debug"] = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(mutate(t, tt.mutate))

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.NotEmpty(t, verr.Errors)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestValidate_MalformedJSON(t *testing.T) {
	err := Validate([]byte(`{"location": `))
	require.Error(t, err)

	var verr *ValidationError
	assert.NotErrorAs(t, err, &verr)
}

func TestValidateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather_forecast.json")
	data, err := json.Marshal(normalized(domain.RawFetchResult{}))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	require.NoError(t, ValidateFile(path))
	require.Error(t, ValidateFile(filepath.Join(t.TempDir(), "missing.json")))
}

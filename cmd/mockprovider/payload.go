package main

import (
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	hourlyCount = 24
	dailyCount  = 10
)

type condition struct {
	code string
	text string
}

// cycle of conditions the generated forecasts rotate through.
var conditions = []condition{
	{"CLEAR", "Clear"},
	{"PARTLY_CLOUDY", "Partly cloudy"},
	{"CLOUDY", "Cloudy"},
	{"LIGHT_RAIN", "Light rain"},
	{"RAIN", "Rain"},
	{"THUNDERSTORM", "Thunderstorm"},
	{"MOSTLY_CLEAR", "Mostly clear"},
	{"FOG", "Fog"},
}

// generator builds provider-shaped payloads relative to the clock, in the
// given display location.
type generator struct {
	clock clockwork.Clock
	loc   *time.Location
}

func (g generator) now() time.Time {
	return g.clock.Now().In(g.loc)
}

func celsius(v float64) map[string]any {
	return map[string]any{"degrees": v, "unit": "CELSIUS"}
}

func weatherCondition(c condition) map[string]any {
	return map[string]any{
		"description": map[string]any{"text": c.text, "languageCode": "en"},
		"type":        c.code,
	}
}

func (g generator) current() map[string]any {
	now := g.now()
	c := conditions[now.Hour()%len(conditions)]
	return map[string]any{
		"currentTime":      now.UTC().Format(time.RFC3339),
		"timeZone":         map[string]any{"id": g.loc.String()},
		"isDaytime":        now.Hour() >= 7 && now.Hour() < 19,
		"weatherCondition": weatherCondition(c),
		"temperature":      celsius(16.9),
		"relativeHumidity": 48,
		"precipitation": map[string]any{
			"probability": map[string]any{"percent": 10, "type": "RAIN"},
		},
		"currentConditionsHistory": map[string]any{
			"maxTemperature": celsius(15.9),
			"minTemperature": celsius(4.8),
		},
	}
}

func (g generator) hourly() map[string]any {
	start := g.now().Truncate(time.Hour).Add(time.Hour)
	hours := make([]any, 0, hourlyCount)
	for i := range hourlyCount {
		t := start.Add(time.Duration(i) * time.Hour)
		hours = append(hours, map[string]any{
			"interval": map[string]any{
				"startTime": t.UTC().Format(time.RFC3339),
				"endTime":   t.Add(time.Hour).UTC().Format(time.RFC3339),
			},
			"displayDateTime": map[string]any{
				"year": t.Year(), "month": int(t.Month()), "day": t.Day(),
				"hours": t.Hour(), "minutes": 0,
			},
			"weatherCondition": weatherCondition(conditions[i%len(conditions)]),
			"temperature":      celsius(7.2 + 0.4*float64(i)),
		})
	}
	return map[string]any{"forecastHours": hours, "timeZone": map[string]any{"id": g.loc.String()}}
}

func (g generator) daily() map[string]any {
	now := g.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, g.loc)
	days := make([]any, 0, dailyCount)
	for i := range dailyCount {
		d := today.AddDate(0, 0, i)
		days = append(days, map[string]any{
			"displayDate":     map[string]any{"year": d.Year(), "month": int(d.Month()), "day": d.Day()},
			"daytimeForecast": map[string]any{"weatherCondition": weatherCondition(conditions[(i+2)%len(conditions)])},
			"maxTemperature":  celsius(20 - float64(i%4)),
			"minTemperature":  celsius(10 - float64(i%3)),
		})
	}
	return map[string]any{"forecastDays": days, "timeZone": map[string]any{"id": g.loc.String()}}
}

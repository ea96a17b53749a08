package kafka

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-daemon/internal/config"
	"github.com/couchcryptid/weather-daemon/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	updated := time.Date(2026, time.January, 27, 20, 0, 0, 0, time.UTC)
	temp := 62
	doc := domain.Document{
		Location: "Test Location",
		Updated:  updated,
		Now:      domain.Now{Temp: &temp, Icon: "☁️"},
		Hourly:   []domain.HourlyEntry{},
		Daily:    []domain.DailyEntry{},
		Feed:     domain.Feed{Path: domain.FeedPath},
	}

	msg, err := serializeToMessage("cycle-1", doc)
	require.NoError(t, err)

	assert.Equal(t, []byte("Test Location"), msg.Key)

	var decoded domain.Document
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, doc.Location, decoded.Location)
	require.NotNil(t, decoded.Now.Temp)
	assert.Equal(t, 62, *decoded.Now.Temp)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "cycle_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("cycle-1"), msg.Headers[0].Value)
	assert.Equal(t, "updated", msg.Headers[1].Key)
	assert.Equal(t, []byte("2026-01-27T20:00:00Z"), msg.Headers[1].Value)
}

func TestNewWriter(t *testing.T) {
	cfg := &config.Config{
		KafkaBrokers: []string{"broker1:9092", "broker2:9092"},
		KafkaTopic:   "weather-forecast",
		Timeout:      5 * time.Second,
	}

	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, SinkName, w.Name())
	assert.Equal(t, "weather-forecast", w.writer.Topic)
	assert.Equal(t, 5*time.Second, w.writer.WriteTimeout)
}

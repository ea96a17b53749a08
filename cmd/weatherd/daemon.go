package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-daemon/internal/adapter/artifact"
	httpadapter "github.com/couchcryptid/weather-daemon/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-daemon/internal/adapter/kafka"
	"github.com/couchcryptid/weather-daemon/internal/adapter/mapbox"
	"github.com/couchcryptid/weather-daemon/internal/adapter/weatherapi"
	"github.com/couchcryptid/weather-daemon/internal/config"
	"github.com/couchcryptid/weather-daemon/internal/domain"
	"github.com/couchcryptid/weather-daemon/internal/observability"
	"github.com/couchcryptid/weather-daemon/internal/pipeline"
)

// daemon holds the wired components shared by the run and test commands.
type daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	monitor   *observability.Monitor
	publisher *artifact.Publisher
	pipeline  *pipeline.Pipeline
	mirror    *kafkaadapter.Writer
}

func newDaemon(ctx context.Context) (*daemon, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(cfg)
	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()
	target := cfg.Target()
	if cfg.ResolvePlaceName() {
		target.Name = resolvePlaceName(ctx, mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger), target, logger)
	}

	pub, err := artifact.NewPublisher(cfg.OutputDir, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("prepare output directory: %w", err)
	}

	monitor := observability.NewMonitor(observability.MonitorConfig{
		Location:     target.DisplayName(),
		Latitude:     target.Latitude,
		Longitude:    target.Longitude,
		PollInterval: cfg.PollInterval,
		Timeout:      cfg.Timeout,
		OutputFile:   cfg.OutputFile(),
	}, clock)

	fetcher := weatherapi.NewFetcher(weatherapi.NewClient(target), weatherapi.DefaultPolicy(), logger, metrics)
	normalizer := pipeline.NewNormalizer(target, clock, cfg.DisplayLocation)

	d := &daemon{cfg: cfg, logger: logger, monitor: monitor, publisher: pub}

	var mirrors []pipeline.Mirror
	if cfg.MirrorEnabled() {
		d.mirror = kafkaadapter.NewWriter(cfg, logger)
		mirrors = append(mirrors, d.mirror)
		logger.Info("kafka mirror enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	d.pipeline = pipeline.New(fetcher, normalizer, pub, monitor, clock, cfg.PollInterval, logger, metrics, mirrors...)

	logger.Info("daemon configured",
		"location", target.DisplayName(),
		"latitude", target.Latitude,
		"longitude", target.Longitude,
		"poll_interval", cfg.PollInterval,
		"output_file", cfg.OutputFile(),
	)
	return d, nil
}

func (d *daemon) healthServer() *httpadapter.Server {
	if !d.cfg.HealthCheckEnabled {
		d.logger.Info("health server disabled")
		return nil
	}
	return httpadapter.NewServer(d.cfg.HealthAddr(), d.monitor, d.logger)
}

func (d *daemon) close() {
	if d.mirror == nil {
		return
	}
	if err := d.mirror.Close(); err != nil {
		d.logger.Error("kafka writer close error", "error", err)
	}
}

// placeNamer looks up a display name for coordinates.
type placeNamer interface {
	PlaceName(ctx context.Context, lat, lon float64) (string, error)
}

// resolvePlaceName returns the geocoded name, or "" (coordinates) when the
// lookup fails. Startup never fails on geocoding.
func resolvePlaceName(ctx context.Context, namer placeNamer, target domain.PollTarget, logger *slog.Logger) string {
	name, err := namer.PlaceName(ctx, target.Latitude, target.Longitude)
	if err != nil {
		logger.Warn("place name lookup failed, using coordinates", "error", err)
		return ""
	}
	logger.Info("place name resolved", "location", name)
	return name
}

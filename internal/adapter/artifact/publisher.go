// Package artifact publishes the weather document to disk with an atomic
// temp-file-and-rename write, so readers see either the previous complete
// file or the new complete file.
package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/weather-daemon/internal/domain"
	"github.com/couchcryptid/weather-daemon/internal/observability"
)

// ErrPublish wraps every failure to write the artifact.
var ErrPublish = errors.New("publish artifact")

const fileMode = 0o644

// syncFile is swapped in tests to simulate a failing fsync.
var syncFile = (*os.File).Sync

// WriteJSON atomically replaces path with the indented JSON encoding of v.
// On failure the temp file is removed and any existing file at path is untouched.
func WriteJSON(path string, v any) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrPublish, err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()        //nolint:errcheck // already failing
			os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err = enc.Encode(v); err != nil {
		return fmt.Errorf("%w: encode: %w", ErrPublish, err)
	}
	if err = syncFile(tmp); err != nil {
		return fmt.Errorf("%w: fsync: %w", ErrPublish, err)
	}
	if err = tmp.Chmod(fileMode); err != nil {
		return fmt.Errorf("%w: chmod: %w", ErrPublish, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: close: %w", ErrPublish, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: rename: %w", ErrPublish, err)
	}

	syncDir(dir)
	return nil
}

// syncDir flushes the rename to disk where the platform allows it.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}

// Publisher writes each document to a fixed path inside the output directory.
type Publisher struct {
	path    string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates the output directory if needed and returns a publisher
// targeting <dir>/weather_forecast.json.
func NewPublisher(dir string, logger *slog.Logger, metrics *observability.Metrics) (*Publisher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", dir, err)
	}
	return &Publisher{
		path:    filepath.Join(dir, domain.ArtifactName),
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Path returns the artifact location.
func (p *Publisher) Path() string {
	return p.path
}

// Publish atomically replaces the artifact with doc.
func (p *Publisher) Publish(_ context.Context, doc domain.Document) error {
	start := time.Now()
	if err := WriteJSON(p.path, doc); err != nil {
		p.metrics.PublishErrors.Inc()
		return err
	}
	p.metrics.PublishDuration.Observe(time.Since(start).Seconds())

	if info, err := os.Stat(p.path); err == nil {
		p.metrics.ArtifactBytes.Set(float64(info.Size()))
	}
	p.logger.Info("artifact published", "path", p.path)
	return nil
}

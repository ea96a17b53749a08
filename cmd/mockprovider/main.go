// Command mockprovider serves provider-shaped weather payloads for local runs
// of "weatherd test" without an API key. Each section can be made to fail.
//
// Usage:
//
//	go run ./cmd/mockprovider -addr 127.0.0.1:8090 -fail hourly=hang,daily=error
//
// Then point the daemon at it with WEATHER_API_BASE_URL=http://127.0.0.1:8090/v1.
// With -dump DIR the three payloads are written to DIR and the command exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-daemon/internal/adapter/artifact"
	"github.com/couchcryptid/weather-daemon/internal/domain"
)

type failureMode string

const (
	failHang      failureMode = "hang"
	failError     failureMode = "error"
	failForbidden failureMode = "forbidden"
	failGarbage   failureMode = "garbage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mockprovider: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "127.0.0.1:8090", "listen address")
	fail := flag.String("fail", "", "comma list of section=mode (sections: current, hourly, daily; modes: hang, error, forbidden, garbage)")
	tz := flag.String("tz", "UTC", "IANA timezone for display dates")
	dump := flag.String("dump", "", "write the payloads to this directory and exit")
	flag.Parse()

	failures, err := parseFailures(*fail)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(*tz)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	gen := generator{clock: clockwork.NewRealClock(), loc: loc}
	if *dump != "" {
		return dumpPayloads(*dump, gen)
	}

	logger := sharedobs.NewLogger("info", "text")
	srv := &http.Server{
		Addr:              *addr,
		Handler:           newRouter(gen, failures, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("mock provider listening", "addr", *addr, "failures", *fail)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// parseFailures reads "hourly=hang,daily=error" into a per-section table.
func parseFailures(s string) (map[domain.Section]failureMode, error) {
	failures := make(map[domain.Section]failureMode)
	if strings.TrimSpace(s) == "" {
		return failures, nil
	}
	for _, part := range strings.Split(s, ",") {
		name, mode, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("invalid failure %q: want section=mode", part)
		}
		section := domain.Section(name)
		switch section {
		case domain.SectionCurrent, domain.SectionHourly, domain.SectionDaily:
		default:
			return nil, fmt.Errorf("unknown section %q", name)
		}
		switch m := failureMode(mode); m {
		case failHang, failError, failForbidden, failGarbage:
			failures[section] = m
		default:
			return nil, fmt.Errorf("unknown failure mode %q", mode)
		}
	}
	return failures, nil
}

func newRouter(gen generator, failures map[domain.Section]failureMode, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	payloads := map[domain.Section]func() map[string]any{
		domain.SectionCurrent: gen.current,
		domain.SectionHourly:  gen.hourly,
		domain.SectionDaily:   gen.daily,
	}
	routes := map[domain.Section]string{
		domain.SectionCurrent: "/v1/currentConditions:lookup",
		domain.SectionHourly:  "/v1/forecast/hours:lookup",
		domain.SectionDaily:   "/v1/forecast/days:lookup",
	}
	for section, path := range routes {
		r.Get(path, handleSection(section, payloads[section], failures[section], logger))
	}
	return r
}

func handleSection(section domain.Section, payload func() map[string]any, mode failureMode, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Info("request", "section", section, "failure", mode)

		if r.URL.Query().Get("key") == "" {
			writeError(w, http.StatusForbidden, "PERMISSION_DENIED", "missing API key")
			return
		}

		switch mode {
		case failHang:
			<-r.Context().Done()
		case failError:
			writeError(w, http.StatusInternalServerError, "INTERNAL", "backend unavailable")
		case failForbidden:
			writeError(w, http.StatusForbidden, "PERMISSION_DENIED", "API key not valid")
		case failGarbage:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"forecastHours": [`))
		default:
			sharedobs.WriteJSON(w, http.StatusOK, payload())
		}
	}
}

func writeError(w http.ResponseWriter, code int, status, message string) {
	sharedobs.WriteJSON(w, code, map[string]any{
		"error": map[string]any{"code": code, "message": message, "status": status},
	})
}

func dumpPayloads(dir string, gen generator) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for section, payload := range map[domain.Section]map[string]any{
		domain.SectionCurrent: gen.current(),
		domain.SectionHourly:  gen.hourly(),
		domain.SectionDaily:   gen.daily(),
	} {
		path := filepath.Join(dir, string(section)+".json")
		if err := artifact.WriteJSON(path, payload); err != nil {
			return fmt.Errorf("writing %s: %w", section, err)
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

package weatherapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/weather-daemon/internal/domain"
	"github.com/couchcryptid/weather-daemon/internal/observability"
)

// SectionGetter fetches a single section with exactly one request.
type SectionGetter interface {
	Get(ctx context.Context, section domain.Section) (domain.Node, error)
}

// Fetcher retrieves all sections of a poll target concurrently.
// A failing section never aborts the others.
type Fetcher struct {
	getter  SectionGetter
	policy  Policy
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewFetcher creates a Fetcher that retries each section according to policy.
func NewFetcher(getter SectionGetter, policy Policy, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{
		getter:  getter,
		policy:  policy,
		logger:  logger,
		metrics: metrics,
	}
}

// Fetch requests every section and returns the ones that succeeded. When no
// section succeeds the error wraps ErrTotalFailure and the result is empty.
func (f *Fetcher) Fetch(ctx context.Context) (domain.RawFetchResult, error) {
	var (
		mu     sync.Mutex
		result = make(domain.RawFetchResult, len(domain.Sections))
		errs   = make([]error, 0, len(domain.Sections))
		g      errgroup.Group
	)

	for _, section := range domain.Sections {
		g.Go(func() error {
			node, err := f.fetchSection(ctx, section)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			result[section] = node
			return nil
		})
	}
	_ = g.Wait() // section goroutines never return errors

	if len(result) == 0 {
		return domain.RawFetchResult{}, fmt.Errorf("%w: %w", ErrTotalFailure, errors.Join(errs...))
	}
	return result, nil
}

func (f *Fetcher) fetchSection(ctx context.Context, section domain.Section) (domain.Node, error) {
	start := time.Now()
	logger := f.logger.With("section", section)

	var node domain.Node
	err := f.policy.Do(ctx, func(ctx context.Context) error {
		n, err := f.getter.Get(ctx, section)
		if err != nil {
			return err
		}
		node = n
		return nil
	}, func(attempt int, wait time.Duration, err error) {
		f.metrics.FetchRetries.WithLabelValues(string(section)).Inc()
		logger.Warn("fetch failed, retrying", "attempt", attempt, "wait", wait, "error", err)
	})

	f.metrics.FetchDuration.WithLabelValues(string(section)).Observe(time.Since(start).Seconds())
	f.metrics.FetchRequests.WithLabelValues(string(section), outcome(err)).Inc()

	if err != nil {
		logger.Warn("section fetch failed", "error", err)
		return domain.Node{}, fmt.Errorf("fetch %s: %w", section, err)
	}
	logger.Info("section fetched")
	return node, nil
}

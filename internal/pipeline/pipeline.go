package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-daemon/internal/domain"
	"github.com/couchcryptid/weather-daemon/internal/observability"
)

var (
	// ErrStopped is returned by Run once the pipeline has been stopped.
	ErrStopped = errors.New("pipeline stopped")

	// ErrAlreadyRunning is returned by a second concurrent call to Run.
	ErrAlreadyRunning = errors.New("pipeline already running")

	// ErrCyclePanic wraps a panic recovered inside a poll cycle.
	ErrCyclePanic = errors.New("poll cycle panicked")
)

// Fetcher retrieves the raw sections for one cycle.
type Fetcher interface {
	Fetch(ctx context.Context) (domain.RawFetchResult, error)
}

// Normalizer turns fetched sections into the published document.
type Normalizer interface {
	Normalize(raw domain.RawFetchResult) domain.Document
}

// Publisher durably writes the document.
type Publisher interface {
	Publish(ctx context.Context, doc domain.Document) error
}

// Mirror is a best-effort secondary sink. Its failures never fail a cycle.
type Mirror interface {
	Name() string
	Mirror(ctx context.Context, cycleID string, doc domain.Document) error
}

// Recorder receives the outcome of each cycle.
type Recorder interface {
	RecordSuccess()
	RecordError(msg string)
}

// mirrorTimeout bounds each best-effort mirror write within a cycle.
const mirrorTimeout = 30 * time.Second

type state int

const (
	stateIdle state = iota
	stateRunning
	stateStopped
)

// Pipeline runs the fetch-normalize-publish cycle on a fixed interval.
// It moves idle -> running -> stopped; stopped is terminal.
type Pipeline struct {
	fetcher    Fetcher
	normalizer Normalizer
	publisher  Publisher
	mirrors    []Mirror
	recorder   Recorder
	clock      clockwork.Clock
	interval   time.Duration
	logger     *slog.Logger
	metrics    *observability.Metrics

	mu       sync.Mutex
	state    state
	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates a Pipeline with the given stages and observability. Mirrors
// receive every successfully published document.
func New(f Fetcher, n Normalizer, pub Publisher, rec Recorder, clock clockwork.Clock, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics, mirrors ...Mirror) *Pipeline {
	return &Pipeline{
		fetcher:    f,
		normalizer: n,
		publisher:  pub,
		mirrors:    mirrors,
		recorder:   rec,
		clock:      clock,
		interval:   interval,
		logger:     logger,
		metrics:    metrics,
		stopCh:     make(chan struct{}),
	}
}

// Run polls immediately and then once per interval until Stop is called or
// ctx is cancelled. Cycle failures are recorded and never end the loop.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.start(); err != nil {
		return err
	}
	defer p.Stop()

	p.logger.Info("pipeline started", "interval", p.interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-p.stopCh:
			p.logger.Info("pipeline stopping", "reason", "stop requested")
			return nil
		default:
		}

		_ = p.RunOnce(ctx) // outcome already logged and recorded

		p.logger.Debug("next poll scheduled", "in", p.interval)
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-p.stopCh:
			p.logger.Info("pipeline stopping", "reason", "stop requested")
			return nil
		case <-p.clock.After(p.interval):
		}
	}
}

// Stop ends the loop after the current cycle, waking it if it is sleeping.
// It is safe to call more than once and from any goroutine.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })

	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = stateStopped
}

func (p *Pipeline) start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case stateRunning:
		return ErrAlreadyRunning
	case stateStopped:
		return ErrStopped
	}
	p.state = stateRunning
	return nil
}

// RunOnce executes a single cycle and returns its outcome. The cycle is
// detached from ctx cancellation so in-flight requests finish or time out
// on their own.
func (p *Pipeline) RunOnce(ctx context.Context) (err error) {
	cycleID := uuid.NewString()
	logger := p.logger.With("cycle_id", cycleID)
	ctx = context.WithoutCancel(ctx)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCyclePanic, r)
			logger.Error("poll cycle panicked", "panic", r)
			p.fail("panic", err)
		}
	}()

	logger.Info("poll cycle started")

	raw, err := p.fetcher.Fetch(ctx)
	if err != nil {
		logger.Error("fetch failed, skipping publish", "error", err)
		p.fail("total_failure", err)
		return err
	}

	doc := p.normalizer.Normalize(raw)

	if err := p.publisher.Publish(ctx, doc); err != nil {
		logger.Error("publish failed, previous artifact kept", "error", err)
		p.fail("publish_error", err)
		return err
	}

	p.mirror(ctx, logger, cycleID, doc)

	p.recorder.RecordSuccess()
	p.metrics.LastSuccessTimestamp.Set(float64(p.clock.Now().Unix()))

	outcome := "success"
	if len(raw) < len(domain.Sections) {
		outcome = "partial"
	}
	p.metrics.PollCycles.WithLabelValues(outcome).Inc()
	logger.Info("poll cycle complete", "outcome", outcome, "sections", len(raw))
	return nil
}

func (p *Pipeline) fail(outcome string, err error) {
	p.metrics.PollCycles.WithLabelValues(outcome).Inc()
	p.recorder.RecordError(err.Error())
}

func (p *Pipeline) mirror(ctx context.Context, logger *slog.Logger, cycleID string, doc domain.Document) {
	for _, m := range p.mirrors {
		if err := p.mirrorOne(ctx, m, cycleID, doc); err != nil {
			p.metrics.MirrorErrors.WithLabelValues(m.Name()).Inc()
			logger.Warn("mirror failed", "sink", m.Name(), "error", err)
		}
	}
}

func (p *Pipeline) mirrorOne(ctx context.Context, m Mirror, cycleID string, doc domain.Document) error {
	ctx, cancel := context.WithTimeout(ctx, mirrorTimeout)
	defer cancel()
	return m.Mirror(ctx, cycleID, doc)
}

package observability

import (
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Health status values reported by Monitor.Health.
const (
	StatusHealthy      = "healthy"
	StatusStale        = "stale"
	StatusInitializing = "initializing"
)

// MonitorConfig describes the poll target the monitor reports on.
type MonitorConfig struct {
	Location     string
	Latitude     float64
	Longitude    float64
	PollInterval time.Duration
	Timeout      time.Duration
	OutputFile   string
}

// HealthReport is the body of the /health endpoint.
type HealthReport struct {
	Status       string     `json:"status"`
	Message      string     `json:"message,omitempty"`
	LastUpdate   *time.Time `json:"last_update,omitempty"`
	AgeSeconds   *int64     `json:"age_seconds,omitempty"`
	PollInterval int64      `json:"poll_interval"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}

// HTTPStatus maps the report to a response code: 200 only when healthy.
func (r HealthReport) HTTPStatus() int {
	if r.Status == StatusHealthy {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

// CoordinatesReport is the coordinate block of MetricsReport.
type CoordinatesReport struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// MetricsReport is the body of the JSON /metrics endpoint.
type MetricsReport struct {
	Location            string            `json:"location"`
	Coordinates         CoordinatesReport `json:"coordinates"`
	PollIntervalSeconds int64             `json:"poll_interval_seconds"`
	TimeoutSeconds      int64             `json:"timeout_seconds"`
	OutputFile          string            `json:"output_file"`
	FileExists          bool              `json:"file_exists"`
	LastUpdate          *time.Time        `json:"last_update"`
	FileSizeBytes       *int64            `json:"file_size_bytes"`
	AgeSeconds          *int64            `json:"age_seconds"`
	SuccessCount        int64             `json:"success_count"`
	ErrorCount          int64             `json:"error_count"`
	LastSuccess         *time.Time        `json:"last_success"`
	LastError           *string           `json:"last_error"`
	Timestamp           time.Time         `json:"timestamp"`
}

// Monitor tracks poll outcomes and derives health from the artifact's
// modification time. It is safe for concurrent use by the poll loop and the
// HTTP server.
type Monitor struct {
	cfg   MonitorConfig
	clock clockwork.Clock

	mu           sync.Mutex
	successCount int64
	errorCount   int64
	lastSuccess  time.Time
	lastError    string
}

// NewMonitor creates a Monitor that measures ages against clock.
func NewMonitor(cfg MonitorConfig, clock clockwork.Clock) *Monitor {
	return &Monitor{cfg: cfg, clock: clock}
}

// RecordSuccess notes a completed publication.
func (m *Monitor) RecordSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.successCount++
	m.lastSuccess = m.clock.Now()
}

// RecordError notes a failed cycle. The last success is kept.
func (m *Monitor) RecordError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount++
	m.lastError = msg
}

// Counts returns the number of recorded successes and errors.
func (m *Monitor) Counts() (successes, errors int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.successCount, m.errorCount
}

func (m *Monitor) snapshot() (successes, errors int64, lastSuccess time.Time, lastError string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.successCount, m.errorCount, m.lastSuccess, m.lastError
}

// Health reports healthy while the artifact is younger than twice the poll
// interval, stale once it is older, and initializing before it exists.
func (m *Monitor) Health() HealthReport {
	_, _, lastSuccess, lastError := m.snapshot()

	report := HealthReport{
		PollInterval: int64(m.cfg.PollInterval.Seconds()),
		LastError:    lastError,
	}
	if !lastSuccess.IsZero() {
		ls := lastSuccess.UTC()
		report.LastSuccess = &ls
	}

	info, err := os.Stat(m.cfg.OutputFile)
	if err != nil {
		report.Status = StatusInitializing
		report.Message = "Weather data not yet available"
		return report
	}

	mtime := info.ModTime().UTC()
	age := m.clock.Since(mtime)
	ageSeconds := int64(age.Seconds())
	report.LastUpdate = &mtime
	report.AgeSeconds = &ageSeconds

	if age < 2*m.cfg.PollInterval {
		report.Status = StatusHealthy
	} else {
		report.Status = StatusStale
	}
	return report
}

// Metrics reports configuration, artifact state, and outcome counters.
func (m *Monitor) Metrics() MetricsReport {
	successes, errs, lastSuccess, lastError := m.snapshot()
	now := m.clock.Now()

	report := MetricsReport{
		Location: m.cfg.Location,
		Coordinates: CoordinatesReport{
			Latitude:  m.cfg.Latitude,
			Longitude: m.cfg.Longitude,
		},
		PollIntervalSeconds: int64(m.cfg.PollInterval.Seconds()),
		TimeoutSeconds:      int64(m.cfg.Timeout.Seconds()),
		OutputFile:          m.cfg.OutputFile,
		SuccessCount:        successes,
		ErrorCount:          errs,
		Timestamp:           now.UTC(),
	}
	if !lastSuccess.IsZero() {
		ls := lastSuccess.UTC()
		report.LastSuccess = &ls
	}
	if lastError != "" {
		report.LastError = &lastError
	}

	if info, err := os.Stat(m.cfg.OutputFile); err == nil {
		mtime := info.ModTime().UTC()
		size := info.Size()
		age := int64(now.Sub(mtime).Seconds())
		report.FileExists = true
		report.LastUpdate = &mtime
		report.FileSizeBytes = &size
		report.AgeSeconds = &age
	}
	return report
}

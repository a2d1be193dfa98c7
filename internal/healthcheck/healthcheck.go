package healthcheck

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/angeloszaimis/experiments-viewer/internal/metrics"
)

const probeTimeout = 5 * time.Second

// Pinger is a dependency that can be probed. *store.Store implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is the outcome of the last probe.
type Status struct {
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Monitor probes one dependency.
type Monitor struct {
	name      string
	pinger    Pinger
	logger    *slog.Logger
	collector *metrics.Collector

	mutex  sync.RWMutex
	status Status
}

func NewMonitor(name string, pinger Pinger, logger *slog.Logger, collector *metrics.Collector) *Monitor {
	return &Monitor{
		name:      name,
		pinger:    pinger,
		logger:    logger,
		collector: collector,
	}
}

func (m *Monitor) Name() string {
	return m.name
}

// Status returns the outcome of the last probe. It is unhealthy until the
// first probe ran.
func (m *Monitor) Status() Status {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.status
}

// Check probes the dependency once and records the outcome.
func (m *Monitor) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	err := m.pinger.Ping(ctx)

	status := Status{Healthy: err == nil, CheckedAt: time.Now()}
	if err != nil {
		status.Error = err.Error()
	}

	if m.setStatus(status) {
		if status.Healthy {
			m.logger.Info("Check is passing", slog.String("check", m.name))
		} else {
			m.logger.Warn("Check is failing",
				slog.String("check", m.name),
				slog.String("error", status.Error))
		}
		m.collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventCheckChanged,
			Timestamp: status.CheckedAt,
			Check:     m.name,
			Healthy:   status.Healthy,
		})
	}

	return status
}

// setStatus stores status and reports whether health flipped.
func (m *Monitor) setStatus(status Status) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	changed := m.status.CheckedAt.IsZero() || m.status.Healthy != status.Healthy
	m.status = status
	return changed
}

// Run probes immediately and then every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	m.Check(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Health check stopped", slog.String("check", m.name))
			return

		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/aescanero/skillstream/internal/application/realtime"
	"github.com/aescanero/skillstream/pkg/ports"
	"go.uber.org/zap"
)

// StatusSource reports the realtime client status
type StatusSource interface {
	Status() realtime.Status
}

// ServingSetter receives the serving flag derived from each check
type ServingSetter interface {
	SetServing(serving bool)
}

// HealthMonitor periodically checks the stream connection
type HealthMonitor struct {
	source   StatusSource
	health   ServingSetter
	metrics  ports.MetricsCollector
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu           sync.Mutex
	notOpenSince time.Time
}

// HealthStatus represents the health of the stream connection
type HealthStatus struct {
	State     realtime.State `json:"state"`
	Attempts  int            `json:"reconnect_attempts"`
	Healthy   bool           `json:"healthy"`
	Stale     bool           `json:"stale"`
	Timestamp time.Time      `json:"timestamp"`
}

// Config holds health monitor configuration
type Config struct {
	Source   StatusSource
	Health   ServingSetter
	Metrics  ports.MetricsCollector
	Interval time.Duration
	Logger   *zap.Logger
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor(cfg *Config) *HealthMonitor {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HealthMonitor{
		source:   cfg.Source,
		health:   cfg.Health,
		metrics:  cfg.Metrics,
		interval: cfg.Interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run checks health every interval until ctx is cancelled
func (h *HealthMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Check()
		}
	}
}

// Check snapshots the client, logs it and publishes the serving flag
func (h *HealthMonitor) Check() *HealthStatus {
	status := h.GetStatus()

	h.logger.Info("stream health check",
		zap.Stringer("state", status.State),
		zap.Int("reconnect_attempts", status.Attempts),
		zap.Bool("healthy", status.Healthy))

	if h.metrics != nil {
		h.metrics.SetStreamState(status.State.String())
		h.metrics.SetReconnectAttempts(status.Attempts)
	}

	if h.health != nil {
		h.health.SetServing(status.Healthy)
	}

	if status.Stale {
		h.logger.Warn("stream has not been open for longer than the maximum backoff",
			zap.Stringer("state", status.State),
			zap.Duration("max_backoff", realtime.MaxBackoff()))
	}

	return status
}

// GetStatus returns the current health status
func (h *HealthMonitor) GetStatus() *HealthStatus {
	snapshot := h.source.Status()
	now := h.now()
	healthy := snapshot.State == realtime.StateOpen

	h.mu.Lock()
	if healthy {
		h.notOpenSince = time.Time{}
	} else if h.notOpenSince.IsZero() {
		h.notOpenSince = now
	}
	stale := !healthy && now.Sub(h.notOpenSince) > realtime.MaxBackoff()
	h.mu.Unlock()

	return &HealthStatus{
		State:     snapshot.State,
		Attempts:  snapshot.Attempts,
		Healthy:   healthy,
		Stale:     stale,
		Timestamp: now,
	}
}

// ServingListener returns a realtime state listener that flips the serving
// flag on every transition, between ticker checks.
func ServingListener(health ServingSetter) func(realtime.State) {
	return func(s realtime.State) {
		health.SetServing(s == realtime.StateOpen)
	}
}

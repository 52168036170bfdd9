package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// streamStates are the values of the state label on skillstream_stream_state
var streamStates = []string{"disconnected", "connecting", "open", "errored"}

// Collector implements MetricsCollector using Prometheus
type Collector struct {
	streamState         *prometheus.GaugeVec
	reconnectAttempts   prometheus.Gauge
	reconnectsScheduled prometheus.Counter
	reconnectDelay      prometheus.Histogram
	transportErrors     *prometheus.CounterVec
	messages            *prometheus.CounterVec
	notifications       *prometheus.CounterVec
	uploadsRefreshes    *prometheus.CounterVec
	uploadsDuration     prometheus.Histogram
}

// NewCollector creates a new Prometheus metrics collector registered on reg
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		streamState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "skillstream_stream_state",
				Help: "Current stream connection state (1 for the active state)",
			},
			[]string{"state"},
		),
		reconnectAttempts: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "skillstream_reconnect_attempts",
				Help: "Consecutive reconnect attempts since the last successful open",
			},
		),
		reconnectsScheduled: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "skillstream_reconnects_scheduled_total",
				Help: "Total number of scheduled reconnects",
			},
		),
		reconnectDelay: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "skillstream_reconnect_delay_seconds",
				Help:    "Delay before a scheduled reconnect",
				Buckets: []float64{2, 4, 8, 16, 32, 64},
			},
		),
		transportErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skillstream_transport_errors_total",
				Help: "Total number of transport errors",
			},
			[]string{"kind"},
		),
		messages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skillstream_messages_total",
				Help: "Total number of stream messages received",
			},
			[]string{"variant"},
		),
		notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skillstream_notifications_total",
				Help: "Total number of notifications shown",
			},
			[]string{"kind"},
		),
		uploadsRefreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skillstream_uploads_refreshes_total",
				Help: "Total number of recent uploads refreshes",
			},
			[]string{"status"},
		),
		uploadsDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "skillstream_uploads_refresh_duration_seconds",
				Help:    "Recent uploads refresh duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
		),
	}
}

// SetStreamState marks state as the active one
func (c *Collector) SetStreamState(state string) {
	for _, s := range streamStates {
		c.streamState.WithLabelValues(s).Set(0)
	}
	c.streamState.WithLabelValues(state).Set(1)
}

// SetReconnectAttempts sets the consecutive attempt count
func (c *Collector) SetReconnectAttempts(n int) {
	c.reconnectAttempts.Set(float64(n))
}

// RecordReconnectScheduled records a scheduled reconnect and its delay
func (c *Collector) RecordReconnectScheduled(delay time.Duration) {
	c.reconnectsScheduled.Inc()
	c.reconnectDelay.Observe(delay.Seconds())
}

// IncTransportErrors increments transport errors by kind
func (c *Collector) IncTransportErrors(kind string) {
	c.transportErrors.WithLabelValues(kind).Inc()
}

// IncMessages increments received messages by variant
func (c *Collector) IncMessages(variant string) {
	c.messages.WithLabelValues(variant).Inc()
}

// IncNotifications increments shown notifications by kind
func (c *Collector) IncNotifications(kind string) {
	c.notifications.WithLabelValues(kind).Inc()
}

// RecordUploadsRefresh records one refresh outcome and its duration
func (c *Collector) RecordUploadsRefresh(status string, duration time.Duration) {
	c.uploadsRefreshes.WithLabelValues(status).Inc()
	c.uploadsDuration.Observe(duration.Seconds())
}

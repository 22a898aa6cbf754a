package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. It doubles as the tracker's
// guardrail sink: every setter is best-effort and fire-and-forget.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Uid map metrics
	MapBytes         prometheus.Gauge
	MapSnapshots     prometheus.Gauge
	MapChanges       prometheus.Gauge
	SnapshotsDropped prometheus.Counter
	ChangesDropped   prometheus.Counter
	Consumers        prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSEvents      *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pkgmap_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pkgmap_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		MapBytes: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pkgmap_uidmap_bytes_used",
				Help: "Approximate memory cost of retained uid map history",
			},
		),
		MapSnapshots: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pkgmap_uidmap_snapshots",
				Help: "Number of retained snapshot records",
			},
		),
		MapChanges: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pkgmap_uidmap_changes",
				Help: "Number of retained change records",
			},
		),
		SnapshotsDropped: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pkgmap_uidmap_snapshots_dropped_total",
				Help: "Snapshot records dropped by byte-budget eviction",
			},
		),
		ChangesDropped: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pkgmap_uidmap_changes_dropped_total",
				Help: "Change records dropped by byte-budget eviction",
			},
		),
		Consumers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pkgmap_uidmap_consumers",
				Help: "Number of registered drain consumers",
			},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pkgmap_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pkgmap_ws_events_total",
				Help: "Total number of WebSocket event frames",
			},
			[]string{"type", "outcome"},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pkgmap_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetUidMapBytes sets the retained history byte gauge
func (m *Metrics) SetUidMapBytes(n uint64) {
	m.MapBytes.Set(float64(n))
}

// SetUidMapSnapshots sets the retained snapshot count gauge
func (m *Metrics) SetUidMapSnapshots(n int) {
	m.MapSnapshots.Set(float64(n))
}

// SetUidMapChanges sets the retained change count gauge
func (m *Metrics) SetUidMapChanges(n int) {
	m.MapChanges.Set(float64(n))
}

// NoteUidMapDropped counts records dropped by byte-budget eviction
func (m *Metrics) NoteUidMapDropped(snapshots, changes int) {
	if snapshots > 0 {
		m.SnapshotsDropped.Add(float64(snapshots))
	}
	if changes > 0 {
		m.ChangesDropped.Add(float64(changes))
	}
}

// SetUidMapConsumers sets the registered consumer count gauge
func (m *Metrics) SetUidMapConsumers(n int) {
	m.Consumers.Set(float64(n))
}

// RecordWSEvent records an outgoing WebSocket event frame
func (m *Metrics) RecordWSEvent(eventType, outcome string) {
	m.WSEvents.WithLabelValues(eventType, outcome).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

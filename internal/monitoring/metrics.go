package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Engine metrics
	FlushesTotal  prometheus.Counter
	FlushedBytes  prometheus.Counter
	QueueDepth    prometheus.Gauge
	DroppedChunks prometheus.Counter
	DroppedBytes  prometheus.Counter
	ResizesTotal  prometheus.Counter

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a metrics collector on the default registry
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates a metrics collector on a custom registerer
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termbridge_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "termbridge_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		FlushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "termbridge_engine_flushes_total",
			Help: "Total number of coalesced sink writes",
		}),
		FlushedBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "termbridge_engine_flushed_bytes_total",
			Help: "Total bytes delivered to terminal sinks",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "termbridge_engine_queue_depth",
			Help: "Pending output chunks after the most recent flush",
		}),
		DroppedChunks: factory.NewCounter(prometheus.CounterOpts{
			Name: "termbridge_engine_dropped_chunks_total",
			Help: "Output chunks discarded by backpressure compaction",
		}),
		DroppedBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "termbridge_engine_dropped_bytes_total",
			Help: "Output bytes discarded by backpressure compaction",
		}),
		ResizesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "termbridge_engine_resizes_total",
			Help: "Distinct grid size changes published to resize callbacks",
		}),

		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "termbridge_sessions_active",
			Help: "Number of active terminal sessions",
		}),
		SessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "termbridge_sessions_total",
			Help: "Total number of terminal sessions created",
		}),

		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "termbridge_ws_connections",
			Help: "Number of active WebSocket connections",
		}),

		Uptime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "termbridge_uptime_seconds",
			Help: "Service uptime in seconds",
		}),
	}
}

// RecordHTTPRequest records HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordFlush records one coalesced sink write
func (m *Metrics) RecordFlush(bytes, queueDepth int) {
	m.FlushesTotal.Inc()
	m.FlushedBytes.Add(float64(bytes))
	m.QueueDepth.Set(float64(queueDepth))
}

// RecordDrop records a backpressure compaction pass
func (m *Metrics) RecordDrop(chunks, bytes int) {
	m.DroppedChunks.Add(float64(chunks))
	m.DroppedBytes.Add(float64(bytes))
}

// RecordResize records one published size change
func (m *Metrics) RecordResize() {
	m.ResizesTotal.Inc()
}

// SessionStarted increments session counters
func (m *Metrics) SessionStarted() {
	m.SessionsActive.Inc()
	m.SessionsTotal.Inc()
}

// SessionEnded decrements the active session gauge
func (m *Metrics) SessionEnded() {
	m.SessionsActive.Dec()
}

// UpdateUptime refreshes the uptime gauge
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

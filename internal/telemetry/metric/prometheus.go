package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "camlink"

// Drop kinds for FramesDropped.
const (
	DropBinary    = "binary"
	DropEmitError = "emit_error"
)

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter

	// Frame metrics
	FramesTotal   prometheus.Counter
	FrameBytes    prometheus.Counter
	FramesDropped *prometheus.CounterVec

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with every camlink metric plus the Go
// runtime and process collectors registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of producer WebSocket sessions currently open.",
		}),
		SessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of producer sessions accepted.",
		}),
		FramesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Total number of camera frames emitted to the host bus.",
		}),
		FrameBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_bytes_total",
			Help:      "Total size of camera frame payloads emitted to the host bus.",
		}),
		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Inbound messages that did not reach the host bus, by kind.",
		}, []string{"kind"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served by the streaming endpoint.",
		}, []string{"route", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency. WebSocket routes measure the whole session.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	r.reg.MustRegister(
		r.SessionsActive,
		r.SessionsTotal,
		r.FramesTotal,
		r.FrameBytes,
		r.FramesDropped,
		r.RequestsTotal,
		r.RequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		NewCollector(),
	)
	return r
}

// Gatherer exposes the underlying registry, mostly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// SessionOpened records a session entering the active state.
func (r *Registry) SessionOpened() {
	if r == nil {
		return
	}
	r.SessionsTotal.Inc()
	r.SessionsActive.Inc()
}

// SessionClosed records an active session closing.
func (r *Registry) SessionClosed() {
	if r == nil {
		return
	}
	r.SessionsActive.Dec()
}

// FrameRelayed records one frame of size bytes handed to the host bus.
func (r *Registry) FrameRelayed(size int) {
	if r == nil {
		return
	}
	r.FramesTotal.Inc()
	r.FrameBytes.Add(float64(size))
}

// FrameDropped records an inbound message that was not forwarded.
func (r *Registry) FrameDropped(kind string) {
	if r == nil {
		return
	}
	r.FramesDropped.WithLabelValues(kind).Inc()
}

// ObserveRequest records a finished HTTP request.
func (r *Registry) ObserveRequest(route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

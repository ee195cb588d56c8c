package observability

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aqualedger/aqualedger/pkg/types"
)

// Metrics holds the Prometheus collectors for the process. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	ticksTotal        prometheus.Counter
	cyclesCompleted   prometheus.Counter
	manualEntries     prometheus.Gauge
	sessionUsage      prometheus.Gauge
	sessionCost       prometheus.Gauge
	sessionHours      prometheus.Gauge
	streamClients     prometheus.Gauge
	storageErrors     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aqualedger_ticks_total",
			Help: "Total simulation ticks processed.",
		}),
		cyclesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aqualedger_cycles_completed_total",
			Help: "Total billing cycles completed.",
		}),
		manualEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aqualedger_manual_entries",
			Help: "Number of entries in the manual ledger.",
		}),
		sessionUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aqualedger_session_usage_liters",
			Help: "Usage accumulated in the current session.",
		}),
		sessionCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aqualedger_session_cost",
			Help: "Cost accumulated in the current session.",
		}),
		sessionHours: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aqualedger_session_hours",
			Help: "Hours elapsed in the current session.",
		}),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aqualedger_stream_clients",
			Help: "Connected websocket clients.",
		}),
		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aqualedger_storage_errors_total",
			Help: "Total persistence failures by operation.",
		}, []string{"op"}),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.ticksTotal,
		m.cyclesCompleted,
		m.manualEntries,
		m.sessionUsage,
		m.sessionCost,
		m.sessionHours,
		m.streamClients,
		m.storageErrors,
	)

	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// Hijack is required for websocket upgrades on wrapped routes.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the private registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Tick(cycleCompleted bool) {
	if m == nil {
		return
	}
	m.ticksTotal.Inc()
	if cycleCompleted {
		m.cyclesCompleted.Inc()
	}
}

func (m *Metrics) SetSession(s types.SessionState) {
	if m == nil {
		return
	}
	m.sessionUsage.Set(s.UsageAccumulated)
	m.sessionCost.Set(s.CostAccumulated)
	m.sessionHours.Set(float64(s.HoursElapsed))
}

func (m *Metrics) SetManualEntries(n int) {
	if m == nil {
		return
	}
	m.manualEntries.Set(float64(n))
}

func (m *Metrics) SetStreamClients(n int) {
	if m == nil {
		return
	}
	m.streamClients.Set(float64(n))
}

func (m *Metrics) StorageError(op string) {
	if m == nil {
		return
	}
	m.storageErrors.WithLabelValues(op).Inc()
}

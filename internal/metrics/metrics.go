package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps the Prometheus metrics of the dashboard API. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	permissionChecks *prometheus.CounterVec
	centerSwitches   *prometheus.CounterVec
	reconciles       *prometheus.CounterVec
	activeSessions   prometheus.Gauge
	evictedSessions  prometheus.Counter
	wsConnections    prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	permissionChecks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "permission_checks_total",
		Help: "Permission checks by resource and outcome.",
	}, []string{"resource", "granted"})

	centerSwitches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "center_switches_total",
		Help: "Center switch requests by whether the selection changed.",
	}, []string{"changed"})

	reconciles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "center_route_reconcile_total",
		Help: "Center-scoped requests by reconcile outcome.",
	}, []string{"outcome"})

	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "active_sessions",
		Help: "Sessions currently held in memory.",
	})

	evictedSessions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sessions_evicted_total",
		Help: "Sessions closed by the idle sweeper.",
	})

	wsConnections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections",
		Help: "Open websocket connections.",
	})

	registry.MustRegister(permissionChecks, centerSwitches, reconciles, activeSessions, evictedSessions, wsConnections)

	return &Metrics{
		registry:         registry,
		permissionChecks: permissionChecks,
		centerSwitches:   centerSwitches,
		reconciles:       reconciles,
		activeSessions:   activeSessions,
		evictedSessions:  evictedSessions,
		wsConnections:    wsConnections,
	}
}

// Handler exposes the metrics registry via HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObservePermissionCheck(resource string, granted bool) {
	if m == nil {
		return
	}
	m.permissionChecks.WithLabelValues(resource, strconv.FormatBool(granted)).Inc()
}

func (m *Metrics) ObserveCenterSwitch(changed bool) {
	if m == nil {
		return
	}
	m.centerSwitches.WithLabelValues(strconv.FormatBool(changed)).Inc()
}

func (m *Metrics) ObserveReconcile(outcome string) {
	if m == nil {
		return
	}
	m.reconciles.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

func (m *Metrics) AddEvictedSessions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.evictedSessions.Add(float64(n))
}

func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.wsConnections.Inc()
}

func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.wsConnections.Dec()
}

// Package metrics exposes Prometheus instrumentation for the dispatch
// core. Metrics are optional: Init is called once at startup if the
// metrics.enabled configuration flag is set; every recording function in
// this package is a no-op until then, so callers never need nil checks.
package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mu       sync.Mutex
	enabled  atomic.Bool
	registry *prometheus.Registry

	bufferDepth       *prometheus.GaugeVec
	dispatchTotal     *prometheus.CounterVec
	dispatchDuration  *prometheus.HistogramVec
	listenerErrors    *prometheus.CounterVec
	connectionsActive prometheus.Gauge
	switchesActive    prometheus.Gauge
	nappsLoaded       prometheus.Gauge
)

// IsEnabled reports whether Init has been called.
func IsEnabled() bool {
	return enabled.Load()
}

// GetRegistry returns the Prometheus registry metrics are registered
// against. Only valid after Init.
func GetRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	return registry
}

// Init creates a fresh Prometheus registry and registers every dispatch-
// core metric against it. Safe to call more than once; later calls return
// the existing registry unchanged.
func Init() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	if registry != nil {
		return registry
	}

	registry = prometheus.NewRegistry()
	reg := registry

	bufferDepth = promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
		Name: "kyco_buffer_depth",
		Help: "Number of events currently queued in a buffer.",
	}, []string{"buffer"})

	dispatchTotal = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "kyco_dispatch_events_total",
		Help: "Total number of events dispatched, by buffer and event name.",
	}, []string{"buffer", "event"})

	dispatchDuration = promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kyco_dispatch_duration_milliseconds",
		Help:    "Time spent notifying all matching listeners for one event.",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000},
	}, []string{"buffer"})

	listenerErrors = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "kyco_listener_errors_total",
		Help: "Total number of listener panics/errors caught by the dispatcher, by event name.",
	}, []string{"event"})

	connectionsActive = promauto.With(reg).NewGauge(prometheus.GaugeOpts{
		Name: "kyco_connections_active",
		Help: "Number of currently registered connections.",
	})

	switchesActive = promauto.With(reg).NewGauge(prometheus.GaugeOpts{
		Name: "kyco_switches_active",
		Help: "Number of currently registered switches.",
	})

	nappsLoaded = promauto.With(reg).NewGauge(prometheus.GaugeOpts{
		Name: "kyco_napps_loaded",
		Help: "Number of currently loaded NApps.",
	})

	enabled.Store(true)
	return registry
}

// SetBufferDepth records the current depth of the named buffer.
func SetBufferDepth(buffer string, depth int) {
	if !IsEnabled() {
		return
	}
	bufferDepth.WithLabelValues(buffer).Set(float64(depth))
}

// RecordDispatch records one event having been delivered from buffer.
func RecordDispatch(buffer, eventName string) {
	if !IsEnabled() {
		return
	}
	dispatchTotal.WithLabelValues(buffer, eventName).Inc()
}

// ObserveDispatchDuration records how long notifying all listeners for one
// event took, in milliseconds.
func ObserveDispatchDuration(buffer string, ms float64) {
	if !IsEnabled() {
		return
	}
	dispatchDuration.WithLabelValues(buffer).Observe(ms)
}

// RecordListenerError records a listener panic or error caught while
// dispatching an event named eventName.
func RecordListenerError(eventName string) {
	if !IsEnabled() {
		return
	}
	listenerErrors.WithLabelValues(eventName).Inc()
}

// SetConnectionsActive records the current connection registry size.
func SetConnectionsActive(n int) {
	if !IsEnabled() {
		return
	}
	connectionsActive.Set(float64(n))
}

// SetSwitchesActive records the current switch registry size.
func SetSwitchesActive(n int) {
	if !IsEnabled() {
		return
	}
	switchesActive.Set(float64(n))
}

// SetNAppsLoaded records the current NApp registry size.
func SetNAppsLoaded(n int) {
	if !IsEnabled() {
		return
	}
	nappsLoaded.Set(float64(n))
}

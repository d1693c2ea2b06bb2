package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "suitcraft"

// Metrics holds the Prometheus collectors exported by the web service.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	activeRequests  prometheus.Gauge

	contactDeliveries *prometheus.CounterVec
	contactDuration   *prometheus.HistogramVec
	contactRejected   *prometheus.CounterVec
	menuToggles       prometheus.Counter
	sectionSelections *prometheus.CounterVec
}

// NewMetrics creates a private registry with HTTP and contact collectors so
// several servers (tests) can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		activeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_active",
			Help:      "Number of in-flight HTTP requests",
		}),
		contactDeliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "contact",
			Name:      "deliveries_total",
			Help:      "Contact message deliveries by sink and outcome",
		}, []string{"sink", "outcome"}),
		contactDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "contact",
			Name:      "delivery_duration_seconds",
			Help:      "Time spent delivering a contact message",
			Buckets:   prometheus.DefBuckets,
		}, []string{"sink"}),
		contactRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "contact",
			Name:      "rejected_total",
			Help:      "Contact submissions rejected before delivery",
		}, []string{"reason"}),
		menuToggles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "page",
			Name:      "menu_toggles_total",
			Help:      "Mobile menu toggles",
		}),
		sectionSelections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "page",
			Name:      "section_selections_total",
			Help:      "Navigation selections by section",
		}, []string{"section"}),
	}
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveDelivery records one contact delivery attempt chain.
func (m *Metrics) ObserveDelivery(sink string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "delivered"
	if !ok {
		outcome = "failed"
	}
	m.contactDeliveries.WithLabelValues(sink, outcome).Inc()
	m.contactDuration.WithLabelValues(sink).Observe(d.Seconds())
}

// ContactRejected counts submissions refused by validation or throttling.
func (m *Metrics) ContactRejected(reason string) {
	if m == nil {
		return
	}
	m.contactRejected.WithLabelValues(reason).Inc()
}

// MenuToggled counts mobile menu toggles.
func (m *Metrics) MenuToggled() {
	if m == nil {
		return
	}
	m.menuToggles.Inc()
}

// SectionSelected counts navigation selections; unknown ids are bucketed.
func (m *Metrics) SectionSelected(section string, known bool) {
	if m == nil {
		return
	}
	if !known {
		section = "unknown"
	}
	m.sectionSelections.WithLabelValues(section).Inc()
}

// Middleware records request counts and latency labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.activeRequests.Inc()
		defer m.activeRequests.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := RoutePattern(r)
		m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RoutePattern returns the matched chi pattern, or the raw path before routing.
func RoutePattern(r *http.Request) string {
	if r == nil {
		return "/"
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Unwrap() http.ResponseWriter { return w.ResponseWriter }

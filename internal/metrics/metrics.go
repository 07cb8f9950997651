package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	handler http.Handler

	imports         *prometheus.CounterVec
	importedCourses *prometheus.GaugeVec
	requestDuration *prometheus.HistogramVec
	refreshes       *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	imports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coursegrid_imports_total",
		Help: "Import attempts by format and outcome",
	}, []string{"format", "outcome"})

	importedCourses := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "coursegrid_courses",
		Help: "Number of courses produced by the last successful import per format",
	}, []string{"format"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coursegrid_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coursegrid_subscription_refresh_total",
		Help: "Subscription refresh runs by outcome",
	}, []string{"outcome"})

	registry.MustRegister(
		imports,
		importedCourses,
		requestDuration,
		refreshes,
		collectors.NewGoCollector(),
	)

	return &Metrics{
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		imports:         imports,
		importedCourses: importedCourses,
		requestDuration: requestDuration,
		refreshes:       refreshes,
	}
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return m.handler
}

// ObserveImport records one import attempt. count is ignored on failure.
func (m *Metrics) ObserveImport(format string, count int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.imports.WithLabelValues(format, "error").Inc()
		return
	}
	m.imports.WithLabelValues(format, "ok").Inc()
	m.importedCourses.WithLabelValues(format).Set(float64(count))
}

// ObserveRefresh records one subscription refresh.
func (m *Metrics) ObserveRefresh(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}

// ObserveRequest records an HTTP request.
func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(d.Seconds())
}

// Package metrics exposes Prometheus metrics for HTTP traffic and catalog
// import/export runs.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/boulouzanacer/SafeBoutique-sub000/internal/models"
	"github.com/boulouzanacer/SafeBoutique-sub000/internal/retention"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so that several instances can coexist in tests.
type Metrics struct {
	registry  *prometheus.Registry
	factory   promauto.Factory
	namespace string
	subsystem string

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	importRuns     *prometheus.CounterVec
	importRows     *prometheus.CounterVec
	importDuration prometheus.Histogram
	exportFiles    *prometheus.CounterVec
	exportRows     *prometheus.CounterVec
}

// New registers all collectors under namespace_subsystem_*.
func New(namespace, subsystem string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry:  reg,
		factory:   factory,
		namespace: namespace,
		subsystem: subsystem,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		importRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "import_runs_total",
			Help:      "Product import runs by outcome.",
		}, []string{"outcome"}),
		importRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "import_rows_total",
			Help:      "Imported rows by result (created, updated, failed).",
		}, []string{"result"}),
		importDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "import_duration_seconds",
			Help:      "Duration of product import runs.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		exportFiles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "export_files_total",
			Help:      "Generated export and template files.",
		}, []string{"kind"}),
		exportRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "export_rows_total",
			Help:      "Rows written to export and template files.",
		}, []string{"kind"}),
	}
}

// ObserveImport records one finished import run.
func (m *Metrics) ObserveImport(result *models.ImportResult, seconds float64) {
	outcome := "success"
	switch {
	case result.TotalRows == 0 || (!result.Success && result.Imported == 0 && len(result.Errors) == 0):
		outcome = "rejected"
	case !result.Success:
		outcome = "failed"
	case len(result.Errors) > 0:
		outcome = "partial"
	}
	m.importRuns.WithLabelValues(outcome).Inc()
	m.importRows.WithLabelValues("created").Add(float64(result.Created))
	m.importRows.WithLabelValues("updated").Add(float64(result.Updated))
	m.importRows.WithLabelValues("failed").Add(float64(len(result.Errors)))
	m.importDuration.Observe(seconds)
}

// ObserveExport records one generated file.
func (m *Metrics) ObserveExport(kind string, result *models.ExportResult) {
	m.exportFiles.WithLabelValues(kind).Inc()
	m.exportRows.WithLabelValues(kind).Add(float64(result.Count))
}

// WatchRetention exposes the export retention sweeper statistics. stats is
// read on every scrape.
func (m *Metrics) WatchRetention(stats func() retention.SweepStats) {
	m.factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "retention_files_deleted_total",
		Help:      "Expired export and template files removed.",
	}, func() float64 {
		return float64(stats().FilesDeleted)
	})
	m.factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "retention_last_run_timestamp_seconds",
		Help:      "Unix time of the last retention sweep, 0 before the first one.",
	}, func() float64 {
		last := stats().LastRunAt
		if last.IsZero() {
			return 0
		}
		return float64(last.Unix())
	})
	m.factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "retention_last_run_failed",
		Help:      "1 when the last retention sweep reported an error.",
	}, func() float64 {
		if stats().LastError != "" {
			return 1
		}
		return 0
	})
}

// Middleware counts requests per matched route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Package metrics provides Prometheus metrics for media and import runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/batchingest/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "batchingest"

// Metrics holds all collectors. It implements core.RunObserver.
type Metrics struct {
	registry *prometheus.Registry

	MediaFiles   *prometheus.CounterVec
	ImportRows   *prometheus.CounterVec
	Runs         *prometheus.CounterVec
	RunDuration  *prometheus.HistogramVec
	MediaBatches prometheus.Histogram
}

// New registers the collectors on a fresh registry together with the Go and
// process collectors.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		MediaFiles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "media_files_total",
				Help:      "Media files processed, by result",
			},
			[]string{"result"},
		),
		ImportRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "import_rows_total",
				Help:      "CSV rows processed, by result",
			},
			[]string{"result"},
		),
		Runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Finished runs, by kind and final phase",
			},
			[]string{"kind", "status"},
		),
		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall time of finished runs",
				Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"kind"},
		),
		MediaBatches: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "media_batch_files",
				Help:      "Number of files per media upload",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
	}
}

// ObserveMedia records per-file results of a media run.
func (m *Metrics) ObserveMedia(o *core.UploadOutcome) {
	if o == nil {
		return
	}
	m.MediaFiles.WithLabelValues("success").Add(float64(o.SuccessCount))
	m.MediaFiles.WithLabelValues("error").Add(float64(len(o.ErrorFiles)))
	m.MediaFiles.WithLabelValues("orphan").Add(float64(len(o.OrphanFiles)))
	m.MediaBatches.Observe(float64(o.TotalFiles))
}

// ObserveImport records per-row results of an import run.
func (m *Metrics) ObserveImport(o *core.ImportOutcome) {
	if o == nil {
		return
	}
	m.ImportRows.WithLabelValues("success").Add(float64(o.SuccessCount))
	m.ImportRows.WithLabelValues("error").Add(float64(len(o.Errors)))
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(kind core.RunKind, phase core.RunPhase, elapsed time.Duration) {
	m.Runs.WithLabelValues(string(kind), string(phase)).Inc()
	m.RunDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

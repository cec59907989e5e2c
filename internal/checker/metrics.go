package checker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"uploadcheck/internal/services"
)

// Metrics holds the counters for one checker. They live in a private
// registry and are exported as a node_exporter textfile after each run.
type Metrics struct {
	registry *prometheus.Registry

	files          *prometheus.CounterVec
	verdicts       *prometheus.CounterVec
	errors         *prometheus.CounterVec
	searchErrors   *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	stageDuration  *prometheus.GaugeVec
	lastRun        prometheus.Gauge
}

// NewMetrics creates and registers the checker metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uploadcheck",
			Subsystem: "scan",
			Name:      "files_total",
			Help:      "Files seen by the scanner, by state.",
		}, []string{"state"}),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uploadcheck",
			Subsystem: "classify",
			Name:      "verdicts_total",
			Help:      "Verdicts decided, by catalog and outcome.",
		}, []string{"catalog", "outcome"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uploadcheck",
			Name:      "errors_total",
			Help:      "Per-file failures, by stage and error kind.",
		}, []string{"stage", "kind"}),
		searchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uploadcheck",
			Subsystem: "search",
			Name:      "request_errors_total",
			Help:      "Failed catalog searches, by catalog and error kind.",
		}, []string{"catalog", "kind"}),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "uploadcheck",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Duration of catalog searches including cooldown waits.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"catalog"}),
		stageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "uploadcheck",
			Subsystem: "stage",
			Name:      "duration_seconds",
			Help:      "Duration of the last completed run of each stage.",
		}, []string{"stage"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "uploadcheck",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the metrics were last written.",
		}),
	}
	m.registry.MustRegister(
		m.files,
		m.verdicts,
		m.errors,
		m.searchErrors,
		m.searchDuration,
		m.stageDuration,
		m.lastRun,
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) observeSearch(catalog string, elapsed time.Duration, err error) {
	m.searchDuration.WithLabelValues(catalog).Observe(elapsed.Seconds())
	if err != nil {
		m.searchErrors.WithLabelValues(catalog, services.ErrorKind(err)).Inc()
	}
}

func (m *Metrics) observeStage(stage Stage, elapsed time.Duration) {
	m.stageDuration.WithLabelValues(string(stage)).Set(elapsed.Seconds())
}

// WriteTextfile writes every metric in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	m.lastRun.SetToCurrentTime()
	return prometheus.WriteToTextfile(path, m.registry)
}

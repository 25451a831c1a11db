package pipeline

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// pipelineMetrics holds the Prometheus instrumentation for one process,
// mirroring the teacher's package-level metrics struct
// (pkg/ingestion/metrics.go): lazily registered via sync.Once so tests that
// construct multiple Executors in-process don't double-register.
type pipelineMetrics struct {
	once sync.Once

	filesDiscovered prometheus.Counter
	filesParsed     prometheus.Counter
	filesFailed     prometheus.Counter
	filesTimedOut   prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	stageDuration *prometheus.HistogramVec
}

var pipeMetrics pipelineMetrics

func (m *pipelineMetrics) init() {
	m.once.Do(func() {
		m.filesDiscovered = prometheus.NewCounter(prometheus.CounterOpts{Name: "valknut_files_discovered_total", Help: "Files surfaced by the discovery stage"})
		m.filesParsed = prometheus.NewCounter(prometheus.CounterOpts{Name: "valknut_files_parsed_total", Help: "Files successfully parsed"})
		m.filesFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "valknut_files_failed_total", Help: "Files recorded as unparseable"})
		m.filesTimedOut = prometheus.NewCounter(prometheus.CounterOpts{Name: "valknut_files_timed_out_total", Help: "Files that exceeded the per-file soft timeout"})
		m.cacheHits = prometheus.NewCounter(prometheus.CounterOpts{Name: "valknut_cache_hits_total", Help: "Parse cache hits"})
		m.cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{Name: "valknut_cache_misses_total", Help: "Parse cache misses"})

		buckets := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
		m.stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "valknut_stage_duration_seconds",
			Help:    "Wall-clock duration of each pipeline stage",
			Buckets: buckets,
		}, []string{"stage"})

		prometheus.MustRegister(
			m.filesDiscovered, m.filesParsed, m.filesFailed, m.filesTimedOut,
			m.cacheHits, m.cacheMisses, m.stageDuration,
		)
	})
}

func recordStageDuration(stage string, seconds float64) {
	pipeMetrics.init()
	pipeMetrics.stageDuration.WithLabelValues(stage).Observe(seconds)
}

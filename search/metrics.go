package search

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricBuildsTotal        = "marketrag_builds_total"
	MetricBuildDegradedTotal = "marketrag_build_degraded_total"
	MetricBuildDuration      = "marketrag_build_duration_seconds"
	MetricIndexedDocs        = "marketrag_indexed_docs"
	MetricQueriesTotal       = "marketrag_queries_total"
	MetricCacheHitsTotal     = "marketrag_cache_hits_total"
)

// Metrics exports build and query statistics to Prometheus.
// It implements Monitor; pass it to a service with WithMonitor.
// All operations are thread-safe.
type Metrics struct {
	builds        *prometheus.CounterVec
	buildDegraded *prometheus.CounterVec
	buildDuration *prometheus.HistogramVec
	indexedDocs   *prometheus.GaugeVec
	queries       *prometheus.CounterVec
	cacheHits     *prometheus.CounterVec
}

var _ Monitor = (*Metrics)(nil)

// NewMetrics creates a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	variant := []string{"variant"}
	return &Metrics{
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricBuildsTotal,
			Help: "Total number of index builds by variant",
		}, variant),
		buildDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricBuildDegradedTotal,
			Help: "Total number of index builds that completed with a failed or substituted source",
		}, variant),
		buildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricBuildDuration,
			Help:    "Histogram of index build duration in seconds by variant",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		}, variant),
		indexedDocs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricIndexedDocs,
			Help: "Number of documents in the current index by variant",
		}, variant),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricQueriesTotal,
			Help: "Total number of queries served by variant",
		}, variant),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricCacheHitsTotal,
			Help: "Total number of queries answered from the query cache by variant",
		}, variant),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all Prometheus collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.builds,
		m.buildDegraded,
		m.buildDuration,
		m.indexedDocs,
		m.queries,
		m.cacheHits,
	}
}

// BuildStarted implements Monitor.
func (m *Metrics) BuildStarted(_ string) {}

// BuildFinished implements Monitor.
func (m *Metrics) BuildFinished(variant string, result *BuildResult, elapsed time.Duration) {
	m.builds.WithLabelValues(variant).Inc()
	m.buildDuration.WithLabelValues(variant).Observe(elapsed.Seconds())
	if result == nil {
		return
	}
	if result.Degraded {
		m.buildDegraded.WithLabelValues(variant).Inc()
	}
	m.indexedDocs.WithLabelValues(variant).Set(float64(result.IndexedDocs))
}

// QueryServed implements Monitor.
func (m *Metrics) QueryServed(variant string, _ []string, cached bool) {
	m.queries.WithLabelValues(variant).Inc()
	if cached {
		m.cacheHits.WithLabelValues(variant).Inc()
	}
}

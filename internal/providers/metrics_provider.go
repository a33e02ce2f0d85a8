package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gerritwatch/internal/structures"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
	SetRecordsTotal(category string, count int)
	IncCyclesTotal(result string)
	ObserveCycleDuration(duration time.Duration)
	SetLastCycleTimestamp(ts int64)
	SetDeltaItems(kind string, count int)
	AddReaperFiles(action string, count int)
}

const (
	CycleResultOK           = "ok"
	CycleResultInsufficient = "insufficient"
	CycleResultError        = "error"
)

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
	recordsTotal        *prometheus.GaugeVec
	cyclesTotal         *prometheus.CounterVec
	cycleDuration       prometheus.Histogram
	lastCycle           prometheus.Gauge
	deltaItems          *prometheus.GaugeVec
	reaperFiles         *prometheus.CounterVec
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) SetRecordsTotal(category string, count int) {
	m.recordsTotal.WithLabelValues(category).Set(float64(count))
}

func (m *MetricsProvider) IncCyclesTotal(result string) {
	m.cyclesTotal.WithLabelValues(result).Inc()
}

func (m *MetricsProvider) ObserveCycleDuration(duration time.Duration) {
	m.cycleDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) SetLastCycleTimestamp(ts int64) {
	m.lastCycle.Set(float64(ts) / 1000)
}

func (m *MetricsProvider) SetDeltaItems(kind string, count int) {
	m.deltaItems.WithLabelValues(kind).Set(float64(count))
}

func (m *MetricsProvider) AddReaperFiles(action string, count int) {
	m.reaperFiles.WithLabelValues(action).Add(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gw_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gw_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gw_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gw_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gw_persistence_duration_seconds",
			Help:    "Duration of snapshot and log state writes in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		recordsTotal: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gw_records_total",
			Help: "Number of change records fetched in the last cycle per category",
		}, []string{"category"}),

		cyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gw_cycles_total",
			Help: "Total number of fetch cycles by result",
		}, []string{"result"}),

		cycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gw_cycle_duration_seconds",
			Help:    "Duration of a full fetch cycle in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		lastCycle: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gw_last_cycle_timestamp_seconds",
			Help: "Fetch timestamp of the last completed cycle",
		}),

		deltaItems: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gw_delta_items",
			Help: "Number of items classified in the last delta by kind",
		}, []string{"kind"}),

		reaperFiles: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gw_reaper_files_total",
			Help: "Snapshot files processed by the reaper by action",
		}, []string{"action"}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) SetRecordsTotal(_ string, _ int)                  {}
func (n *noopMetrics) IncCyclesTotal(_ string)                          {}
func (n *noopMetrics) ObserveCycleDuration(_ time.Duration)             {}
func (n *noopMetrics) SetLastCycleTimestamp(_ int64)                    {}
func (n *noopMetrics) SetDeltaItems(_ string, _ int)                    {}
func (n *noopMetrics) AddReaperFiles(_ string, _ int)                   {}

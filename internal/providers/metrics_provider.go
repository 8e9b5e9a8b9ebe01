package providers

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"storypanel/internal/structures"
)

// MetricsProviderInterface is what the kiosk reports to Prometheus.
type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
	IncSlidesShown()
	IncTrackingFailures(kind string)
	IncBuilderSaves(outcome string)
}

// PlaylistGauge exposes the size of the playlist currently loaded by the kiosk.
type PlaylistGauge interface {
	GroupCount() int
	SlideCount() int
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
	slidesShown         prometheus.Counter
	trackingFailures    *prometheus.CounterVec
	builderSaves        *prometheus.CounterVec
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, statusClass(status)).Inc()
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

func (m *MetricsProvider) IncSlidesShown() {
	m.slidesShown.Inc()
}

func (m *MetricsProvider) IncTrackingFailures(kind string) {
	m.trackingFailures.WithLabelValues(kind).Inc()
}

func (m *MetricsProvider) IncBuilderSaves(outcome string) {
	m.builderSaves.WithLabelValues(outcome).Inc()
}

// statusClass folds status codes into 2xx/4xx/... to bound label cardinality.
func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "5xx"
	}
	return strconv.Itoa(code/100) + "xx"
}

const metricsNamespace = "storypanel"

// kioskLatencyBuckets are tighter than the defaults: every endpoint answers
// from memory, so anything past 250ms is already an outlier.
var kioskLatencyBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, 1}

func NewMetricsProvider(conf *structures.Config, playlist PlaylistGauge) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	f := promauto.With(prometheus.DefaultRegisterer)
	counter := func(name, help string) prometheus.Counter {
		return f.NewCounter(prometheus.CounterOpts{Namespace: metricsNamespace, Name: name, Help: help})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return f.NewCounterVec(prometheus.CounterOpts{Namespace: metricsNamespace, Name: name, Help: help}, labels)
	}

	m := &MetricsProvider{
		requestsTotal: counterVec("requests_total", "Kiosk API requests by route pattern and status class", "endpoint", "status"),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "request_duration_seconds",
			Help:      "Kiosk API latency by route pattern",
			Buckets:   kioskLatencyBuckets,
		}, []string{"endpoint"}),
		cacheHits:   counter("cache_hits_total", "Response cache hits"),
		cacheMisses: counter("cache_misses_total", "Response cache misses"),
		persistenceDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "persistence_duration_seconds",
			Help:      "Time to write a playlist snapshot",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 6),
		}),
		slidesShown:      counter("slides_shown_total", "Slides entered by viewer sessions"),
		trackingFailures: counterVec("tracking_failures_total", "Tracking calls that failed and were dropped", "kind"),
		builderSaves:     counterVec("builder_saves_total", "Slide builder save attempts by outcome", "outcome"),
	}

	if playlist != nil {
		gauge := func(name, help string, value func() int) {
			f.NewGaugeFunc(prometheus.GaugeOpts{Namespace: metricsNamespace, Name: name, Help: help},
				func() float64 { return float64(value()) })
		}
		gauge("playlist_groups", "Story groups in the loaded playlist", playlist.GroupCount)
		gauge("playlist_slides", "Slides in the loaded playlist", playlist.SlideCount)
	}

	return m
}

type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncSlidesShown()                                  {}
func (n *noopMetrics) IncTrackingFailures(_ string)                     {}
func (n *noopMetrics) IncBuilderSaves(_ string)                         {}

// NewNoopMetrics is used by CLI commands that never expose /metrics.
func NewNoopMetrics() MetricsProviderInterface {
	return &noopMetrics{}
}

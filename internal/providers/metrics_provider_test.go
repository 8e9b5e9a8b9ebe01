package providers

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storypanel/internal/structures"
)

type metricsTestPlaylist struct{}

func (metricsTestPlaylist) GroupCount() int { return 3 }
func (metricsTestPlaylist) SlideCount() int { return 11 }

func useTestRegistry(t *testing.T) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	prevReg, prevGather := prometheus.DefaultRegisterer, prometheus.DefaultGatherer
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = prevReg
		prometheus.DefaultGatherer = prevGather
	})
	return reg
}

// gathered returns the value of the sample in family name whose labels include
// all of the given name/value pairs.
func gathered(t *testing.T, reg *prometheus.Registry, name string, labels ...string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	samples:
		for _, m := range f.GetMetric() {
			have := map[string]string{}
			for _, lp := range m.GetLabel() {
				have[lp.GetName()] = lp.GetValue()
			}
			for i := 0; i+1 < len(labels); i += 2 {
				if have[labels[i]] != labels[i+1] {
					continue samples
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			}
		}
	}
	t.Fatalf("no sample %s %v", name, labels)
	return 0
}

func TestNoopMetrics_WhenDisabled(t *testing.T) {
	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: false},
	}
	m := NewMetricsProvider(conf, metricsTestPlaylist{})
	_, ok := m.(*noopMetrics)
	assert.True(t, ok, "should return noopMetrics when disabled")

	// Ensure no-op methods don't panic
	m.IncRequestsTotal("GET /frame", 200)
	m.ObserveRequestDuration("GET /frame", time.Millisecond)
	m.IncCacheHits()
	m.IncCacheMisses()
	m.ObservePersistenceDuration(time.Millisecond)
	m.IncSlidesShown()
	m.IncTrackingFailures("open")
	m.IncBuilderSaves("ok")
}

func TestMetricsProvider_Counters(t *testing.T) {
	reg := useTestRegistry(t)

	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf, metricsTestPlaylist{})
	_, ok := m.(*MetricsProvider)
	require.True(t, ok, "should return MetricsProvider when enabled")

	m.IncRequestsTotal("GET /frame", 200)
	m.IncRequestsTotal("GET /frame", 204)
	m.IncRequestsTotal("GET /frame", 503)
	m.ObserveRequestDuration("GET /frame", 5*time.Millisecond)
	m.IncCacheHits()
	m.IncCacheMisses()
	m.ObservePersistenceDuration(100 * time.Millisecond)
	m.IncSlidesShown()
	m.IncTrackingFailures("view")
	m.IncBuilderSaves("error")

	assert.Equal(t, 2.0, gathered(t, reg, "storypanel_requests_total", "endpoint", "GET /frame", "status", "2xx"))
	assert.Equal(t, 1.0, gathered(t, reg, "storypanel_requests_total", "status", "5xx"))
	assert.Equal(t, 1.0, gathered(t, reg, "storypanel_slides_shown_total"))
	assert.Equal(t, 1.0, gathered(t, reg, "storypanel_tracking_failures_total", "kind", "view"))
	assert.Equal(t, 1.0, gathered(t, reg, "storypanel_builder_saves_total", "outcome", "error"))
	assert.Equal(t, 1.0, gathered(t, reg, "storypanel_cache_hits_total"))
	assert.Equal(t, 3.0, gathered(t, reg, "storypanel_playlist_groups"))
	assert.Equal(t, 11.0, gathered(t, reg, "storypanel_playlist_slides"))
}

func TestMetricsProvider_WithoutPlaylist(t *testing.T) {
	reg := useTestRegistry(t)

	NewMetricsProvider(&structures.Config{Metrics: structures.MetricsConfig{Enabled: true}}, nil)

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		assert.NotEqual(t, "storypanel_playlist_groups", f.GetName())
	}
}

func TestStatusClass(t *testing.T) {
	for code, want := range map[int]string{
		100: "1xx",
		200: "2xx",
		204: "2xx",
		304: "3xx",
		404: "4xx",
		405: "4xx",
		503: "5xx",
		0:   "5xx",
		999: "5xx",
	} {
		assert.Equal(t, want, statusClass(code), "code %d", code)
	}
}

package providers

import (
	"time"

	"storypanel/internal/structures"
)

// MetricsCacheProvider counts hits and misses of the wrapped cache.
type MetricsCacheProvider struct {
	inner   CacheProviderInterface
	metrics MetricsProviderInterface
}

func (c *MetricsCacheProvider) Get(key string) ([]byte, bool) {
	val, ok := c.inner.Get(key)
	if ok {
		c.metrics.IncCacheHits()
	} else {
		c.metrics.IncCacheMisses()
	}
	return val, ok
}

func (c *MetricsCacheProvider) Set(key string, value []byte) { c.inner.Set(key, value) }

func (c *MetricsCacheProvider) SetTTL(key string, value []byte, ttl time.Duration) {
	c.inner.SetTTL(key, value, ttl)
}

func (c *MetricsCacheProvider) Del(key string) { c.inner.Del(key) }

// NewInstrumentedCacheProvider is the kiosk's cache. A disabled cache is
// returned bare so every story fetch does not show up as a miss.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	inner := NewCacheProvider(conf, logger)
	if _, disabled := inner.(*noopCache); disabled {
		return inner
	}
	return &MetricsCacheProvider{inner: inner, metrics: metrics}
}

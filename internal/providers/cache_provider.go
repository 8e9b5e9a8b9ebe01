package providers

import (
	"time"

	"github.com/coocood/freecache"

	"storypanel/internal/structures"
)

// CacheProviderInterface holds raw JSON bodies: public story lists keyed by
// city and the rendered kiosk stats.
type CacheProviderInterface interface {
	Get(key string) ([]byte, bool)
	// Set stores with the configured cache.ttl.
	Set(key string, value []byte)
	SetTTL(key string, value []byte, ttl time.Duration)
	Del(key string)
}

type CacheProvider struct {
	cache *freecache.Cache
	ttl   int
}

func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "Cache disabled")
		return &noopCache{}
	}

	ttl := expirySeconds(conf.Cache.TTL)
	logger.Infof(TypeApp, "Cache initialized: %dMB, TTL=%ds", conf.Cache.Size, ttl)

	return &CacheProvider{
		cache: freecache.NewCache(conf.Cache.Size << 20),
		ttl:   ttl,
	}
}

// expirySeconds rounds up to freecache's one second resolution. Zero would
// mean "never expires" to freecache, so the floor is one second.
func expirySeconds(d time.Duration) int {
	return max(int((d+time.Second-1)/time.Second), 1)
}

func (c *CacheProvider) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *CacheProvider) Set(key string, value []byte) {
	_ = c.cache.Set([]byte(key), value, c.ttl)
}

func (c *CacheProvider) SetTTL(key string, value []byte, ttl time.Duration) {
	_ = c.cache.Set([]byte(key), value, expirySeconds(ttl))
}

func (c *CacheProvider) Del(key string) {
	c.cache.Del([]byte(key))
}

type noopCache struct{}

func (n *noopCache) Get(_ string) ([]byte, bool)                 { return nil, false }
func (n *noopCache) Set(_ string, _ []byte)                      {}
func (n *noopCache) SetTTL(_ string, _ []byte, _ time.Duration) {}
func (n *noopCache) Del(_ string)                                {}

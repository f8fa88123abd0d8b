// FILE: lixenwraith/tagconf/cache.go
package tagconf

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// CacheFlag adds stores to configurations built by Cache.Config.
type CacheFlag uint8

const (
	// CacheEnv adds every environment variable under the override tag.
	CacheEnv CacheFlag = 1 << iota
	// CacheArgs adds os.Args[1:] under the override tag.
	CacheArgs
)

// Cache memoizes configurations by key. Concurrent first requests for the
// same key build once.
type Cache struct {
	mutex   sync.RWMutex
	entries map[string]*Configuration
	logger  *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64

	hitsTotal   prometheus.Counter
	missesTotal prometheus.Counter
}

// NewCache creates a cache. Counters are registered with reg when it is not
// nil; logger may be nil.
func NewCache(reg prometheus.Registerer, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{
		entries: make(map[string]*Configuration),
		logger:  logger,
		hitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tagconf",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of configuration cache hits",
		}),
		missesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tagconf",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of configuration cache misses",
		}),
	}
	if reg != nil {
		reg.MustRegister(c.hitsTotal, c.missesTotal)
	}
	return c
}

// DefaultCache backs Cached.
var DefaultCache = NewCache(nil, nil)

// Get returns the configuration stored under key, calling build on a miss.
// Failed builds are not stored.
func (c *Cache) Get(key string, build func() (*Configuration, error)) (*Configuration, error) {
	c.mutex.RLock()
	cfg, ok := c.entries[key]
	c.mutex.RUnlock()
	if ok {
		c.hit(key)
		return cfg, nil
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if cfg, ok := c.entries[key]; ok {
		c.hit(key)
		return cfg, nil
	}

	c.misses.Add(1)
	c.missesTotal.Inc()
	c.logger.Debug("building cached configuration", zap.String("key", key))

	cfg, err := build()
	if err != nil {
		return nil, err
	}
	c.entries[key] = cfg
	return cfg, nil
}

func (c *Cache) hit(key string) {
	c.hits.Add(1)
	c.hitsTotal.Inc()
	c.logger.Debug("configuration cache hit", zap.String("key", key))
}

// Config returns the configuration for locations, building it on first use.
// Stores are chosen by extension, in location order, followed by the stores
// selected by flags.
func (c *Cache) Config(ctx context.Context, flags CacheFlag, locations ...string) (*Configuration, error) {
	return c.Get(cacheKey(flags, locations), func() (*Configuration, error) {
		b := NewBuilder().WithLogger(c.logger)
		for _, location := range locations {
			store, err := StoreForLocation(location)
			if err != nil {
				return nil, err
			}
			b.WithStore(store)
		}
		if flags&CacheEnv != 0 {
			b.WithStore(NewEnvStore(""))
		}
		if flags&CacheArgs != 0 {
			b.WithStore(NewArgsStore(os.Args[1:]))
		}
		return b.BuildContext(ctx)
	})
}

// Hits returns the number of cache hits.
func (c *Cache) Hits() int64 { return c.hits.Load() }

// Misses returns the number of cache misses.
func (c *Cache) Misses() int64 { return c.misses.Load() }

// Len returns the number of cached configurations.
func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// Clear drops every cached configuration. Counters are kept.
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[string]*Configuration)
}

// Cached returns a configuration from DefaultCache.
func Cached(ctx context.Context, flags CacheFlag, locations ...string) (*Configuration, error) {
	return DefaultCache.Config(ctx, flags, locations...)
}

func cacheKey(flags CacheFlag, locations []string) string {
	return fmt.Sprintf("%d|%s", flags, strings.Join(locations, "\x00"))
}

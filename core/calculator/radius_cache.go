package calculator

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/tyniaiworkspace-dev/poe2-mcp/core/passivetree"
)

const (
	defaultNumCounters = 1e5
	defaultMaxCost     = 1 << 20
	defaultBufferItems = 64
	defaultTTL         = 10 * time.Minute

	// Rough bytes per cached candidate: pointer plus distance.
	candidateCost = 16
	baseCost      = 64
)

// RadiusCache memoizes radius queries per dataset generation, socket and
// radius. Cached slices are shared and must not be modified.
type RadiusCache struct {
	cache  *ristretto.Cache
	ttl    time.Duration
	stats  *CacheStats
	mu     sync.RWMutex
	closed bool
}

type RadiusCacheConfig struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	TTL         time.Duration
}

func NewRadiusCache(config *RadiusCacheConfig) (*RadiusCache, error) {
	cfg := applyDefaults(config)

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, err
	}

	return &RadiusCache{
		cache: cache,
		ttl:   cfg.TTL,
		stats: NewCacheStats(),
	}, nil
}

func applyDefaults(config *RadiusCacheConfig) *RadiusCacheConfig {
	cfg := &RadiusCacheConfig{
		NumCounters: defaultNumCounters,
		MaxCost:     defaultMaxCost,
		BufferItems: defaultBufferItems,
		TTL:         defaultTTL,
	}

	if config == nil {
		return cfg
	}

	if config.NumCounters > 0 {
		cfg.NumCounters = config.NumCounters
	}
	if config.MaxCost > 0 {
		cfg.MaxCost = config.MaxCost
	}
	if config.BufferItems > 0 {
		cfg.BufferItems = config.BufferItems
	}
	if config.TTL > 0 {
		cfg.TTL = config.TTL
	}

	return cfg
}

func radiusKey(generation uint64, socketID uint32, radius float64) string {
	return fmt.Sprintf("%d:%d:%g", generation, socketID, radius)
}

func (rc *RadiusCache) Get(generation uint64, socketID uint32, radius float64) ([]passivetree.Candidate, bool) {
	rc.mu.RLock()
	if rc.closed {
		rc.mu.RUnlock()
		return nil, false
	}
	rc.mu.RUnlock()

	value, found := rc.cache.Get(radiusKey(generation, socketID, radius))
	if !found {
		rc.stats.RecordMiss()
		return nil, false
	}

	candidates, ok := value.([]passivetree.Candidate)
	if !ok {
		rc.stats.RecordMiss()
		return nil, false
	}

	rc.stats.RecordHit()
	return candidates, true
}

// Set stores candidates. Admission is asynchronous and may be refused by
// the cache's policy; Wait flushes pending sets.
func (rc *RadiusCache) Set(generation uint64, socketID uint32, radius float64, candidates []passivetree.Candidate) bool {
	rc.mu.RLock()
	if rc.closed {
		rc.mu.RUnlock()
		return false
	}
	rc.mu.RUnlock()

	cost := int64(baseCost + candidateCost*len(candidates))
	stored := rc.cache.SetWithTTL(radiusKey(generation, socketID, radius), candidates, cost, rc.ttl)
	if stored {
		rc.stats.RecordSet()
	}
	return stored
}

func (rc *RadiusCache) Wait() {
	rc.mu.RLock()
	if rc.closed {
		rc.mu.RUnlock()
		return
	}
	rc.mu.RUnlock()

	rc.cache.Wait()
}

func (rc *RadiusCache) Clear() {
	rc.mu.RLock()
	if rc.closed {
		rc.mu.RUnlock()
		return
	}
	rc.mu.RUnlock()

	rc.cache.Clear()
}

func (rc *RadiusCache) Close() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.closed {
		return
	}

	rc.closed = true
	rc.cache.Close()
}

func (rc *RadiusCache) Stats() StatsSnapshot {
	return rc.stats.ToSnapshot()
}

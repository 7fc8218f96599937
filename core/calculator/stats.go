package calculator

import (
	"sync/atomic"
	"time"
)

// CacheStats tracks cache performance metrics.
type CacheStats struct {
	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	evictions atomic.Int64
	startTime time.Time
}

func NewCacheStats() *CacheStats {
	return &CacheStats{
		startTime: time.Now(),
	}
}

func (s *CacheStats) RecordHit()      { s.hits.Add(1) }
func (s *CacheStats) RecordMiss()     { s.misses.Add(1) }
func (s *CacheStats) RecordSet()      { s.sets.Add(1) }
func (s *CacheStats) RecordEviction() { s.evictions.Add(1) }

// HitRate returns the cache hit rate as a value between 0 and 1.
func (s *CacheStats) HitRate() float64 {
	hits := s.hits.Load()
	total := hits + s.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// StatsSnapshot is a non-atomic snapshot of cache statistics for serialization.
type StatsSnapshot struct {
	Hits      int64         `json:"hits"`
	Misses    int64         `json:"misses"`
	Sets      int64         `json:"sets"`
	Evictions int64         `json:"evictions"`
	HitRate   float64       `json:"hit_rate"`
	Uptime    time.Duration `json:"uptime"`
}

func (s *CacheStats) ToSnapshot() StatsSnapshot {
	return StatsSnapshot{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Sets:      s.sets.Load(),
		Evictions: s.evictions.Load(),
		HitRate:   s.HitRate(),
		Uptime:    time.Since(s.startTime),
	}
}

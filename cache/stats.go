package cache

import "math"

// Stats holds the counters of a cache. All counters only grow.
type Stats struct {
	Hits          uint64
	Misses        uint64
	PrefetchHits  uint64
	PrefetchReads uint64
	DemandReads   uint64
	Evictions     uint64
}

// Accesses returns the number of demand accesses.
func (s Stats) Accesses() uint64 {
	return s.Hits + s.Misses
}

// HitRate returns hits / (hits + misses), or NaN before any access.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return math.NaN()
	}

	return float64(s.Hits) / float64(total)
}

// EffectiveHitRate credits prefetch hits as hits:
// (hits + prefetchHits) / (hits + misses + prefetchHits). It is NaN when
// nothing has been counted.
func (s Stats) EffectiveHitRate() float64 {
	total := s.Hits + s.Misses + s.PrefetchHits
	if total == 0 {
		return math.NaN()
	}

	return float64(s.Hits+s.PrefetchHits) / float64(total)
}

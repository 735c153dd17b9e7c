package cache

import (
	"errors"
	"fmt"

	"github.com/sarchlab/cachesim/cache/internal/tagging"
)

// ErrInvalidConfig is returned when a cache cannot be built from the given
// parameters.
var ErrInvalidConfig = errors.New("invalid cache configuration")

// Builder can build caches.
type Builder struct {
	blockSize        int
	wayAssociativity int
	cacheSize        int
	prefetchDistance int
	store            BlockReader
}

// MakeBuilder creates a new builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		blockSize:        32,
		wayAssociativity: 2,
		cacheSize:        2048,
		prefetchDistance: 8,
	}
}

// WithBlockSize sets the number of elements in a block.
func (b Builder) WithBlockSize(blockSize int) Builder {
	b.blockSize = blockSize
	return b
}

// WithWayAssociativity sets the number of ways in each set.
func (b Builder) WithWayAssociativity(wayAssociativity int) Builder {
	b.wayAssociativity = wayAssociativity
	return b
}

// WithCacheSize sets the nominal capacity of the cache, in elements.
func (b Builder) WithCacheSize(cacheSize int) Builder {
	b.cacheSize = cacheSize
	return b
}

// WithPrefetchDistance sets how many blocks after a missed block are
// probed. Zero disables prefetching.
func (b Builder) WithPrefetchDistance(prefetchDistance int) Builder {
	b.prefetchDistance = prefetchDistance
	return b
}

// WithBackingStore sets the store that misses and prefetches read from.
// Without a store, the cache only tracks tags.
func (b Builder) WithBackingStore(store BlockReader) Builder {
	b.store = store
	return b
}

func (b Builder) parametersMustBeValid() error {
	if b.blockSize <= 0 {
		return fmt.Errorf("%w: block size %d", ErrInvalidConfig, b.blockSize)
	}

	if b.wayAssociativity <= 0 {
		return fmt.Errorf("%w: way associativity %d",
			ErrInvalidConfig, b.wayAssociativity)
	}

	if b.cacheSize < 0 {
		return fmt.Errorf("%w: cache size %d", ErrInvalidConfig, b.cacheSize)
	}

	if b.prefetchDistance < 0 {
		return fmt.Errorf("%w: prefetch distance %d",
			ErrInvalidConfig, b.prefetchDistance)
	}

	return nil
}

// Build builds a cache. A capacity that cannot fill a single set results in
// a cache with one set.
func (b Builder) Build() (*Cache, error) {
	if err := b.parametersMustBeValid(); err != nil {
		return nil, err
	}

	numSets := tagging.NumSets(b.cacheSize, b.blockSize, b.wayAssociativity)

	c := &Cache{
		blockSize: b.blockSize,
		capacity:  b.cacheSize,
		tags: tagging.NewTagArray(
			numSets, b.wayAssociativity, b.blockSize),
		store: b.store,
	}

	c.prefetcher = prefetcher{
		distance: b.prefetchDistance,
		cache:    c,
	}

	return c, nil
}

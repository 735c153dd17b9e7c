// Package cache implements a set-associative cache with LRU replacement and
// adjacent-block prefetching.
package cache

import (
	"github.com/sarchlab/cachesim/blockstore"
	"github.com/sarchlab/cachesim/cache/internal/tagging"
)

// A BlockReader is the slow store behind a cache.
type BlockReader interface {
	Size() int
	ReadBlock(id uint64) (blockstore.Block, error)
}

// Cache is a set-associative cache. Addresses are decoded into a block and a
// set; each set evicts its least recently used block on a miss.
//
// A Cache is not safe for concurrent use.
type Cache struct {
	blockSize  int
	capacity   int
	tags       *tagging.TagArray
	store      BlockReader
	prefetcher prefetcher
	stats      Stats
}

// Access looks up an address. It returns true on a hit.
//
// On a miss, the missing block is fetched from the backing store before the
// set is updated. If that fetch fails, the error is returned and neither the
// set nor the counters change.
func (c *Cache) Access(addr uint64) (hit bool, err error) {
	blockID := c.tags.BlockID(addr)
	set, _ := c.tags.GetSet(blockID)

	if set.Contains(blockID) {
		set.Access(blockID)
		c.stats.Hits++

		return true, nil
	}

	if err := c.fetch(blockID); err != nil {
		return false, err
	}

	if set.IsFull() {
		c.stats.Evictions++
	}

	set.Access(blockID)
	c.stats.Misses++

	if err := c.prefetcher.prefetch(blockID); err != nil {
		return false, err
	}

	return false, nil
}

func (c *Cache) fetch(blockID uint64) error {
	if c.store == nil {
		return nil
	}

	if _, err := c.store.ReadBlock(blockID); err != nil {
		return err
	}

	c.stats.DemandReads++

	return nil
}

// Contains reports whether the block holding addr is resident. It does not
// affect the replacement order.
func (c *Cache) Contains(addr uint64) bool {
	return c.tags.Contains(c.tags.BlockID(addr))
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return c.stats
}

// NumSets returns the number of sets.
func (c *Cache) NumSets() int {
	return c.tags.NumSets()
}

// Ways returns the associativity.
func (c *Cache) Ways() int {
	return c.tags.Ways()
}

// BlockSize returns the number of elements per block.
func (c *Cache) BlockSize() int {
	return c.blockSize
}

// Capacity returns the nominal capacity the cache was configured with.
func (c *Cache) Capacity() int {
	return c.capacity
}

// PrefetchDistance returns how many blocks are probed after a miss.
func (c *Cache) PrefetchDistance() int {
	return c.prefetcher.distance
}

// SetIndex returns the set that an address maps to.
func (c *Cache) SetIndex(addr uint64) int {
	return c.tags.SetIndex(c.tags.BlockID(addr))
}

// SetBlocks returns the blocks resident in a set, most recently used first.
func (c *Cache) SetBlocks(setID int) []uint64 {
	return c.tags.SetAt(setID).Blocks()
}

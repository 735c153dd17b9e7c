package cache

// A prefetcher probes the blocks that follow a missed block. A probe that
// finds the block resident counts as a prefetch hit. Otherwise the block is
// read from the store to warm the slow path. Prefetched blocks are never
// installed in a set, so prefetching cannot evict anything.
type prefetcher struct {
	distance int
	cache    *Cache
}

func (p *prefetcher) prefetch(blockID uint64) error {
	c := p.cache
	if p.distance == 0 || c.store == nil {
		return nil
	}

	limit := uint64(c.store.Size())

	for i := blockID + 1; i <= blockID+uint64(p.distance); i++ {
		if i >= limit {
			break
		}

		if c.tags.Contains(i) {
			c.stats.PrefetchHits++
			continue
		}

		if _, err := c.store.ReadBlock(i); err != nil {
			return err
		}

		c.stats.PrefetchReads++
	}

	return nil
}

package pattern

import (
	"fmt"
	"math/rand"
)

type hotColdGenerator struct {
	counter
	rng       *rand.Rand
	maxBlocks int
	hotBlocks int
	blockSize int
	hotProb   float64
}

// NewHotCold creates a generator with a skewed block distribution. With
// probability hotProb, a block is drawn from the first quarter of the block
// space. Otherwise, it is drawn from the whole block space. The address
// falls at a random offset inside the drawn block.
func NewHotCold(
	maxBlocks, blockSize, numElements int,
	hotProb float64,
	rng *rand.Rand,
) Generator {
	if maxBlocks < 1 {
		maxBlocks = 1
	}

	if blockSize < 1 {
		blockSize = 1
	}

	hotBlocks := maxBlocks / 4
	if hotBlocks < 1 {
		hotBlocks = 1
	}

	return &hotColdGenerator{
		counter:   counter{numElements: numElements},
		rng:       rng,
		maxBlocks: maxBlocks,
		hotBlocks: hotBlocks,
		blockSize: blockSize,
		hotProb:   hotProb,
	}
}

func (g *hotColdGenerator) NextAddress() (uint64, bool) {
	if !g.take() {
		return 0, false
	}

	var block int
	if g.rng.Float64() < g.hotProb {
		block = g.rng.Intn(g.hotBlocks)
	} else {
		block = g.rng.Intn(g.maxBlocks)
	}

	offset := g.rng.Intn(g.blockSize)
	addr := uint64(block)*uint64(g.blockSize) + uint64(offset)

	return addr, true
}

func (g *hotColdGenerator) Name() string {
	return fmt.Sprintf("hot/cold (%.0f%% hot accesses)", g.hotProb*100)
}

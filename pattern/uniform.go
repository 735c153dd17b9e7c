package pattern

import (
	"fmt"
	"math/rand"
)

type uniformGenerator struct {
	counter
	rng   *rand.Rand
	bands int
	span  int
}

// NewUniform creates a generator of uniformly random addresses in
// [0, numElements). The address space is split into bands equal parts, and
// the i-th address is drawn from band i mod bands. A single band gives plain
// uniform addresses.
func NewUniform(numElements, bands int, rng *rand.Rand) Generator {
	if bands < 1 {
		bands = 1
	}

	if numElements > 0 && bands > numElements {
		bands = numElements
	}

	span := 1
	if numElements > 0 {
		span = numElements / bands
	}

	return &uniformGenerator{
		counter: counter{numElements: numElements},
		rng:     rng,
		bands:   bands,
		span:    span,
	}
}

func (g *uniformGenerator) NextAddress() (uint64, bool) {
	i := g.count
	if !g.take() {
		return 0, false
	}

	offset := (i % g.bands) * g.span
	addr := g.rng.Intn(g.span) + offset

	return uint64(addr), true
}

func (g *uniformGenerator) Name() string {
	if g.bands == 1 {
		return "uniform"
	}

	return fmt.Sprintf("uniform (%d bands)", g.bands)
}

package pattern

type sequentialGenerator struct {
	counter
	next uint64
}

// NewSequential creates a generator that returns 0, 1, 2, ... up to
// numElements-1.
func NewSequential(numElements int) Generator {
	return &sequentialGenerator{
		counter: counter{numElements: numElements},
	}
}

func (g *sequentialGenerator) NextAddress() (uint64, bool) {
	if !g.take() {
		return 0, false
	}

	addr := g.next
	g.next++

	return addr, true
}

func (g *sequentialGenerator) Name() string {
	return "sequential"
}

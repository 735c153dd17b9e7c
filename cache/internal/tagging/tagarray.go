package tagging

// NumSets returns how many sets a cache of the given capacity has. Capacity
// and block size are counted in elements. A cache too small to fill a
// single set still gets one set.
func NumSets(capacity, blockSize, ways int) int {
	numSets := capacity / (blockSize * ways)
	if numSets == 0 {
		numSets = 1
	}

	return numSets
}

// A TagArray holds all the sets of a cache and maps blocks to them.
type TagArray struct {
	numSets   int
	ways      int
	blockSize int
	sets      []*Set
}

// NewTagArray creates a tag array where every set is empty.
func NewTagArray(numSets, ways, blockSize int) *TagArray {
	t := &TagArray{
		numSets:   numSets,
		ways:      ways,
		blockSize: blockSize,
	}

	t.Reset()

	return t
}

// BlockID returns the block that an address belongs to.
func (t *TagArray) BlockID(addr uint64) uint64 {
	return addr / uint64(t.blockSize)
}

// SetIndex returns the set that a block maps to.
func (t *TagArray) SetIndex(blockID uint64) int {
	return int(blockID % uint64(t.numSets))
}

// GetSet returns the set that a block maps to, together with its index.
func (t *TagArray) GetSet(blockID uint64) (set *Set, setID int) {
	setID = t.SetIndex(blockID)
	set = t.sets[setID]

	return
}

// SetAt returns the set with the given index.
func (t *TagArray) SetAt(setID int) *Set {
	return t.sets[setID]
}

// Contains checks the set that the block maps to, without touching the
// recency order.
func (t *TagArray) Contains(blockID uint64) bool {
	set, _ := t.GetSet(blockID)
	return set.Contains(blockID)
}

// NumSets returns the number of sets.
func (t *TagArray) NumSets() int {
	return t.numSets
}

// Ways returns the associativity.
func (t *TagArray) Ways() int {
	return t.ways
}

// TotalSize returns how many elements the tag array can track.
func (t *TagArray) TotalSize() int {
	return t.numSets * t.ways * t.blockSize
}

// Reset empties all the sets.
func (t *TagArray) Reset() {
	t.sets = make([]*Set, t.numSets)
	for i := range t.sets {
		t.sets[i] = NewSet(t.ways)
	}
}

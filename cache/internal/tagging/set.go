// Package tagging tracks which blocks are resident in each set of a
// set-associative cache.
package tagging

// A Set is a bounded group of blocks that share the same set index. Blocks
// are kept most-recently-used first, so the tail is always the next victim.
type Set struct {
	ways   int
	blocks []uint64
}

// NewSet creates an empty set that can hold up to ways blocks.
func NewSet(ways int) *Set {
	return &Set{
		ways:   ways,
		blocks: make([]uint64, 0, ways),
	}
}

// Access touches a block. It returns true if the block was already resident
// and moves it to the most-recently-used position. Otherwise, it evicts the
// least recently used block if the set is full, inserts the block at the
// most-recently-used position, and returns false.
func (s *Set) Access(blockID uint64) bool {
	pos := s.find(blockID)
	if pos >= 0 {
		s.moveToFront(pos)
		return true
	}

	if len(s.blocks) >= s.ways {
		s.blocks = s.blocks[:s.ways-1]
	}

	s.blocks = append(s.blocks, 0)
	copy(s.blocks[1:], s.blocks)
	s.blocks[0] = blockID

	return false
}

// Contains reports whether a block is resident. It does not change the
// recency order.
func (s *Set) Contains(blockID uint64) bool {
	return s.find(blockID) >= 0
}

// LRU returns the block that the next miss would evict.
func (s *Set) LRU() (uint64, bool) {
	if len(s.blocks) == 0 {
		return 0, false
	}

	return s.blocks[len(s.blocks)-1], true
}

// Blocks returns the resident blocks, most recently used first.
func (s *Set) Blocks() []uint64 {
	blocks := make([]uint64, len(s.blocks))
	copy(blocks, s.blocks)

	return blocks
}

// Len returns the number of resident blocks.
func (s *Set) Len() int {
	return len(s.blocks)
}

// Ways returns the associativity of the set.
func (s *Set) Ways() int {
	return s.ways
}

// IsFull tells if the next miss has to evict a block.
func (s *Set) IsFull() bool {
	return len(s.blocks) >= s.ways
}

func (s *Set) find(blockID uint64) int {
	for i, b := range s.blocks {
		if b == blockID {
			return i
		}
	}

	return -1
}

func (s *Set) moveToFront(pos int) {
	blockID := s.blocks[pos]
	copy(s.blocks[1:pos+1], s.blocks[:pos])
	s.blocks[0] = blockID
}

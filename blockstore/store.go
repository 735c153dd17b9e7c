// Package blockstore provides the slow backing store that a simulated cache
// reads blocks from.
package blockstore

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when a block beyond the end of the store is
// requested.
var ErrOutOfRange = errors.New("block index out of range")

// ErrInvalidGeometry is returned when a store is created with a non-positive
// number of blocks or block size.
var ErrInvalidGeometry = errors.New("invalid block store geometry")

// A Block is a fixed-size run of data values.
type Block []int64

// A Store keeps a read-only array of blocks. It stands for the external
// memory behind a cache: every read from it is considered expensive.
//
// The content of each block is derived from its own index, so that reading
// the same block twice always returns the same values. After construction,
// the blocks are never modified.
type Store struct {
	blockSize int
	blocks    []Block
	numReads  uint64
}

// NewStore creates a store with numBlocks blocks of blockSize values each.
func NewStore(numBlocks, blockSize int) (*Store, error) {
	if numBlocks <= 0 || blockSize <= 0 {
		return nil, fmt.Errorf("%w: %d blocks of size %d",
			ErrInvalidGeometry, numBlocks, blockSize)
	}

	s := &Store{
		blockSize: blockSize,
		blocks:    make([]Block, numBlocks),
	}

	for i := range s.blocks {
		s.blocks[i] = s.populateBlock(i)
	}

	return s, nil
}

// populateBlock fills block i with the element addresses it covers.
func (s *Store) populateBlock(i int) Block {
	base := int64(i) * int64(s.blockSize)

	block := make(Block, s.blockSize)
	for j := range block {
		block[j] = base + int64(j)
	}

	return block
}

// Size returns the number of blocks in the store.
func (s *Store) Size() int {
	return len(s.blocks)
}

// BlockSize returns the number of values in each block.
func (s *Store) BlockSize() int {
	return s.blockSize
}

// ReadBlock returns a copy of the block with the given index.
func (s *Store) ReadBlock(id uint64) (Block, error) {
	if id >= uint64(len(s.blocks)) {
		return nil, fmt.Errorf("%w: block %d, store has %d blocks",
			ErrOutOfRange, id, len(s.blocks))
	}

	s.numReads++

	block := make(Block, s.blockSize)
	copy(block, s.blocks[id])

	return block, nil
}

// NumReads returns how many blocks have been read from the store.
func (s *Store) NumReads() uint64 {
	return s.numReads
}

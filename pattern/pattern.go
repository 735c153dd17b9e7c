// Package pattern generates the memory addresses that drive a simulated
// cache.
//
// A Generator produces a finite sequence. Once it has produced all of its
// addresses, NextAddress returns (0, false) on every further call. Random
// generators own their random source, so a sequence can be replayed by
// building a new generator with the same seed.
package pattern

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrUnknownKind is returned when a generator kind is not recognized.
var ErrUnknownKind = errors.New("unknown access pattern")

// A Generator produces memory addresses.
type Generator interface {
	// NextAddress returns the next address. The second return value is false
	// once the sequence is exhausted.
	NextAddress() (uint64, bool)

	// Remaining returns how many addresses are left.
	Remaining() int

	// Name describes the pattern.
	Name() string
}

// Kind selects a generator.
type Kind string

// The supported generator kinds.
const (
	Sequential Kind = "sequential"
	Uniform    Kind = "uniform"
	HotCold    Kind = "hotcold"
)

// Kinds lists all the supported generator kinds.
func Kinds() []Kind {
	return []Kind{Sequential, Uniform, HotCold}
}

// ParseKind converts a string into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Config collects the parameters of all generator kinds. Fields that a kind
// does not use are ignored.
type Config struct {
	Kind        Kind
	NumElements int
	BlockSize   int
	MaxBlocks   int
	HotProb     float64
	Bands       int
	Seed        int64
}

// New creates the generator that the config selects.
func New(c Config) (Generator, error) {
	switch c.Kind {
	case Sequential:
		return NewSequential(c.NumElements), nil
	case Uniform:
		return NewUniform(c.NumElements, c.Bands,
			rand.New(rand.NewSource(c.Seed))), nil
	case HotCold:
		return NewHotCold(c.MaxBlocks, c.BlockSize, c.NumElements, c.HotProb,
			rand.New(rand.NewSource(c.Seed))), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, c.Kind)
	}
}

// counter tracks how many addresses a generator may still produce.
type counter struct {
	count       int
	numElements int
}

func (c *counter) take() bool {
	if c.count >= c.numElements {
		return false
	}

	c.count++

	return true
}

// Remaining returns how many addresses are left.
func (c *counter) Remaining() int {
	if c.count >= c.numElements {
		return 0
	}

	return c.numElements - c.count
}

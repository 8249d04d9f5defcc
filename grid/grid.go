// Package grid holds the dense occupancy input to octree construction: a bit-packed array where bit
// i is set iff grid cell i is occupied. Cells are numbered in octree child order, so the cells of
// any subtree form one contiguous range of bits.
package grid

import (
	"math/bits"

	"github.com/pkg/errors"
)

const (
	// MaxDepth is the deepest grid accepted. A depth 8 grid has 8^8 (about 16.7 million) cells.
	MaxDepth = 8

	// ChildCount is the branching factor of the octree the grid describes.
	ChildCount = 8

	wordBits = 32
)

// ErrMalformedGrid is returned when the words given for a grid cannot describe 8^depth cells.
var ErrMalformedGrid = errors.New("malformed occupancy grid")

// Grid is an immutable occupancy bitset for a grid of 8^depth cells.
type Grid struct {
	depth int
	words []uint32
}

// CellCount returns 8^depth, the number of cells in a grid of the given depth.
func CellCount(depth int) int {
	return 1 << (3 * depth)
}

// WordCount returns how many 32-bit words hold a grid of the given depth.
func WordCount(depth int) int {
	return (CellCount(depth) + wordBits - 1) / wordBits
}

func checkDepth(depth int) error {
	if depth < 1 || depth > MaxDepth {
		return errors.Wrapf(ErrMalformedGrid, "depth %d outside [1, %d]", depth, MaxDepth)
	}
	return nil
}

// New validates `words` against `depth` and returns a grid holding a copy of them. Bit (i mod 32)
// of word (i div 32) is cell i. Unused high bits of the last word must be zero.
func New(depth int, words []uint32) (*Grid, error) {
	if err := checkDepth(depth); err != nil {
		return nil, err
	}
	if want := WordCount(depth); len(words) != want {
		return nil, errors.Wrapf(ErrMalformedGrid, "depth %d needs %d words, got %d", depth, want, len(words))
	}
	if tail := CellCount(depth) % wordBits; tail != 0 {
		if words[len(words)-1]>>tail != 0 {
			return nil, errors.Wrapf(ErrMalformedGrid, "bits set past cell %d", CellCount(depth)-1)
		}
	}

	owned := make([]uint32, len(words))
	copy(owned, words)
	return &Grid{depth: depth, words: owned}, nil
}

// NewEmpty returns a grid of the given depth with no occupied cells.
func NewEmpty(depth int) (*Grid, error) {
	if err := checkDepth(depth); err != nil {
		return nil, err
	}
	return &Grid{depth: depth, words: make([]uint32, WordCount(depth))}, nil
}

// Depth returns the number of subdivisions between the root volume and a grid cell.
func (g *Grid) Depth() int {
	return g.depth
}

// Len returns the number of cells.
func (g *Grid) Len() int {
	return CellCount(g.depth)
}

// Bit reports whether cell i is occupied. Out of range cells are unoccupied.
func (g *Grid) Bit(i int) bool {
	if i < 0 || i >= g.Len() {
		return false
	}
	return g.words[i/wordBits]&(1<<(uint(i)%wordBits)) != 0
}

// Count returns the number of occupied cells.
func (g *Grid) Count() int {
	total := 0
	for _, w := range g.words {
		total += bits.OnesCount32(w)
	}
	return total
}

// Words returns a copy of the packed words.
func (g *Grid) Words() []uint32 {
	out := make([]uint32, len(g.words))
	copy(out, g.words)
	return out
}

// Occupied returns the indices of all occupied cells in ascending order.
func (g *Grid) Occupied() []int {
	out := make([]int, 0, g.Count())
	for wi, w := range g.words {
		for w != 0 {
			b := bits.TrailingZeros32(w)
			out = append(out, wi*wordBits+b)
			w &= w - 1
		}
	}
	return out
}

// Builder accumulates occupied cells for a new Grid.
type Builder struct {
	depth int
	words []uint32
}

// NewBuilder returns a Builder for a grid of the given depth.
func NewBuilder(depth int) (*Builder, error) {
	if err := checkDepth(depth); err != nil {
		return nil, err
	}
	return &Builder{depth: depth, words: make([]uint32, WordCount(depth))}, nil
}

// Set marks cell i occupied.
func (b *Builder) Set(i int) error {
	if i < 0 || i >= CellCount(b.depth) {
		return errors.Errorf("cell %d outside grid of %d cells", i, CellCount(b.depth))
	}
	b.words[i/wordBits] |= 1 << (uint(i) % wordBits)
	return nil
}

// SetCell marks the cell at integer coordinates c occupied.
func (b *Builder) SetCell(c Cell) error {
	i, err := Index(c, b.depth)
	if err != nil {
		return err
	}
	return b.Set(i)
}

// Grid returns the grid built so far. The builder may keep being used.
func (b *Builder) Grid() *Grid {
	words := make([]uint32, len(b.words))
	copy(words, b.words)
	return &Grid{depth: b.depth, words: words}
}

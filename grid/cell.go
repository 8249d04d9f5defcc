package grid

import (
	"fmt"

	"github.com/pkg/errors"
)

// Cell is the integer position of a grid cell, each coordinate in [0, 2^depth).
type Cell struct {
	X, Y, Z int
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.X, c.Y, c.Z)
}

// Index converts cell coordinates into the cell's bit index. The index is the cell's path from the
// root written in base 8: at every level the child digit has X in bit 2, Y in bit 1 and Z in bit 0,
// taken from the most significant coordinate bit down.
func Index(c Cell, depth int) (int, error) {
	if err := checkDepth(depth); err != nil {
		return 0, err
	}
	side := 1 << depth
	if c.X < 0 || c.Y < 0 || c.Z < 0 || c.X >= side || c.Y >= side || c.Z >= side {
		return 0, errors.Errorf("cell %v outside grid of side %d", c, side)
	}
	index := 0
	for level := depth - 1; level >= 0; level-- {
		digit := ((c.X>>level)&1)<<2 | ((c.Y>>level)&1)<<1 | (c.Z>>level)&1
		index = index*ChildCount + digit
	}
	return index, nil
}

// CellAt is the inverse of Index.
func CellAt(index, depth int) (Cell, error) {
	if err := checkDepth(depth); err != nil {
		return Cell{}, err
	}
	if index < 0 || index >= CellCount(depth) {
		return Cell{}, errors.Errorf("index %d outside grid of %d cells", index, CellCount(depth))
	}
	var c Cell
	for level := 0; level < depth; level++ {
		digit := index & (ChildCount - 1)
		index /= ChildCount
		c.X |= ((digit >> 2) & 1) << level
		c.Y |= ((digit >> 1) & 1) << level
		c.Z |= (digit & 1) << level
	}
	return c, nil
}

// FromCells returns a grid of the given depth with exactly the listed cells occupied.
func FromCells(depth int, cells []Cell) (*Grid, error) {
	b, err := NewBuilder(depth)
	if err != nil {
		return nil, err
	}
	for _, c := range cells {
		if err := b.SetCell(c); err != nil {
			return nil, err
		}
	}
	return b.Grid(), nil
}

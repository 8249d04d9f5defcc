package cli

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/navvolume/grid"
	"go.viam.com/navvolume/utils"
)

const (
	shapeSphere = "sphere"
	shapeRandom = "random"
	shapeBox    = "box"
	shapeEmpty  = "empty"
)

// GenAction writes a synthetic occupancy grid.
func GenAction(c *cli.Context) error {
	depth := c.Int(genFlagDepth)
	radius := c.Float64(genFlagRadius)

	var (
		g   *grid.Grid
		err error
	)
	switch shape := c.String(genFlagShape); shape {
	case shapeSphere:
		g, err = grid.Sphere(c.Context, depth, radius, utils.ParallelFactor)
	case shapeRandom:
		g, err = grid.Random(depth, c.Float64(genFlagDensity), c.Int64(genFlagSeed))
	case shapeBox:
		g, err = centeredBox(depth, radius)
	case shapeEmpty:
		g, err = grid.NewEmpty(depth)
	default:
		return errors.Errorf("unknown shape %q, must be one of %s, %s, %s or %s",
			shape, shapeSphere, shapeRandom, shapeBox, shapeEmpty)
	}
	if err != nil {
		return err
	}

	out := c.String(genFlagOut)
	if err := ensureDir(out); err != nil {
		return err
	}
	if err := grid.WriteFile(out, g); err != nil {
		return err
	}
	printf(c.App.Writer, "wrote %d of %d occupied cells at depth %d to %s", g.Count(), g.Len(), depth, out)
	return nil
}

// centeredBox returns a box centered in the grid whose half extent is `halfExtent` of half the
// grid side.
func centeredBox(depth int, halfExtent float64) (*grid.Grid, error) {
	if halfExtent <= 0 || halfExtent > 1 {
		return nil, errors.Errorf("box extent must be in (0, 1], got %v", halfExtent)
	}
	if depth < 1 || depth > grid.MaxDepth {
		return nil, errors.Wrapf(grid.ErrMalformedGrid, "depth %d outside [1, %d]", depth, grid.MaxDepth)
	}
	side := 1 << depth
	half := side / 2
	extent := int(halfExtent * float64(half))
	if extent < 1 {
		extent = 1
	}
	minCell := grid.Cell{X: half - extent, Y: half - extent, Z: half - extent}
	maxCell := grid.Cell{X: half + extent - 1, Y: half + extent - 1, Z: half + extent - 1}
	return grid.Box(depth, minCell, maxCell)
}

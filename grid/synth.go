package grid

import (
	"context"
	"math/rand"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Sphere returns a grid occupying every cell whose center lies within a sphere centered in the
// grid. radius is a fraction of half the grid side. Slabs of constant X are filled concurrently
// with at most `parallelism` goroutines.
func Sphere(ctx context.Context, depth int, radius float64, parallelism int) (*Grid, error) {
	b, err := NewBuilder(depth)
	if err != nil {
		return nil, err
	}
	if radius <= 0 {
		return nil, errors.Errorf("invalid sphere radius (%.2f)", radius)
	}
	if parallelism < 1 {
		parallelism = 1
	}

	side := 1 << depth
	mid := float64(side) / 2
	r := radius * mid
	slabs := make([][]int, side)

	errs, ctx := errgroup.WithContext(ctx)
	errs.SetLimit(parallelism)
	for x := 0; x < side; x++ {
		x := x
		errs.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			dx := float64(x) + 0.5 - mid
			for y := 0; y < side; y++ {
				dy := float64(y) + 0.5 - mid
				for z := 0; z < side; z++ {
					dz := float64(z) + 0.5 - mid
					if dx*dx+dy*dy+dz*dz > r*r {
						continue
					}
					index, err := Index(Cell{X: x, Y: y, Z: z}, depth)
					if err != nil {
						return err
					}
					slabs[x] = append(slabs[x], index)
				}
			}
			return nil
		})
	}
	if err := errs.Wait(); err != nil {
		return nil, err
	}

	for _, slab := range slabs {
		for _, index := range slab {
			if err := b.Set(index); err != nil {
				return nil, err
			}
		}
	}
	return b.Grid(), nil
}

// Random returns a grid where each cell is occupied with probability density.
func Random(depth int, density float64, seed int64) (*Grid, error) {
	if density < 0 || density > 1 {
		return nil, errors.Errorf("density must be in [0, 1], got %v", density)
	}
	b, err := NewBuilder(depth)
	if err != nil {
		return nil, err
	}
	//nolint:gosec
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < CellCount(depth); i++ {
		if rng.Float64() < density {
			if err := b.Set(i); err != nil {
				return nil, err
			}
		}
	}
	return b.Grid(), nil
}

// Box returns a grid occupying every cell with min <= cell <= max on all axes.
func Box(depth int, minCell, maxCell Cell) (*Grid, error) {
	b, err := NewBuilder(depth)
	if err != nil {
		return nil, err
	}
	if _, err := Index(minCell, depth); err != nil {
		return nil, err
	}
	if _, err := Index(maxCell, depth); err != nil {
		return nil, err
	}
	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				if err := b.SetCell(Cell{X: x, Y: y, Z: z}); err != nil {
					return nil, err
				}
			}
		}
	}
	return b.Grid(), nil
}

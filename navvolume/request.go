package navvolume

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/navvolume/grid"
)

// DefaultSideLength is the side of the volume when a request leaves it unset.
const DefaultSideLength = 1.0

// Request describes one construction run.
type Request struct {
	// Center is the center of the volume.
	Center r3.Vector
	// Depth is the number of subdivisions between the root and a grid cell.
	Depth int
	// Grid holds the occupancy of every cell and must have the same depth.
	Grid *grid.Grid
	// PoolSize is the number of workers used by each phase.
	PoolSize int
	// SideLength is the side of the cube covered by the root. Zero means DefaultSideLength.
	SideLength float64
}

// Validate checks the request before any work starts.
func (r Request) Validate() error {
	if r.Depth < 1 || r.Depth > grid.MaxDepth {
		return errors.Errorf("depth must be in [1, %d], got %d", grid.MaxDepth, r.Depth)
	}
	if r.Grid == nil {
		return errors.New("request has no occupancy grid")
	}
	if r.Grid.Depth() != r.Depth {
		return errors.Wrapf(grid.ErrMalformedGrid, "grid has depth %d but request has depth %d", r.Grid.Depth(), r.Depth)
	}
	if r.PoolSize < 1 {
		return errors.Errorf("pool size must be at least 1, got %d", r.PoolSize)
	}
	if r.SideLength < 0 {
		return errors.Errorf("invalid side length (%.2f) for octree", r.SideLength)
	}
	return nil
}

func (r Request) sideLength() float64 {
	if r.SideLength == 0 {
		return DefaultSideLength
	}
	return r.SideLength
}

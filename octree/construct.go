package octree

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/navvolume/grid"
	"go.viam.com/navvolume/workerpool"
)

// Construct subdivides every node of tree down to the leaves and occupies the leaves whose grid
// cell is set, propagating occupancy to their ancestors. Subtrees are scheduled through group, and
// Construct returns once all of them have joined.
//
// Leaves are filled inline by their parent since a leaf is a single bit test.
func Construct(tree *BuildTree, g *grid.Grid, group *workerpool.Group) error {
	if tree.released() {
		return errors.New("build tree was already compacted")
	}
	if g.Depth() != tree.Depth() {
		return errors.Errorf("grid depth %d does not match tree depth %d", g.Depth(), tree.Depth())
	}

	var construct func(ctx context.Context, node, offset, depth int) error
	construct = func(ctx context.Context, node, offset, depth int) error {
		if depth == 0 {
			if g.Bit(offset) {
				tree.Occupy(node)
			}
			return nil
		}

		if err := tree.Subdivide(node); err != nil {
			return err
		}
		size := grid.CellCount(depth - 1)
		for c := 0; c < childCount; c++ {
			child, _ := tree.Child(node, c)
			childOffset := offset + c*size
			if depth == 1 {
				if err := construct(ctx, child, childOffset, 0); err != nil {
					return err
				}
				continue
			}
			group.Go(func(ctx context.Context) error {
				return construct(ctx, child, childOffset, depth-1)
			})
		}
		return nil
	}

	tree.logger.Debugw("constructing", "depth", tree.Depth(), "occupied_cells", g.Count())
	group.Go(func(ctx context.Context) error {
		return construct(ctx, 0, 0, tree.Depth())
	})
	return group.Wait()
}

// Reduce cuts every unoccupied child from the tree, so that afterwards every node reachable from
// the root other than the root itself is occupied. Occupied children with children of their own
// are reduced through group, and Reduce returns once all of them have joined.
//
// Reduce only writes the child mask of the node it is visiting, so sibling subtrees never touch
// the same memory. Running it again on a reduced tree changes nothing.
func Reduce(tree *BuildTree, group *workerpool.Group) error {
	if tree.released() {
		return errors.New("build tree was already compacted")
	}

	var reduce func(ctx context.Context, node int) error
	reduce = func(ctx context.Context, node int) error {
		for c := 0; c < childCount; c++ {
			child, ok := tree.Child(node, c)
			if !ok {
				continue
			}
			if !tree.Occupied(child) {
				tree.Cut(node, c)
				continue
			}
			if tree.HasChildren(child) {
				group.Go(func(ctx context.Context) error {
					return reduce(ctx, child)
				})
			}
		}
		return nil
	}

	tree.logger.Debugw("reducing", "depth", tree.Depth(), "root_occupied", tree.Occupied(0))
	group.Go(func(ctx context.Context) error {
		return reduce(ctx, 0)
	})
	return group.Wait()
}

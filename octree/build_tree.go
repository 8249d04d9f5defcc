package octree

import (
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/navvolume/grid"
	"go.viam.com/navvolume/logging"
)

const allChildren = uint8(0xFF)

// BuildTree is the arena an octree is constructed in. Nodes form a complete 8-ary heap addressed by
// index: the root is 0, the children of node i are 8i+1 through 8i+8 and its parent is (i-1)/8.
// Whether a child is present is tracked per node in a bit mask, so cutting a subtree is a single
// bit clear and the arena itself never moves.
//
// Occupancy flags may be written by any goroutine. A node's child mask must only be written by the
// goroutine currently responsible for that node.
type BuildTree struct {
	logger     logging.Logger
	depth      int
	levelStart []int
	occupied   []atomic.Bool
	children   []uint8
}

// NewBuildTree allocates an arena for a tree whose leaves lie `depth` subdivisions below the root.
// Only the root is present until nodes are subdivided.
func NewBuildTree(depth int, logger logging.Logger) (*BuildTree, error) {
	if depth < 1 || depth > grid.MaxDepth {
		return nil, errors.Errorf("invalid depth (%d) for octree, must be in [1, %d]", depth, grid.MaxDepth)
	}

	levelStart := make([]int, depth+2)
	for level := 1; level < len(levelStart); level++ {
		levelStart[level] = levelStart[level-1]*childCount + 1
	}
	count := levelStart[depth+1]

	logger.Debugf("allocating build tree of depth %d with %d nodes", depth, count)
	return &BuildTree{
		logger:     logger,
		depth:      depth,
		levelStart: levelStart,
		occupied:   make([]atomic.Bool, count),
		children:   make([]uint8, count),
	}, nil
}

// ArenaNodes returns the number of nodes NewBuildTree allocates for the given depth.
func ArenaNodes(depth int) int {
	return (grid.CellCount(depth+1) - 1) / (childCount - 1)
}

// ArenaBytes estimates the memory NewBuildTree allocates for the given depth: one occupancy word
// and one child mask byte per node.
func ArenaBytes(depth int) int64 {
	return int64(ArenaNodes(depth)) * 5
}

// Depth returns the level of the leaves.
func (t *BuildTree) Depth() int {
	return t.depth
}

// Len returns the number of node slots in the arena.
func (t *BuildTree) Len() int {
	return len(t.children)
}

// Level returns how many subdivisions lie between the root and node i.
func (t *BuildTree) Level(i int) int {
	level := 0
	for level < t.depth && i >= t.levelStart[level+1] {
		level++
	}
	return level
}

// Leaf returns the index of the leaf covering grid cell `offset`.
func (t *BuildTree) Leaf(offset int) int {
	return t.levelStart[t.depth] + offset
}

// Parent returns the parent of node i, or false for the root.
func (t *BuildTree) Parent(i int) (int, bool) {
	if i == 0 {
		return 0, false
	}
	return (i - 1) / childCount, true
}

// Child returns child c of node i if it is present.
func (t *BuildTree) Child(i, c int) (int, bool) {
	if t.children[i]&(1<<uint(c)) == 0 {
		return 0, false
	}
	return i*childCount + 1 + c, true
}

// HasChildren reports whether any child of node i is present.
func (t *BuildTree) HasChildren(i int) bool {
	return t.children[i] != 0
}

// Subdivide makes all eight children of node i present. Leaves and nodes that already have
// children cannot be subdivided.
func (t *BuildTree) Subdivide(i int) error {
	if i >= t.levelStart[t.depth] {
		return errors.Errorf("error attempted to split leaf node %d", i)
	}
	if t.children[i] != 0 {
		return errors.Errorf("error attempted to split internal node %d", i)
	}
	t.children[i] = allChildren
	return nil
}

// Cut removes child c of node i. Its subtree stays in the arena but is no longer reachable.
func (t *BuildTree) Cut(i, c int) {
	t.children[i] &^= 1 << uint(c)
}

// Occupied reports whether node i is occupied.
func (t *BuildTree) Occupied(i int) bool {
	return t.occupied[i].Load()
}

// Occupy marks node i and its ancestors occupied. The climb stops at the first ancestor that was
// already occupied: whoever set that ancestor is responsible for the ones above it.
func (t *BuildTree) Occupy(i int) {
	for {
		if !t.occupied[i].CompareAndSwap(false, true) {
			return
		}
		parent, ok := t.Parent(i)
		if !ok {
			return
		}
		i = parent
	}
}

func (t *BuildTree) released() bool {
	return t.children == nil
}

func (t *BuildTree) release() {
	t.occupied = nil
	t.children = nil
}

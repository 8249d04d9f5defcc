package octree

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

const noNode = int32(-1)

// sparseNode is a node of a compacted Octree. Links are indices into the arena, noNode when absent.
type sparseNode struct {
	parent   int32
	children [childCount]int32
	occupied bool
	level    uint8
	path     int32
}

// Octree is an immutable sparse occupancy octree covering a cube of side sideLength centered on
// center. Nodes are stored in depth first order with children visited in ascending order.
type Octree struct {
	nodes      []sparseNode
	depth      int
	center     r3.Vector
	sideLength float64
}

// Node is a handle to one node of an Octree.
type Node struct {
	tree  *Octree
	index int32
}

// Compact copies the nodes of tree reachable from the root into a new Octree and releases the
// arena; tree cannot be used afterwards.
func Compact(tree *BuildTree, center r3.Vector, sideLength float64) (*Octree, error) {
	if sideLength <= 0 {
		return nil, errors.Errorf("invalid side length (%.2f) for octree", sideLength)
	}
	if tree.released() {
		return nil, errors.New("build tree was already compacted")
	}

	out := &Octree{
		depth:      tree.Depth(),
		center:     center,
		sideLength: sideLength,
	}

	var visit func(dense int, parent int32, level int) int32
	visit = func(dense int, parent int32, level int) int32 {
		index := int32(len(out.nodes))
		out.nodes = append(out.nodes, sparseNode{
			parent:   parent,
			children: [childCount]int32{noNode, noNode, noNode, noNode, noNode, noNode, noNode, noNode},
			occupied: tree.Occupied(dense),
			level:    uint8(level),
			path:     int32(dense - tree.levelStart[level]),
		})
		for c := 0; c < childCount; c++ {
			child, ok := tree.Child(dense, c)
			if !ok {
				continue
			}
			sparse := visit(child, index, level+1)
			out.nodes[index].children[c] = sparse
		}
		return index
	}
	visit(0, noNode, 0)

	tree.logger.Debugf("compacted %d of %d nodes", len(out.nodes), tree.Len())
	tree.release()
	return out, nil
}

// Root returns the root node. An octree always has a root, even when nothing is occupied.
func (o *Octree) Root() Node {
	return Node{tree: o, index: 0}
}

// Size returns the number of nodes.
func (o *Octree) Size() int {
	return len(o.nodes)
}

// Depth returns the level of the leaves.
func (o *Octree) Depth() int {
	return o.depth
}

// Center returns the center of the volume covered by the root.
func (o *Octree) Center() r3.Vector {
	return o.center
}

// SideLength returns the side of the cube covered by the root.
func (o *Octree) SideLength() float64 {
	return o.sideLength
}

// Walk calls fn on every node in depth first order, parents before children, until fn returns
// false.
func (o *Octree) Walk(fn func(n Node) bool) {
	for i := range o.nodes {
		if !fn(Node{tree: o, index: int32(i)}) {
			return
		}
	}
}

// LevelCounts returns the number of nodes at each level, root first.
func (o *Octree) LevelCounts() []int {
	counts := make([]int, o.depth+1)
	for _, n := range o.nodes {
		counts[n.level]++
	}
	return counts
}

// OccupiedLeaves returns the grid cell index of every occupied leaf in ascending order.
func (o *Octree) OccupiedLeaves() []int {
	cells := make([]int, 0)
	for _, n := range o.nodes {
		if n.occupied && int(n.level) == o.depth {
			cells = append(cells, int(n.path))
		}
	}
	return cells
}

// Equal reports whether both octrees cover the same volume with the same structure and occupancy.
func (o *Octree) Equal(other *Octree) bool {
	if o == nil || other == nil {
		return o == other
	}
	if o.depth != other.depth || o.center != other.center || o.sideLength != other.sideLength {
		return false
	}
	return equalNodes(o.Root(), other.Root())
}

func equalNodes(a, b Node) bool {
	if a.Occupied() != b.Occupied() {
		return false
	}
	for c := 0; c < childCount; c++ {
		ac, aok := a.Child(c)
		bc, bok := b.Child(c)
		if aok != bok {
			return false
		}
		if aok && !equalNodes(ac, bc) {
			return false
		}
	}
	return true
}

// Bounds returns the center and side length of the cube covered by n. Child c of a node lies on
// the positive side of X when c&4 is set, of Y when c&2 is set and of Z when c&1 is set.
func (o *Octree) Bounds(n Node) (r3.Vector, float64) {
	center := o.center
	side := o.sideLength
	sn := o.nodes[n.index]
	for shift := 3 * (int(sn.level) - 1); shift >= 0; shift -= 3 {
		c := int(sn.path>>uint(shift)) & (childCount - 1)
		quarter := side / 4
		center = center.Add(r3.Vector{
			X: octantSign(c&4) * quarter,
			Y: octantSign(c&2) * quarter,
			Z: octantSign(c&1) * quarter,
		})
		side /= 2
	}
	return center, side
}

func octantSign(bit int) float64 {
	if bit == 0 {
		return -1
	}
	return 1
}

func (n Node) node() *sparseNode {
	return &n.tree.nodes[n.index]
}

// Index returns the position of n in depth first order.
func (n Node) Index() int {
	return int(n.index)
}

// Occupied reports whether any grid cell under n is occupied.
func (n Node) Occupied() bool {
	return n.node().occupied
}

// Depth returns the level of n, zero for the root.
func (n Node) Depth() int {
	return int(n.node().level)
}

// Path returns the position of n among the nodes of its level, which for a leaf is its grid cell
// index.
func (n Node) Path() int {
	return int(n.node().path)
}

// Parent returns the parent of n, or false for the root.
func (n Node) Parent() (Node, bool) {
	parent := n.node().parent
	if parent == noNode {
		return Node{}, false
	}
	return Node{tree: n.tree, index: parent}, true
}

// Child returns child c of n if it survived reduction.
func (n Node) Child(c int) (Node, bool) {
	if c < 0 || c >= childCount {
		return Node{}, false
	}
	child := n.node().children[c]
	if child == noNode {
		return Node{}, false
	}
	return Node{tree: n.tree, index: child}, true
}

// Children returns the present children of n in octant order.
func (n Node) Children() []Node {
	var children []Node
	for c := 0; c < childCount; c++ {
		if child, ok := n.Child(c); ok {
			children = append(children, child)
		}
	}
	return children
}

// Type classifies n as an internal node or an empty or filled leaf.
func (n Node) Type() NodeType {
	sn := n.node()
	for _, child := range sn.children {
		if child != noNode {
			return InternalNode
		}
	}
	if sn.occupied {
		return LeafNodeFilled
	}
	return LeafNodeEmpty
}

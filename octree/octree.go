// Package octree builds sparse occupancy octrees from dense occupancy grids. Construction happens in
// a dense arena (BuildTree) that many goroutines write concurrently; the reduced result is
// compacted into an immutable sparse Octree.
package octree

// Each node in the octree is either an internal node which links to other nodes, an empty leaf with no
// occupied space below it, or a filled leaf covering an occupied grid cell.
const (
	InternalNode = NodeType(iota)
	LeafNodeEmpty
	LeafNodeFilled
)

// NodeType represents the possible types of nodes in an octree.
type NodeType uint8

func (n NodeType) String() string {
	switch n {
	case InternalNode:
		return "InternalNode"
	case LeafNodeEmpty:
		return "LeafNodeEmpty"
	case LeafNodeFilled:
		return "LeafNodeFilled"
	}
	return "Unknown"
}

// childCount is the number of octants a node subdivides into.
const childCount = 8

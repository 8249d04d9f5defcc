package octree

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/navvolume/logging"
)

func TestNodeTypeString(t *testing.T) {
	test.That(t, InternalNode.String(), test.ShouldEqual, "InternalNode")
	test.That(t, LeafNodeEmpty.String(), test.ShouldEqual, "LeafNodeEmpty")
	test.That(t, LeafNodeFilled.String(), test.ShouldEqual, "LeafNodeFilled")
	test.That(t, NodeType(9).String(), test.ShouldEqual, "Unknown")
}

func TestNewBuildTree(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, err := NewBuildTree(0, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewBuildTree(9, logger)
	test.That(t, err, test.ShouldNotBeNil)

	tree, err := NewBuildTree(2, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tree.Depth(), test.ShouldEqual, 2)
	test.That(t, tree.Len(), test.ShouldEqual, 1+8+64)
	test.That(t, ArenaNodes(2), test.ShouldEqual, tree.Len())
	test.That(t, ArenaNodes(8), test.ShouldEqual, 19173961)
	test.That(t, ArenaBytes(1), test.ShouldEqual, int64(45))

	test.That(t, tree.Level(0), test.ShouldEqual, 0)
	test.That(t, tree.Level(1), test.ShouldEqual, 1)
	test.That(t, tree.Level(8), test.ShouldEqual, 1)
	test.That(t, tree.Level(9), test.ShouldEqual, 2)
	test.That(t, tree.Level(72), test.ShouldEqual, 2)
	test.That(t, tree.Leaf(0), test.ShouldEqual, 9)
	test.That(t, tree.Leaf(63), test.ShouldEqual, 72)

	_, ok := tree.Parent(0)
	test.That(t, ok, test.ShouldBeFalse)
	parent, ok := tree.Parent(tree.Leaf(5))
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, parent, test.ShouldEqual, 1)
	parent, ok = tree.Parent(tree.Leaf(63))
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, parent, test.ShouldEqual, 8)

	// only the root is present at first
	test.That(t, tree.HasChildren(0), test.ShouldBeFalse)
	_, ok = tree.Child(0, 0)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestSubdivideAndCut(t *testing.T) {
	tree, err := NewBuildTree(2, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	test.That(t, tree.Subdivide(0), test.ShouldBeNil)
	test.That(t, tree.HasChildren(0), test.ShouldBeTrue)
	for c := 0; c < 8; c++ {
		child, ok := tree.Child(0, c)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, child, test.ShouldEqual, 1+c)
	}

	err = tree.Subdivide(0)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "internal node")
	err = tree.Subdivide(tree.Leaf(0))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "leaf node")

	tree.Cut(0, 3)
	_, ok := tree.Child(0, 3)
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = tree.Child(0, 4)
	test.That(t, ok, test.ShouldBeTrue)
	for c := 0; c < 8; c++ {
		tree.Cut(0, c)
	}
	test.That(t, tree.HasChildren(0), test.ShouldBeFalse)
}

func TestOccupy(t *testing.T) {
	tree, err := NewBuildTree(3, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	leaf := tree.Leaf(5)
	tree.Occupy(leaf)
	for i, ok := leaf, true; ok; i, ok = tree.Parent(i) {
		test.That(t, tree.Occupied(i), test.ShouldBeTrue)
	}
	test.That(t, tree.Occupied(tree.Leaf(4)), test.ShouldBeFalse)

	// a sibling leaf only needs to set itself; its parent is already occupied
	tree.Occupy(tree.Leaf(4))
	test.That(t, tree.Occupied(tree.Leaf(4)), test.ShouldBeTrue)

	// occupying an occupied node again is a no-op
	tree.Occupy(leaf)
	test.That(t, tree.Occupied(leaf), test.ShouldBeTrue)

	occupied := 0
	for i := 0; i < tree.Len(); i++ {
		if tree.Occupied(i) {
			occupied++
		}
	}
	test.That(t, occupied, test.ShouldEqual, 5)
}

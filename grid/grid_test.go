package grid

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestNew(t *testing.T) {
	t.Run("word counts", func(t *testing.T) {
		test.That(t, WordCount(1), test.ShouldEqual, 1)
		test.That(t, WordCount(2), test.ShouldEqual, 2)
		test.That(t, WordCount(3), test.ShouldEqual, 16)
		test.That(t, WordCount(8), test.ShouldEqual, 1<<19)
	})

	t.Run("wrong word count", func(t *testing.T) {
		_, err := New(2, []uint32{0})
		test.That(t, errors.Is(err, ErrMalformedGrid), test.ShouldBeTrue)
		_, err = New(2, []uint32{0, 0, 0})
		test.That(t, errors.Is(err, ErrMalformedGrid), test.ShouldBeTrue)
	})

	t.Run("depth out of range", func(t *testing.T) {
		_, err := New(0, []uint32{0})
		test.That(t, errors.Is(err, ErrMalformedGrid), test.ShouldBeTrue)
		_, err = New(MaxDepth+1, nil)
		test.That(t, errors.Is(err, ErrMalformedGrid), test.ShouldBeTrue)
		_, err = NewEmpty(-1)
		test.That(t, errors.Is(err, ErrMalformedGrid), test.ShouldBeTrue)
	})

	t.Run("bits past the last cell", func(t *testing.T) {
		_, err := New(1, []uint32{1 << 8})
		test.That(t, errors.Is(err, ErrMalformedGrid), test.ShouldBeTrue)
		g, err := New(1, []uint32{0xFF})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, g.Count(), test.ShouldEqual, 8)
	})

	t.Run("copies input", func(t *testing.T) {
		words := []uint32{1 << 5, 0}
		g, err := New(2, words)
		test.That(t, err, test.ShouldBeNil)
		words[0] = 0
		test.That(t, g.Bit(5), test.ShouldBeTrue)
		test.That(t, g.Bit(4), test.ShouldBeFalse)
		test.That(t, g.Bit(-1), test.ShouldBeFalse)
		test.That(t, g.Bit(64), test.ShouldBeFalse)
		test.That(t, g.Len(), test.ShouldEqual, 64)
		test.That(t, g.Depth(), test.ShouldEqual, 2)
	})
}

func TestOccupied(t *testing.T) {
	g, err := New(2, []uint32{1<<0 | 1<<31, 1 << 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Occupied(), test.ShouldResemble, []int{0, 31, 33})
	test.That(t, g.Count(), test.ShouldEqual, 3)
	test.That(t, g.Words(), test.ShouldResemble, []uint32{1<<0 | 1<<31, 1 << 1})

	empty, err := NewEmpty(3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, empty.Occupied(), test.ShouldBeEmpty)
}

func TestIndex(t *testing.T) {
	// The first octal digit is the child of the root, so the cell in the far corner of child 7's
	// first octant at depth 2 is 7*8 + 0.
	i, err := Index(Cell{X: 2, Y: 2, Z: 2}, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, i, test.ShouldEqual, 56)

	i, err = Index(Cell{X: 1, Y: 0, Z: 0}, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, i, test.ShouldEqual, 4)

	i, err = Index(Cell{X: 0, Y: 1, Z: 1}, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, i, test.ShouldEqual, 3)

	_, err = Index(Cell{X: 4}, 2)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = Index(Cell{Y: -1}, 2)
	test.That(t, err, test.ShouldNotBeNil)

	for depth := 1; depth <= 3; depth++ {
		for idx := 0; idx < CellCount(depth); idx++ {
			c, err := CellAt(idx, depth)
			test.That(t, err, test.ShouldBeNil)
			back, err := Index(c, depth)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, back, test.ShouldEqual, idx)
		}
	}

	_, err = CellAt(64, 2)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFromCells(t *testing.T) {
	g, err := FromCells(2, []Cell{{X: 2, Y: 2, Z: 2}, {X: 0, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Occupied(), test.ShouldResemble, []int{3, 56})

	_, err = FromCells(2, []Cell{{X: 9}})
	test.That(t, err, test.ShouldNotBeNil)

	b, err := NewBuilder(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Set(8), test.ShouldNotBeNil)
	test.That(t, b.Set(7), test.ShouldBeNil)
	first := b.Grid()
	test.That(t, b.Set(0), test.ShouldBeNil)
	test.That(t, first.Occupied(), test.ShouldResemble, []int{7})
	test.That(t, b.Grid().Occupied(), test.ShouldResemble, []int{0, 7})
}

func TestCodec(t *testing.T) {
	g, err := FromCells(3, []Cell{{X: 1, Y: 2, Z: 3}, {X: 7, Y: 7, Z: 7}, {}})
	test.That(t, err, test.ShouldBeNil)

	var buf bytes.Buffer
	test.That(t, Write(&buf, g), test.ShouldBeNil)
	test.That(t, buf.Len(), test.ShouldEqual, 8+4*WordCount(3))
	test.That(t, buf.Bytes()[:4], test.ShouldResemble, []byte("NVG1"))

	decoded, err := Read(bytes.NewReader(buf.Bytes()))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, decoded.Depth(), test.ShouldEqual, 3)
	test.That(t, decoded.Words(), test.ShouldResemble, g.Words())

	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte("NVG2"), buf.Bytes()[4:]...)
		_, err := Read(bytes.NewReader(bad))
		test.That(t, errors.Is(err, ErrMalformedGrid), test.ShouldBeTrue)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := Read(bytes.NewReader(buf.Bytes()[:buf.Len()-3]))
		test.That(t, errors.Is(err, ErrMalformedGrid), test.ShouldBeTrue)
		_, err = Read(bytes.NewReader(buf.Bytes()[:2]))
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("trailing data", func(t *testing.T) {
		extra := append(append([]byte{}, buf.Bytes()...), 0)
		_, err := Read(bytes.NewReader(extra))
		test.That(t, errors.Is(err, ErrMalformedGrid), test.ShouldBeTrue)
	})

	t.Run("files", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "grid.nvg")
		test.That(t, WriteFile(path, g), test.ShouldBeNil)
		fromFile, err := ReadFile(path)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, fromFile.Occupied(), test.ShouldResemble, g.Occupied())

		_, err = ReadFile(filepath.Join(t.TempDir(), "missing.nvg"))
		test.That(t, err, test.ShouldNotBeNil)
	})
}

package grid

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
)

// fileMagic starts every encoded grid.
var fileMagic = [4]byte{'N', 'V', 'G', '1'}

// Write encodes g as the magic, the depth as a little-endian uint32, then the words little-endian.
func Write(w io.Writer, g *Grid) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(fileMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(g.depth)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, g.words); err != nil {
		return err
	}
	return bw.Flush()
}

// Read decodes a grid written by Write.
func Read(r io.Reader) (*Grid, error) {
	br := bufio.NewReader(r)
	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, errors.Wrap(err, "reading grid header")
	}
	if magic != fileMagic {
		return nil, errors.Wrapf(ErrMalformedGrid, "bad magic %q", magic[:])
	}
	var depth uint32
	if err := binary.Read(br, binary.LittleEndian, &depth); err != nil {
		return nil, errors.Wrap(err, "reading grid depth")
	}
	if err := checkDepth(int(depth)); err != nil {
		return nil, err
	}
	words := make([]uint32, WordCount(int(depth)))
	if err := binary.Read(br, binary.LittleEndian, words); err != nil {
		return nil, errors.Wrapf(ErrMalformedGrid, "reading %d words: %v", len(words), err)
	}
	if _, err := br.ReadByte(); err == nil {
		return nil, errors.Wrap(ErrMalformedGrid, "trailing data after grid words")
	}
	return New(int(depth), words)
}

// ReadFile reads a grid from the file at path.
func ReadFile(path string) (*Grid, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer goutils.UncheckedErrorFunc(f.Close)
	g, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading grid file %q", path)
	}
	return g, nil
}

// WriteFile writes g to the file at path, replacing any existing file.
func WriteFile(path string, g *Grid) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return Write(f, g)
}

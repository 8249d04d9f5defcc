package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	"golang.org/x/term"
)

// printf prints a message with no prefix.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// infof prints a message prefixed with a bold cyan "Info: ".
func infof(w io.Writer, format string, a ...interface{}) {
	if _, err := color.New(color.Bold, color.FgCyan).Fprint(w, "Info: "); err != nil {
		return
	}
	printf(w, format, a...)
}

// warningf prints a message prefixed with a bold yellow "Warning: ".
func warningf(w io.Writer, format string, a ...interface{}) {
	if _, err := color.New(color.Bold, color.FgYellow).Fprint(w, "Warning: "); err != nil {
		return
	}
	printf(w, format, a...)
}

// isTerminal reports whether w is a file attached to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// parseCenter parses "x,y,z" into a vector. An empty string is the origin.
func parseCenter(s string) (r3.Vector, error) {
	if strings.TrimSpace(s) == "" {
		return r3.Vector{}, nil
	}
	parts := lo.Map(strings.Split(s, ","), func(part string, _ int) string {
		return strings.TrimSpace(part)
	})
	if len(parts) != 3 {
		return r3.Vector{}, errors.Errorf("center %q must have 3 comma separated coordinates", s)
	}
	coords := make([]float64, 0, 3)
	for _, part := range parts {
		v, err := cast.ToFloat64E(part)
		if err != nil {
			return r3.Vector{}, errors.Wrapf(err, "parsing center %q", s)
		}
		coords = append(coords, v)
	}
	return r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

// ensureDir creates the directory that will hold filePath.
func ensureDir(filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Wrapf(err, "could not create directory: %s", dir)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Wrapf(err, "could not stat directory: %s", dir)
	}
	if !info.IsDir() {
		return errors.Errorf("resolved path is not a directory: %s", dir)
	}
	return nil
}

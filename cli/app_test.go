package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/navvolume/grid"
)

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := NewApp(&out, &errOut)
	err := app.Run(append([]string{"navvolume"}, args...))
	return out.String(), errOut.String(), err
}

func TestGenAndBuild(t *testing.T) {
	dir := t.TempDir()
	gridPath := filepath.Join(dir, "grids", "sphere.nvg")

	out, _, err := runApp(t, "gen", "--depth", "3", "--shape", "sphere", "--radius", "0.75", "--out", gridPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "at depth 3 to "+gridPath)

	g, err := grid.ReadFile(gridPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Depth(), test.ShouldEqual, 3)
	test.That(t, g.Count(), test.ShouldBeGreaterThan, 0)

	out, _, err = runApp(t, "build", "--grid", gridPath, "--center", "1,2,3", "--side-length", "8",
		"--pool-size", "2", "--no-progress")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "LEVEL")
	test.That(t, out, test.ShouldContainSubstring, "TOTAL")
	test.That(t, out, test.ShouldContainSubstring, "run ")
	test.That(t, out, test.ShouldContainSubstring, "side 8 depth 3")
	test.That(t, out, test.ShouldContainSubstring, fmt.Sprintf("occupied cells %d", g.Count()))
}

func TestBuildFromConfig(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runApp(t, "gen", "--depth", "2", "--shape", "box", "--out", filepath.Join(dir, "box.nvg"))
	test.That(t, err, test.ShouldBeNil)

	cfgPath := filepath.Join(dir, "navvolume.json")
	test.That(t, os.WriteFile(cfgPath, []byte(`{
		"center": [0, 0, 0],
		"depth": 2,
		"side_length": 4,
		"grid_file": "box.nvg",
		"pool_size": 1
	}`), 0o600), test.ShouldBeNil)

	out, _, err := runApp(t, "--config", cfgPath, "build", "--pool-size", "3")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "side 4 depth 2")

	t.Run("depth mismatch", func(t *testing.T) {
		test.That(t, os.WriteFile(cfgPath, []byte(`{"depth": 3, "side_length": 4, "grid_file": "box.nvg"}`), 0o600),
			test.ShouldBeNil)
		_, _, err := runApp(t, "--config", cfgPath, "build")
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, cfgPath)
	})
}

func TestBuildErrors(t *testing.T) {
	_, _, err := runApp(t, "build")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "either --config or --grid is required")

	_, _, err = runApp(t, "build", "--grid", filepath.Join(t.TempDir(), "missing.nvg"))
	test.That(t, err, test.ShouldNotBeNil)

	dir := t.TempDir()
	gridPath := filepath.Join(dir, "empty.nvg")
	_, _, err = runApp(t, "gen", "--depth", "1", "--shape", "empty", "--out", gridPath)
	test.That(t, err, test.ShouldBeNil)
	_, _, err = runApp(t, "build", "--grid", gridPath, "--center", "1,2")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "3 comma separated coordinates")
}

func TestBench(t *testing.T) {
	gridPath := filepath.Join(t.TempDir(), "random.nvg")
	_, _, err := runApp(t, "gen", "--depth", "3", "--shape", "random", "--density", "0.2", "--seed", "7",
		"--out", gridPath)
	test.That(t, err, test.ShouldBeNil)

	out, _, err := runApp(t, "bench", "--grid", gridPath, "--runs", "2",
		"--pool-sizes", "1", "--pool-sizes", "2", "--histogram")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "POOL SIZE")
	test.That(t, out, test.ShouldContainSubstring, "1.00x")
	test.That(t, out, test.ShouldContainSubstring, "build time (ms)")

	_, _, err = runApp(t, "bench", "--grid", gridPath, "--runs", "0")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "--runs must be at least 1")

	_, _, err = runApp(t, "bench", "--grid", gridPath, "--pool-sizes", "0")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestGenErrors(t *testing.T) {
	out := filepath.Join(t.TempDir(), "bad.nvg")
	_, _, err := runApp(t, "gen", "--depth", "2", "--shape", "torus", "--out", out)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown shape "torus"`)

	_, _, err = runApp(t, "gen", "--depth", "2", "--shape", "box", "--radius", "1.5", "--out", out)
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = runApp(t, "gen", "--depth", "9", "--shape", "empty", "--out", out)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCenteredBox(t *testing.T) {
	g, err := centeredBox(2, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Count(), test.ShouldEqual, g.Len())

	g, err = centeredBox(3, 0.25)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Count(), test.ShouldEqual, 8)
	for _, cell := range []grid.Cell{{X: 3, Y: 3, Z: 3}, {X: 4, Y: 4, Z: 4}} {
		idx, err := grid.Index(cell, 3)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, g.Bit(idx), test.ShouldBeTrue)
	}
}

func TestSchemaAndVersion(t *testing.T) {
	out, _, err := runApp(t, "schema")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, `"grid_file"`)
	test.That(t, out, test.ShouldContainSubstring, `"side_length"`)

	out, _, err = runApp(t, "version")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "navvolume (dev)")
	test.That(t, out, test.ShouldContainSubstring, fmt.Sprintf("max_depth=%d", grid.MaxDepth))
}

func TestLogFile(t *testing.T) {
	dir := t.TempDir()
	gridPath := filepath.Join(dir, "sphere.nvg")
	_, _, err := runApp(t, "gen", "--depth", "2", "--out", gridPath)
	test.That(t, err, test.ShouldBeNil)

	logPath := filepath.Join(dir, "navvolume.log")
	_, _, err = runApp(t, "--log-file", logPath, "build", "--grid", gridPath, "--no-progress", "--trace")
	test.That(t, err, test.ShouldBeNil)

	contents, err := os.ReadFile(logPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(contents), test.ShouldContainSubstring, "construction done")
	test.That(t, string(contents), test.ShouldContainSubstring, "phase joined")
}

func TestParseCenter(t *testing.T) {
	center, err := parseCenter("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, center, test.ShouldResemble, r3.Vector{})

	center, err = parseCenter(" 1.5, -2 ,3 ")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, center, test.ShouldResemble, r3.Vector{X: 1.5, Y: -2, Z: 3})

	_, err = parseCenter("1,two,3")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "parsing center")
}

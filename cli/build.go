package cli

import (
	"fmt"
	"io"

	"github.com/docker/go-units"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"go.viam.com/navvolume/navvolume"
	"go.viam.com/navvolume/octree"
)

const (
	stepBuild     = "build"
	stepConstruct = "construct"
	stepReduce    = "reduce"
)

// BuildAction builds one volume and prints a per level summary of the reduced tree.
func BuildAction(c *cli.Context) error {
	logger := loggerFrom(c)
	req, closeLog, err := requestFromContext(c, logger)
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(closeLog)

	warnIfLowMemory(c.App.ErrWriter, req.Depth)

	pm := NewProgressManager(c.App.ErrWriter, []*Step{
		{ID: stepBuild, Message: fmt.Sprintf("Building depth %d volume with %d workers", req.Depth, req.PoolSize)},
		{ID: stepConstruct, Message: "Constructing", IndentLevel: 1},
		{ID: stepReduce, Message: "Reducing", IndentLevel: 1},
	}, WithProgressOutput(!c.Bool(buildFlagNoProgress) && isTerminal(c.App.ErrWriter)))
	defer pm.Stop()

	opts := []navvolume.RunOption{navvolume.WithStateListener(progressListener(pm))}
	if c.Bool(buildFlagTrace) {
		opts = append(opts, navvolume.WithDebugMode())
	}

	goutils.UncheckedError(pm.Start(stepBuild))
	volume, err := navvolume.Build(c.Context, req, logger, opts...)
	if err != nil {
		goutils.UncheckedError(pm.Fail(stepBuild, err))
		return err
	}
	goutils.UncheckedError(pm.Complete(stepBuild, fmt.Sprintf("%d nodes", volume.Stats().Nodes)))

	printSummary(c.App.Writer, volume)
	return nil
}

// progressListener advances the progress steps as a run changes state.
func progressListener(pm *ProgressManager) navvolume.StateListener {
	return func(from, to navvolume.State) {
		switch to {
		case navvolume.Constructing:
			goutils.UncheckedError(pm.Start(stepConstruct))
		case navvolume.Reducing:
			goutils.UncheckedError(pm.Complete(stepConstruct, ""))
			goutils.UncheckedError(pm.Start(stepReduce))
		case navvolume.Done:
			goutils.UncheckedError(pm.Complete(stepReduce, ""))
		case navvolume.Failed:
			switch from {
			case navvolume.Constructing:
				goutils.UncheckedError(pm.Fail(stepConstruct, errors.New("failed")))
			case navvolume.Reducing:
				goutils.UncheckedError(pm.Fail(stepReduce, errors.New("failed")))
			case navvolume.Idle, navvolume.Done, navvolume.Failed:
			}
		case navvolume.Idle:
		}
	}
}

// warnIfLowMemory warns when the construction arena would not fit in available memory.
func warnIfLowMemory(w io.Writer, depth int) {
	need := octree.ArenaBytes(depth)
	vm, err := mem.VirtualMemory()
	if err != nil {
		return
	}
	if uint64(need) > vm.Available {
		warningf(w, "building needs about %s but only %s is available",
			units.BytesSize(float64(need)), units.BytesSize(float64(vm.Available)))
	}
}

func printSummary(w io.Writer, volume *navvolume.NavVolume) {
	stats := volume.Stats()
	tree := volume.Tree()

	occupiedPerLevel := make([]int, tree.Depth()+1)
	tree.Walk(func(n octree.Node) bool {
		if n.Occupied() {
			occupiedPerLevel[n.Depth()]++
		}
		return true
	})

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Level", "Nodes", "Occupied", "Cell Side"})
	for level, count := range stats.LevelCounts {
		side := volume.SideLength() / float64(int(1)<<level)
		t.AppendRow(table.Row{level, count, occupiedPerLevel[level], fmt.Sprintf("%.4g", side)})
	}
	t.AppendFooter(table.Row{"Total", stats.Nodes, "", ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()

	printf(w, "run %s", volume.ID())
	printf(w, "center %v side %g depth %d", volume.Center(), volume.SideLength(), volume.Depth())
	printf(w, "occupied cells %d, arena %d nodes (%s), kept %d nodes",
		stats.OccupiedCells, stats.ArenaNodes, units.BytesSize(float64(octree.ArenaBytes(volume.Depth()))), stats.Nodes)
	printf(w, "construct %s (%d forked, %d inline), reduce %s (%d forked, %d inline), compact %s",
		stats.Construct.Duration, stats.Construct.Forked, stats.Construct.Inline,
		stats.Reduce.Duration, stats.Reduce.Forked, stats.Reduce.Inline,
		stats.Compact)
}

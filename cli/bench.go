package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"go.viam.com/navvolume/navvolume"
	"go.viam.com/navvolume/utils"
)

// benchResult holds the builds for one pool size.
type benchResult struct {
	poolSize  int
	totals    []float64 // milliseconds
	forkRatio float64
}

// BenchAction repeats the same build for each pool size and reports timing statistics.
func BenchAction(c *cli.Context) error {
	logger := loggerFrom(c)
	req, closeLog, err := requestFromContext(c, logger)
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(closeLog)

	runs := c.Int(benchFlagRuns)
	if runs < 1 {
		return errors.Errorf("--%s must be at least 1", benchFlagRuns)
	}
	poolSizes := c.IntSlice(benchFlagPoolSizes)
	if len(poolSizes) == 0 {
		poolSizes = lo.Uniq([]int{1, utils.ParallelFactor})
	}
	for _, size := range poolSizes {
		if size < 1 {
			return errors.Errorf("pool sizes must be at least 1, got %d", size)
		}
	}

	if counts, err := cpu.Counts(true); err == nil {
		infof(c.App.Writer, "benchmarking depth %d, %d occupied cells, %d runs per pool size on %d logical CPUs",
			req.Depth, req.Grid.Count(), runs, counts)
	}

	results := make([]benchResult, 0, len(poolSizes))
	for _, size := range poolSizes {
		result, err := benchPoolSize(c, req, size, runs)
		if err != nil {
			return err
		}
		results = append(results, result)
	}

	if err := printBench(c.App.Writer, results); err != nil {
		return err
	}
	if c.Bool(benchFlagHistogram) {
		all := lo.FlatMap(results, func(r benchResult, _ int) []float64 { return r.totals })
		printf(c.App.Writer, "build time (ms)")
		return histogram.Fprint(c.App.Writer, histogram.Hist(10, all), histogram.Linear(40))
	}
	return nil
}

func benchPoolSize(c *cli.Context, req navvolume.Request, poolSize, runs int) (benchResult, error) {
	logger := loggerFrom(c)
	req.PoolSize = poolSize
	result := benchResult{poolSize: poolSize}
	var forked, total int64
	for i := 0; i < runs; i++ {
		volume, err := navvolume.Build(c.Context, req, logger)
		if err != nil {
			return benchResult{}, errors.Wrapf(err, "pool size %d run %d", poolSize, i)
		}
		s := volume.Stats()
		result.totals = append(result.totals, float64(s.Total())/float64(time.Millisecond))
		forked += s.Construct.Forked + s.Reduce.Forked
		total += s.Construct.Forked + s.Construct.Inline + s.Reduce.Forked + s.Reduce.Inline
	}
	if total > 0 {
		result.forkRatio = float64(forked) / float64(total)
	}
	return result, nil
}

func printBench(w io.Writer, results []benchResult) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Pool Size", "Runs", "Mean (ms)", "Median (ms)", "P90 (ms)", "Std Dev", "Speedup", "Forked"})

	var baseline float64
	for i, r := range results {
		mean, err := stats.Mean(r.totals)
		if err != nil {
			return err
		}
		median, err := stats.Median(r.totals)
		if err != nil {
			return err
		}
		p90, err := stats.Percentile(r.totals, 90)
		if err != nil {
			return err
		}
		stddev, err := stats.StandardDeviation(r.totals)
		if err != nil {
			return err
		}
		if i == 0 {
			baseline = mean
		}
		speedup := "-"
		if mean > 0 {
			speedup = fmt.Sprintf("%.2fx", baseline/mean)
		}
		t.AppendRow(table.Row{
			r.poolSize,
			len(r.totals),
			fmt.Sprintf("%.3f", mean),
			fmt.Sprintf("%.3f", median),
			fmt.Sprintf("%.3f", p90),
			fmt.Sprintf("%.3f", stddev),
			speedup,
			fmt.Sprintf("%.1f%%", 100*r.forkRatio),
		})
	}
	t.Render()
	return nil
}

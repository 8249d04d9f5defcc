// Package cli contains the navvolume command line app.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"go.viam.com/navvolume/config"
	"go.viam.com/navvolume/grid"
	"go.viam.com/navvolume/logging"
)

const (
	// Global flags.
	generalFlagConfig  = "config"
	generalFlagDebug   = "debug"
	generalFlagLogFile = "log-file"

	// Construction request flags.
	requestFlagGrid       = "grid"
	requestFlagCenter     = "center"
	requestFlagSideLength = "side-length"
	requestFlagPoolSize   = "pool-size"

	buildFlagNoProgress = "no-progress"
	buildFlagTrace      = "trace"

	benchFlagRuns      = "runs"
	benchFlagPoolSizes = "pool-sizes"
	benchFlagHistogram = "histogram"

	genFlagDepth   = "depth"
	genFlagShape   = "shape"
	genFlagDensity = "density"
	genFlagSeed    = "seed"
	genFlagRadius  = "radius"
	genFlagOut     = "out"

	loggerMetadataKey    = "logger"
	logCloserMetadataKey = "log-closer"
)

func requestFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    requestFlagGrid,
			Aliases: []string{"g"},
			Usage:   "read the occupancy grid from `FILE`; ignored with --config",
		},
		&cli.StringFlag{
			Name:  requestFlagCenter,
			Usage: "center of the volume as `X,Y,Z`",
		},
		&cli.Float64Flag{
			Name:  requestFlagSideLength,
			Usage: "side length of the volume",
			Value: 1,
		},
		&cli.IntFlag{
			Name:  requestFlagPoolSize,
			Usage: "number of workers per phase, defaults to the number of CPUs",
		},
	}
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "navvolume",
		Usage:           "build sparse occupancy octrees from occupancy grids",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Metadata:        map[string]interface{}{},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    generalFlagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    generalFlagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  generalFlagLogFile,
				Usage: "also write logs to `FILE`, rotated as it grows",
			},
		},
		Before: setupLogging,
		After:  closeLogging,
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "build a volume and print a summary of the tree",
				Flags: append(requestFlags(),
					&cli.BoolFlag{
						Name:  buildFlagNoProgress,
						Usage: "do not show progress",
					},
					&cli.BoolFlag{
						Name:  buildFlagTrace,
						Usage: "log phase and scheduling details of this build at debug level",
					},
				),
				Action: BuildAction,
			},
			{
				Name:  "bench",
				Usage: "time repeated builds across pool sizes",
				Flags: append(requestFlags(),
					&cli.IntFlag{
						Name:  benchFlagRuns,
						Usage: "builds per pool size",
						Value: 5,
					},
					&cli.IntSliceFlag{
						Name:  benchFlagPoolSizes,
						Usage: "pool sizes to compare, defaults to 1 and the number of CPUs",
					},
					&cli.BoolFlag{
						Name:  benchFlagHistogram,
						Usage: "print a histogram of all build times",
					},
				),
				Action: BenchAction,
			},
			{
				Name:      "gen",
				Usage:     "write a synthetic occupancy grid file",
				UsageText: "navvolume gen --depth 5 --shape sphere --out grid.nvg",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     genFlagDepth,
						Usage:    "grid depth, 8^depth cells",
						Required: true,
					},
					&cli.StringFlag{
						Name:  genFlagShape,
						Usage: "one of sphere, random, box or empty",
						Value: shapeSphere,
					},
					&cli.Float64Flag{
						Name:  genFlagDensity,
						Usage: "fraction of occupied cells for random grids",
						Value: 0.1,
					},
					&cli.Int64Flag{
						Name:  genFlagSeed,
						Usage: "seed for random grids",
						Value: 1,
					},
					&cli.Float64Flag{
						Name:  genFlagRadius,
						Usage: "radius of spheres and half extent of boxes as a fraction of half the grid side",
						Value: 0.5,
					},
					&cli.StringFlag{
						Name:     genFlagOut,
						Aliases:  []string{"o"},
						Usage:    "write the grid to `FILE`",
						Required: true,
					},
				},
				Action: GenAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of the config file",
				Action: SchemaAction,
			},
			{
				Name:   "version",
				Usage:  "print version info for this program",
				Action: VersionAction,
			},
		},
	}
}

func setupLogging(c *cli.Context) error {
	logger := logging.NewWriterLogger("navvolume", c.App.ErrWriter)
	debug := c.Bool(generalFlagDebug)
	if debug {
		logger.SetLevel(logging.DEBUG)
	}
	config.InitLoggingSettings(logger, debug)
	if path := c.String(generalFlagLogFile); path != "" {
		appender, closer := logging.NewFileAppender(path, config.DefaultLogMaxSizeMB)
		logger.AddAppender(appender)
		c.App.Metadata[logCloserMetadataKey] = closer
	}
	c.App.Metadata[loggerMetadataKey] = logger
	return nil
}

func closeLogging(c *cli.Context) error {
	closer, ok := c.App.Metadata[logCloserMetadataKey].(io.Closer)
	if !ok {
		return nil
	}
	delete(c.App.Metadata, logCloserMetadataKey)
	return closer.Close()
}

func loggerFrom(c *cli.Context) logging.Logger {
	if logger, ok := c.App.Metadata[loggerMetadataKey].(logging.Logger); ok {
		return logger
	}
	return logging.Global()
}

// VersionAction prints the version of the program.
func VersionAction(c *cli.Context) error {
	version := config.Version
	if version == "" {
		version = "(dev)"
	}
	printf(c.App.Writer, "navvolume %s git=%s max_depth=%d", version, config.GitRevision, grid.MaxDepth)
	return nil
}

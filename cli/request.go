package cli

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/navvolume/config"
	"go.viam.com/navvolume/grid"
	"go.viam.com/navvolume/logging"
	"go.viam.com/navvolume/navvolume"
	"go.viam.com/navvolume/utils"
)

// requestFromContext builds the construction request from --config, or from the request flags
// when no config is given. The returned function undoes any logging set up by the config.
func requestFromContext(c *cli.Context, logger logging.Logger) (navvolume.Request, func() error, error) {
	if path := c.String(generalFlagConfig); path != "" {
		cfg, err := config.Read(path, logger)
		if err != nil {
			return navvolume.Request{}, nil, err
		}
		closeLog, err := cfg.ApplyLogging(logger)
		if err != nil {
			return navvolume.Request{}, nil, err
		}
		req, err := cfg.Request()
		if err != nil {
			return navvolume.Request{}, nil, errors.Wrapf(err, "config %q", path)
		}
		if c.IsSet(requestFlagPoolSize) {
			req.PoolSize = c.Int(requestFlagPoolSize)
		}
		return req, closeLog, nil
	}

	gridPath := c.String(requestFlagGrid)
	if gridPath == "" {
		return navvolume.Request{}, nil, errors.Errorf("either --%s or --%s is required", generalFlagConfig, requestFlagGrid)
	}
	g, err := grid.ReadFile(gridPath)
	if err != nil {
		return navvolume.Request{}, nil, err
	}
	center, err := parseCenter(c.String(requestFlagCenter))
	if err != nil {
		return navvolume.Request{}, nil, err
	}
	poolSize := c.Int(requestFlagPoolSize)
	if poolSize == 0 {
		poolSize = utils.GetPoolSize(utils.ParallelFactor, logger)
	}
	return navvolume.Request{
		Center:     center,
		Depth:      g.Depth(),
		Grid:       g,
		PoolSize:   poolSize,
		SideLength: c.Float64(requestFlagSideLength),
	}, func() error { return nil }, nil
}

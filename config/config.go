// Package config defines the on disk description of a construction run.
package config

import (
	"path/filepath"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/navvolume/grid"
	"go.viam.com/navvolume/logging"
	"go.viam.com/navvolume/navvolume"
)

// Versioning variables which are replaced by LD flags.
var (
	Version     = ""
	GitRevision = ""
)

// DefaultLogMaxSizeMB is the size a log file grows to before it is rotated.
const DefaultLogMaxSizeMB = 64

// Config describes a construction run.
type Config struct {
	ConfigFilePath string `json:"-"`

	Center     []float64 `json:"center,omitempty"`
	Depth      int       `json:"depth"`
	SideLength float64   `json:"side_length,omitempty"`
	PoolSize   int       `json:"pool_size,omitempty"`
	GridFile   string    `json:"grid_file"`

	Debug        bool                          `json:"debug,omitempty"`
	LogFile      string                        `json:"log_file,omitempty"`
	LogMaxSizeMB int                           `json:"log_max_size_mb,omitempty"`
	LogConfig    []logging.LoggerPatternConfig `json:"log,omitempty"`
}

// Validate returns an error if the config cannot describe a run.
func (c *Config) Validate(path string) error {
	if c.Depth == 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "depth")
	}
	if c.Depth < 1 || c.Depth > grid.MaxDepth {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("depth must be in [1, %d], got %d", grid.MaxDepth, c.Depth))
	}
	if c.GridFile == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "grid_file")
	}
	if len(c.Center) != 0 && len(c.Center) != 3 {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("center must have 3 coordinates, got %d", len(c.Center)))
	}
	if c.SideLength < 0 {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("side_length must not be negative, got %.2f", c.SideLength))
	}
	if c.PoolSize < 0 {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("pool_size must not be negative, got %d", c.PoolSize))
	}
	if c.LogMaxSizeMB < 0 {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("log_max_size_mb must not be negative, got %d", c.LogMaxSizeMB))
	}
	for i, pattern := range c.LogConfig {
		if !logging.ValidatePattern(pattern.Pattern) {
			return goutils.NewConfigValidationError(path,
				errors.Errorf("log[%d] has invalid pattern %q", i, pattern.Pattern))
		}
		if _, err := logging.LevelFromString(pattern.Level); err != nil {
			return goutils.NewConfigValidationError(path, errors.Wrapf(err, "log[%d]", i))
		}
	}
	return nil
}

// CenterVector returns the center of the volume, the origin when unset.
func (c *Config) CenterVector() r3.Vector {
	if len(c.Center) != 3 {
		return r3.Vector{}
	}
	return r3.Vector{X: c.Center[0], Y: c.Center[1], Z: c.Center[2]}
}

// GridPath resolves the grid file. Relative paths are relative to the config file.
func (c *Config) GridPath() string {
	if filepath.IsAbs(c.GridFile) || c.ConfigFilePath == "" {
		return c.GridFile
	}
	return filepath.Join(filepath.Dir(c.ConfigFilePath), c.GridFile)
}

// Request loads the grid file and returns the construction request the config describes.
func (c *Config) Request() (navvolume.Request, error) {
	g, err := grid.ReadFile(c.GridPath())
	if err != nil {
		return navvolume.Request{}, err
	}
	if g.Depth() != c.Depth {
		return navvolume.Request{}, errors.Wrapf(grid.ErrMalformedGrid,
			"grid file %q has depth %d but config has depth %d", c.GridPath(), g.Depth(), c.Depth)
	}
	return navvolume.Request{
		Center:     c.CenterVector(),
		Depth:      c.Depth,
		Grid:       g,
		PoolSize:   c.PoolSize,
		SideLength: c.SideLength,
	}, nil
}

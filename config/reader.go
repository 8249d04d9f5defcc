package config

import (
	"bytes"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"go.viam.com/navvolume/logging"
	"go.viam.com/navvolume/utils"
)

// Read reads a config from the given file. Environment variables referenced as ${VAR} are
// substituted before parsing.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from. The config is JSON5, so comments and
// trailing commas are allowed.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	unprocessedConfig := Config{
		ConfigFilePath: originalPath,
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read Config")
	}
	if err := json5.Unmarshal(raw, &unprocessedConfig); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}
	cfg, err := processConfig(&unprocessedConfig, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to process Config")
	}
	return cfg, nil
}

// processConfig returns a copy of the config with defaults and environment overrides applied, or an
// error if the result is not valid.
func processConfig(unprocessedConfig *Config, logger logging.Logger) (*Config, error) {
	cfg := *unprocessedConfig
	cfg.Center = append([]float64(nil), unprocessedConfig.Center...)
	cfg.LogConfig = append([]logging.LoggerPatternConfig(nil), unprocessedConfig.LogConfig...)

	if cfg.PoolSize == 0 {
		cfg.PoolSize = utils.ParallelFactor
	}
	cfg.PoolSize = utils.GetPoolSize(cfg.PoolSize, logger)
	if utils.DebugFromEnv() {
		cfg.Debug = true
	}
	if cfg.LogMaxSizeMB == 0 {
		cfg.LogMaxSizeMB = DefaultLogMaxSizeMB
	}

	if err := cfg.Validate("navvolume"); err != nil {
		return nil, err
	}
	return &cfg, nil
}

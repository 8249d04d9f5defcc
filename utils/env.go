package utils

import (
	"os"
	"slices"

	"github.com/spf13/cast"

	"go.viam.com/navvolume/logging"
)

const (
	// EnvVarPrefix is the prefix for all navvolume environment variables.
	EnvVarPrefix = "NAVVOLUME_"

	// PoolSizeEnvVar overrides the number of workers used for each construction phase.
	PoolSizeEnvVar = "NAVVOLUME_POOL_SIZE"

	// DebugEnvVar turns on debug logging when set to one of EnvTrueValues.
	DebugEnvVar = "NAVVOLUME_DEBUG"
)

// EnvTrueValues contains strings that we interpret as boolean true in env vars.
var EnvTrueValues = []string{"true", "yes", "1", "TRUE", "YES"}

// GetPoolSize returns the pool size from PoolSizeEnvVar if it is set to a positive integer,
// otherwise `defaultSize`.
func GetPoolSize(defaultSize int, logger logging.Logger) int {
	val := os.Getenv(PoolSizeEnvVar)
	if val == "" {
		return defaultSize
	}
	size, err := cast.ToIntE(val)
	if err != nil || size < 1 {
		logger.Warnw("ignoring invalid pool size from environment", "var", PoolSizeEnvVar, "value", val)
		return defaultSize
	}
	return size
}

// DebugFromEnv returns whether DebugEnvVar asks for debug logging.
func DebugFromEnv() bool {
	return slices.Contains(EnvTrueValues, os.Getenv(DebugEnvVar))
}

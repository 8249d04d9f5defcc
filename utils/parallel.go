// Package utils contains environment and parallelism helpers shared by navvolume packages.
package utils

import (
	"runtime"
)

// ParallelFactor controls the default number of workers in a pool. This might be useful to set in
// tests where too much parallelism actually slows tests down in aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
}

package logging

import (
	"context"

	"go.viam.com/utils"
)

type debugRunKeyType int

const debugRunKeyID = debugRunKeyType(iota)

// EnableDebugMode returns a context that makes the C* logging methods emit debug output for
// everything done under it, tagged with `runID`. An empty `runID` generates a random one.
func EnableDebugMode(ctx context.Context, runID string) context.Context {
	if runID == "" {
		runID = utils.RandomAlphaString(6)
	}
	return context.WithValue(ctx, debugRunKeyID, runID)
}

// IsDebugMode returns whether the context was marked with EnableDebugMode.
func IsDebugMode(ctx context.Context) bool {
	return DebugRunID(ctx) != ""
}

// DebugRunID returns the run id the context was marked with, or "".
func DebugRunID(ctx context.Context) string {
	if id, ok := ctx.Value(debugRunKeyID).(string); ok {
		return id
	}
	return ""
}

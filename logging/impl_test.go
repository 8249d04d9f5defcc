package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"go.viam.com/test"
)

type BasicStruct struct {
	X int
	y string
}

// assertLogMatches will fuzzy match log lines. Notably, this checks the time format, but ignores
// the exact time. And it expects a match on the filename, but the exact line number can be wrong.
func assertLogMatches(t *testing.T, actual *bytes.Buffer, expected string) {
	t.Helper()

	output, err := actual.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)

	actualTrimmed := strings.TrimSuffix(output, "\n")
	actualParts := strings.Split(actualTrimmed, "\t")
	expectedParts := strings.Split(expected, "\t")
	test.That(t, len(actualParts), test.ShouldEqual, len(expectedParts))

	// Use the length of the first string as a weak verification of checking that the result looks like a date.
	test.That(t, len(actualParts[0]), test.ShouldEqual, len(expectedParts[0]))
	// Log level.
	test.That(t, actualParts[1], test.ShouldEqual, expectedParts[1])
	// Logger name.
	test.That(t, actualParts[2], test.ShouldEqual, expectedParts[2])

	// Filename:line_number.
	actualFilename, actualLineNumber, found := strings.Cut(actualParts[3], ":")
	test.That(t, found, test.ShouldBeTrue)
	expectedFilename, _, found := strings.Cut(expectedParts[3], ":")
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, actualFilename, test.ShouldEqual, expectedFilename)
	_, err = strconv.Atoi(actualLineNumber)
	test.That(t, err, test.ShouldBeNil)

	// Log message.
	test.That(t, actualParts[4], test.ShouldEqual, expectedParts[4])
	if len(actualParts) == 5 {
		return
	}

	// JSON encoding of maps can be unpredictable because map iteration order can change between
	// runs. Parse the output into maps and assert on map equality.
	expectedMap := make(map[string]any)
	err = json.Unmarshal([]byte(expectedParts[5]), &expectedMap)
	test.That(t, err, test.ShouldBeNil)

	actualMap := make(map[string]any)
	err = json.Unmarshal([]byte(actualParts[5]), &actualMap)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, actualMap, test.ShouldResemble, expectedMap)
}

func newBufferLogger(name string, level Level) (*impl, *bytes.Buffer) {
	notStdout := &bytes.Buffer{}
	return &impl{name, NewAtomicLevelAt(level), false, []Appender{NewWriterAppender(notStdout)}}, notStdout
}

func TestConsoleOutputFormat(t *testing.T) {
	logger, notStdout := newBufferLogger("impl", DEBUG)

	logger.Info("impl Info log")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	INFO	impl	logging/impl_test.go:67	impl Info log`)

	logger.Infof("impl %s log", "infof")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:45:20.764-0400	INFO	impl	logging/impl_test.go:131	impl infof log`)

	logger.Infow("impl logw", "key", "value")
	assertLogMatches(t, notStdout,
		`2023-10-30T13:19:45.806-0400	INFO	impl	logging/impl_test.go:132	impl logw	{"key":"value"}`)

	// Only public fields of structs are serialized.
	logger.Warnw("BasicStruct", "oneKey", "1val", "BasicStruct", BasicStruct{1, "alice"})
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129-0400	WARN	impl	logging/impl_test.go:125	BasicStruct	{"BasicStruct":{"X":1},"oneKey":"1val"}`)

	// An unpaired key is still logged, with an error in place of its value.
	logger.Errorw("unpaired", "lonely")
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129-0400	ERROR	impl	logging/impl_test.go:125	unpaired	{"lonely":"unpaired log key"}`)
}

func TestLevelFiltering(t *testing.T) {
	logger, notStdout := newBufferLogger("filtered", WARN)

	logger.Debug("hidden")
	logger.Info("hidden")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	logger.Warn("shown")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	WARN	filtered	logging/impl_test.go:100	shown`)

	// A context marked for debugging overrides the logger level for CDebug calls.
	ctx := EnableDebugMode(context.Background(), "")
	test.That(t, IsDebugMode(ctx), test.ShouldBeTrue)
	test.That(t, len(DebugRunID(ctx)), test.ShouldEqual, 6)
	logger.CDebugf(ctx, "debugging %d", 1)
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	DEBUG	filtered	logging/impl_test.go:100	debugging 1`)

	// Structured entries logged only because of the context carry its run id.
	ctx = EnableDebugMode(context.Background(), "run-1")
	logger.CDebugw(ctx, "phase joined", "phase", "reduce")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	DEBUG	filtered	logging/impl_test.go:100	phase joined	{"phase":"reduce","debug_run":"run-1"}`)

	// A logger already at debug level does not tag the entry.
	debugLogger, debugOut := newBufferLogger("verbose", DEBUG)
	debugLogger.CDebugw(ctx, "phase joined", "phase", "reduce")
	assertLogMatches(t, debugOut,
		`2023-10-30T09:12:09.459-0400	DEBUG	verbose	logging/impl_test.go:100	phase joined	{"phase":"reduce"}`)

	logger.CDebug(context.Background(), "hidden")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)
}

func TestSublogger(t *testing.T) {
	logger, notStdout := newBufferLogger("navvolume", INFO)
	sub := logger.Sublogger("pool")
	sub.Info("from sub")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	INFO	navvolume.pool	logging/impl_test.go:100	from sub`)

	// Changing the sublogger level does not affect the parent.
	sub.SetLevel(ERROR)
	test.That(t, sub.GetLevel(), test.ShouldEqual, ERROR)
	test.That(t, logger.GetLevel(), test.ShouldEqual, INFO)
}

func TestLevelStrings(t *testing.T) {
	for _, level := range []Level{DEBUG, INFO, WARN, ERROR} {
		parsed, err := LevelFromString(level.String())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, parsed, test.ShouldEqual, level)

		var fromJSON Level
		raw, err := json.Marshal(level)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, json.Unmarshal(raw, &fromJSON), test.ShouldBeNil)
		test.That(t, fromJSON, test.ShouldEqual, level)
	}

	_, err := LevelFromString("verbose")
	test.That(t, err, test.ShouldNotBeNil)
}

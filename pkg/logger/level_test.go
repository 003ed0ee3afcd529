package logger

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "debug", want: LevelDebug},
		{in: "", want: LevelInfo},
		{in: " Info ", want: LevelInfo},
		{in: "WARNING", want: LevelWarn},
		{in: "error", want: LevelError},
		{in: "trace", want: LevelInfo, wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.wantErr, err != nil, tc.in)
	}
}

// captureLog redirects the standard logger for the duration of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return &buf
}

// TestLeveledHelpers drops messages below the configured level.
func TestLeveledHelpers(t *testing.T) {
	buf := captureLog(t)
	prev := level
	t.Cleanup(func() { SetLevel(prev) })

	SetLevel(LevelWarn)
	Debugf("hidden %d", 1)
	Infof("hidden %d", 2)
	Warnf("shown %d", 3)
	Errorf("shown %d", 4)

	assert.Equal(t, "[WARN] shown 3\n[ERROR] shown 4\n", buf.String())
	assert.False(t, Enabled(LevelInfo))
}

// TestBufferedRun keeps details quiet on success and replays them on
// failure.
func TestBufferedRun(t *testing.T) {
	buf := captureLog(t)

	Begin("run-ok")
	Appendf("run-ok")("Loaded %d photos", 3)
	Success("run-ok", "Portland_maine_map.html")
	Sync()

	out := buf.String()
	assert.NotContains(t, out, "Loaded 3 photos")
	assert.Contains(t, out, "saved Portland_maine_map.html")

	buf.Reset()
	Begin("run-bad")
	Append("run-bad", "Error retrieving data from database: boom")
	FlushError("run-bad", errors.New("load: boom"))
	Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Error retrieving data from database: boom")
	assert.Contains(t, lines[1], "[ERROR] load: boom")
}

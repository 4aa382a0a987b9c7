package logging

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDebugWriter(t *testing.T, on *atomic.Bool) (*DebugWriter, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spring")
	w := NewDebugWriter(path, on.Load)
	w.uptime = func() time.Duration { return 42 * time.Second }
	return w, path
}

func TestDebugWriterDisabled(t *testing.T) {
	var on atomic.Bool
	w, path := newTestDebugWriter(t, &on)
	l := New(Config{Level: slog.LevelError, Output: io.Discard, Debug: w})

	l.Warn("hidden", "n", 1)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.False(t, w.Enabled())
}

func TestDebugWriterAppends(t *testing.T) {
	var on atomic.Bool
	on.Store(true)
	w, path := newTestDebugWriter(t, &on)
	l := New(Config{Level: slog.LevelError, Output: io.Discard, Debug: w}).WithComponent("daemon")

	l.Info("received signal", "signal", "SIGTERM")
	l.WithFields(map[string]any{"phase": "boot"}).Warn("step failed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"[42]\t[INFO] daemon: received signal signal=SIGTERM\n"+
			"[42]\t[WARN] daemon: step failed phase=boot\n",
		string(data))
}

func TestDebugWriterSwallowsOpenFailure(t *testing.T) {
	var on atomic.Bool
	on.Store(true)
	w := NewDebugWriter(filepath.Join(t.TempDir(), "missing", "dir", "spring"), on.Load)

	var console bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Output: &console, Debug: w})

	assert.NotPanics(t, func() { l.Info("still on console") })
	assert.Contains(t, console.String(), "still on console")
}

func TestDebugWriterWithoutPath(t *testing.T) {
	w := NewDebugWriter("", func() bool { return true })
	assert.False(t, w.Enabled())

	var nilWriter *DebugWriter
	assert.False(t, nilWriter.Enabled())
}

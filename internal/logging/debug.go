package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"grimm.is/spring/internal/clock"
)

// DebugWriter appends uptime-stamped lines to a fixed file while its enable
// switch reports true. Failures to open or write the file are dropped.
type DebugWriter struct {
	path    string
	enabled func() bool
	uptime  func() time.Duration
	mu      sync.Mutex
}

// NewDebugWriter returns a writer for path. enabled is consulted on every
// record so the switch can change while the daemon runs.
func NewDebugWriter(path string, enabled func() bool) *DebugWriter {
	if enabled == nil {
		enabled = func() bool { return false }
	}
	return &DebugWriter{
		path:    path,
		enabled: enabled,
		uptime:  clock.Uptime,
	}
}

// Enabled reports whether lines are currently being written.
func (w *DebugWriter) Enabled() bool {
	return w != nil && w.path != "" && w.enabled()
}

func (w *DebugWriter) write(line []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	buf := make([]byte, 0, len(line)+16)
	buf = fmt.Appendf(buf, "[%d]\t", int64(w.uptime()/time.Second))
	buf = append(buf, line...)
	if len(line) == 0 || line[len(line)-1] != '\n' {
		buf = append(buf, '\n')
	}
	_, _ = f.Write(buf)
}

// Handler returns a slog.Handler that feeds w.
func (w *DebugWriter) Handler() slog.Handler {
	return &debugHandler{w: w}
}

type debugHandler struct {
	w     *DebugWriter
	attrs []slog.Attr
}

func (h *debugHandler) Enabled(context.Context, slog.Level) bool {
	return h.w.Enabled()
}

func (h *debugHandler) Handle(_ context.Context, r slog.Record) error {
	buf := fmt.Appendf(nil, "[%s] ", r.Level.String())
	h.w.write(appendRecord(buf, h.attrs, r))
	return nil
}

func (h *debugHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &debugHandler{w: h.w, attrs: append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...)}
}

func (h *debugHandler) WithGroup(string) slog.Handler {
	return h
}

// fanoutHandler hands each record to every enabled child.
type fanoutHandler struct {
	handlers []slog.Handler
}

func newFanoutHandler(handlers ...slog.Handler) *fanoutHandler {
	return &fanoutHandler{handlers: handlers}
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, c := range h.handlers {
		if c.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, c := range h.handlers {
		if !c.Enabled(ctx, r.Level) {
			continue
		}
		if err := c.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, c := range h.handlers {
		next[i] = c.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, c := range h.handlers {
		next[i] = c.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}

// Package logging is the daemon's slog front end. Records go to a console
// handler on stderr and, while the spring.debug.enable option is on, to the
// debug file.
package logging

import (
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"sync/atomic"

	serr "grimm.is/spring/internal/errors"
)

// Logger is a slog.Logger with component and audit helpers.
type Logger struct {
	*slog.Logger
}

// Config selects the console threshold and the optional debug file.
type Config struct {
	Level  slog.Level
	Output io.Writer

	// Debug receives every record, whatever Level says, while its switch
	// is on.
	Debug *DebugWriter
}

// DefaultConfig logs info and above to stderr.
func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo, Output: os.Stderr}
}

// New builds a Logger from cfg.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	var h slog.Handler = NewConsoleHandler(out, &slog.HandlerOptions{Level: cfg.Level})
	if cfg.Debug != nil {
		h = newFanoutHandler(h, cfg.Debug.Handler())
	}
	return &Logger{Logger: slog.New(h)}
}

var defaultLogger atomic.Pointer[Logger]

// Default returns the process logger, creating a stderr one on first use.
func Default() *Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	defaultLogger.CompareAndSwap(nil, New(DefaultConfig()))
	return defaultLogger.Load()
}

// SetDefault replaces the process logger. Loggers already derived from the
// previous one keep writing through it.
func SetDefault(l *Logger) {
	defaultLogger.Store(l)
}

// WithComponent tags records with component. The console and debug handlers
// print it as the "component:" prefix.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{Logger: l.Logger.With("component", name)}
}

// WithFields binds fields in key order.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	return &Logger{Logger: l.Logger.With(sortedArgs(fields)...)}
}

// Audit records a kernel or option mutation at info level.
func (l *Logger) Audit(action, resource string, details map[string]any) {
	args := append([]any{"audit", true, "action", action, "resource", resource}, sortedArgs(details)...)
	l.Info("AUDIT", args...)
}

func sortedArgs(fields map[string]any) []any {
	args := make([]any, 0, len(fields)*2)
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		args = append(args, k, fields[k])
	}
	return args
}

// ParseLevel maps the log_level setting to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, serr.Errorf(serr.KindArgument, "unknown log level %q", s)
}

// Info logs through the process logger.
func Info(msg string, args ...any) {
	Default().Info(msg, args...)
}

// Error logs through the process logger.
func Error(msg string, args ...any) {
	Default().Error(msg, args...)
}

// WithComponent returns a component logger derived from the process logger.
func WithComponent(name string) *Logger {
	return Default().WithComponent(name)
}

// Package logging provides the component-scoped logger used by tagver.
package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Level is the severity of a log entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the upper-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLevel converts a level name into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// sink is shared by a root logger and all loggers derived from it so that
// lines from different components never interleave.
type sink struct {
	mu  sync.Mutex
	w   io.Writer
	min Level
}

// Logger writes leveled, component-scoped lines to an io.Writer.
// Nil-safe: every method on a nil *Logger is a no-op.
type Logger struct {
	component string
	sink      *sink
}

// New creates a root logger writing entries at or above min to w.
func New(w io.Writer, min Level) *Logger {
	return &Logger{sink: &sink{w: w, min: min}}
}

// Component returns a logger that tags every entry with the given
// component, nested under the receiver's own component if it has one.
func (l *Logger) Component(component string) *Logger {
	if l == nil {
		return nil
	}
	if l.component != "" {
		component = l.component + "/" + component
	}
	return &Logger{component: component, sink: l.sink}
}

// Enabled reports whether entries at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && l.sink != nil && l.sink.w != nil && level >= l.sink.min
}

// Debugf logs a debug message.
func (l *Logger) Debugf(format string, args ...any) {
	l.logf(LevelDebug, format, args...)
}

// Infof logs an informational message.
func (l *Logger) Infof(format string, args ...any) {
	l.logf(LevelInfo, format, args...)
}

// Warnf logs a warning message.
func (l *Logger) Warnf(format string, args ...any) {
	l.logf(LevelWarn, format, args...)
}

// Errorf logs an error message.
func (l *Logger) Errorf(format string, args ...any) {
	l.logf(LevelError, format, args...)
}

func (l *Logger) logf(level Level, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, args...)

	var b strings.Builder
	b.WriteString(level.String())
	if l.component != "" {
		b.WriteString(" [")
		b.WriteString(l.component)
		b.WriteString("]")
	}
	b.WriteString(" ")
	b.WriteString(msg)
	if !strings.HasSuffix(msg, "\n") {
		b.WriteString("\n")
	}

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	_, _ = io.WriteString(l.sink.w, b.String())
}

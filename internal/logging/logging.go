// Package logging writes one JSON object per line, the format used across the
// service for startup, migration, request and domain events.
package logging

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Logger emits JSON log lines with "ts", "level" and "component" filled in.
// It is safe for concurrent use.
type Logger struct {
	mu        *sync.Mutex
	w         io.Writer
	loc       *time.Location
	component string
}

// New returns a Logger writing to w with timestamps rendered in loc.
func New(w io.Writer, loc *time.Location) *Logger {
	if w == nil {
		w = os.Stdout
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{mu: &sync.Mutex{}, w: w, loc: loc}
}

// Nop discards everything.
func Nop() *Logger {
	return New(io.Discard, time.UTC)
}

// With returns a child logger tagging every entry with component.
func (l *Logger) With(component string) *Logger {
	child := *l
	child.component = component
	return &child
}

func (l *Logger) Info(event string, fields map[string]any) {
	l.log("info", event, fields)
}

func (l *Logger) Warn(event string, fields map[string]any) {
	l.log("warn", event, fields)
}

func (l *Logger) Error(event string, fields map[string]any) {
	l.log("error", event, fields)
}

func (l *Logger) log(level, event string, fields map[string]any) {
	entry := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		entry[k] = v
	}
	entry["ts"] = time.Now().In(l.loc).Format(time.RFC3339Nano)
	entry["level"] = level
	entry["event"] = event
	if l.component != "" {
		entry["component"] = l.component
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return
	}
	b = append(b, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.Write(b)
}

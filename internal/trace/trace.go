// Package trace implements a minimal leveled tracer for diagnosing
// precondition failures and Cholesky state transitions, in the spirit of
// the teacher's rlwe.traces.go opt-in diagnostic dumps. There is no
// package-level mutable logger: a *Tracer is always constructed
// explicitly and threaded through config.Config, matching the module-level
// no-globals guidance for the ambient stack.
package trace

import (
	"fmt"
	"io"
	"os"
)

// Level selects how much a Tracer emits.
type Level int

const (
	Off Level = iota
	Error
	Debug
)

// Tracer writes structured, leveled trace lines to an io.Writer.
type Tracer struct {
	Level  Level
	Writer io.Writer
}

// New returns a Tracer at the given level writing to os.Stderr.
func New(level Level) *Tracer {
	return &Tracer{Level: level, Writer: os.Stderr}
}

// Debugf emits a Debug-level line if the tracer's level allows it.
func (t *Tracer) Debugf(format string, args ...any) {
	t.emit(Debug, format, args...)
}

// Errorf emits an Error-level line if the tracer's level allows it.
func (t *Tracer) Errorf(format string, args ...any) {
	t.emit(Error, format, args...)
}

func (t *Tracer) emit(level Level, format string, args ...any) {
	if t == nil || t.Level < level || t.Level == Off {
		return
	}
	w := t.Writer
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "["+levelName(level)+"] "+format+"\n", args...)
}

func levelName(l Level) string {
	switch l {
	case Debug:
		return "debug"
	case Error:
		return "error"
	default:
		return "off"
	}
}

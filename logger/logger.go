// Package logger provides the keyed logger the rest of the service logs
// through: a msg plus alternating key/value pairs.
package logger

import (
	"io"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Logger is the logging interface used across the service.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
	With(keyvals ...interface{}) Logger
}

type kitLogger struct {
	base kitlog.Logger
}

// New creates a logfmt logger writing to w. Debug lines are dropped unless
// debug is set.
func New(w io.Writer, debug bool) Logger {
	base := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	opt := level.AllowInfo()
	if debug {
		opt = level.AllowDebug()
	}
	base = level.NewFilter(base, opt)
	base = kitlog.With(base, "ts", kitlog.DefaultTimestampUTC)
	return &kitLogger{base: base}
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() Logger {
	return &kitLogger{base: kitlog.NewNopLogger()}
}

func (l *kitLogger) Debug(msg string, keyvals ...interface{}) {
	level.Debug(l.base).Log(append([]interface{}{"msg", msg}, keyvals...)...)
}

func (l *kitLogger) Info(msg string, keyvals ...interface{}) {
	level.Info(l.base).Log(append([]interface{}{"msg", msg}, keyvals...)...)
}

func (l *kitLogger) Error(msg string, keyvals ...interface{}) {
	level.Error(l.base).Log(append([]interface{}{"msg", msg}, keyvals...)...)
}

func (l *kitLogger) With(keyvals ...interface{}) Logger {
	return &kitLogger{base: kitlog.With(l.base, keyvals...)}
}

package logger

import (
	"io"
	"log/slog"
	"time"
)

// NewWriterLogger returns a module logger writing text records to w.
// Tests use it to assert on log output.
func NewWriterLogger(w io.Writer, module string, level LogLevel) Logger {
	lvl := parseLogLevel(string(level))
	return &moduleLogger{
		module: module,
		logger: slog.New(newTextHandler(w, lvl, time.UTC)),
		level:  lvl,
	}
}

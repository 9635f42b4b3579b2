package logsvc

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/trezcool/placement/core"
)

// NewConsoleWriter returns a zerolog logger printing human-readable lines
// tagged with component.
func NewConsoleWriter(out io.Writer, component string, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

// NewLogger returns the application logger for component: console output
// always, rollbar reporting outside debug and test mode.
func NewLogger(conf *core.Config, component string) core.Logger {
	std := NewConsoleWriter(os.Stderr, component, conf.Debug)
	logger := NewRollbarLogger(std, conf)
	logger.Enable(!(conf.Debug || conf.TestMode) && conf.RollbarToken != "")
	return logger
}

type nopLogger struct{}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() core.Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// Package logging provides structured logging for chatcore using zerolog.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide logger. Components derive child loggers
// from it via With().
var Logger zerolog.Logger

// Level aliases zerolog's level type.
type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	FatalLevel = zerolog.FatalLevel
)

// Config controls logger output.
type Config struct {
	// Level is the minimum level emitted.
	Level Level
	// Output defaults to os.Stderr.
	Output io.Writer
	// Console switches to human-readable output instead of JSON.
	Console bool
}

// Init replaces the process-wide logger.
func Init(cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	zerolog.TimeFieldFormat = time.RFC3339
	Logger = zerolog.New(out).Level(cfg.Level).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	case "FATAL":
		return FatalLevel
	default:
		return InfoLevel
	}
}

// Debug starts a debug-level message on the process logger.
func Debug() *zerolog.Event { return Logger.Debug() }

// Info starts an info-level message on the process logger.
func Info() *zerolog.Event { return Logger.Info() }

// Warn starts a warn-level message on the process logger.
func Warn() *zerolog.Event { return Logger.Warn() }

// Error starts an error-level message on the process logger.
func Error() *zerolog.Event { return Logger.Error() }

// With derives a child logger context.
func With() zerolog.Context { return Logger.With() }

func init() {
	Init(Config{Level: InfoLevel})
}

package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	corelogger "github.com/kilianp07/trackauction/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.Nop

// Options configures the process-wide log output.
type Options struct {
	// Level is a zerolog level name; empty means info.
	Level string
	// File additionally writes JSON logs to a rotated file when set.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

var (
	mu   sync.RWMutex
	base = newBase(os.Stderr, consoleMode(), zerolog.InfoLevel)
)

func consoleMode() bool { return strings.ToLower(os.Getenv("APP_ENV")) == "dev" }

func newBase(w io.Writer, console bool, lvl zerolog.Level) zerolog.Logger {
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Configure replaces the output used by loggers created afterwards. Logs go
// to stderr so that command output on stdout stays machine readable.
func Configure(opts Options) error {
	lvl := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return err
		}
		lvl = l
	}
	var w io.Writer = os.Stderr
	if consoleMode() {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	if opts.File != "" {
		w = zerolog.MultiLevelWriter(w, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		})
	}
	mu.Lock()
	base = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	mu.Unlock()
	return nil
}

// New returns a Logger for the given component. The console format is
// selected via the APP_ENV variable.
func New(component string) Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &ZerologLogger{log: base.With().Str("component", component).Logger()}
}

// NewWithWriter returns a JSON Logger writing to w at the given level.
func NewWithWriter(component string, w io.Writer, lvl zerolog.Level) Logger {
	return &ZerologLogger{log: newBase(w, false, lvl).With().Str("component", component).Logger()}
}

// With attaches fields to l when it supports them.
func With(l Logger, fields map[string]any) Logger { return corelogger.With(l, fields) }

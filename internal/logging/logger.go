// Package logging provides the process-wide structured logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	mu sync.RWMutex

	// Logger is the global logger instance
	Logger = log.NewWithOptions(os.Stderr, log.Options{Level: log.InfoLevel})

	// logFile is the file handle for the log file, if any
	logFile *os.File
)

// Options configures Init.
type Options struct {
	// Level is one of debug, info, warn, error.
	Level string
	// File, when set, receives log output instead of stderr.
	File string
}

// Init replaces the global logger according to opts.
func Init(opts Options) error {
	level := log.InfoLevel
	if opts.Level != "" {
		l, err := log.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("parsing log level: %w", err)
		}
		level = l
	}

	var w io.Writer = os.Stderr
	var f *os.File
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		var err error
		f, err = os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
	}

	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: f != nil,
		TimeFormat:      time.RFC3339,
		Level:           level,
	})

	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
	}
	Logger = l
	logFile = f
	return nil
}

// SetOutput redirects the global logger. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	Logger = log.NewWithOptions(w, log.Options{Level: Logger.GetLevel()})
}

// Close closes the log file
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func current() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return Logger
}

// Debug logs a debug message
func Debug(msg string, keyvals ...interface{}) { current().Debug(msg, keyvals...) }

// Info logs an info message
func Info(msg string, keyvals ...interface{}) { current().Info(msg, keyvals...) }

// Warn logs a warning message
func Warn(msg string, keyvals ...interface{}) { current().Warn(msg, keyvals...) }

// Error logs an error message
func Error(msg string, keyvals ...interface{}) { current().Error(msg, keyvals...) }

// Fatal logs an error message and exits
func Fatal(msg string, keyvals ...interface{}) { current().Fatal(msg, keyvals...) }

// WithPrefix returns a logger with a prefix
func WithPrefix(prefix string) *log.Logger { return current().WithPrefix(prefix) }

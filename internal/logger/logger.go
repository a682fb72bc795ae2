// Package logger is the process-wide log used by ragbox. Debug, Info and
// Warn lines appear only with --verbose; Error lines always do.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type level string

const (
	levelDebug level = "DEBUG"
	levelInfo  level = "INFO"
	levelWarn  level = "WARN"
	levelError level = "ERROR"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose turns verbose output on or off.
func SetVerbose(v bool) {
	mu.Lock()
	verbose = v
	mu.Unlock()
}

// IsVerbose reports whether verbose output is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects log lines, os.Stderr by default.
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
}

// Debug traces ingestion, retrieval and generation steps.
func Debug(format string, args ...any) { logf(levelDebug, format, args...) }

// Info reports progress.
func Info(format string, args ...any) { logf(levelInfo, format, args...) }

// Warn reports a degraded but recoverable condition.
func Warn(format string, args ...any) { logf(levelWarn, format, args...) }

// Error reports a failure. It is printed even without --verbose.
func Error(format string, args ...any) { logf(levelError, format, args...) }

func logf(lvl level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose && lvl != levelError {
		return
	}
	fmt.Fprintf(output, "[%s] %s\n", lvl, fmt.Sprintf(format, args...))
}

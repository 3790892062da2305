// Package logging provides the application-wide zap logger.
//
// A TUI owns the terminal, so logs go to a file instead of stderr. The
// logger starts as a no-op; Init points it at a file and it stays live
// until Sync at exit. TAGVIEW_DEBUG=1 forces debug level regardless of
// configuration:
//
//	TAGVIEW_DEBUG=1 tagview
package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.RWMutex
	global  = zap.NewNop()
	logFile *os.File
)

// Init opens the log file (creating parent directories) and installs a
// JSON logger writing to it at the given level ("debug", "info", "warn",
// "error"; empty means info). Calling it again replaces the previous
// destination.
func Init(path, level string) error {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("parse log level %q: %w", level, err)
		}
		lvl = parsed
	}
	if os.Getenv("TAGVIEW_DEBUG") != "" {
		lvl = zapcore.DebugLevel
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(f),
		zap.NewAtomicLevelAt(lvl),
	)

	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = f
	global = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	return nil
}

// Get returns the current logger. Safe before Init; callers just get a
// no-op until the file is attached.
func Get() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Named returns a child of the current logger with the given name.
func Named(name string) *zap.Logger {
	return Get().Named(name)
}

// Debugf logs a printf-style message at debug level.
func Debugf(format string, args ...any) {
	Get().Sugar().Debugf(format, args...)
}

// Warnf logs a printf-style message at warn level.
func Warnf(format string, args ...any) {
	Get().Sugar().Warnf(format, args...)
}

// Errorf logs a printf-style message at error level.
func Errorf(format string, args ...any) {
	Get().Sugar().Errorf(format, args...)
}

// Sync flushes buffered entries. Call before exit, typically deferred
// from main. Sync errors on closed pipes and TTYs are expected and
// swallowed.
func Sync() {
	mu.RLock()
	l := global
	mu.RUnlock()
	if err := l.Sync(); err != nil && !ignorableSyncError(err) {
		fmt.Fprintf(os.Stderr, "warning: failed to sync logger: %v\n", err)
	}
}

func ignorableSyncError(err error) bool {
	if errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) ||
		errors.Is(err, syscall.EIO) || errors.Is(err, syscall.EBADF) {
		return true
	}
	return strings.Contains(err.Error(), "The handle is invalid")
}

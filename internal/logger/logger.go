package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level represents log levels
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Config holds logger configuration
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
}

var (
	currentLevel  atomic.Int32
	currentFormat atomic.Value // stores "text" or "json"

	mu        sync.RWMutex
	slogger   *slog.Logger
	bootstrap io.Writer = os.Stderr
	useColor  bool      = true

	// registry state; once initialized, records go to the registered sinks
	// only and the bootstrap writer is no longer used.
	registryInit bool
	sinks        []Sink
)

func init() {
	currentLevel.Store(int32(LevelInfo))
	currentFormat.Store("text")
	reconfigure()
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// toSlogLevel converts internal level to slog.Level
func toSlogLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// reconfigure rebuilds the slog handler chain from the current level,
// format, colour setting and sink list.
func reconfigure() {
	mu.Lock()
	defer mu.Unlock()

	levelVar := new(slog.LevelVar)
	levelVar.Set(toSlogLevel(Level(currentLevel.Load())))
	opts := &slog.HandlerOptions{Level: levelVar}
	format, _ := currentFormat.Load().(string)

	if !registryInit {
		slogger = slog.New(newWriterHandler(bootstrap, opts, format, useColor))
		return
	}

	handlers := make([]slog.Handler, 0, len(sinks))
	for _, s := range sinks {
		handlers = append(handlers, s.Handler(opts, format, useColor))
	}
	slogger = slog.New(newFanoutHandler(handlers))
}

// newWriterHandler returns the text or JSON handler used by writer-backed sinks.
// Colour is only applied when the writer is an interactive terminal.
func newWriterHandler(w io.Writer, opts *slog.HandlerOptions, format string, color bool) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return NewColorTextHandler(w, opts, color && isTerminalWriter(w))
}

// Init applies level and format settings. It does not touch the sink registry.
func Init(cfg Config) error {
	if cfg.Level != "" {
		if !isValidLevel(cfg.Level) {
			return fmt.Errorf("invalid log level %q", cfg.Level)
		}
		SetLevel(cfg.Level)
	}
	if cfg.Format != "" {
		f := strings.ToLower(cfg.Format)
		if f != "text" && f != "json" {
			return fmt.Errorf("invalid log format %q", cfg.Format)
		}
		SetFormat(f)
	}
	return nil
}

// InitRegistry switches the logger from the bootstrap writer to the sink
// registry. It is process-wide and idempotent: calling it again keeps the
// sinks already registered.
func InitRegistry() {
	mu.Lock()
	already := registryInit
	registryInit = true
	mu.Unlock()

	if !already {
		reconfigure()
	}
}

// Add appends a sink to the registry. Sinks are never removed for the
// lifetime of the process, only closed by Close.
func Add(s Sink) {
	if s == nil {
		return
	}
	mu.Lock()
	sinks = append(sinks, s)
	mu.Unlock()
	reconfigure()
}

// SetColors enables or disables ANSI colours on terminal-backed sinks.
func SetColors(enabled bool) {
	mu.Lock()
	useColor = enabled
	mu.Unlock()
	reconfigure()
}

// Sinks returns the number of registered sinks.
func Sinks() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(sinks)
}

// IsRegistryInitialized reports whether InitRegistry has been called.
func IsRegistryInitialized() bool {
	mu.RLock()
	defer mu.RUnlock()
	return registryInit
}

// Close flushes and closes every registered sink.
// The sinks stay registered; writes after Close are best effort.
func Close() error {
	mu.RLock()
	current := append([]Sink(nil), sinks...)
	mu.RUnlock()

	var errs []error
	for _, s := range current {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s sink: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Reset closes all sinks and returns the logger to its bootstrap state
// writing to stderr. Used by tests and by callers that run more than one
// server in the same process.
func Reset() {
	_ = Close()

	mu.Lock()
	sinks = nil
	registryInit = false
	bootstrap = os.Stderr
	useColor = true
	mu.Unlock()

	currentLevel.Store(int32(LevelInfo))
	currentFormat.Store("text")
	reconfigure()
}

// InitWithWriter points the bootstrap output at a custom io.Writer.
// This is primarily useful for testing.
func InitWithWriter(w io.Writer, level, format string, enableColor bool) {
	mu.Lock()
	bootstrap = w
	useColor = enableColor
	mu.Unlock()

	if level != "" {
		SetLevel(level)
	}
	if format != "" {
		SetFormat(format)
	}
	reconfigure()
}

func isValidLevel(level string) bool {
	switch strings.ToUpper(level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
		return true
	}
	return false
}

// SetLevel sets the minimum log level
func SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		currentLevel.Store(int32(LevelDebug))
	case "INFO":
		currentLevel.Store(int32(LevelInfo))
	case "WARN":
		currentLevel.Store(int32(LevelWarn))
	case "ERROR":
		currentLevel.Store(int32(LevelError))
	default:
		return // ignore invalid levels
	}
	reconfigure()
}

// SetFormat sets the output format (text or json)
func SetFormat(format string) {
	format = strings.ToLower(format)
	if format != "text" && format != "json" {
		return // ignore invalid formats
	}
	currentFormat.Store(format)
	reconfigure()
}

// getLogger returns the current slog logger
func getLogger() *slog.Logger {
	mu.RLock()
	l := slogger
	mu.RUnlock()
	return l
}

// ============================================================================
// Structured Logging API
// ============================================================================

// Debug logs at debug level with structured fields
// Usage: Debug("message", "key1", value1, "key2", value2)
func Debug(msg string, args ...any) {
	if LevelDebug < Level(currentLevel.Load()) {
		return
	}
	getLogger().Debug(msg, args...)
}

// Info logs at info level with structured fields
func Info(msg string, args ...any) {
	if LevelInfo < Level(currentLevel.Load()) {
		return
	}
	getLogger().Info(msg, args...)
}

// Warn logs at warn level with structured fields
func Warn(msg string, args ...any) {
	if LevelWarn < Level(currentLevel.Load()) {
		return
	}
	getLogger().Warn(msg, args...)
}

// Error logs at error level with structured fields
func Error(msg string, args ...any) {
	getLogger().Error(msg, args...)
}

// With returns a new slog.Logger with additional attributes
func With(args ...any) *slog.Logger {
	return getLogger().With(args...)
}

// Duration returns duration since start time in milliseconds
func Duration(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

// Debugf logs at debug level with printf-style formatting
func Debugf(format string, v ...any) {
	if LevelDebug < Level(currentLevel.Load()) {
		return
	}
	getLogger().Debug(fmt.Sprintf(format, v...))
}

// Infof logs at info level with printf-style formatting
func Infof(format string, v ...any) {
	if LevelInfo < Level(currentLevel.Load()) {
		return
	}
	getLogger().Info(fmt.Sprintf(format, v...))
}

// Warnf logs at warn level with printf-style formatting
func Warnf(format string, v ...any) {
	if LevelWarn < Level(currentLevel.Load()) {
		return
	}
	getLogger().Warn(fmt.Sprintf(format, v...))
}

// Errorf logs at error level with printf-style formatting
func Errorf(format string, v ...any) {
	getLogger().Error(fmt.Sprintf(format, v...))
}

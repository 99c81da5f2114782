package logger

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ErrSyslogUnsupported is returned by NewSyslogSink on platforms without syslog.
var ErrSyslogUnsupported = errors.New("syslog is not supported on this platform")

// Sink is a log destination registered with Add.
//
// A sink builds its own slog.Handler each time the logger is reconfigured
// (level, format or colour change), so implementations must be cheap to
// rebuild and safe for concurrent use.
type Sink interface {
	// Name identifies the sink in error messages ("console", "file", "syslog").
	Name() string

	// Handler returns a handler writing to this sink.
	Handler(opts *slog.HandlerOptions, format string, colors bool) slog.Handler

	// Close flushes and releases the underlying destination.
	Close() error
}

// ConsoleSink writes human readable records to a terminal or any writer.
type ConsoleSink struct {
	w io.Writer
}

// NewConsoleSink creates a console sink. A nil writer means stdout.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleSink{w: w}
}

func (s *ConsoleSink) Name() string { return "console" }

func (s *ConsoleSink) Handler(opts *slog.HandlerOptions, format string, colors bool) slog.Handler {
	return newWriterHandler(s.w, opts, format, colors)
}

// Close is a no-op: the console belongs to the process.
func (s *ConsoleSink) Close() error { return nil }

// RotationConfig controls file sink rotation.
type RotationConfig struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// FileSink appends records to a size-rotated log file.
type FileSink struct {
	path string
	out  *lumberjack.Logger
	once sync.Once
}

// NewFileSink opens (creating if needed) the log file at path.
//
// The file is opened eagerly so a bad path is reported at startup rather
// than on the first write.
func NewFileSink(path string, rotation RotationConfig) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	_ = f.Close()

	return &FileSink{
		path: path,
		out: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    rotation.MaxSizeMB,
			MaxBackups: rotation.MaxBackups,
			MaxAge:     rotation.MaxAgeDays,
			Compress:   rotation.Compress,
		},
	}, nil
}

func (s *FileSink) Name() string { return "file" }

// Path returns the log file path.
func (s *FileSink) Path() string { return s.path }

// Handler never colours: escape codes have no place in files.
func (s *FileSink) Handler(opts *slog.HandlerOptions, format string, _ bool) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(s.out, opts)
	}
	return NewColorTextHandler(s.out, opts, false)
}

func (s *FileSink) Close() error {
	var err error
	s.once.Do(func() { err = s.out.Close() })
	return err
}

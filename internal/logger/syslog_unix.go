//go:build !windows && !plan9

package logger

import (
	"context"
	"log/syslog"
	"log/slog"
	"sync"
)

// SyslogSink forwards records to the local syslog daemon.
type SyslogSink struct {
	w    *syslog.Writer
	once sync.Once
}

// NewSyslogSink connects to the local syslog daemon with the daemon facility.
func NewSyslogSink(tag string) (*SyslogSink, error) {
	w, err := syslog.New(syslog.LOG_INFO|syslog.LOG_DAEMON, tag)
	if err != nil {
		return nil, err
	}
	return &SyslogSink{w: w}, nil
}

func (s *SyslogSink) Name() string { return "syslog" }

// Handler ignores format and colour: syslog adds its own timestamp and
// severity, so only the message and attributes are sent.
func (s *SyslogSink) Handler(opts *slog.HandlerOptions, _ string, _ bool) slog.Handler {
	return &syslogHandler{w: s.w, opts: opts}
}

func (s *SyslogSink) Close() error {
	var err error
	s.once.Do(func() { err = s.w.Close() })
	return err
}

type syslogHandler struct {
	w      *syslog.Writer
	opts   *slog.HandlerOptions
	attrs  []slog.Attr
	prefix string
}

func (h *syslogHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts != nil && h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *syslogHandler) Handle(_ context.Context, r slog.Record) error {
	line := string(appendAttrs([]byte(r.Message), h.attrs, h.prefix, r, false))

	switch {
	case r.Level >= slog.LevelError:
		return h.w.Err(line)
	case r.Level >= slog.LevelWarn:
		return h.w.Warning(line)
	case r.Level >= slog.LevelInfo:
		return h.w.Info(line)
	default:
		return h.w.Debug(line)
	}
}

func (h *syslogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + "." + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return &next
}

func (h *syslogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	if h.prefix != "" {
		next.prefix = h.prefix + "." + name
	} else {
		next.prefix = name
	}
	return &next
}

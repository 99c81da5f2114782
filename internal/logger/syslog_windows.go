//go:build windows

package logger

import "log/slog"

// SyslogSink is unavailable on Windows; NewSyslogSink always fails.
type SyslogSink struct{}

// NewSyslogSink returns ErrSyslogUnsupported.
func NewSyslogSink(string) (*SyslogSink, error) {
	return nil, ErrSyslogUnsupported
}

func (s *SyslogSink) Name() string { return "syslog" }

func (s *SyslogSink) Handler(opts *slog.HandlerOptions, format string, colors bool) slog.Handler {
	return slog.DiscardHandler
}

func (s *SyslogSink) Close() error { return nil }

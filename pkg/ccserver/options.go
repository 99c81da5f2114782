package ccserver

import (
	"context"
	"io"
	"os"

	"github.com/marmos91/ccserver/internal/console"
	"github.com/marmos91/ccserver/internal/daemon"
	"github.com/marmos91/ccserver/internal/eventloop"
	"github.com/marmos91/ccserver/internal/httpd"
	"github.com/marmos91/ccserver/internal/logger"
	"github.com/marmos91/ccserver/internal/signals"
	"github.com/marmos91/ccserver/internal/tlsgen"
	"github.com/marmos91/ccserver/pkg/config"
)

// Service is the listening service driven by the server.
//
// Start blocks until the service stops and returns 0 on a requested stop,
// a positive errno when binding failed, or a negative errno when the
// configuration could not be used. Stop must be non-blocking and safe to
// call any number of times, before or after Start.
type Service interface {
	Start() int
	Stop()
}

// Provisioner makes sure a certificate/key pair exists.
type Provisioner interface {
	Generate(identity string) error
}

// SignalBridge is the installed signal subscription.
type SignalBridge interface {
	Close()
}

// Console is the interactive keystroke reader.
type Console interface {
	Close() error
}

// Options holds the collaborators of a Server. Zero fields are replaced by
// the production implementations; tests substitute fakes.
type Options struct {
	// NewProvisioner returns the credential generator for the TLS pair.
	NewProvisioner func(certFile, keyFile string) Provisioner

	// NewService builds the listening service bound to the event loop.
	NewService func(cfg *config.Config, loop *eventloop.Loop) Service

	// InstallSignals subscribes sink to the termination signals.
	InstallSignals func(sink signals.Sink) SignalBridge

	// NewConsole attaches the keystroke reader. Only used in the foreground.
	NewConsole func(sink console.Sink) (Console, error)

	// NewSyslogSink opens the system log destination.
	NewSyslogSink func(tag string) (logger.Sink, error)

	// Daemonizer detaches the process when running in the background.
	Daemonizer daemon.Daemonizer

	// Stdout receives console logs and the startup summary.
	Stdout io.Writer

	// Context parents the startup trace span.
	Context context.Context
}

func (o Options) withDefaults() Options {
	if o.NewProvisioner == nil {
		o.NewProvisioner = func(certFile, keyFile string) Provisioner {
			return tlsgen.New(certFile, keyFile)
		}
	}
	if o.NewService == nil {
		o.NewService = func(cfg *config.Config, loop *eventloop.Loop) Service {
			return httpd.New(cfg, loop)
		}
	}
	if o.InstallSignals == nil {
		o.InstallSignals = func(sink signals.Sink) SignalBridge {
			return signals.Install(sink)
		}
	}
	if o.NewConsole == nil {
		o.NewConsole = func(sink console.Sink) (Console, error) {
			return console.New(os.Stdin, sink)
		}
	}
	if o.NewSyslogSink == nil {
		o.NewSyslogSink = func(tag string) (logger.Sink, error) {
			return logger.NewSyslogSink(tag)
		}
	}
	if o.Daemonizer == nil {
		o.Daemonizer = daemon.New(nil)
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Context == nil {
		o.Context = context.Background()
	}
	return o
}

// Package ccserver runs the command & control server process: it validates
// the configuration, sets up logging, credentials, signal handling and the
// optional console, detaches when asked to, and drives the listening
// service until it is stopped.
package ccserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/marmos91/ccserver/internal/console"
	"github.com/marmos91/ccserver/internal/eventloop"
	"github.com/marmos91/ccserver/internal/logger"
	"github.com/marmos91/ccserver/internal/pidfile"
	"github.com/marmos91/ccserver/internal/signals"
	"github.com/marmos91/ccserver/internal/telemetry"
	"github.com/marmos91/ccserver/pkg/config"
	"go.opentelemetry.io/otel/trace"
)

// AppName is the product name used in the TLS identity and the summary.
const AppName = "CCServer"

// Process exit codes returned by Start besides the listener's own codes.
const (
	ExitOK            = 0
	ExitInvalidConfig = int(syscall.EINVAL)
)

// syslogTag identifies the process in the system log.
const syslogTag = "ccserver"

var errNoConfig = errors.New("no configuration")

// State is the lifecycle position of a Server. It only moves forward.
type State int32

const (
	StateConstructed State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Server owns the configuration, the signal bridge, the console, the
// listening service and the event loop for one process lifetime.
type Server struct {
	cfg  *config.Config
	opts Options

	state    atomic.Int32
	stopGate atomic.Bool

	mu      sync.Mutex
	loop    *eventloop.Loop
	service Service
	bridge  SignalBridge
	console Console
	pidFile string
	out     io.Writer
	closed  bool

	// serviceStopped is set by whichever of Stop and Start hands the stop
	// request to the service.
	serviceStopped bool
}

// New creates a server. It has no side effects: nothing is logged, opened
// or started until Start.
func New(cfg *config.Config, opts Options) *Server {
	return &Server{cfg: cfg, opts: opts.withDefaults()}
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// advance moves the state forward to next; it never moves backwards.
func (s *Server) advance(next State) {
	for {
		cur := s.state.Load()
		if State(cur) >= next {
			return
		}
		if s.state.CompareAndSwap(cur, int32(next)) {
			return
		}
	}
}

// Start runs the server and blocks until it stops. It returns ExitOK after
// a requested stop, ExitInvalidConfig when the configuration, log file or
// credentials are unusable, and the listening service's code otherwise.
//
// Nothing is created when the configuration is invalid: no log sink, no
// credentials, no signal subscription, no loop and no socket.
func (s *Server) Start() int {
	if !s.state.CompareAndSwap(int32(StateConstructed), int32(StateRunning)) {
		logger.Warn("Server already started", "state", s.State().String())
		return -int(syscall.EALREADY)
	}

	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	if cfg == nil || !cfg.IsValid() {
		err := errNoConfig
		if cfg != nil {
			err = config.Validate(cfg)
		}
		logger.Error("Invalid config provided", "error", err)
		s.advance(StateStopped)
		return ExitInvalidConfig
	}

	code := s.run(cfg)
	s.advance(StateStopped)
	return code
}

// startupSpan ends the startup trace span exactly once, from whichever of
// the listener becoming ready or startup failing happens first.
type startupSpan struct {
	ctx  context.Context
	span trace.Span
	once sync.Once
}

func (st *startupSpan) end(code int, err error, event string) {
	st.once.Do(func() {
		if event != "" {
			telemetry.AddEvent(st.ctx, event)
		}
		telemetry.RecordError(st.ctx, err)
		telemetry.SetAttributes(st.ctx, telemetry.ExitCode(code))
		st.span.End()
	})
}

func (st *startupSpan) fail(code int, err error) { st.end(code, err, "") }

func (s *Server) run(cfg *config.Config) int {
	ctx, span := telemetry.StartServerSpan(s.opts.Context, cfg.BindIP(), cfg.Port(), cfg.UseTLS(), cfg.Background())
	st := &startupSpan{ctx: ctx, span: span}
	defer st.end(ExitOK, nil, "")

	if err := s.initLogging(cfg); err != nil {
		logger.Error("Failed to open log file", "path", cfg.LogFile(), "error", err)
		st.fail(ExitInvalidConfig, err)
		return ExitInvalidConfig
	}
	if s.isClosed() {
		// Close ran while the sinks were being registered.
		_ = logger.Close()
		return ExitOK
	}

	if cfg.UseTLS() {
		gen := s.opts.NewProvisioner(cfg.CertFile(), cfg.KeyFile())
		if err := gen.Generate(AppName + " Server"); err != nil {
			logger.Error("Failed to provision TLS credentials",
				"cert_file", cfg.CertFile(),
				"key_file", cfg.KeyFile(),
				"error", err,
			)
			st.fail(ExitInvalidConfig, err)
			return ExitInvalidConfig
		}
		telemetry.AddEvent(ctx, telemetry.EventCredentials)
	}
	if s.isClosed() {
		return ExitOK
	}

	bridge := s.opts.InstallSignals(s)
	if !s.hold(func() { s.bridge = bridge }) {
		bridge.Close()
		return ExitOK
	}

	if cfg.Background() {
		if err := s.opts.Daemonizer.Detach(); err != nil {
			st.fail(1, err)
			return 1
		}
		telemetry.AddEvent(ctx, telemetry.EventDetached)
	}

	if err := s.writePIDFile(cfg); err != nil {
		logger.Warn("Cannot write PID file", "path", cfg.PIDFile, "error", err)
	}
	if s.isClosed() {
		return ExitOK
	}
	s.printSummary(cfg)

	loop := eventloop.New()
	eventloop.StartThread(loop)
	service := s.opts.NewService(cfg, loop)

	var stopNow, stored bool
	s.mu.Lock()
	if !s.closed {
		stored = true
		s.loop = loop
		s.service = service
		// A stop that won the gate before the service existed had nothing
		// to stop; the hand-off makes this path the one that stops it.
		if s.stopGate.Load() && !s.serviceStopped {
			s.serviceStopped = true
			stopNow = true
		}
	}
	s.mu.Unlock()

	if !stored {
		service.Stop()
		loop.Stop()
		return ExitOK
	}
	if stopNow {
		service.Stop()
		loop.Stop()
	}

	done := make(chan struct{})
	ready := readyOf(service)
	go func() {
		select {
		case <-ready:
			st.end(ExitOK, nil, telemetry.EventListening)
		case <-done:
		}
	}()

	code := service.Start()
	close(done)

	if code != 0 {
		loop.Stop()
		st.fail(code, fmt.Errorf("listener exited with code %d", code))
	} else if chanClosed(ready) {
		st.end(ExitOK, nil, telemetry.EventListening)
	}
	reportExit(cfg, code)
	return code
}

// readyOf returns the channel closed once the service accepts connections,
// or nil when the service does not report readiness.
func readyOf(service Service) <-chan struct{} {
	if r, ok := service.(interface{ Ready() <-chan struct{} }); ok {
		return r.Ready()
	}
	return nil
}

func chanClosed(ch <-chan struct{}) bool {
	if ch == nil {
		return false
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// reportExit logs the outcome of the listening service.
func reportExit(cfg *config.Config, code int) {
	switch {
	case code == 0:
		logger.Info("Server stopped. Exit.")
	case code > 0:
		msg := "Failed to bind server"
		if cfg.UseTLS() {
			msg = "Failed to bind TLS server"
		}
		logger.Error(msg,
			"tls", cfg.UseTLS(),
			"bind_ip", cfg.BindIP(),
			"port", cfg.Port(),
			"error", syscall.Errno(code).Error(),
		)
	default:
		if cfg.UseTLS() {
			logger.Error("Invalid TLS config. Check bindIp, port and the certificate/key file.")
		} else {
			logger.Error("Invalid config. Check bindIp and port.")
		}
	}
}

// hold runs store under the lock unless Close has already run. When it
// returns false the caller releases what it acquired itself.
func (s *Server) hold(store func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	store()
	return true
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// initLogging registers the log sinks. The console sink and the console
// reader exist only in the foreground; file and syslog sinks are
// independent of each other.
func (s *Server) initLogging(cfg *config.Config) error {
	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}); err != nil {
		return err
	}

	var file *logger.FileSink
	if cfg.LogFile() != "" {
		var err error
		file, err = logger.NewFileSink(cfg.LogFile(), logger.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
		})
		if err != nil {
			return err
		}
	}

	var out io.Writer = s.opts.Stdout
	if !cfg.Background() {
		c, err := s.opts.NewConsole(s)
		if err != nil {
			// Keystroke commands are a convenience; signals still stop the server.
			defer logger.Warn("Console commands unavailable", "error", err)
		} else if !s.hold(func() { s.console = c }) {
			if err := c.Close(); err != nil {
				defer logger.Warn("Cannot restore terminal", "error", err)
			}
		} else if raw, ok := c.(interface{ IsRaw() bool }); ok && raw.IsRaw() {
			out = console.Output(out)
		}
	}

	s.out = out
	logger.SetColors(cfg.Colors())
	logger.InitRegistry()

	if !cfg.Background() {
		logger.Add(logger.NewConsoleSink(out))
	}
	if file != nil {
		logger.Add(file)
	}
	if cfg.Syslog() {
		sink, err := s.opts.NewSyslogSink(syslogTag)
		if err != nil {
			logger.Warn("Syslog unavailable", "error", err)
		} else {
			logger.Add(sink)
		}
	}
	return nil
}

func (s *Server) writePIDFile(cfg *config.Config) error {
	if cfg.PIDFile == "" {
		return nil
	}
	if err := pidfile.Write(cfg.PIDFile); err != nil {
		return err
	}
	if !s.hold(func() { s.pidFile = cfg.PIDFile }) {
		return pidfile.Remove(cfg.PIDFile)
	}
	return nil
}

// Stop requests shutdown. Only the first call does anything: it stops the
// listening service and then the event loop. It is safe to call from any
// goroutine before, during or after Start.
func (s *Server) Stop() {
	s.stop("")
}

// stop is Stop with the name of the signal that requested it, if any.
func (s *Server) stop(signal string) {
	if !s.stopGate.CompareAndSwap(false, true) {
		return
	}
	prev := s.State()
	s.state.CompareAndSwap(int32(StateRunning), int32(StateStopping))

	ctx, span := telemetry.StartStopSpan(s.opts.Context, prev.String(), signal)
	defer span.End()
	telemetry.AddEvent(ctx, telemetry.EventStopping)

	s.mu.Lock()
	var service Service
	var loop *eventloop.Loop
	if s.service != nil && !s.serviceStopped {
		s.serviceStopped = true
		service, loop = s.service, s.loop
	}
	s.mu.Unlock()

	if service != nil {
		service.Stop()
	}
	if loop != nil {
		loop.Stop()
	}
}

// Close releases everything Start acquired, in order: signal bridge,
// console, service handle, configuration. It then removes the PID file and
// closes the log sinks. Close stops the server first and is idempotent.
// It may be called while Start is still setting up; whatever Start
// acquires afterwards is released by Start itself.
func (s *Server) Close() {
	s.Stop()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	bridge, cons, pid := s.bridge, s.console, s.pidFile
	s.bridge, s.console = nil, nil
	s.mu.Unlock()

	if bridge != nil {
		bridge.Close()
	}
	if cons != nil {
		if err := cons.Close(); err != nil {
			logger.Warn("Cannot restore terminal", "error", err)
		}
	}

	s.mu.Lock()
	s.service = nil
	s.cfg = nil
	s.mu.Unlock()

	if pid != "" {
		if err := pidfile.Remove(pid); err != nil {
			logger.Warn("Cannot remove PID file", "path", pid, "error", err)
		}
	}
	if err := logger.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close log sinks: %v\n", err)
	}
	s.advance(StateStopped)
}

// OnSignal handles a delivered process signal. Termination signals stop
// the server; everything else is ignored.
func (s *Server) OnSignal(sig os.Signal) {
	if !signals.IsTermination(sig) {
		return
	}
	name := signals.Name(sig)
	logger.Warn(name + " received, exiting")
	s.stop(name)
}

// OnConsoleCommand handles one keystroke from the console.
func (s *Server) OnConsoleCommand(key byte) {
	switch key {
	case console.KeyQuit, console.KeyQuitUpper:
		s.Stop()
	case console.KeyCtrlC:
		logger.Warn("Ctrl+C received, exiting")
		s.Stop()
	}
}

var (
	_ signals.Sink = (*Server)(nil)
	_ console.Sink = (*Server)(nil)
)

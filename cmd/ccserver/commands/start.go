package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/marmos91/ccserver/internal/logger"
	"github.com/marmos91/ccserver/internal/pidfile"
	"github.com/marmos91/ccserver/internal/telemetry"
	"github.com/marmos91/ccserver/pkg/ccserver"
	"github.com/marmos91/ccserver/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	startBackground bool
	startBindIP     string
	startPort       int
	startTLS        bool
	startCertFile   string
	startKeyFile    string
	startLogFile    string
	startNoColor    bool
	startSyslog     bool
	startPidFile    string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the CCServer server",
	Long: `Start the CCServer server with the specified configuration.

By default the server runs in the foreground with an interactive console:
press q to stop it. Use --background to detach from the terminal.

Flags override values from the configuration file and CCSERVER_*
environment variables.

Examples:
  # Start in foreground
  ccserver start

  # Start in background with TLS (credentials are generated if missing)
  ccserver start --background --tls --cert cert.pem --key key.pem

  # Start with environment variable overrides
  CCSERVER_LOGGING_LEVEL=DEBUG ccserver start`,
	RunE: runStart,
}

func init() {
	f := startCmd.Flags()
	f.BoolVarP(&startBackground, "background", "b", false, "Detach from the terminal and run in the background")
	f.StringVar(&startBindIP, "bind", "", "IP address to listen on")
	f.IntVarP(&startPort, "port", "p", 0, "Port to listen on")
	f.BoolVar(&startTLS, "tls", false, "Serve over TLS")
	f.StringVar(&startCertFile, "cert", "", "TLS certificate file (generated if missing)")
	f.StringVar(&startKeyFile, "key", "", "TLS private key file (generated if missing)")
	f.StringVar(&startLogFile, "log-file", "", "Write logs to this file")
	f.BoolVar(&startNoColor, "no-color", false, "Disable colored console output")
	f.BoolVar(&startSyslog, "syslog", false, "Send logs to the system log")
	f.StringVar(&startPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/ccserver/ccserver.pid)")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	applyStartFlags(cmd.Flags(), cfg)

	if cfg.PIDFile == "" {
		cfg.PIDFile = GetDefaultPidFile()
	}
	if cfg.Background() && cfg.LogFile() == "" && !cfg.Syslog() {
		cfg.Logging.File = GetDefaultLogFile()
	}
	config.ApplyDefaults(cfg)

	if pid, running := pidfile.Running(cfg.PIDFile); running && pid != os.Getpid() {
		return fmt.Errorf("CCServer is already running (PID %d)\nUse 'ccserver stop' to stop the running instance", pid)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    telemetry.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    telemetry.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		_ = telemetryShutdown(ctx)
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}

	srv := ccserver.New(cfg, ccserver.Options{Context: ctx})
	code := srv.Start()

	if err := profilingShutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "profiling shutdown error: %v\n", err)
	}
	if err := telemetryShutdown(ctx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}
	srv.Close()

	if code != ccserver.ExitOK {
		os.Exit(code)
	}
	return nil
}

// applyStartFlags copies the flags given on the command line over the
// loaded configuration. Flags left at their defaults do not override.
func applyStartFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("background") {
		cfg.Detach = startBackground
	}
	if flags.Changed("bind") {
		cfg.Server.BindIP = startBindIP
	}
	if flags.Changed("port") {
		cfg.Server.Port = startPort
	}
	if flags.Changed("tls") {
		cfg.Server.TLS.Enabled = startTLS
	}
	if flags.Changed("cert") {
		cfg.Server.TLS.CertFile = startCertFile
	}
	if flags.Changed("key") {
		cfg.Server.TLS.KeyFile = startKeyFile
	}
	if flags.Changed("log-file") {
		cfg.Logging.File = startLogFile
	}
	if flags.Changed("no-color") {
		cfg.Logging.Colors = !startNoColor
	}
	if flags.Changed("syslog") {
		cfg.Logging.Syslog = startSyslog
	}
	if flags.Changed("pid-file") {
		cfg.PIDFile = startPidFile
	}
}

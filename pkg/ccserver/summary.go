package ccserver

import (
	"fmt"
	"os"

	"github.com/marmos91/ccserver/internal/cli/output"
	"github.com/marmos91/ccserver/internal/logger"
	"github.com/marmos91/ccserver/pkg/config"
)

// Summary lists the effective settings printed at startup.
func Summary(cfg *config.Config) output.KeyValues {
	scheme := "http"
	if cfg.UseTLS() {
		scheme = "https"
	}
	mode := "foreground"
	if cfg.Background() {
		mode = "background"
	}

	kv := output.KeyValues{
		{"Mode", mode},
		{"Listen", fmt.Sprintf("%s://%s:%d", scheme, cfg.BindIP(), cfg.Port())},
	}
	if cfg.UseTLS() {
		kv = append(kv,
			[2]string{"Certificate", cfg.CertFile()},
			[2]string{"Key", cfg.KeyFile()},
		)
	}
	kv = append(kv, [2]string{"Log level", cfg.Logging.Level})
	if cfg.LogFile() != "" {
		kv = append(kv, [2]string{"Log file", cfg.LogFile()})
	}
	if cfg.Syslog() {
		kv = append(kv, [2]string{"Syslog", "enabled"})
	}
	if cfg.Metrics.Enabled {
		kv = append(kv, [2]string{"Metrics", cfg.Metrics.Path})
	}
	if cfg.PIDFile != "" {
		kv = append(kv, [2]string{"PID file", cfg.PIDFile})
	}
	if !cfg.Background() {
		kv = append(kv, [2]string{"Commands", "q quit"})
	}
	return kv
}

// printSummary writes the summary table to the console in the foreground.
// A detached process has no console, so the settings go to the log instead.
func (s *Server) printSummary(cfg *config.Config) {
	kv := Summary(cfg)

	if cfg.Background() || s.out == nil {
		args := make([]any, 0, len(kv)*2)
		for _, pair := range kv {
			args = append(args, pair[0], pair[1])
		}
		logger.Info("Server configuration", args...)
		return
	}

	fmt.Fprintf(s.out, "%s (pid %d)\n", AppName, os.Getpid())
	if err := output.SimpleTable(s.out, kv); err != nil {
		logger.Debug("Cannot print summary", "error", err)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyDefaults_Server(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.BindIP != "0.0.0.0" {
		t.Errorf("Expected default bind ip 0.0.0.0, got %q", cfg.Server.BindIP)
	}
	if cfg.Server.Port != 3344 {
		t.Errorf("Expected default port 3344, got %d", cfg.Server.Port)
	}
	if cfg.Server.IdleTimeout != 60*time.Second {
		t.Errorf("Expected default idle timeout 60s, got %v", cfg.Server.IdleTimeout)
	}
}

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.File != "" {
		t.Errorf("Expected no default log file, got %q", cfg.Logging.File)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{BindIP: "127.0.0.1", Port: 8443},
		Logging: LoggingConfig{
			Level:  "debug",
			Format: "json",
		},
		ShutdownTimeout: 5 * time.Second,
	}
	ApplyDefaults(cfg)

	if cfg.Server.BindIP != "127.0.0.1" || cfg.Server.Port != 8443 {
		t.Errorf("Explicit server values overwritten: %+v", cfg.Server)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level normalized to DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected json format preserved, got %q", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected shutdown timeout preserved, got %v", cfg.ShutdownTimeout)
	}
}

func TestApplyDefaults_AbsolutePaths(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}

	cfg := &Config{
		PIDFile: "run/ccserver.pid",
		Logging: LoggingConfig{File: "logs/ccserver.log"},
		Server: ServerConfig{TLS: TLSConfig{
			CertFile: "certs/server.crt",
			KeyFile:  "/etc/ccserver/server.key",
		}},
	}
	ApplyDefaults(cfg)

	if cfg.PIDFile != filepath.Join(wd, "run", "ccserver.pid") {
		t.Errorf("PID file not absolutized: %q", cfg.PIDFile)
	}
	if cfg.LogFile() != filepath.Join(wd, "logs", "ccserver.log") {
		t.Errorf("Log file not absolutized: %q", cfg.LogFile())
	}
	if cfg.CertFile() != filepath.Join(wd, "certs", "server.crt") {
		t.Errorf("Cert file not absolutized: %q", cfg.CertFile())
	}
	if cfg.KeyFile() != "/etc/ccserver/server.key" {
		t.Errorf("Absolute key path changed: %q", cfg.KeyFile())
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if !cfg.Colors() {
		t.Error("Expected colors enabled by default")
	}
	if cfg.UseTLS() {
		t.Error("Expected TLS disabled by default")
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Expected metrics path /metrics, got %q", cfg.Metrics.Path)
	}
	if len(cfg.Telemetry.Profiling.ProfileTypes) == 0 {
		t.Error("Expected default profile types")
	}
}

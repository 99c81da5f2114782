package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences (e.g. \U -> Unicode escape), causing parse errors.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "warn"
server:
  port: 8443
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected normalized level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if !cfg.Logging.Colors {
		t.Error("Expected colors to default to true")
	}
	if cfg.Server.BindIP != DefaultBindIP {
		t.Errorf("Expected default bind ip %q, got %q", DefaultBindIP, cfg.Server.BindIP)
	}
	if cfg.Server.Port != 8443 {
		t.Errorf("Expected port 8443, got %d", cfg.Server.Port)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if !cfg.IsValid() {
		t.Errorf("Expected loaded config to be valid: %v", Validate(cfg))
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("Expected default port %d, got %d", DefaultPort, cfg.Server.Port)
	}
	if cfg.Background() {
		t.Error("Expected foreground by default")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid.yaml", `
logging:
  level: INFO
  invalid yaml here [[[
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_InvalidValuesAreNotRejected(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
server:
  port: 70000
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load should defer validation, got: %v", err)
	}
	if cfg.IsValid() {
		t.Error("Expected config with port 70000 to be invalid")
	}
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, "config.toml", `
background = true

[logging]
level = "ERROR"
format = "json"

[server]
bind_ip = "127.0.0.1"

[server.tls]
enabled = true
cert_file = "`+yamlSafePath(dir)+`/server.crt"
key_file = "`+yamlSafePath(dir)+`/server.key"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}

	if cfg.Logging.Format != "json" {
		t.Errorf("Expected json format, got %q", cfg.Logging.Format)
	}
	if !cfg.Background() {
		t.Error("Expected background mode")
	}
	if !cfg.UseTLS() {
		t.Error("Expected TLS enabled")
	}
	if cfg.CertFile() != filepath.Join(dir, "server.crt") {
		t.Errorf("Unexpected cert file %q", cfg.CertFile())
	}
}

func TestLoad_DurationStrings(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
shutdown_timeout: 5s
server:
  read_timeout: 2m
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected 5s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Server.ReadTimeout != 2*time.Minute {
		t.Errorf("Expected 2m, got %v", cfg.Server.ReadTimeout)
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("CCSERVER_SERVER_PORT", "9443")
	t.Setenv("CCSERVER_LOGGING_SYSLOG", "true")

	configPath := writeConfig(t, "config.yaml", `
server:
  port: 8443
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Port() != 9443 {
		t.Errorf("Expected env override port 9443, got %d", cfg.Port())
	}
	if !cfg.Syslog() {
		t.Error("Expected env override to enable syslog")
	}
}

func TestMustLoad_MissingExplicitFile(t *testing.T) {
	_, err := MustLoad(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing explicit config file")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Server.Port = 4455
	cfg.Logging.Level = "DEBUG"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	if loaded.Server.Port != 4455 || loaded.Logging.Level != "DEBUG" {
		t.Errorf("Saved values not preserved: port=%d level=%s", loaded.Server.Port, loaded.Logging.Level)
	}
}

func TestGetDefaultConfigPath_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	want := filepath.Join(dir, "ccserver", "config.yaml")
	if got := GetDefaultConfigPath(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	if DefaultConfigExists() {
		t.Error("Expected no default config in empty dir")
	}
}

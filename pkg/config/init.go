package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# CCServer Configuration File
#
# Every key can be overridden with an environment variable using the
# CCSERVER_ prefix, e.g. CCSERVER_SERVER_PORT=8443.

server:
  bind_ip: "0.0.0.0"
  port: 3344
  read_timeout: 10s
  write_timeout: 10s
  idle_timeout: 60s
  tls:
    enabled: false
    # Generated with a self-signed certificate when missing
    cert_file: ""
    key_file: ""

# Detach from the terminal after startup
background: false
# pid_file: /var/run/ccserver.pid

logging:
  level: "INFO"
  format: "text"
  colors: true
  syslog: false
  # file: /var/log/ccserver/ccserver.log
  max_size_mb: 100
  max_backups: 0
  max_age_days: 0

metrics:
  enabled: false
  path: /metrics

telemetry:
  enabled: false
  endpoint: "localhost:4317"
  insecure: true
  sample_rate: 1.0
  profiling:
    enabled: false
    endpoint: "http://localhost:4040"

shutdown_timeout: 30s
`

// InitConfig writes the sample configuration to the default location and
// returns its path. An existing file is only replaced when force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes the sample configuration to path.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

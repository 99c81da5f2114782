package commands

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/marmos91/ccserver/internal/cli/output"
	"github.com/marmos91/ccserver/internal/httpd"
	"github.com/marmos91/ccserver/internal/pidfile"
	"github.com/marmos91/ccserver/pkg/config"
	"github.com/spf13/cobra"
)

var (
	statusOutput  string
	statusPidFile string
	statusTimeout time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the current status of the CCServer server.

The PID file tells whether the process is alive and the health endpoint
tells whether it is serving. The endpoint address comes from the same
configuration 'ccserver start' uses.

Examples:
  # Check status
  ccserver status

  # Output as JSON
  ccserver status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/ccserver/ccserver.pid)")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 2*time.Second, "Health check timeout")
}

// ServerStatus represents the server status information.
type ServerStatus struct {
	Running   bool   `json:"running" yaml:"running"`
	PID       int    `json:"pid,omitempty" yaml:"pid,omitempty"`
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	Healthy   bool   `json:"healthy" yaml:"healthy"`
	StartedAt string `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Uptime    string `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	Message   string `json:"message" yaml:"message"`
}

// Headers and Rows render the status as a two-column table.
func (s ServerStatus) Headers() []string { return []string{"Field", "Value"} }

func (s ServerStatus) Rows() [][]string {
	state := "stopped"
	if s.Running {
		state = "running"
		if !s.Healthy {
			state = "running (unhealthy)"
		}
	}
	kv := output.KeyValues{{"Status", state}}
	if s.PID != 0 {
		kv = append(kv, [2]string{"PID", strconv.Itoa(s.PID)})
	}
	kv = append(kv, [2]string{"Endpoint", s.Endpoint})
	if s.StartedAt != "" {
		kv = append(kv, [2]string{"Started", s.StartedAt})
	}
	if s.Uptime != "" {
		kv = append(kv, [2]string{"Uptime", s.Uptime})
	}
	kv = append(kv, [2]string{"Message", s.Message})
	return kv.Rows()
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	pidPath := statusPidFile
	if pidPath == "" {
		pidPath = cfg.PIDFile
	}
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}

	status := ServerStatus{
		Endpoint: healthURL(cfg),
		Message:  "Server is not running",
	}
	if pid, running := pidfile.Running(pidPath); running {
		status.Running = true
		status.PID = pid
	}

	probeHealth(&status, cfg.UseTLS(), statusTimeout)

	return output.Print(cmd.OutOrStdout(), format, status)
}

// healthURL builds the health endpoint for the configured listener. A
// wildcard bind address is probed on loopback.
func healthURL(cfg *config.Config) string {
	host := cfg.BindIP()
	if ip := net.ParseIP(host); ip != nil && ip.IsUnspecified() {
		if ip.To4() != nil {
			host = "127.0.0.1"
		} else {
			host = "::1"
		}
	}
	scheme := "http"
	if cfg.UseTLS() {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/health", scheme, net.JoinHostPort(host, strconv.Itoa(cfg.Port())))
}

func probeHealth(status *ServerStatus, useTLS bool, timeout time.Duration) {
	client := &http.Client{Timeout: timeout}
	if useTLS {
		// The server usually runs on a self-signed certificate.
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		}
	}

	resp, err := client.Get(status.Endpoint)
	if err != nil {
		if status.Running {
			status.Message = "Server process exists but health check failed"
		}
		return
	}
	defer func() { _ = resp.Body.Close() }()

	status.Running = true

	var body struct {
		httpd.Response
		Data struct {
			StartedAt string `json:"started_at"`
			Uptime    string `json:"uptime"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		status.Message = "Server is running but health response invalid"
		return
	}

	status.Healthy = body.Status == "healthy"
	status.StartedAt = body.Data.StartedAt
	status.Uptime = body.Data.Uptime
	if status.Healthy {
		status.Message = "Server is running and healthy"
	} else {
		status.Message = fmt.Sprintf("Server is running but unhealthy: %s", body.Error)
	}
}

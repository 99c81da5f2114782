package commands

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marmos91/ccserver/pkg/config"
)

func TestHealthURL(t *testing.T) {
	tests := []struct {
		name   string
		bindIP string
		tls    bool
		want   string
	}{
		{"ipv4 wildcard", "0.0.0.0", false, "http://127.0.0.1:3344/health"},
		{"ipv6 wildcard", "::", false, "http://[::1]:3344/health"},
		{"explicit", "10.0.0.5", false, "http://10.0.0.5:3344/health"},
		{"tls", "127.0.0.1", true, "https://127.0.0.1:3344/health"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.GetDefaultConfig()
			cfg.Server.BindIP = tt.bindIP
			cfg.Server.Port = 3344
			cfg.Server.TLS.Enabled = tt.tls

			if got := healthURL(cfg); got != tt.want {
				t.Errorf("healthURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProbeHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "healthy",
			"data": map[string]any{
				"started_at": "2026-01-02T15:04:05Z",
				"uptime":     "1m0s",
			},
		})
	}))
	defer srv.Close()

	status := ServerStatus{Endpoint: srv.URL + "/health"}
	probeHealth(&status, false, time.Second)

	if !status.Running || !status.Healthy {
		t.Fatalf("status = %+v, want running and healthy", status)
	}
	if status.Uptime != "1m0s" {
		t.Errorf("Uptime = %q, want 1m0s", status.Uptime)
	}
	if status.StartedAt != "2026-01-02T15:04:05Z" {
		t.Errorf("StartedAt = %q", status.StartedAt)
	}
}

func TestProbeHealth_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/health"
	srv.Close()

	status := ServerStatus{Endpoint: url, Running: true, PID: 1234, Message: "Server is not running"}
	probeHealth(&status, false, 200*time.Millisecond)

	if status.Healthy {
		t.Error("closed server reported healthy")
	}
	if status.Message != "Server process exists but health check failed" {
		t.Errorf("Message = %q", status.Message)
	}
}

func TestServerStatusRows(t *testing.T) {
	rows := ServerStatus{Running: true, PID: 42, Endpoint: "http://127.0.0.1:3344/health", Message: "ok"}.Rows()
	if rows[0][0] != "Status" || rows[0][1] != "running (unhealthy)" {
		t.Errorf("first row = %v", rows[0])
	}
	if rows[1][0] != "PID" || rows[1][1] != "42" {
		t.Errorf("second row = %v", rows[1])
	}
}

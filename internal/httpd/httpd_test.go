package httpd

import (
	"crypto/tls"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ccserver/internal/eventloop"
	"github.com/marmos91/ccserver/internal/tlsgen"
	"github.com/marmos91/ccserver/pkg/config"
)

func testConfig() *config.Config {
	cfg := config.GetDefaultConfig()
	cfg.Server.BindIP = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.ShutdownTimeout = 2 * time.Second
	return cfg
}

func runningLoop(t *testing.T) *eventloop.Loop {
	t.Helper()
	loop := eventloop.New()
	eventloop.StartThread(loop)
	t.Cleanup(loop.Stop)
	return loop
}

// startServer runs Start in the background and waits until it listens.
func startServer(t *testing.T, h *Httpd) <-chan int {
	t.Helper()
	result := make(chan int, 1)
	go func() { result <- h.Start() }()

	select {
	case <-h.Ready():
	case code := <-result:
		t.Fatalf("Start returned %d before listening", code)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}
	return result
}

func waitResult(t *testing.T, result <-chan int) int {
	t.Helper()
	select {
	case code := <-result:
		return code
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return")
		return 0
	}
}

func getJSON(t *testing.T, client *http.Client, url string) (int, Response) {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestStart_StopReturnsZero(t *testing.T) {
	h := New(testConfig(), runningLoop(t))
	result := startServer(t, h)

	require.NotNil(t, h.Addr())
	h.Stop()

	assert.Equal(t, 0, waitResult(t, result))
}

func TestStop_BeforeStart(t *testing.T) {
	h := New(testConfig(), runningLoop(t))
	h.Stop()
	h.Stop()

	assert.Equal(t, 0, h.Start())
	assert.Nil(t, h.Addr())
}

func TestStop_Concurrent(t *testing.T) {
	h := New(testConfig(), runningLoop(t))
	result := startServer(t, h)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Stop()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, waitResult(t, result))
}

func TestStart_Twice(t *testing.T) {
	h := New(testConfig(), runningLoop(t))
	h.Stop()
	require.Equal(t, 0, h.Start())

	assert.Negative(t, h.Start())
}

func TestStart_MalformedConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad bind ip", func(c *config.Config) { c.Server.BindIP = "not-an-ip" }},
		{"port out of range", func(c *config.Config) { c.Server.Port = 70000 }},
		{"negative port", func(c *config.Config) { c.Server.Port = -1 }},
		{"missing certificate", func(c *config.Config) {
			c.Server.TLS.Enabled = true
			c.Server.TLS.CertFile = filepath.Join(t.TempDir(), "missing.crt")
			c.Server.TLS.KeyFile = filepath.Join(t.TempDir(), "missing.key")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			code := New(cfg, runningLoop(t)).Start()
			assert.Equal(t, -int(syscall.EINVAL), code)
		})
	}
}

func TestStart_AddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig()
	cfg.Server.Port = ln.Addr().(*net.TCPAddr).Port

	code := New(cfg, runningLoop(t)).Start()
	assert.Equal(t, int(syscall.EADDRINUSE), code)
	assert.Positive(t, code)
}

func TestRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = true
	h := New(cfg, runningLoop(t))
	result := startServer(t, h)
	defer func() {
		h.Stop()
		waitResult(t, result)
	}()

	base := "http://" + h.Addr().String()
	client := &http.Client{Timeout: 5 * time.Second}

	t.Run("Liveness", func(t *testing.T) {
		status, body := getJSON(t, client, base+"/health")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "healthy", body.Status)
	})

	t.Run("Readiness", func(t *testing.T) {
		status, body := getJSON(t, client, base+"/health/ready")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "healthy", body.Status)
	})

	t.Run("StatusCountsConnections", func(t *testing.T) {
		status, body := getJSON(t, client, base+"/api/v1/status")
		require.Equal(t, http.StatusOK, status)

		data, ok := body.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, h.Addr().String(), data["address"])

		stats, ok := data["stats"].(map[string]interface{})
		require.True(t, ok)
		assert.GreaterOrEqual(t, stats["connections_accepted"], float64(1))
	})

	t.Run("Metrics", func(t *testing.T) {
		resp, err := client.Get(base + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(raw), "ccserver_up 1")
		assert.Contains(t, string(raw), "ccserver_http_requests_total")
	})

	t.Run("RootRedirects", func(t *testing.T) {
		noFollow := &http.Client{
			Timeout:       5 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		}
		resp, err := noFollow.Get(base + "/")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	})
}

func TestMetricsDisabled(t *testing.T) {
	h := New(testConfig(), runningLoop(t))
	result := startServer(t, h)
	defer func() {
		h.Stop()
		waitResult(t, result)
	}()

	resp, err := http.Get("http://" + h.Addr().String() + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatus_LoopStopped(t *testing.T) {
	loop := eventloop.New()
	eventloop.StartThread(loop)

	h := New(testConfig(), loop)
	result := startServer(t, h)
	defer func() {
		h.Stop()
		waitResult(t, result)
	}()

	loop.Stop()
	<-loop.Done()

	status, body := getJSON(t, http.DefaultClient, "http://"+h.Addr().String()+"/api/v1/status")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unhealthy", body.Status)
}

func TestTLS(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.Server.TLS.Enabled = true
	cfg.Server.TLS.CertFile = filepath.Join(dir, "server.crt")
	cfg.Server.TLS.KeyFile = filepath.Join(dir, "server.key")
	require.NoError(t, tlsgen.New(cfg.CertFile(), cfg.KeyFile()).Generate("CCServer Server"))

	h := New(cfg, runningLoop(t))
	result := startServer(t, h)
	defer func() {
		h.Stop()
		waitResult(t, result)
	}()

	client := &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	status, _ := getJSON(t, client, "https://"+h.Addr().String()+"/health")
	assert.Equal(t, http.StatusOK, status)
}

func TestListenAddress(t *testing.T) {
	addr, err := listenAddress("::1", 3344)
	require.NoError(t, err)
	assert.Equal(t, "[::1]:3344", addr)

	addr, err = listenAddress("0.0.0.0", 0)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:"+strconv.Itoa(0), addr)

	_, err = listenAddress("localhost", 80)
	assert.Error(t, err)
}

func TestBindErrno(t *testing.T) {
	assert.Equal(t, int(syscall.EACCES), bindErrno(&net.OpError{Op: "listen", Err: syscall.EACCES}))
	assert.Equal(t, int(syscall.EIO), bindErrno(io.EOF))
}

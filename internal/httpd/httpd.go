// Package httpd is the listening service: an HTTP(S) server whose Start
// blocks until Stop and reports the outcome as an errno-style code.
package httpd

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marmos91/ccserver/internal/eventloop"
	"github.com/marmos91/ccserver/internal/logger"
	"github.com/marmos91/ccserver/pkg/config"
)

// Httpd serves the status API on the configured address.
//
// Start returns:
//   - 0 after a clean Stop
//   - a positive errno when the address cannot be bound
//   - a negative errno when the address or certificate configuration is
//     malformed
type Httpd struct {
	cfg     *config.Config
	loop    *eventloop.Loop
	metrics *Metrics
	stats   *connStats

	stopOnce sync.Once
	stopCh   chan struct{}
	ready    chan struct{}
	started  bool

	mu   sync.Mutex
	addr net.Addr
}

// New creates a stopped listener. The loop receives connection bookkeeping;
// it must be running for /api/v1/status to answer.
func New(cfg *config.Config, loop *eventloop.Loop) *Httpd {
	h := &Httpd{
		cfg:    cfg,
		loop:   loop,
		stats:  &connStats{},
		stopCh: make(chan struct{}),
		ready:  make(chan struct{}),
	}
	if cfg.Metrics.Enabled {
		h.metrics = NewMetrics()
	}
	return h
}

// Start binds and serves until Stop is called. It may be called once.
func (h *Httpd) Start() int {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return -int(syscall.EALREADY)
	}
	h.started = true
	h.mu.Unlock()

	address, err := listenAddress(h.cfg.BindIP(), h.cfg.Port())
	if err != nil {
		logger.Debug("Rejected listen address", "error", err)
		return -int(syscall.EINVAL)
	}

	var tlsConfig *tls.Config
	if h.cfg.UseTLS() {
		pair, err := tls.LoadX509KeyPair(h.cfg.CertFile(), h.cfg.KeyFile())
		if err != nil {
			logger.Debug("Cannot load certificate pair", "error", err)
			return -int(syscall.EINVAL)
		}
		tlsConfig = &tls.Config{
			Certificates: []tls.Certificate{pair},
			MinVersion:   tls.VersionTLS12,
		}
	}

	select {
	case <-h.stopCh:
		return 0
	default:
	}

	ln, err := net.Listen("tcp", address)
	if err != nil {
		logger.Debug("Cannot bind", "address", address, "error", err)
		return bindErrno(err)
	}
	if tlsConfig != nil {
		ln = tls.NewListener(ln, tlsConfig)
	}

	h.mu.Lock()
	h.addr = ln.Addr()
	h.mu.Unlock()

	srv := &http.Server{
		Handler:      newRouter(h),
		ReadTimeout:  h.cfg.Server.ReadTimeout,
		WriteTimeout: h.cfg.Server.WriteTimeout,
		IdleTimeout:  h.cfg.Server.IdleTimeout,
		ConnState:    h.trackConn,
	}

	logger.Info("Server listening", "address", ln.Addr().String(), "tls", h.cfg.UseTLS())
	h.metrics.setUp(true)
	close(h.ready)

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-h.stopCh:
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Server shutdown did not complete", "error", err)
			_ = srv.Close()
		}
		return nil
	})

	err = g.Wait()
	h.metrics.setUp(false)
	if err != nil {
		logger.Error("Server failed", "error", err)
		return int(syscall.EIO)
	}
	return 0
}

// Stop makes Start return. It does not wait and may be called at any time,
// any number of times, including before Start.
func (h *Httpd) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

// Addr returns the bound address, or nil before the listener is up.
func (h *Httpd) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addr
}

// Ready is closed once the listener accepts connections.
func (h *Httpd) Ready() <-chan struct{} { return h.ready }

func (h *Httpd) shutdownTimeout() time.Duration {
	if h.cfg.ShutdownTimeout > 0 {
		return h.cfg.ShutdownTimeout
	}
	return 5 * time.Second
}

// listenAddress validates the bind IP and port. Port 0 asks the kernel for
// an ephemeral port.
func listenAddress(bindIP string, port int) (string, error) {
	ip := net.ParseIP(bindIP)
	if ip == nil {
		return "", fmt.Errorf("invalid bind ip %q", bindIP)
	}
	if port < 0 || port > 65535 {
		return "", fmt.Errorf("invalid port %d", port)
	}
	return net.JoinHostPort(ip.String(), strconv.Itoa(port)), nil
}

// bindErrno maps a listen failure to a positive errno.
func bindErrno(err error) int {
	for _, errno := range []syscall.Errno{
		syscall.EADDRINUSE,
		syscall.EADDRNOTAVAIL,
		syscall.EACCES,
	} {
		if errors.Is(err, errno) {
			return int(errno)
		}
	}
	return int(syscall.EIO)
}

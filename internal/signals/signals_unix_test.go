//go:build !windows

package signals

import (
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	got  []os.Signal
	seen chan struct{}
}

func newRecorder() *recorder {
	return &recorder{seen: make(chan struct{}, 16)}
}

func (r *recorder) OnSignal(sig os.Signal) {
	r.mu.Lock()
	r.got = append(r.got, sig)
	r.mu.Unlock()
	r.seen <- struct{}{}
}

func (r *recorder) signals() []os.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]os.Signal(nil), r.got...)
}

func TestBridge_ForwardsSignal(t *testing.T) {
	// SIGUSR1 keeps the test runner alive should the subscription fail.
	rec := newRecorder()
	b := install(rec, syscall.SIGUSR1)
	defer b.Close()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))

	select {
	case <-rec.seen:
	case <-time.After(5 * time.Second):
		t.Fatal("signal not forwarded")
	}
	assert.Equal(t, []os.Signal{syscall.SIGUSR1}, rec.signals())
}

func TestBridge_CloseIsIdempotent(t *testing.T) {
	b := install(newRecorder(), syscall.SIGUSR2)

	b.Close()
	b.Close()

	select {
	case <-b.done:
	default:
		t.Fatal("forwarding goroutine still running after Close")
	}
}

func TestBridge_SinkFunc(t *testing.T) {
	got := make(chan os.Signal, 1)
	b := install(SinkFunc(func(s os.Signal) { got <- s }), syscall.SIGUSR1)
	defer b.Close()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))

	select {
	case s := <-got:
		assert.Equal(t, syscall.SIGUSR1, s)
	case <-time.After(5 * time.Second):
		t.Fatal("signal not forwarded")
	}
}

func TestTermination(t *testing.T) {
	assert.True(t, IsTermination(syscall.SIGHUP))
	assert.True(t, IsTermination(syscall.SIGTERM))
	assert.True(t, IsTermination(syscall.SIGINT))
	assert.False(t, IsTermination(syscall.SIGUSR1))
}

func TestName(t *testing.T) {
	assert.Equal(t, "SIGHUP", Name(syscall.SIGHUP))
	assert.Equal(t, "SIGTERM", Name(syscall.SIGTERM))
	assert.Equal(t, "SIGINT", Name(syscall.SIGINT))
	assert.Equal(t, syscall.SIGUSR1.String(), Name(syscall.SIGUSR1))
}

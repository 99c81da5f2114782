// Package eventloop provides the single callback loop the listening service
// hands its completions to. All state mutated from posted callbacks is owned
// by the loop goroutine and needs no further locking.
package eventloop

import (
	"sync"
	"sync/atomic"

	"github.com/marmos91/ccserver/internal/logger"
)

// Loop is a FIFO of callbacks drained by one goroutine.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	stopped bool
	closed  atomic.Bool
	running atomic.Bool
}

// New creates a loop. It does nothing until Run is called.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Post queues fn to run on the loop goroutine. It returns false once the
// loop has been stopped; fn is then dropped.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}

	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run drains callbacks until Stop is called, then runs whatever was queued
// before the stop and closes the loop. Run may be called once; later calls
// return immediately.
func (l *Loop) Run() {
	if !l.running.CompareAndSwap(false, true) {
		return
	}
	defer l.close()

	for {
		select {
		case <-l.wake:
			l.drain()
		case <-l.stop:
			l.drain()
			return
		}
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			l.invoke(fn)
		}
	}
}

// invoke keeps one panicking callback from taking down the loop.
func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Event loop callback panicked", "panic", r)
		}
	}()
	fn()
}

// Stop asks the loop to exit. Safe to call from any goroutine, any number
// of times, before or after Run.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	close(l.stop)
}

// Done is closed once the loop has exited and released its resources.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Closed reports whether the loop has exited.
func (l *Loop) Closed() bool { return l.closed.Load() }

func (l *Loop) close() {
	l.mu.Lock()
	l.stopped = true
	l.queue = nil
	l.mu.Unlock()

	l.closed.Store(true)
	close(l.done)
}

// StartThread runs the loop on its own goroutine. The caller never joins
// it; it ends when the loop is stopped.
func StartThread(l *Loop) {
	go func() {
		logger.Debug("Event loop started")
		l.Run()
		logger.Debug("Event loop closed")
	}()
}

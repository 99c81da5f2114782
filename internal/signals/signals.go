// Package signals forwards process termination signals to a single
// consumer.
package signals

import (
	"os"
	"os/signal"
	"sync"
)

// Sink receives every delivered signal.
type Sink interface {
	OnSignal(sig os.Signal)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(os.Signal)

func (f SinkFunc) OnSignal(sig os.Signal) { f(sig) }

// Bridge owns the subscription and the goroutine delivering to the sink.
type Bridge struct {
	ch        chan os.Signal
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Install subscribes to the platform's termination signals and starts
// forwarding them to sink. Signals are delivered one at a time, in order.
func Install(sink Sink) *Bridge {
	return install(sink, Termination()...)
}

func install(sink Sink, sigs ...os.Signal) *Bridge {
	b := &Bridge{
		ch:   make(chan os.Signal, 4),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	signal.Notify(b.ch, sigs...)

	go b.run(sink)
	return b
}

func (b *Bridge) run(sink Sink) {
	defer close(b.done)
	for {
		select {
		case sig := <-b.ch:
			sink.OnSignal(sig)
		case <-b.quit:
			return
		}
	}
}

// Close unsubscribes and waits for the forwarding goroutine to exit.
// It is idempotent. Close must not be called from within the sink.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		signal.Stop(b.ch)
		close(b.quit)
		<-b.done
	})
}

// IsTermination reports whether sig is one the bridge subscribes to.
func IsTermination(sig os.Signal) bool {
	for _, s := range Termination() {
		if s == sig {
			return true
		}
	}
	return false
}

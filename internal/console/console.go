// Package console delivers single keystrokes typed on the controlling
// terminal to a command handler.
package console

import (
	"bytes"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/term"
)

// Keys understood by the server.
const (
	KeyQuit      byte = 'q'
	KeyQuitUpper byte = 'Q'
	KeyCtrlC     byte = 0x03
)

// Sink receives one call per byte read from the console.
type Sink interface {
	OnConsoleCommand(key byte)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(byte)

func (f SinkFunc) OnConsoleCommand(key byte) { f(key) }

// Console reads keystrokes on its own goroutine.
//
// A blocked read on a terminal cannot be interrupted, so after Close the
// reader goroutine may linger until the next keystroke or EOF; it no longer
// forwards anything.
type Console struct {
	in      io.Reader
	fd      int
	state   *term.State
	sink    Sink
	closed  atomic.Bool
	once    sync.Once
	done    chan struct{}
	restore func(fd int, state *term.State) error
}

// New attaches to in. When in is a terminal it is put in raw mode so each
// key press is delivered immediately, including Ctrl+C as 0x03.
func New(in *os.File, sink Sink) (*Console, error) {
	c := newConsole(in, sink)

	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, err
		}
		c.fd = fd
		c.state = state
	}

	go c.read()
	return c, nil
}

// NewFromReader reads commands from any reader without touching terminal
// modes.
func NewFromReader(in io.Reader, sink Sink) *Console {
	c := newConsole(in, sink)
	go c.read()
	return c
}

func newConsole(in io.Reader, sink Sink) *Console {
	return &Console{
		in:      in,
		fd:      -1,
		sink:    sink,
		done:    make(chan struct{}),
		restore: term.Restore,
	}
}

// IsRaw reports whether the console switched a terminal to raw mode.
func (c *Console) IsRaw() bool { return c.state != nil }

func (c *Console) read() {
	defer close(c.done)

	buf := make([]byte, 64)
	for {
		n, err := c.in.Read(buf)
		for _, b := range buf[:n] {
			if c.closed.Load() {
				return
			}
			c.sink.OnConsoleCommand(b)
		}
		if err != nil || c.closed.Load() {
			return
		}
	}
}

// Close stops forwarding and restores the terminal mode. Idempotent.
func (c *Console) Close() error {
	var err error
	c.once.Do(func() {
		c.closed.Store(true)
		if c.state != nil {
			err = c.restore(c.fd, c.state)
		}
	})
	return err
}

// Done is closed when the reader goroutine has exited.
func (c *Console) Done() <-chan struct{} { return c.done }

// Output wraps w so that line feeds are written as CR LF. A terminal in raw
// mode does not return the carriage on its own.
func Output(w io.Writer) io.Writer {
	return &crlfWriter{w: w}
}

type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	if bytes.IndexByte(p, '\n') < 0 {
		return c.w.Write(p)
	}
	out := bytes.ReplaceAll(bytes.ReplaceAll(p, []byte("\r\n"), []byte("\n")), []byte("\n"), []byte("\r\n"))
	if _, err := c.w.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Fd exposes the wrapped file descriptor so terminal detection still works.
func (c *crlfWriter) Fd() uintptr {
	if f, ok := c.w.(interface{ Fd() uintptr }); ok {
		return f.Fd()
	}
	return ^uintptr(0)
}

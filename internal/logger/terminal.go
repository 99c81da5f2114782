package logger

import (
	"io"

	"golang.org/x/term"
)

// fdWriter is implemented by *os.File and by wrappers around it.
type fdWriter interface {
	Fd() uintptr
}

// isTerminalWriter reports whether w writes to a terminal.
func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(fdWriter)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

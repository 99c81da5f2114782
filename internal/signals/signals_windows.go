//go:build windows

package signals

import (
	"os"
	"syscall"
)

// Termination returns the signals that stop the server on Windows. The Go
// runtime delivers os.Interrupt for Ctrl+C and Ctrl+Break, and SIGTERM for
// console close, logoff and shutdown.
func Termination() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}

// Name returns the conventional name of sig.
func Name(sig os.Signal) string {
	switch sig {
	case os.Interrupt:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return sig.String()
}

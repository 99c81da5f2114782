//go:build !windows

package signals

import (
	"os"
	"syscall"
)

// Termination returns the signals that stop the server: SIGHUP, SIGTERM
// and SIGINT.
func Termination() []os.Signal {
	return []os.Signal{syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT}
}

// Name returns the conventional name of sig, e.g. "SIGTERM".
func Name(sig os.Signal) string {
	switch sig {
	case syscall.SIGHUP:
		return "SIGHUP"
	case syscall.SIGTERM:
		return "SIGTERM"
	case syscall.SIGINT:
		return "SIGINT"
	}
	return sig.String()
}

// Package daemon detaches the running server from its controlling terminal.
package daemon

import "os"

// EnvChild marks the re-executed background copy of the process.
const EnvChild = "CCSERVER_DAEMON_CHILD"

// Daemonizer moves the current process to the background.
type Daemonizer interface {
	Detach() error
}

// IsChild reports whether this process is the detached copy started by
// Detach.
func IsChild() bool {
	return os.Getenv(EnvChild) == "1"
}

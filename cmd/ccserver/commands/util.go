package commands

import (
	"os"
	"path/filepath"
)

// GetDefaultStateDir returns the default state directory path.
func GetDefaultStateDir() string {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "ccserver")
		}
		stateDir = filepath.Join(homeDir, ".local", "state")
	}
	return filepath.Join(stateDir, "ccserver")
}

// GetDefaultPidFile returns the default PID file path.
func GetDefaultPidFile() string {
	return filepath.Join(GetDefaultStateDir(), "ccserver.pid")
}

// GetDefaultLogFile returns the log file used in the background when no
// other destination is configured.
func GetDefaultLogFile() string {
	return filepath.Join(GetDefaultStateDir(), "ccserver.log")
}

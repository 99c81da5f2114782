package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/marmos91/ccserver/internal/pidfile"
	"github.com/spf13/cobra"
)

var (
	stopPidFile string
	stopForce   bool
)

var errProcessDone = errors.New("process already exited")

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the CCServer server",
	Long: `Stop a running CCServer server.

By default, sends SIGTERM for graceful shutdown. Use --force for immediate
termination.

Examples:
  # Stop server (uses default PID file)
  ccserver stop

  # Stop server using custom PID file
  ccserver stop --pid-file /var/run/ccserver.pid

  # Force stop
  ccserver stop --force`,
	RunE: runStop,
}

func init() {
	stopCmd.Flags().StringVar(&stopPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/ccserver/ccserver.pid)")
	stopCmd.Flags().BoolVarP(&stopForce, "force", "f", false, "Kill the process instead of asking it to shut down")
}

func runStop(cmd *cobra.Command, args []string) error {
	pidPath := stopPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}

	pid, err := pidfile.Read(pidPath)
	if err != nil {
		if errors.Is(err, pidfile.ErrNotFound) {
			return fmt.Errorf("%w\n\nIs the server running?", err)
		}
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}

	out := cmd.OutOrStdout()
	if err := stopProcess(out, process, pid, stopForce); err != nil {
		if errors.Is(err, errProcessDone) {
			fmt.Fprintln(out, "Server already stopped")
			_ = pidfile.Remove(pidPath)
			return nil
		}
		return err
	}

	if stopForce {
		_ = pidfile.Remove(pidPath)
		fmt.Fprintln(out, "Server terminated")
	} else {
		fmt.Fprintln(out, "Shutdown signal sent. Server will stop gracefully.")
	}
	return nil
}

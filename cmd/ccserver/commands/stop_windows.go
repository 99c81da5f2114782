//go:build windows

package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// stopProcess interrupts the server, or kills it when forced.
func stopProcess(out io.Writer, process *os.Process, pid int, force bool) error {
	var err error
	if force {
		fmt.Fprintf(out, "Killing process %d...\n", pid)
		err = process.Kill()
	} else {
		fmt.Fprintf(out, "Sending interrupt to process %d...\n", pid)
		err = process.Signal(os.Interrupt)
	}

	if errors.Is(err, os.ErrProcessDone) {
		return errProcessDone
	}
	if err != nil {
		return fmt.Errorf("failed to stop process: %w", err)
	}
	return nil
}

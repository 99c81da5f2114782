//go:build !windows

package daemon

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/marmos91/ccserver/internal/logger"
	"golang.org/x/sys/unix"
)

// Daemon detaches by re-executing the binary with the same arguments.
//
// The Go runtime is multi-threaded before main runs, so fork without exec
// is not an option. The parent starts the copy and exits; the copy sees
// EnvChild, starts a new session and moves to the filesystem root.
type Daemon struct {
	exit    func(code int)
	isChild func() bool
	spawn   func() error
	setsid  func() (int, error)
	chdir   func(dir string) error
}

// New returns a Daemon that terminates the parent with exit.
// A nil exit means os.Exit.
func New(exit func(code int)) *Daemon {
	if exit == nil {
		exit = os.Exit
	}
	return &Daemon{
		exit:    exit,
		isChild: IsChild,
		spawn:   spawnChild,
		setsid:  unix.Setsid,
		chdir:   os.Chdir,
	}
}

// Detach never returns in the parent unless exit was replaced.
// In the child it always returns nil: losing the session or directory
// change degrades the daemon but does not stop it.
func (d *Daemon) Detach() error {
	if d.isChild() {
		d.detachChild()
		return nil
	}

	if err := d.spawn(); err != nil {
		logger.Error("Failed to move to background", "error", err)
		d.exit(1)
		return err
	}

	d.exit(0)
	return nil
}

func (d *Daemon) detachChild() {
	if _, err := d.setsid(); err != nil {
		logger.Warn("Failed to create a new session", "error", err)
	}
	if err := d.chdir("/"); err != nil {
		logger.Warn("Failed to change directory to /", "error", err)
	}
}

// spawnChild starts the background copy with stdio bound to the null device.
func spawnChild() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Env = append(os.Environ(), EnvChild+"=1")

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start background process: %w", err)
	}
	return cmd.Process.Release()
}

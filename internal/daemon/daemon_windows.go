//go:build windows

package daemon

import (
	"golang.org/x/sys/windows"
)

var (
	kernel32             = windows.NewLazySystemDLL("kernel32.dll")
	user32               = windows.NewLazySystemDLL("user32.dll")
	procGetConsoleWindow = kernel32.NewProc("GetConsoleWindow")
	procFreeConsole      = kernel32.NewProc("FreeConsole")
	procShowWindow       = user32.NewProc("ShowWindow")
)

const swHide = 0

// Daemon hides the console window, or detaches from the console when there
// is no window to hide. The process keeps running in place.
type Daemon struct {
	consoleWindow func() uintptr
	hideWindow    func(hwnd uintptr)
	releaseStdout func()
}

// New returns a Daemon. exit is unused on Windows: nothing is duplicated,
// so there is no parent to terminate.
func New(exit func(code int)) *Daemon {
	return &Daemon{
		consoleWindow: getConsoleWindow,
		hideWindow:    showWindowHidden,
		releaseStdout: freeStdout,
	}
}

// Detach is best effort and always returns nil.
func (d *Daemon) Detach() error {
	if hwnd := d.consoleWindow(); hwnd != 0 {
		d.hideWindow(hwnd)
		return nil
	}
	d.releaseStdout()
	return nil
}

func getConsoleWindow() uintptr {
	hwnd, _, _ := procGetConsoleWindow.Call()
	return hwnd
}

func showWindowHidden(hwnd uintptr) {
	_, _, _ = procShowWindow.Call(hwnd, swHide)
}

func freeStdout() {
	if h, err := windows.GetStdHandle(windows.STD_OUTPUT_HANDLE); err == nil {
		_ = windows.CloseHandle(h)
	}
	_, _, _ = procFreeConsole.Call()
}

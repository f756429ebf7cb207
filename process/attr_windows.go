//go:build windows

package process

import (
	"os/exec"
	"syscall"
)

// hideWindow keeps the encoder from opening a console window.
func hideWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
}

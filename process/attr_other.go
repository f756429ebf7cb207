//go:build !windows

package process

import "os/exec"

// hideWindow is a no-op outside Windows; processes have no window to hide.
func hideWindow(_ *exec.Cmd) {}

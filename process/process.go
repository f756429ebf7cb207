// Package process supervises external encoder invocations.
//
// The supervisor starts the encoder binary windowless, exposes liveness and
// exit code, and can be awaited on shutdown. It does not parse the
// encoder's diagnostic output.
package process

import (
	"fmt"
	"os/exec"
)

// Process is a handle to a running (or exited) encoder invocation.
type Process struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
}

// Start spawns the binary with the given arguments. Spawning failure
// (binary missing, bad path) surfaces immediately.
func Start(bin string, args []string) (*Process, error) {
	cmd := exec.Command(bin, args...)
	hideWindow(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", bin, err)
	}

	p := &Process{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// Exited reports whether the process has terminated.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// ExitCode returns the process exit code, or -1 while it is still running.
func (p *Process) ExitCode() int {
	if !p.Exited() {
		return -1
	}
	return p.cmd.ProcessState.ExitCode()
}

// Wait blocks until the process exits and returns its exit error, if any.
// Safe to call after the process has already exited, and safe to call from
// multiple goroutines.
func (p *Process) Wait() error {
	<-p.done
	return p.waitErr
}

//go:build !windows

package conduit

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// New creates the FIFO node at path. The node must not already exist; each
// conduit is a single-use resource.
func New(path string) (*Pipe, error) {
	if err := unix.Mkfifo(path, 0o600); err != nil {
		return nil, fmt.Errorf("conduit: failed to create fifo %s: %w", path, err)
	}
	return &Pipe{path: path, state: StateCreated}, nil
}

// openWriter opens the write end of the FIFO, polling with a non-blocking
// open until a reader attaches or the deadline passes. Opening a FIFO for
// writing with O_NONBLOCK fails with ENXIO while no reader has it open,
// which is what makes the bounded wait possible without spare goroutines.
func openWriter(path string, timeout time.Duration) (*os.File, error) {
	deadline := time.Now().Add(timeout)

	for {
		fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK, 0)
		if err == nil {
			// Switch back to blocking mode so writes wait for the
			// consumer instead of failing with EAGAIN on a full pipe.
			if err := unix.SetNonblock(fd, false); err != nil {
				unix.Close(fd)
				return nil, fmt.Errorf("conduit: failed to set blocking mode: %w", err)
			}
			return os.NewFile(uintptr(fd), path), nil
		}
		if err != unix.ENXIO {
			return nil, fmt.Errorf("conduit: failed to open %s for writing: %w", path, err)
		}
		if !time.Now().Before(deadline) {
			return nil, ErrNoConsumer
		}
		time.Sleep(connectPollInterval)
	}
}
